package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/waterprint/waterprint/internal/cache"
	"github.com/waterprint/waterprint/internal/config"
	"github.com/waterprint/waterprint/internal/database"
	"github.com/waterprint/waterprint/internal/footprint"
	"github.com/waterprint/waterprint/internal/gravatar"
	"github.com/waterprint/waterprint/internal/notify/email"
	"github.com/waterprint/waterprint/internal/report"
	"github.com/waterprint/waterprint/internal/scheduler"
)

// ErrEmailDisabled is returned when a report is mailed while email is not configured.
var ErrEmailDisabled = email.ErrDisabled

// Mailer sends rendered reports to users.
type Mailer interface {
	Enabled() bool
	SendReport(ctx context.Context, msg email.ReportMessage) error
}

// Engine is the main engine for waterprint. It owns the store, the catalog cache,
// the aggregator and the exporters, and runs the periodic footprint recompute.
type Engine struct {
	cfg        *config.Config
	db         database.DB
	catalog    *cache.CatalogCache
	aggregator *footprint.Aggregator
	renderer   *report.Renderer
	mailer     Mailer
	scheduler  *scheduler.Scheduler
}

// Option customizes an Engine.
type Option func(*Engine)

// WithMailer replaces the SMTP mailer.
func WithMailer(m Mailer) Option {
	return func(e *Engine) {
		e.mailer = m
	}
}

// New creates a new Engine instance.
func New(cfg *config.Config, db database.DB, opts ...Option) (*Engine, error) {
	if cfg == nil {
		return nil, errors.New("missing config")
	}
	if err := gravatar.Validate(cfg.Gravatar); err != nil {
		return nil, fmt.Errorf("invalid gravatar config: %w", err)
	}

	sched, err := scheduler.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	width, height := cfg.GetChartSize()

	engine := &Engine{
		cfg:        cfg,
		db:         db,
		catalog:    cache.NewCatalogCache(cfg.Cache),
		aggregator: footprint.New(db),
		renderer:   report.NewRenderer(width, height),
		mailer:     email.New(cfg.Email),
		scheduler:  sched,
	}
	for _, opt := range opts {
		opt(engine)
	}

	// Setup scheduled jobs
	if err := engine.setupJobs(); err != nil {
		return nil, fmt.Errorf("failed to setup jobs: %w", err)
	}

	return engine, nil
}

// Seed inserts the configured catalog if it is missing and drops the cached category list.
func (e *Engine) Seed(ctx context.Context) error {
	categories := database.CategoriesFromCatalog(e.cfg.CatalogEntries())
	if err := e.db.SeedCategories(ctx, categories); err != nil {
		return fmt.Errorf("failed to seed categories: %w", err)
	}
	if err := e.catalog.Invalidate(ctx); err != nil {
		log.Warn("failed to invalidate catalog cache", "error", err)
	}
	log.Info("Category catalog seeded", "categories", len(categories))
	return nil
}

// ListCategories returns the catalog ordered by id.
func (e *Engine) ListCategories(ctx context.Context) ([]database.Category, error) {
	return e.catalog.Load(ctx, e.db)
}

// RegisterUser creates a user with an empty footprint.
func (e *Engine) RegisterUser(ctx context.Context, name, emailAddr string) (*database.User, error) {
	name = strings.TrimSpace(name)
	emailAddr = strings.TrimSpace(emailAddr)
	if name == "" {
		return nil, fmt.Errorf("name is required: %w", database.ErrInvalidArgument)
	}
	if emailAddr == "" {
		return nil, fmt.Errorf("email is required: %w", database.ErrInvalidArgument)
	}

	user, err := e.db.CreateUser(ctx, name, emailAddr)
	if err != nil {
		return nil, err
	}
	log.Info("User registered", "id", user.ID)
	return user, nil
}

// GetUser returns a registered user.
func (e *Engine) GetUser(ctx context.Context, userID uint) (*database.User, error) {
	return e.db.GetUser(ctx, userID)
}

// RecordEntry stores a consumption amount for a user.
func (e *Engine) RecordEntry(ctx context.Context, userID, categoryID uint, amount float64) (*database.UserEntry, error) {
	entry, err := e.db.RecordEntry(ctx, userID, categoryID, amount)
	if err != nil {
		return nil, err
	}
	log.Debug("Entry recorded", "user", userID, "category", categoryID, "amount", amount)
	return entry, nil
}

// GetBreakdown returns one row per entry of the user.
func (e *Engine) GetBreakdown(ctx context.Context, userID uint) ([]footprint.Row, error) {
	return e.aggregator.ComputeBreakdown(ctx, userID)
}

// GetTotalFootprint returns the live total and refreshes the user's cached footprint.
func (e *Engine) GetTotalFootprint(ctx context.Context, userID uint) (float64, error) {
	return e.aggregator.RecomputeAndStore(ctx, userID)
}

// GetComparison compares the user's live total with the population average.
func (e *Engine) GetComparison(ctx context.Context, userID uint) (*footprint.Comparison, error) {
	return e.aggregator.CompareToAverage(ctx, userID)
}

// Estimate computes a footprint for ad-hoc amounts without storing them.
func (e *Engine) Estimate(ctx context.Context, items []footprint.EstimateItem) (*footprint.Estimate, error) {
	return e.aggregator.Estimate(ctx, items)
}

// RecomputeAll refreshes the cached footprint of every user.
func (e *Engine) RecomputeAll(ctx context.Context) (int, error) {
	return e.aggregator.RecomputeAll(ctx)
}

// Stats returns population statistics over the cached footprints.
func (e *Engine) Stats(ctx context.Context) (*database.PopulationStats, error) {
	return e.db.GetPopulationStats(ctx)
}

// GravatarURL returns the avatar URL for an email, or an empty string.
func (e *Engine) GravatarURL(emailAddr string) string {
	return gravatar.URL(emailAddr, e.cfg.Gravatar)
}

// CacheStats returns statistics of the catalog cache.
func (e *Engine) CacheStats() []*cache.Stats {
	return e.catalog.GetStats()
}
