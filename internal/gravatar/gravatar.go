package gravatar

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/waterprint/waterprint/internal/config"
)

const baseURL = "https://www.gravatar.com/avatar/"

var (
	defaultImages = []string{"404", "mp", "identicon", "monsterid", "wavatar", "retro", "robohash", "blank"}
	ratings       = []string{"g", "pg", "r", "x"}
)

// URL returns the avatar URL shown next to a registered user.
// It is empty when gravatar support is disabled or the user has no email.
func URL(email string, cfg *config.GravatarConfig) string {
	if cfg == nil || !cfg.Enabled {
		return ""
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return ""
	}

	sum := sha256.Sum256([]byte(email))
	u := baseURL + hex.EncodeToString(sum[:])

	params := url.Values{}
	if cfg.DefaultImage != "" {
		params.Set("d", cfg.DefaultImage)
	}
	if cfg.Rating != "" {
		params.Set("r", cfg.Rating)
	}
	if cfg.Size > 0 {
		params.Set("s", strconv.Itoa(cfg.Size))
	}
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}

// Validate checks the gravatar options. A disabled config is always valid.
func Validate(cfg *config.GravatarConfig) error {
	if cfg == nil || !cfg.Enabled {
		return nil
	}

	var errs []error
	if cfg.DefaultImage != "" && !slices.Contains(defaultImages, cfg.DefaultImage) {
		errs = append(errs, fmt.Errorf("invalid gravatar default image %q, must be one of %s", cfg.DefaultImage, strings.Join(defaultImages, ", ")))
	}
	if cfg.Rating != "" && !slices.Contains(ratings, cfg.Rating) {
		errs = append(errs, fmt.Errorf("invalid gravatar rating %q, must be one of %s", cfg.Rating, strings.Join(ratings, ", ")))
	}
	if cfg.Size != 0 && (cfg.Size < 1 || cfg.Size > 2048) {
		errs = append(errs, fmt.Errorf("invalid gravatar size %d, must be between 1 and 2048", cfg.Size))
	}
	return errors.Join(errs...)
}
