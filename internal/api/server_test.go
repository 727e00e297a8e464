package api

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/waterprint/waterprint/internal/api/models"
	"github.com/waterprint/waterprint/internal/catalog"
	"github.com/waterprint/waterprint/internal/config"
	"github.com/waterprint/waterprint/internal/database/mock"
	"github.com/waterprint/waterprint/internal/engine"
)

type ServerTestSuite struct {
	suite.Suite
	db     *mock.MockDB
	engine *engine.Engine
	router http.Handler
}

func TestServerTestSuite(t *testing.T) {
	gin.SetMode(gin.TestMode)
	suite.Run(t, new(ServerTestSuite))
}

func (s *ServerTestSuite) SetupTest() {
	cfg := &config.Config{
		Listen:            "127.0.0.1:0",
		RecomputeSchedule: "0 * * * *",
		Categories: []catalog.Entry{
			{ID: 100, Name: "Beef", Factor: 15400, Unit: "kg"},
			{ID: 101, Name: "Rice", Factor: 2500, Unit: "kg"},
		},
		Database: &config.DatabaseConfig{Path: "unused"},
		Cache:    &config.CacheConfig{Type: config.CacheTypeMemory},
		Chart:    &config.ChartConfig{Width: 640, Height: 480},
		Email:    &config.EmailConfig{Enabled: false},
	}

	s.db = mock.NewMockDB()
	e, err := engine.New(cfg, s.db)
	s.Require().NoError(err)
	s.Require().NoError(e.Seed(s.T().Context()))
	s.engine = e

	server, err := New(cfg, e)
	s.Require().NoError(err)
	s.router = server.Handler()
}

func (s *ServerTestSuite) TearDownTest() {
	s.NoError(s.engine.Close())
}

func (s *ServerTestSuite) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *ServerTestSuite) decode(w *httptest.ResponseRecorder, v any) {
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func (s *ServerTestSuite) registerUser(name string) uint {
	w := s.do(http.MethodPost, "/api/users", `{"name":"`+name+`","email":"`+strings.ToLower(name)+`@example.com"}`)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var resp models.RegisterUserResponse
	s.decode(w, &resp)
	s.Equal("registered", resp.Status)
	return resp.ID
}

func (s *ServerTestSuite) recordEntry(userID uint, body string) *httptest.ResponseRecorder {
	return s.do(http.MethodPost, "/api/users/"+itoa(userID)+"/entries", body)
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func (s *ServerTestSuite) TestHealth() {
	w := s.do(http.MethodGet, "/health", "")
	s.Equal(http.StatusOK, w.Code)
	s.NotEmpty(w.Header().Get(requestIDHeader))
}

func (s *ServerTestSuite) TestRequestIDIsEchoed() {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Equal("abc-123", w.Header().Get(requestIDHeader))
}

func (s *ServerTestSuite) TestRegisterUserValidation() {
	tests := []struct {
		name string
		body string
	}{
		{name: "missing name", body: `{"email":"a@example.com"}`},
		{name: "invalid email", body: `{"name":"Ada","email":"not-an-email"}`},
		{name: "malformed json", body: `{"name":`},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			w := s.do(http.MethodPost, "/api/users", tt.body)
			s.Equal(http.StatusBadRequest, w.Code)
			s.Contains(w.Body.String(), `"success":false`)
		})
	}
}

func (s *ServerTestSuite) TestGetUser() {
	id := s.registerUser("Ada")

	w := s.do(http.MethodGet, "/api/users/"+itoa(id), "")
	s.Require().Equal(http.StatusOK, w.Code)

	var user models.User
	s.decode(w, &user)
	s.Equal("Ada", user.Name)
	s.Equal("ada@example.com", user.Email)
	s.Equal(0.0, user.TotalFootprint)
	s.NotEmpty(user.RegisteredAgo)

	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/api/users/999", "").Code)
	s.Equal(http.StatusBadRequest, s.do(http.MethodGet, "/api/users/abc", "").Code)
	s.Equal(http.StatusBadRequest, s.do(http.MethodGet, "/api/users/-1", "").Code)
}

func (s *ServerTestSuite) TestBeefAndRiceFlow() {
	id := s.registerUser("Ada")

	s.Equal(http.StatusCreated, s.recordEntry(id, `{"category_id":100,"amount":2}`).Code)
	s.Equal(http.StatusCreated, s.recordEntry(id, `{"category_id":101,"amount":3}`).Code)

	w := s.do(http.MethodGet, "/api/users/"+itoa(id)+"/breakdown", "")
	s.Require().Equal(http.StatusOK, w.Code)
	var breakdown models.BreakdownResponse
	s.decode(w, &breakdown)
	s.Require().Len(breakdown.Rows, 2)
	s.Equal("Beef", breakdown.Rows[0].Category)
	s.Equal(30800.0, breakdown.Rows[0].Footprint)
	s.Equal("Rice", breakdown.Rows[1].Category)
	s.Equal(38300.0, breakdown.Total)

	w = s.do(http.MethodGet, "/api/users/"+itoa(id)+"/footprint", "")
	s.Require().Equal(http.StatusOK, w.Code)
	var fp models.FootprintResponse
	s.decode(w, &fp)
	s.Equal(38300.0, fp.Total)

	w = s.do(http.MethodGet, "/api/users/"+itoa(id)+"/comparison", "")
	s.Require().Equal(http.StatusOK, w.Code)
	var cmp models.ComparisonResponse
	s.decode(w, &cmp)
	s.Equal(38300.0, cmp.UserTotal)
	s.Equal(38300.0, cmp.PopulationAverage, "footprint call refreshed the cached total")
}

func (s *ServerTestSuite) TestRecordEntryErrors() {
	id := s.registerUser("Ada")

	tests := []struct {
		name   string
		userID uint
		body   string
		status int
	}{
		{name: "zero amount is allowed", userID: id, body: `{"category_id":1,"amount":0}`, status: http.StatusCreated},
		{name: "negative amount", userID: id, body: `{"category_id":1,"amount":-2}`, status: http.StatusBadRequest},
		{name: "missing amount", userID: id, body: `{"category_id":1}`, status: http.StatusBadRequest},
		{name: "missing category", userID: id, body: `{"amount":1}`, status: http.StatusBadRequest},
		{name: "unknown category", userID: id, body: `{"category_id":999,"amount":1}`, status: http.StatusNotFound},
		{name: "unknown user", userID: 999, body: `{"category_id":1,"amount":1}`, status: http.StatusNotFound},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			w := s.recordEntry(tt.userID, tt.body)
			s.Equal(tt.status, w.Code, w.Body.String())
		})
	}

	rows, err := s.engine.GetBreakdown(s.T().Context(), id)
	s.Require().NoError(err)
	s.Len(rows, 1, "only the valid entry was stored")
}

func (s *ServerTestSuite) TestOverflowingAmountIsRejected() {
	id := s.registerUser("Ada")
	s.Require().Equal(http.StatusCreated, s.recordEntry(id, `{"category_id":100,"amount":2}`).Code)

	w := s.recordEntry(id, `{"category_id":100,"amount":1e306}`)
	s.Equal(http.StatusBadRequest, w.Code, w.Body.String())
	s.Contains(w.Body.String(), "overflows")

	w = s.do(http.MethodGet, "/api/users/"+itoa(id)+"/footprint", "")
	s.Require().Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"user_id":`+itoa(id)+`,"total":30800}`, w.Body.String())

	w = s.do(http.MethodGet, "/api/users/"+itoa(id)+"/export/chart", "")
	s.Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodPost, "/api/estimate", `{"items":[{"category_id":100,"amount":1e306}]}`)
	s.Equal(http.StatusBadRequest, w.Code, w.Body.String())
}

func (s *ServerTestSuite) TestExportCSV() {
	id := s.registerUser("Ada")
	s.Require().Equal(http.StatusCreated, s.recordEntry(id, `{"category_id":100,"amount":2}`).Code)

	w := s.do(http.MethodGet, "/api/users/"+itoa(id)+"/export/csv", "")
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal("attachment; filename=water_footprint_report.csv", w.Header().Get("Content-Disposition"))
	s.Contains(w.Header().Get("Content-Type"), "text/csv")

	records, err := csv.NewReader(bytes.NewReader(w.Body.Bytes())).ReadAll()
	s.Require().NoError(err)
	s.Equal([][]string{{"Category", "Amount", "Footprint"}, {"Beef", "2", "30800"}}, records)
}

func (s *ServerTestSuite) TestExportPDFAndChart() {
	id := s.registerUser("Ada")

	w := s.do(http.MethodGet, "/api/users/"+itoa(id)+"/export/pdf", "")
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal("attachment; filename=water_footprint_report.pdf", w.Header().Get("Content-Disposition"))
	s.Equal("application/pdf", w.Header().Get("Content-Type"))
	s.True(bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")))

	w = s.do(http.MethodGet, "/api/users/"+itoa(id)+"/export/chart", "")
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal("image/png", w.Header().Get("Content-Type"))
	s.Equal("attachment; filename=water_footprint_plot.png", w.Header().Get("Content-Disposition"))
}

func (s *ServerTestSuite) TestExportErrors() {
	user, err := s.engine.RegisterUser(s.T().Context(), "水野", "mizuno@example.com")
	s.Require().NoError(err)
	id := user.ID

	s.Equal(http.StatusBadRequest, s.do(http.MethodGet, "/api/users/"+itoa(id)+"/export/xlsx", "").Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/api/users/999/export/csv", "").Code)

	w := s.do(http.MethodGet, "/api/users/"+itoa(id)+"/export/pdf", "")
	s.Equal(http.StatusInternalServerError, w.Code)
	s.Empty(w.Header().Get("Content-Disposition"), "no partial file on failure")
}

func (s *ServerTestSuite) TestEmailReportDisabled() {
	id := s.registerUser("Ada")
	w := s.do(http.MethodPost, "/api/users/"+itoa(id)+"/report/email", "")
	s.Equal(http.StatusServiceUnavailable, w.Code)
}

func (s *ServerTestSuite) TestListCategories() {
	w := s.do(http.MethodGet, "/api/categories", "")
	s.Require().Equal(http.StatusOK, w.Code)

	var categories []models.Category
	s.decode(w, &categories)
	s.Require().Len(categories, len(catalog.Builtin())+2)
	s.Equal(models.Category{ID: 1, Name: "Shower", Factor: 80, Unit: "shower"}, categories[0])
	for i := 1; i < len(categories); i++ {
		s.Less(categories[i-1].ID, categories[i].ID)
	}
}

func (s *ServerTestSuite) TestEstimate() {
	w := s.do(http.MethodPost, "/api/estimate", `{"items":[{"category_id":100,"amount":2},{"category_id":101,"amount":3}]}`)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var est models.EstimateResponse
	s.decode(w, &est)
	s.Equal(38300.0, est.Total)
	s.Len(est.Rows, 2)

	s.Equal(http.StatusBadRequest, s.do(http.MethodPost, "/api/estimate", `{"items":[]}`).Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodPost, "/api/estimate", `{"items":[{"category_id":9,"amount":1}]}`).Code)
}

func (s *ServerTestSuite) TestStats() {
	s.registerUser("Ada")

	w := s.do(http.MethodGet, "/api/stats", "")
	s.Require().Equal(http.StatusOK, w.Code)

	var stats models.StatsResponse
	s.decode(w, &stats)
	s.Equal(int64(1), stats.Users)
	s.NotEmpty(stats.Caches)
}

func (s *ServerTestSuite) TestJobs() {
	w := s.do(http.MethodGet, "/api/admin/jobs", "")
	s.Require().Equal(http.StatusOK, w.Code)

	var resp struct {
		Jobs []models.Job `json:"jobs"`
	}
	s.decode(w, &resp)
	s.Require().Len(resp.Jobs, 1)
	s.Equal(engine.RecomputeJobID, resp.Jobs[0].ID)

	s.Equal(http.StatusNotFound, s.do(http.MethodPost, "/api/admin/jobs/nope/run", "").Code)
}

func TestNewRequiresDependencies(t *testing.T) {
	_, err := New(nil, nil)
	require.Error(t, err)

	_, err = New(&config.Config{}, nil)
	assert.Error(t, err)
}
