package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacksapp/stacks-server/internal/config"
	"github.com/stacksapp/stacks-server/internal/ratelimit"
	"github.com/stacksapp/stacks-server/internal/reports"
	"github.com/stacksapp/stacks-server/internal/search"
	"github.com/stacksapp/stacks-server/internal/service"
	"github.com/stacksapp/stacks-server/internal/store"
)

// testServer wraps the API server for handler testing.
type testServer struct {
	*Server
	api humatest.TestAPI
}

// setupTestServer creates a server backed by temp-dir stores.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	tmpDir := t.TempDir()

	st, err := store.New(filepath.Join(tmpDir, "db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	idx, err := search.NewSearchIndex(search.Options{
		DataPath: tmpDir,
		Logger:   logger,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })

	cfg := &config.Config{
		Data: config.DataConfig{BasePath: tmpDir},
		Server: config.ServerConfig{
			Name:         "Stacks Test",
			RateLimitRPS: 1000,
			RateBurst:    1000,
		},
		Lending: config.LendingConfig{
			LoanPeriodDays:        14,
			MaxLoanDays:           30,
			DailyFine:             1.00,
			ReservationWindowDays: 7,
		},
	}

	searchService := service.NewSearchService(idx, st, logger)
	st.SetSearchIndexer(searchService)

	services := &Services{
		Catalog: service.NewCatalogService(st, logger),
		Lending: service.NewLendingService(st, cfg.Lending, logger),
		Search:  searchService,
		Reports: reports.NewService(st, cfg.Lending, logger),
	}

	router := chi.NewRouter()
	humaConfig := huma.DefaultConfig("Stacks API Test", "1.0.0")
	api := humachi.New(router, humaConfig)
	RegisterErrorHandler()

	s := &Server{
		store:    st,
		services: services,
		cfg:      cfg,
		router:   router,
		api:      api,
		logger:   logger,
		limiter:  ratelimit.New(cfg.Server.RateLimitRPS, cfg.Server.RateBurst),
	}

	s.registerHealthRoutes()
	s.registerResourceRoutes()
	s.registerLendingRoutes()
	s.registerSearchRoutes()
	s.registerReportRoutes()

	return &testServer{
		Server: s,
		api:    humatest.Wrap(t, api),
	}
}

// decodeBody unmarshals a response body into v.
func decodeBody(t *testing.T, body []byte, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(body, v))
}

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)

	var health HealthResponse
	decodeBody(t, resp.Body.Bytes(), &health)

	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "healthy", health.Components["database"].Status)
	assert.Equal(t, "healthy", health.Components["search"].Status)
}
