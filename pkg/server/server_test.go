package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/energeticacoop/photovoltaic-studies/pkg/cache"
	"github.com/energeticacoop/photovoltaic-studies/pkg/log"
	"github.com/energeticacoop/photovoltaic-studies/pkg/metrics"
	"github.com/energeticacoop/photovoltaic-studies/pkg/storage"
	"github.com/energeticacoop/photovoltaic-studies/pkg/storage/storagemock"
	"github.com/energeticacoop/photovoltaic-studies/pkg/study"
	"github.com/energeticacoop/photovoltaic-studies/pkg/types"
)

func init() {
	log.SetDefaultLogLevel(slog.LevelError)
}

func newTestServer(t *testing.T, db storage.Database) *Server {
	t.Helper()
	defaults, err := study.LoadDefaults("")
	require.NoError(t, err)
	return &Server{
		studies:      study.New(study.NewYearCache(time.Hour, 4), defaults),
		storage:      db,
		cache:        cache.New[string, types.Study](time.Minute, 8),
		maxBodyBytes: 8 << 20,
		bypassAuth:   true,
		serverName:   "test",
	}
}

func do(t *testing.T, s *Server, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	w := httptest.NewRecorder()
	s.setupHandler().ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, &storagemock.MockDatabase{})
	w := do(t, s, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
	assert.Equal(t, "test", w.Header().Get("Server"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Empty(t, w.Header().Get("Cache-Control"))
}

func TestMetricsEndpoint(t *testing.T) {
	metrics.Init()
	metrics.ObserveStudyRun("3.0TD", metrics.ResultSuccess, time.Second)

	s := newTestServer(t, &storagemock.MockDatabase{})
	w := do(t, s, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "pvstudies_study_runs_total")
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{types.ErrMalformedInput, http.StatusBadRequest},
		{types.ErrDimensionMismatch, http.StatusBadRequest},
		{types.ErrSupplyNotFound, http.StatusBadRequest},
		{types.ErrUndefinedTariffPeriod, http.StatusBadRequest},
		{storage.ErrStudyNotFound, http.StatusNotFound},
		{types.ErrZeroDivision, http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, errorStatus(errors.Join(errors.New("context"), tt.err)))
		})
	}
}

func TestAuthMiddleware(t *testing.T) {
	s := newTestServer(t, &storagemock.MockDatabase{})
	s.bypassAuth = false
	s.oidcVerifiers = map[string]tokenVerifier{
		"google": func(_ context.Context, raw string) (identity, error) {
			if raw == "valid-token" {
				return identity{Email: "user@example.com", Subject: "123"}, nil
			}
			return identity{}, assert.AnError
		},
	}

	handler := s.authMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Email", getIdentity(r).Email)
		w.WriteHeader(http.StatusOK)
	}))
	serve := func(auth string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/studies", nil)
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	t.Run("valid token", func(t *testing.T) {
		w := serve("Bearer valid-token")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "user@example.com", w.Header().Get("X-Email"))
	})

	t.Run("missing header", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, serve("").Code)
	})

	t.Run("not bearer", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, serve("Basic dXNlcjpwYXNz").Code)
	})

	t.Run("invalid token", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, serve("Bearer nope").Code)
	})

	t.Run("bypass", func(t *testing.T) {
		s.bypassAuth = true
		defer func() { s.bypassAuth = false }()
		w := serve("")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("X-Email"))
	})
}

func TestAuthenticateTokenNoVerifiers(t *testing.T) {
	s := &Server{}
	_, err := s.authenticateToken(context.Background(), "token")
	assert.Error(t, err)
}
