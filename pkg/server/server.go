package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"cloud.google.com/go/civil"
	"github.com/NYTimes/gziphandler"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/levenlabs/go-lflag"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/energeticacoop/photovoltaic-studies/pkg/cache"
	"github.com/energeticacoop/photovoltaic-studies/pkg/calendar"
	"github.com/energeticacoop/photovoltaic-studies/pkg/common"
	"github.com/energeticacoop/photovoltaic-studies/pkg/log"
	"github.com/energeticacoop/photovoltaic-studies/pkg/metrics"
	"github.com/energeticacoop/photovoltaic-studies/pkg/storage"
	"github.com/energeticacoop/photovoltaic-studies/pkg/types"
)

type contextKey string

const (
	identityContextKey contextKey = "identity"
)

// studyRunner runs studies and classifies calendar years.
type studyRunner interface {
	Run(ctx context.Context, in types.StudyInput) (types.StudyResult, error)
	Year(year int, tariff types.TariffClass, holidays []civil.Date) (*calendar.Year, error)
}

// Server handles the HTTP API of the studies service. Studies are run synchronously on
// POST and stored before they are returned.
type Server struct {
	studies studyRunner
	storage storage.Database
	// recently read or created studies
	cache *cache.Cache[string, types.Study]

	listenAddr   string
	httpServer   *http.Server
	maxBodyBytes int64

	oidcVerifiers map[string]tokenVerifier
	bypassAuth    bool
	serverName    string
}

// Configured initializes the Server with dependencies.
// It uses lflag to register command-line flags for configuration.
func Configured(studies studyRunner, s storage.Database) *Server {
	srv := &Server{
		studies:    studies,
		storage:    s,
		serverName: "pvstudies/" + common.Version(),
	}
	revision := os.Getenv("K_REVISION")
	if revision != "" {
		srv.serverName = revision
	}

	// get the port from PORT when running in cloud run
	port := os.Getenv("PORT")
	if port == "" {
		// otherwise default to 8080
		port = "8080"
	}

	listenAddr := lflag.String("http-listen", ":"+port, "HTTP server listen address")
	oidcAudience := lflag.String("oidc-audience", "", "Google ID token audience to validate; empty disables authentication")
	readCacheTTL := lflag.Duration("read-cache-ttl", 10*time.Minute, "How long a read study stays cached")
	readCacheSize := lflag.Int("read-cache-size", 64, "Maximum number of cached studies (0 means unbounded)")
	maxBodyBytes := lflag.Int("max-request-bytes", 32<<20, "Maximum size of a study request body")

	lflag.Do(func() {
		srv.listenAddr = *listenAddr
		srv.maxBodyBytes = int64(*maxBodyBytes)
		srv.cache = cache.New[string, types.Study](*readCacheTTL, *readCacheSize)

		if *oidcAudience != "" {
			ctx := oidc.ClientContext(context.Background(), common.HTTPClient(10*time.Second))
			provider, err := oidc.NewProvider(ctx, "https://accounts.google.com")
			if err != nil {
				log.Ctx(context.Background()).Error("failed to initialize Google OIDC provider", slog.Any("error", err))
				os.Exit(1)
			}
			srv.oidcVerifiers = map[string]tokenVerifier{
				"google": oidcVerifier(provider.Verifier(&oidc.Config{ClientID: *oidcAudience})),
			}
		} else {
			log.Ctx(context.Background()).Warn("no oidc audience configured, the API is not authenticated")
			srv.bypassAuth = true
		}
	})

	return srv
}

func (s *Server) setupHandler() http.Handler {
	apiMux := http.NewServeMux()
	apiMux.HandleFunc("POST /api/studies", s.handleCreateStudy)
	apiMux.HandleFunc("GET /api/studies", s.handleListStudies)
	apiMux.HandleFunc("GET /api/studies/{id}", s.handleGetStudy)
	apiMux.HandleFunc("GET /api/studies/{id}/xlsx", s.handleExportStudy)
	apiMux.HandleFunc("GET /api/tariff-periods", s.handleTariffPeriods)

	mux := http.NewServeMux()
	mux.Handle("/api/", s.authMiddleware(apiMux))
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.Handle("/metrics", promhttp.Handler())
	return s.revisionMiddleware(gziphandler.GzipHandler(s.securityHeadersMiddleware(mux)))
}

// Run starts the HTTP server and blocks until the context is canceled or an error occurs.
// It also handles graceful shutdown when the context is done.
func (s *Server) Run(ctx context.Context) error {
	metrics.Init()
	s.httpServer = &http.Server{
		Addr:        s.listenAddr,
		Handler:     s.setupHandler(),
		ReadTimeout: 30 * time.Second,
		// studies with EV and long horizons take a while
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	// use a channel to capturing server errors
	errChan := make(chan error, 1)
	go func() {
		defer close(errChan)
		log.Ctx(ctx).InfoContext(ctx, "starting server", slog.String("addr", s.listenAddr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		// Context canceled, shut down gracefully
		log.Ctx(ctx).InfoContext(ctx, "shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to write response", slog.Any("error", err))
		panic(http.ErrAbortHandler)
	}
}

func writeJSONError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, struct {
		Error string `json:"error"`
	}{Error: msg})
}

// errorStatus maps pipeline and storage errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, storage.ErrStudyNotFound):
		return http.StatusNotFound
	case errors.Is(err, types.ErrMalformedInput),
		errors.Is(err, types.ErrDimensionMismatch),
		errors.Is(err, types.ErrSupplyNotFound),
		errors.Is(err, types.ErrUndefinedTariffPeriod):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("ok")); err != nil {
		panic(http.ErrAbortHandler)
	}
}

func (s *Server) revisionMiddleware(next http.Handler) http.Handler {
	if s.serverName == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", s.serverName)
		next.ServeHTTP(w, r)
	})
}
