package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/energeticacoop/photovoltaic-studies/pkg/log"
)

// identity is the authenticated caller.
type identity struct {
	Email   string
	Subject string
}

// tokenVerifier validates a raw ID token and returns its identity.
type tokenVerifier func(ctx context.Context, rawIDToken string) (identity, error)

func oidcVerifier(v *oidc.IDTokenVerifier) tokenVerifier {
	return func(ctx context.Context, rawIDToken string) (identity, error) {
		idToken, err := v.Verify(ctx, rawIDToken)
		if err != nil {
			return identity{}, err
		}
		var claims struct {
			Email string `json:"email"`
		}
		if err := idToken.Claims(&claims); err != nil {
			return identity{}, err
		}
		return identity{Email: claims.Email, Subject: idToken.Subject}, nil
	}
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ctx = log.With(ctx, log.Ctx(ctx).With(slog.String("reqPath", r.URL.Path)))

		if s.bypassAuth {
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeJSONError(w, "missing auth header", http.StatusUnauthorized)
			return
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			log.Ctx(ctx).WarnContext(ctx, "invalid auth header")
			writeJSONError(w, "invalid auth header", http.StatusBadRequest)
			return
		}
		id, err := s.authenticateToken(ctx, strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			log.Ctx(ctx).WarnContext(ctx, "token validation failed", slog.Any("error", err))
			writeJSONError(w, "invalid token", http.StatusUnauthorized)
			return
		}

		ctx = log.With(ctx, log.Ctx(ctx).With(slog.String("email", id.Email)))
		ctx = context.WithValue(ctx, identityContextKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// authenticateToken tries every configured verifier.
func (s *Server) authenticateToken(ctx context.Context, token string) (identity, error) {
	var errs []error
	for providerName, verifier := range s.oidcVerifiers {
		id, err := verifier(ctx, token)
		if err == nil {
			return id, nil
		}
		errs = append(errs, fmt.Errorf("%s verifier failed: %v", providerName, err))
	}

	if len(errs) > 1 {
		return identity{}, errors.Join(errs...)
	}
	if len(errs) == 1 {
		return identity{}, errs[0]
	}
	return identity{}, errors.New("no valid audiences configured or token invalid")
}

func getIdentity(r *http.Request) identity {
	if id, ok := r.Context().Value(identityContextKey).(identity); ok {
		return id
	}
	return identity{}
}
