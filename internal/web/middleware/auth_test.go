package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/proplist/importer/internal/config"
)

const testSecret = "test-secret-key"

func signToken(t *testing.T, claims jwt.RegisteredClaims, secret string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

// callerEcho records the caller identity the middleware attached.
func callerEcho(captured *string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured = CallerID(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthDisabled(t *testing.T) {
	cfg := &config.AuthConfig{Required: false}
	var caller string
	handler := Auth(cfg)(callerEcho(&caller))

	req := httptest.NewRequest(http.MethodPost, "/api/imports", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if caller != AnonymousCaller {
		t.Errorf("caller = %q, want %q", caller, AnonymousCaller)
	}
}

func TestAuthRequired(t *testing.T) {
	cfg := &config.AuthConfig{Required: true, JWTSecret: testSecret}

	validToken := signToken(t, jwt.RegisteredClaims{
		Subject:   "user-7",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}, testSecret)

	expiredToken := signToken(t, jwt.RegisteredClaims{
		Subject:   "user-7",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	}, testSecret)

	wrongKeyToken := signToken(t, jwt.RegisteredClaims{
		Subject:   "user-7",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}, "different-secret")

	noSubjectToken := signToken(t, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}, testSecret)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantCaller string
	}{
		{"valid token", "Bearer " + validToken, http.StatusOK, "user-7"},
		{"lowercase bearer", "bearer " + validToken, http.StatusOK, "user-7"},
		{"missing header", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "Basic dXNlcjpwYXNz", http.StatusUnauthorized, ""},
		{"malformed header", "Bearer", http.StatusUnauthorized, ""},
		{"expired token", "Bearer " + expiredToken, http.StatusUnauthorized, ""},
		{"wrong signing key", "Bearer " + wrongKeyToken, http.StatusUnauthorized, ""},
		{"garbage token", "Bearer not.a.token", http.StatusUnauthorized, ""},
		{"no subject claim", "Bearer " + noSubjectToken, http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var caller string
			handler := Auth(cfg)(callerEcho(&caller))

			req := httptest.NewRequest(http.MethodPost, "/api/imports", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body: %s)", rr.Code, tt.wantStatus, rr.Body.String())
			}
			if tt.wantCaller != "" && caller != tt.wantCaller {
				t.Errorf("caller = %q, want %q", caller, tt.wantCaller)
			}
		})
	}
}

func TestCallerID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	if got := CallerID(req.Context()); got != AnonymousCaller {
		t.Errorf("CallerID on bare context = %q, want %q", got, AnonymousCaller)
	}

	ctx := WithCallerID(req.Context(), "user-3")
	if got := CallerID(ctx); got != "user-3" {
		t.Errorf("CallerID = %q, want %q", got, "user-3")
	}
}
