package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

// run executes mw around a 200 handler and returns the recorder and whether
// next was reached.
func run(t *testing.T, mw echo.MiddlewareFunc, authHeader string, check func(c echo.Context)) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := mw(func(c echo.Context) error {
		called = true
		if check != nil {
			check(c)
		}
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec, called
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	signed := signToken(t, "secret", jwt.MapClaims{
		"username": "alice",
		"role":     "SESSION_INITIATOR",
		"exp":      time.Now().Add(time.Hour).Unix(),
	})

	rec, called := run(t, Auth("secret"), "Bearer "+signed, func(c echo.Context) {
		if c.Get(UsernameKey) != "alice" {
			t.Fatalf("username not set")
		}
		if c.Get(RoleKey) != "SESSION_INITIATOR" {
			t.Fatalf("role not set")
		}
	})
	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	expired := signToken(t, "secret", jwt.MapClaims{"username": "alice", "exp": time.Now().Add(-time.Minute).Unix()})
	otherKey := signToken(t, "other", jwt.MapClaims{"username": "alice"})
	noUser := signToken(t, "secret", jwt.MapClaims{"role": "GUEST"})

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"invalid header format", "Token abc"},
		{"invalid token", "Bearer not-a-token"},
		{"expired", "Bearer " + expired},
		{"wrong key", "Bearer " + otherKey},
		{"no username claim", "Bearer " + noUser},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, called := run(t, Auth("secret"), tt.header, nil)
			if called {
				t.Fatalf("should not reach next")
			}
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
		})
	}
}

func TestIdentifyMiddleware_AnonymousPassesThrough(t *testing.T) {
	rec, called := run(t, Identify("secret"), "", func(c echo.Context) {
		if c.Get(UsernameKey) != nil {
			t.Fatalf("anonymous request must not carry a username")
		}
	})
	if !called || rec.Code != http.StatusOK {
		t.Fatalf("expected pass-through, got called=%v code=%d", called, rec.Code)
	}
}

func TestIdentifyMiddleware_InvalidTokenRejected(t *testing.T) {
	rec, called := run(t, Identify("secret"), "Bearer not-a-token", nil)
	if called {
		t.Fatalf("should not reach next")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
