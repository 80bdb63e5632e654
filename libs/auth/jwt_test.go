package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
)

func TestHS256RoundTrip(t *testing.T) {
	secret := "test-secret"
	token, err := SignHS256("host-1", "host@example.com", time.Hour, secret)
	if err != nil {
		t.Fatalf("SignHS256 failed: %v", err)
	}

	claims, err := ParseAndVerifyHS256(token, secret)
	if err != nil {
		t.Fatalf("ParseAndVerifyHS256 failed: %v", err)
	}
	if claims.HostID() != "host-1" || claims.Email != "host@example.com" {
		t.Fatalf("claims mismatch: got %+v", claims)
	}
	if _, err := ParseAndVerifyHS256(token, "wrong-secret"); err == nil {
		t.Fatal("expected verification error with wrong secret")
	}
}

func TestExpiredToken(t *testing.T) {
	secret := "test-secret"
	claims := Claims{StandardClaims: jwt.StandardClaims{
		Subject:   "host-1",
		ExpiresAt: time.Now().Add(-time.Minute).Unix(),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	if _, err := ParseAndVerifyHS256(token, secret); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestMissingSubject(t *testing.T) {
	secret := "test-secret"
	claims := Claims{StandardClaims: jwt.StandardClaims{ExpiresAt: time.Now().Add(time.Hour).Unix()}}
	token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if _, err := ParseAndVerifyHS256(token, secret); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestBearerToken(t *testing.T) {
	if tok, ok := BearerToken("Bearer abc"); !ok || tok != "abc" {
		t.Fatalf("expected abc, got %q (%v)", tok, ok)
	}
	if _, ok := BearerToken("Basic abc"); ok {
		t.Fatal("expected basic auth to be rejected")
	}
	if _, ok := BearerToken("Bearer "); ok {
		t.Fatal("expected empty token to be rejected")
	}
}

func TestRequireHost(t *testing.T) {
	secret := "test-secret"
	var hostID string
	h := RequireHost(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hostID = HostIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/event-types", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	token, _ := SignHS256("host-9", "", time.Hour, secret)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/event-types", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if hostID != "host-9" {
		t.Fatalf("expected host-9, got %q", hostID)
	}
}
