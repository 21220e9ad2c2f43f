package idp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestIDP(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{BaseURL: srv.URL, APIKey: "test-key"}, nil)
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	return c
}

func TestClient_VerifyToken(t *testing.T) {
	c := newTestIDP(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/tokens/verify" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("X-Api-Key") != "test-key" {
			t.Errorf("missing api key header")
		}
		if r.Header.Get("Authorization") != "Bearer tok-123" {
			t.Errorf("unexpected authorization header %q", r.Header.Get("Authorization"))
		}

		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["token"] != "tok-123" {
			t.Errorf("expected token in body, got %q", body["token"])
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"professional_id": "dr-1",
			"email":           "dr1@clinic.test",
			"organization_id": "org-1",
		})
	})

	claims, err := c.VerifyToken(context.Background(), "tok-123")
	if err != nil {
		t.Fatalf("VerifyToken error: %v", err)
	}
	if claims.ProfessionalID != "dr-1" || claims.OrganizationID != "org-1" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestClient_VerifyToken_Unauthorized(t *testing.T) {
	c := newTestIDP(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	})

	if _, err := c.VerifyToken(context.Background(), "bad-token"); !errors.Is(err, ErrIDPUnauthorized) {
		t.Fatalf("expected ErrIDPUnauthorized, got %v", err)
	}
}

func TestClient_VerifyToken_Upstream(t *testing.T) {
	c := newTestIDP(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})

	if _, err := c.VerifyToken(context.Background(), "tok"); !errors.Is(err, ErrIDPUpstream) {
		t.Fatalf("expected ErrIDPUpstream, got %v", err)
	}
}

func TestClient_VerifyToken_NotConfigured(t *testing.T) {
	c, err := NewClient(Config{}, nil)
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	if _, err := c.VerifyToken(context.Background(), "tok"); !errors.Is(err, ErrIDPNotConfigured) {
		t.Fatalf("expected ErrIDPNotConfigured, got %v", err)
	}
}

func TestVerifier_EmptyToken(t *testing.T) {
	v := NewVerifier(nil)
	if _, err := v.Verify(context.Background(), "tok"); !errors.Is(err, ErrIDPNotConfigured) {
		t.Fatalf("expected ErrIDPNotConfigured for nil client, got %v", err)
	}

	c, _ := NewClient(Config{}, nil)
	v = NewVerifier(c)
	if _, err := v.Verify(context.Background(), "  "); !errors.Is(err, ErrTokenEmpty) {
		t.Fatalf("expected ErrTokenEmpty, got %v", err)
	}
}
