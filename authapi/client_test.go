package authapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"dealsweep/models"
)

func TestLogin_ReturnsToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["email"] != "a@b.co" {
			t.Errorf("unexpected email %q", body["email"])
		}
		w.Write([]byte(`{"token":"jwt-1"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, srv.Client())
	token, err := client.Login(context.Background(), "a@b.co", "pw")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if token != "jwt-1" {
		t.Fatalf("expected jwt-1, got %q", token)
	}
}

func TestLogin_BackendErrorMessageSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"bad credentials"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, srv.Client())
	_, err := client.Login(context.Background(), "a@b.co", "pw")
	if err == nil || err.Error() != "bad credentials" {
		t.Fatalf("expected backend message, got %v", err)
	}
}

func TestVerify_BearerHeaderAndUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer jwt-1" {
			t.Errorf("missing bearer header, got %q", r.Header.Get("Authorization"))
		}
		w.Write([]byte(`{"user":{"firstName":"Ada","lastName":"L","isApproved":true}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, srv.Client())
	user, err := client.Verify(context.Background(), "jwt-1")
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if user.FirstName != "Ada" || !user.IsApproved {
		t.Fatalf("unexpected user %+v", user)
	}
}

func TestVerify_RejectedTokenIsUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, srv.Client())
	_, err := client.Verify(context.Background(), "stale")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestLogSession_Payload(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/scraping/log" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, srv.Client())
	if err := client.LogSession(context.Background(), "jwt-1", 42, models.RunStatusStopped); err != nil {
		t.Fatalf("log session failed: %v", err)
	}
	if got["dataCount"] != float64(42) {
		t.Fatalf("expected dataCount 42, got %v", got["dataCount"])
	}
	if got["status"] != "stopped" {
		t.Fatalf("expected status stopped, got %v", got["status"])
	}
}
