package applications

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewHTTPRegistrarRequiresEndpoint(t *testing.T) {
	if _, err := NewHTTPRegistrar(nil, "   ", "", nil); err == nil {
		t.Fatal("expected error for empty endpoint")
	}
}

func TestHTTPRegistrarRegister(t *testing.T) {
	var gotAuth string
	var gotPayload struct {
		Repository string `json:"repository"`
		AppID      string `json:"app_id"`
		AppSecret  string `json:"app_secret"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	registrar, err := NewHTTPRegistrar(server.Client(), server.URL, "token-1", nil)
	if err != nil {
		t.Fatalf("new registrar: %v", err)
	}

	if err := registrar.Register(context.Background(), "https://git.example/notes.git", "app-1", "secret"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if gotAuth != "Bearer token-1" {
		t.Fatalf("authorization = %q", gotAuth)
	}
	if gotPayload.Repository != "https://git.example/notes.git" || gotPayload.AppID != "app-1" || gotPayload.AppSecret != "secret" {
		t.Fatalf("payload = %+v", gotPayload)
	}
}

func TestHTTPRegistrarNonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	registrar, err := NewHTTPRegistrar(server.Client(), server.URL, "", nil)
	if err != nil {
		t.Fatalf("new registrar: %v", err)
	}
	if err := registrar.Register(context.Background(), "repo", "app-1", "secret"); err == nil {
		t.Fatal("expected error for non-2xx status")
	}
}
