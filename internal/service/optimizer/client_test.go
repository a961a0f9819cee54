package optimizer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/codeyogi-ai/backend/internal/model"
)

func TestCheckAndOptimize_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/check-and-optimize" {
			t.Errorf("path = %q, want /repos/check-and-optimize", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("method = %q, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", ct)
		}

		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req["repo_url"] != "https://github.com/acme/widgets" {
			t.Errorf("repo_url = %q", req["repo_url"])
		}
		if req["last_known_sha"] != "abc123" {
			t.Errorf("last_known_sha = %q", req["last_known_sha"])
		}
		if req["github_token"] != "tok" {
			t.Errorf("github_token = %q", req["github_token"])
		}

		json.NewEncoder(w).Encode(model.CheckResult{
			Success:      true,
			HasNewPush:   true,
			LatestCommit: &model.CommitInfo{SHA: "def456", Author: "dev"},
			PRCreated:    true,
			PRNumber:     42,
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	result, err := client.CheckAndOptimize(context.Background(), "https://github.com/acme/widgets", "abc123", "tok")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.HasNewPush {
		t.Error("HasNewPush = false, want true")
	}
	if result.LatestCommit == nil || result.LatestCommit.SHA != "def456" {
		t.Errorf("LatestCommit = %+v, want sha def456", result.LatestCommit)
	}
	if result.PRNumber != 42 {
		t.Errorf("PRNumber = %d, want 42", result.PRNumber)
	}
}

func TestCheckAndOptimize_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.CheckAndOptimize(context.Background(), "https://github.com/acme/widgets", "", "")
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
	if !strings.Contains(err.Error(), "status 500") {
		t.Errorf("error = %q, want mention of status 500", err.Error())
	}
}

func TestCheckAndOptimize_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.CheckAndOptimize(context.Background(), "https://github.com/acme/widgets", "", "")
	if err == nil {
		t.Fatal("expected error for bad JSON")
	}
}

func TestCheckAndOptimize_CanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(model.CheckResult{Success: true})
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancel immediately

	client := NewClient(srv.URL)
	_, err := client.CheckAndOptimize(ctx, "https://github.com/acme/widgets", "", "")
	if err == nil {
		t.Fatal("expected error for canceled context")
	}
}
