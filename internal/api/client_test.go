package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mediatree/internal/api"
)

func TestClientBrowseSendsIDAndToken(t *testing.T) {
	var gotAuth, gotID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/browse" {
			http.NotFound(w, r)
			return
		}
		gotAuth = r.Header.Get("Authorization")
		gotID = r.URL.Query().Get("id")
		_ = json.NewEncoder(w).Encode(api.BrowseResponse{
			Node:     api.Node{ID: 0, Name: "Media Library", Folder: true},
			Children: []api.Node{{ID: 1, Name: "videos", Folder: true}},
		})
	}))
	defer srv.Close()

	client := api.NewClient(srv.URL, "secret")
	resp, err := client.Browse(context.Background(), "12$3")
	if err != nil {
		t.Fatalf("Browse: %v", err)
	}
	if gotAuth != "Bearer secret" {
		t.Fatalf("unexpected authorization header %q", gotAuth)
	}
	if gotID != "12$3" {
		t.Fatalf("unexpected id %q", gotID)
	}
	if resp.Node.Name != "Media Library" || len(resp.Children) != 1 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestClientDecodesErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(api.ErrorResponse{Error: "scan already running"})
	}))
	defer srv.Close()

	_, err := api.NewClient(strings.TrimPrefix(srv.URL, "http://"), "").StartScan(context.Background())
	var apiErr *api.Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *api.Error, got %v", err)
	}
	if apiErr.StatusCode != http.StatusConflict || apiErr.Message != "scan already running" {
		t.Fatalf("unexpected error: %+v", apiErr)
	}
}

func TestClientStreamURL(t *testing.T) {
	client := api.NewClient("127.0.0.1:5001/", "")
	if got := client.StreamURL(7); got != "http://127.0.0.1:5001/api/stream?id=7" {
		t.Fatalf("unexpected stream url %q", got)
	}
}
