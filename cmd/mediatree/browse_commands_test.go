package main

import (
	"encoding/json"
	"path/filepath"
	"slices"
	"strconv"
	"testing"

	"mediatree/internal/api"
	"mediatree/internal/testsupport"
)

func TestBrowseAndNodeAgainstDaemon(t *testing.T) {
	env := setupCLITestEnv(t, true)
	testsupport.WriteFile(t, filepath.Join(testsupport.SharedFolder(env.cfg), "movie.mkv"), 2048)

	out, err := env.run(t, "browse")
	if err != nil {
		t.Fatalf("browse root: %v", err)
	}
	requireContains(t, out, "Media Library")
	requireContains(t, out, "History")

	out, err = env.run(t, "browse", "--json")
	if err != nil {
		t.Fatalf("browse --json: %v", err)
	}
	var root api.BrowseResponse
	if err := json.Unmarshal([]byte(out), &root); err != nil {
		t.Fatalf("decode browse output: %v", err)
	}
	idx := slices.IndexFunc(root.Children, func(n api.Node) bool { return n.Name == "media" })
	if idx < 0 {
		t.Fatalf("media folder missing from %+v", root.Children)
	}

	out, err = env.run(t, "browse", strconv.Itoa(root.Children[idx].ID))
	if err != nil {
		t.Fatalf("browse media: %v", err)
	}
	requireContains(t, out, "movie.mkv")
	requireContains(t, out, "1:00:00")

	var folder api.BrowseResponse
	out, err = env.run(t, "browse", "--json", strconv.Itoa(root.Children[idx].ID))
	if err != nil {
		t.Fatalf("browse media --json: %v", err)
	}
	if err := json.Unmarshal([]byte(out), &folder); err != nil {
		t.Fatalf("decode folder output: %v", err)
	}
	movie := folder.Children[slices.IndexFunc(folder.Children, func(n api.Node) bool { return n.Name == "movie.mkv" })]

	out, err = env.run(t, "node", strconv.Itoa(movie.ID))
	if err != nil {
		t.Fatalf("node: %v", err)
	}
	requireContains(t, out, "1920x1080")
	requireContains(t, out, "/api/stream?id="+strconv.Itoa(movie.ID))
}

func TestBrowseUnknownNode(t *testing.T) {
	env := setupCLITestEnv(t, true)
	_, err := env.run(t, "browse", "424242")
	if err == nil {
		t.Fatal("expected an error for an unknown node")
	}
	requireContains(t, err.Error(), "404")
}

func TestBrowseWithoutDaemon(t *testing.T) {
	env := setupCLITestEnv(t, false)
	_, _, err := runCLI(t, []string{"browse"}, "127.0.0.1:1", env.configPath)
	if err == nil {
		t.Fatal("expected connection error")
	}
	requireContains(t, err.Error(), "127.0.0.1:1")
}
