package main

import (
	"os"
	"testing"
	"time"

	"mediatree/internal/lists"
)

func TestListsShowAndClear(t *testing.T) {
	env := setupCLITestEnv(t, false)

	out, err := env.run(t, "lists", "names")
	if err != nil {
		t.Fatalf("lists names: %v", err)
	}
	requireContains(t, out, "No lists")

	store := lists.NewStore(env.cfg.Paths.ListsDir, 0, nil)
	if err := store.Append(lists.HistoryName, lists.Entry{Tag: "file", Payload: "/media/first.mkv"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	second := lists.Entry{Tag: "file", Resume: 75 * time.Second, SubtitleLang: "eng", SubtitleSource: "external", Player: "tv", Payload: "/media/second.mkv"}
	if err := store.Append(lists.HistoryName, second); err != nil {
		t.Fatalf("append: %v", err)
	}
	f, err := os.OpenFile(store.Path(lists.HistoryName), os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open list: %v", err)
	}
	if _, err := f.WriteString("no separator here\n"); err != nil {
		t.Fatalf("append garbage: %v", err)
	}
	_ = f.Close()

	out, err = env.run(t, "lists", "names")
	if err != nil {
		t.Fatalf("lists names: %v", err)
	}
	requireContains(t, out, lists.HistoryName)

	out, err = env.run(t, "lists", "show")
	if err != nil {
		t.Fatalf("lists show: %v", err)
	}
	requireContains(t, out, "/media/second.mkv")
	requireContains(t, out, "1:15")
	requireContains(t, out, "eng (external)")
	requireContains(t, out, "Skipped line")

	out, err = env.run(t, "lists", "clear", lists.HistoryName)
	if err != nil {
		t.Fatalf("lists clear: %v", err)
	}
	requireContains(t, out, "Cleared list")
	if _, err := os.Stat(store.Path(lists.HistoryName)); !os.IsNotExist(err) {
		t.Fatalf("expected list file removed, got %v", err)
	}
}
