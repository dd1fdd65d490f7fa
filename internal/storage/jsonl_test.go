package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"txLogScope/internal/model"
)

func TestJsonlStorageAppends(t *testing.T) {
	dir := t.TempDir()
	eventsPath := filepath.Join(dir, "out", "events.jsonl")
	failuresPath := filepath.Join(dir, "out", "failures.jsonl")
	store := NewJsonlStorage(eventsPath, failuresPath)

	events := []model.DecodedEvent{{TxHash: "0xabc", EventIndex: 1, Name: "Transfer"}}
	if err := store.PutEvents(context.Background(), "run-1", events); err != nil {
		t.Fatalf("put events: %v", err)
	}
	if err := store.PutEvents(context.Background(), "run-2", events); err != nil {
		t.Fatalf("put events: %v", err)
	}
	failures := []model.DecodeFailure{{TxHash: "0xabc", LogIndex: 2, Kind: model.FailureAbiNotFound}}
	if err := store.PutFailures(context.Background(), "run-1", failures); err != nil {
		t.Fatalf("put failures: %v", err)
	}

	lines := readLines(t, eventsPath)
	if len(lines) != 2 {
		t.Fatalf("expected 2 event lines, got %d", len(lines))
	}
	var first map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if first["run_id"] != "run-1" || first["name"] != "Transfer" {
		t.Fatalf("unexpected event line: %s", lines[0])
	}

	lines = readLines(t, failuresPath)
	if len(lines) != 1 {
		t.Fatalf("expected 1 failure line, got %d", len(lines))
	}
	var failure map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &failure); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if failure["kind"] != model.FailureAbiNotFound {
		t.Fatalf("unexpected failure line: %s", lines[0])
	}
}

func TestJsonlStorageSkipsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	store := NewJsonlStorage(path, "")
	if err := store.PutEvents(context.Background(), "run", nil); err != nil {
		t.Fatalf("put events: %v", err)
	}
	if err := store.PutFailures(context.Background(), "run", []model.DecodeFailure{{}}); err != nil {
		t.Fatalf("put failures: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected no file, got %v", err)
	}
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer file.Close()
	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines
}
