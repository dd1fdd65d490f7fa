package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"txLogScope/internal/model"
)

// JsonlStorage appends events and failures to two JSONL files.
type JsonlStorage struct {
	eventsPath   string
	failuresPath string
	mu           sync.Mutex
}

func NewJsonlStorage(eventsPath, failuresPath string) *JsonlStorage {
	return &JsonlStorage{eventsPath: eventsPath, failuresPath: failuresPath}
}

type eventLine struct {
	RunID string `json:"run_id"`
	model.DecodedEvent
}

type failureLine struct {
	RunID string `json:"run_id"`
	model.DecodeFailure
}

// PutEvents appends one line per event.
func (s *JsonlStorage) PutEvents(_ context.Context, runID string, events []model.DecodedEvent) error {
	lines := make([]interface{}, 0, len(events))
	for _, ev := range events {
		lines = append(lines, eventLine{RunID: runID, DecodedEvent: ev})
	}
	return s.appendLines(s.eventsPath, lines)
}

// PutFailures appends one line per failure.
func (s *JsonlStorage) PutFailures(_ context.Context, runID string, failures []model.DecodeFailure) error {
	lines := make([]interface{}, 0, len(failures))
	for _, f := range failures {
		lines = append(lines, failureLine{RunID: runID, DecodeFailure: f})
	}
	return s.appendLines(s.failuresPath, lines)
}

func (s *JsonlStorage) appendLines(path string, records []interface{}) error {
	if len(records) == 0 || path == "" {
		return nil
	}

	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, record := range records {
		line, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal record: %w", err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	return nil
}
