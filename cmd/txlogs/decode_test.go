package main

import (
	"os"
	"path/filepath"
	"testing"

	"txLogScope/internal/model"
)

func TestReadRawLogsGroupsByTransaction(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs.jsonl")
	content := `{"tx_hash":"0xAA","log_index":0,"address":"0x01","topics":["0x10"],"data":"0x"}
not json

{"tx_hash":"0xbb","log_index":0,"address":"0x02","topics":["0x20"],"data":"0x"}
{"tx_hash":"0xaa","log_index":1,"address":"0x03","topics":["0x30"],"data":"0x"}
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}

	batches, rejected, err := readRawLogs(path)
	if err != nil {
		t.Fatalf("readRawLogs: %v", err)
	}
	if len(batches) != 2 {
		t.Fatalf("expected 2 batches, got %d", len(batches))
	}
	if batches[0].txHash != "0xAA" || len(batches[0].logs) != 2 {
		t.Fatalf("unexpected first batch: %+v", batches[0])
	}
	if batches[0].logs[1].LogIndex != 1 {
		t.Fatalf("expected input order preserved")
	}
	if len(rejected) != 1 || rejected[0].Kind != model.FailureInvalidLog {
		t.Fatalf("expected one invalid_log failure, got %+v", rejected)
	}
}

func TestParseTxHash(t *testing.T) {
	valid := "0x5c504ed432cb51138bcf09aa5e8a410dd4a1e204ef84bfed1be16dfba1b22060"
	hash, err := parseTxHash(valid)
	if err != nil {
		t.Fatalf("parseTxHash: %v", err)
	}
	if hash.Hex() != valid {
		t.Fatalf("unexpected hash %s", hash.Hex())
	}

	for _, bad := range []string{"", "0x1234", "5c504ed432cb51138bcf09aa5e8a410dd4a1e204ef84bfed1be16dfba1b22060"} {
		if _, err := parseTxHash(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestGraphPath(t *testing.T) {
	if got := graphPath("out/graph.json", "0xAB", false); got != "out/graph.json" {
		t.Fatalf("unexpected path %s", got)
	}
	if got := graphPath("out/graph.json", "0xAB", true); got != "out/graph.0xab.json" {
		t.Fatalf("unexpected path %s", got)
	}
}
