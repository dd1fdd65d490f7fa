package model

import (
	"encoding/json"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestRawLogFromReceiptJSON(t *testing.T) {
	line := `{"tx_hash":"0xdef456","block_number":36000000,"log_index":12,"address":"0x1111111111111111111111111111111111111111","topics":["0xaaa","0xbbb"],"data":"0xdeadbeef"}`

	var log RawLog
	if err := json.Unmarshal([]byte(line), &log); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if log.LogIndex != 12 || log.BlockNumber != 36000000 {
		t.Fatalf("unexpected positions: %+v", log)
	}
	if log.Topic0() != "0xaaa" {
		t.Fatalf("unexpected topic0 %q", log.Topic0())
	}
}

func TestRawLogTopic0Anonymous(t *testing.T) {
	if got := (RawLog{}).Topic0(); got != "" {
		t.Fatalf("expected empty topic0, got %q", got)
	}
}

func TestClassificationTarget(t *testing.T) {
	proxy := common.HexToAddress("0x1111111111111111111111111111111111111111")
	impl := common.HexToAddress("0x2222222222222222222222222222222222222222")

	plain := Classification{Address: proxy, Kind: KindContract}
	if plain.Target() != proxy {
		t.Fatalf("plain contract should target itself")
	}

	proxied := Classification{Address: proxy, Kind: KindContract, IsProxy: true, Implementation: &impl}
	if proxied.Target() != impl {
		t.Fatalf("proxy should target its implementation")
	}
}
