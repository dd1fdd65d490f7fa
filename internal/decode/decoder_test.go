package decode

import (
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"txLogScope/internal/model"
)

const testABIJSON = `[
  {"anonymous": false, "name": "Transfer", "type": "event", "inputs": [
    {"indexed": true, "name": "from", "type": "address"},
    {"indexed": true, "name": "to", "type": "address"},
    {"indexed": false, "name": "value", "type": "uint256"}
  ]},
  {"anonymous": false, "name": "Deposit", "type": "event", "inputs": [
    {"indexed": true, "name": "user", "type": "address"},
    {"indexed": false, "name": "amount", "type": "uint256"},
    {"indexed": true, "name": "reserve", "type": "address"},
    {"indexed": false, "name": "tags", "type": "bytes32[]"}
  ]},
  {"anonymous": false, "name": "Named", "type": "event", "inputs": [
    {"indexed": true, "name": "label", "type": "string"},
    {"indexed": false, "name": "delta", "type": "int24"}
  ]},
  {"anonymous": true, "name": "Silent", "type": "event", "inputs": [
    {"indexed": false, "name": "x", "type": "uint256"}
  ]}
]`

var (
	token = common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")
	alice = common.HexToAddress("0x1111111111111111111111111111111111111111")
	bob   = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

func testABI(t *testing.T) abi.ABI {
	t.Helper()
	parsed, err := abi.JSON(strings.NewReader(testABIJSON))
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	return parsed
}

func buildRawLog(address common.Address, topics []common.Hash, data []byte) model.RawLog {
	hexTopics := make([]string, len(topics))
	for i, topic := range topics {
		hexTopics[i] = topic.Hex()
	}
	return model.RawLog{
		TxHash:   "0xabc",
		LogIndex: 7,
		Address:  address.Hex(),
		Topics:   hexTopics,
		Data:     hexutil.Encode(data),
	}
}

func topicFromAddress(addr common.Address) common.Hash {
	return common.BytesToHash(addr.Bytes())
}

func TestDecodeTransfer(t *testing.T) {
	parsed := testABI(t)
	event := parsed.Events["Transfer"]

	value, _ := new(big.Int).SetString("2500000000000000000", 10)
	data, err := event.Inputs.NonIndexed().Pack(value)
	if err != nil {
		t.Fatalf("pack: %v", err)
	}

	log := buildRawLog(token, []common.Hash{event.ID, topicFromAddress(alice), topicFromAddress(bob)}, data)
	decoded, err := Decode(log, parsed)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if decoded.Name != "Transfer" || decoded.Index != 7 || decoded.Address != token {
		t.Fatalf("event header mismatch: %+v", decoded)
	}
	if decoded.Signature != "Transfer(address,address,uint256)" {
		t.Fatalf("signature mismatch: %s", decoded.Signature)
	}
	if len(decoded.Args) != 3 {
		t.Fatalf("expected 3 args, got %d", len(decoded.Args))
	}
	if from, ok := AsAddress(decoded.Args[0].Value); !ok || from != alice {
		t.Fatalf("from mismatch: %v", decoded.Args[0].Value)
	}
	if to, ok := AsAddress(decoded.Args[1].Value); !ok || to != bob {
		t.Fatalf("to mismatch: %v", decoded.Args[1].Value)
	}
	if got := FormatValue(decoded.Args[2].Type, decoded.Args[2].Value); got != "2500000000000000000" {
		t.Fatalf("value mismatch: %s", got)
	}
}

func TestDecodeKeepsDeclaredOrder(t *testing.T) {
	parsed := testABI(t)
	event := parsed.Events["Deposit"]

	tags := [][32]byte{{0x01}, {0x02}}
	data, err := event.Inputs.NonIndexed().Pack(big.NewInt(42), tags)
	if err != nil {
		t.Fatalf("pack: %v", err)
	}

	log := buildRawLog(token, []common.Hash{event.ID, topicFromAddress(alice), topicFromAddress(token)}, data)
	decoded, err := Decode(log, parsed)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	names := make([]string, len(decoded.Args))
	for i, arg := range decoded.Args {
		names[i] = arg.Name
	}
	if strings.Join(names, ",") != "user,amount,reserve,tags" {
		t.Fatalf("order mismatch: %v", names)
	}
	if !decoded.Args[0].Indexed || decoded.Args[1].Indexed {
		t.Fatalf("indexed flags mismatch")
	}
	amount, ok := AsBigInt(decoded.Args[1].Value)
	if !ok || amount.Int64() != 42 {
		t.Fatalf("amount mismatch: %v", decoded.Args[1].Value)
	}
	reserve, _ := decoded.Arg("reserve")
	if addr, ok := AsAddress(reserve.Value); !ok || addr != token {
		t.Fatalf("reserve mismatch: %v", reserve.Value)
	}
	wantTags := "[0x0100000000000000000000000000000000000000000000000000000000000000,0x0200000000000000000000000000000000000000000000000000000000000000]"
	if got := FormatValue(decoded.Args[3].Type, decoded.Args[3].Value); got != wantTags {
		t.Fatalf("tags mismatch: %s", got)
	}
}

func TestDecodeIndexedDynamicIsHash(t *testing.T) {
	parsed := testABI(t)
	event := parsed.Events["Named"]

	data, err := event.Inputs.NonIndexed().Pack(big.NewInt(-15))
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	labelHash := crypto.Keccak256Hash([]byte("pool"))

	decoded, err := Decode(buildRawLog(token, []common.Hash{event.ID, labelHash}, data), parsed)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got := FormatValue(decoded.Args[0].Type, decoded.Args[0].Value); got != labelHash.Hex() {
		t.Fatalf("label mismatch: %s", got)
	}
	if got := FormatValue(decoded.Args[1].Type, decoded.Args[1].Value); got != "-15" {
		t.Fatalf("delta mismatch: %s", got)
	}
}

func TestDecodeUnknownTopic(t *testing.T) {
	parsed := testABI(t)
	unknown := crypto.Keccak256Hash([]byte("Nope(uint256)"))

	_, err := Decode(buildRawLog(token, []common.Hash{unknown}, nil), parsed)
	assertUnresolved(t, err)
}

func TestDecodeSkipsAnonymousEvents(t *testing.T) {
	parsed := testABI(t)
	silent := parsed.Events["Silent"]
	data, _ := silent.Inputs.NonIndexed().Pack(big.NewInt(1))

	_, err := Decode(buildRawLog(token, []common.Hash{silent.ID}, data), parsed)
	assertUnresolved(t, err)
}

func TestDecodeTopicCountMismatch(t *testing.T) {
	parsed := testABI(t)
	event := parsed.Events["Transfer"]
	data, _ := event.Inputs.NonIndexed().Pack(big.NewInt(1))

	// ERC-721 style Transfer with the amount indexed
	log := buildRawLog(token, []common.Hash{event.ID, topicFromAddress(alice), topicFromAddress(bob), common.BigToHash(big.NewInt(1))}, data)
	_, err := Decode(log, parsed)
	assertUnresolved(t, err)
}

func TestDecodeTruncatedData(t *testing.T) {
	parsed := testABI(t)
	event := parsed.Events["Transfer"]

	log := buildRawLog(token, []common.Hash{event.ID, topicFromAddress(alice), topicFromAddress(bob)}, []byte{0x01, 0x02})
	_, err := Decode(log, parsed)
	assertUnresolved(t, err)
}

func TestDecodeNoTopics(t *testing.T) {
	_, err := Decode(model.RawLog{Address: token.Hex(), Data: "0x"}, testABI(t))
	assertUnresolved(t, err)
}

func TestDecodeInvalidTopicHex(t *testing.T) {
	log := model.RawLog{Address: token.Hex(), Topics: []string{"0xzz"}, Data: "0x"}
	_, err := Decode(log, testABI(t))
	assertUnresolved(t, err)
}

func TestDecodeShortTopic(t *testing.T) {
	parsed := testABI(t)
	event := parsed.Events["Transfer"]
	data, err := event.Inputs.NonIndexed().Pack(big.NewInt(1))
	if err != nil {
		t.Fatalf("pack: %v", err)
	}

	log := buildRawLog(token, []common.Hash{event.ID, topicFromAddress(alice), topicFromAddress(bob)}, data)
	log.Topics[2] = "0x01"
	_, err = Decode(log, parsed)
	assertUnresolved(t, err)

	if HasEvent(parsed, "0x01") {
		t.Fatalf("short topic must not match an event")
	}
}

func TestHasEvent(t *testing.T) {
	parsed := testABI(t)
	if !HasEvent(parsed, parsed.Events["Transfer"].ID.Hex()) {
		t.Fatalf("expected Transfer to be found")
	}
	if HasEvent(parsed, parsed.Events["Silent"].ID.Hex()) {
		t.Fatalf("anonymous events must not match")
	}
}

func assertUnresolved(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected unresolved error")
	}
	var unresolvedErr *UnresolvedError
	if !errors.As(err, &unresolvedErr) {
		t.Fatalf("expected *UnresolvedError, got %T: %v", err, err)
	}
	if !errors.Is(err, model.ErrDecodeMismatch) {
		t.Fatalf("expected ErrDecodeMismatch in chain: %v", err)
	}
	if unresolvedErr.Reason == "" {
		t.Fatalf("expected a reason")
	}
}
