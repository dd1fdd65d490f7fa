package decode

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"txLogScope/internal/model"
)

// Arg is one decoded event argument.
type Arg struct {
	Name    string
	Type    abi.Type
	Indexed bool
	Value   interface{}
}

// Event is a log decoded against an ABI, arguments in declared order.
type Event struct {
	Index     uint64
	Name      string
	Signature string
	Address   common.Address
	Args      []Arg
}

// Arg returns the first argument with the given name.
func (e *Event) Arg(name string) (Arg, bool) {
	for _, a := range e.Args {
		if a.Name == name {
			return a, true
		}
	}
	return Arg{}, false
}

// UnresolvedError explains why a log could not be decoded.
type UnresolvedError struct {
	Reason string
}

func (e *UnresolvedError) Error() string {
	return "unresolved log: " + e.Reason
}

func (e *UnresolvedError) Unwrap() error {
	return model.ErrDecodeMismatch
}

func unresolved(format string, args ...interface{}) error {
	return &UnresolvedError{Reason: fmt.Sprintf(format, args...)}
}

// Decode matches the log's signature topic against the non-anonymous events
// of contract and decodes it. Any mismatch yields an *UnresolvedError.
func Decode(log model.RawLog, contract abi.ABI) (ev *Event, err error) {
	defer func() {
		if r := recover(); r != nil {
			ev, err = nil, unresolved("decoder panic: %v", r)
		}
	}()

	if len(log.Topics) == 0 {
		return nil, unresolved("log has no topics")
	}
	topics, err := parseTopicHashes(log.Topics)
	if err != nil {
		return nil, unresolved("%v", err)
	}

	event, ok := findEvent(contract, topics[0])
	if !ok {
		return nil, unresolved("no event with signature %s", topics[0].Hex())
	}

	indexed := indexedArguments(event.Inputs)
	if len(topics) != len(indexed)+1 {
		return nil, unresolved("%s: expected %d topics, got %d", event.Sig, len(indexed)+1, len(topics))
	}

	values, err := unpackNonIndexed(event, log.Data)
	if err != nil {
		return nil, unresolved("%v", err)
	}

	out := &Event{
		Index:     log.LogIndex,
		Name:      event.RawName,
		Signature: event.Sig,
		Address:   common.HexToAddress(log.Address),
		Args:      make([]Arg, 0, len(event.Inputs)),
	}

	topicPos, dataPos := 1, 0
	for _, input := range event.Inputs {
		arg := Arg{Name: input.Name, Type: input.Type, Indexed: input.Indexed}
		if input.Indexed {
			v, err := parseIndexedTopic(input, topics[topicPos])
			if err != nil {
				return nil, unresolved("%s: topic %d: %v", event.Sig, topicPos, err)
			}
			arg.Value = v
			topicPos++
		} else {
			if dataPos >= len(values) {
				return nil, unresolved("%s: missing data value for %s", event.Sig, input.Name)
			}
			arg.Value = values[dataPos]
			dataPos++
		}
		out.Args = append(out.Args, arg)
	}
	return out, nil
}

func findEvent(contract abi.ABI, topic0 common.Hash) (abi.Event, bool) {
	for _, ev := range contract.Events {
		if ev.Anonymous {
			continue
		}
		if ev.ID == topic0 {
			return ev, true
		}
	}
	return abi.Event{}, false
}

// HasEvent reports whether contract declares a non-anonymous event with topic0.
func HasEvent(contract abi.ABI, topic0 string) bool {
	hashes, err := parseTopicHashes([]string{topic0})
	if err != nil {
		return false
	}
	_, ok := findEvent(contract, hashes[0])
	return ok
}

// parseIndexedTopic decodes a single indexed argument. Each argument is
// parsed on its own so that unnamed or duplicate names cannot collide.
func parseIndexedTopic(input abi.Argument, topic common.Hash) (interface{}, error) {
	arg := input
	arg.Name = "v"
	out := make(map[string]interface{}, 1)
	if err := abi.ParseTopicsIntoMap(out, abi.Arguments{arg}, []common.Hash{topic}); err != nil {
		return nil, err
	}
	return out["v"], nil
}

func parseTopicHashes(topics []string) ([]common.Hash, error) {
	out := make([]common.Hash, 0, len(topics))
	for _, topic := range topics {
		data, err := hexutil.Decode(topic)
		if err != nil {
			return nil, fmt.Errorf("invalid topic %q: %w", topic, err)
		}
		if len(data) != common.HashLength {
			return nil, fmt.Errorf("topic %q is %d bytes, want %d", topic, len(data), common.HashLength)
		}
		out = append(out, common.BytesToHash(data))
	}
	return out, nil
}

func indexedArguments(args abi.Arguments) abi.Arguments {
	indexed := make(abi.Arguments, 0, len(args))
	for _, arg := range args {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	return indexed
}

func unpackNonIndexed(event abi.Event, dataHex string) ([]interface{}, error) {
	var data []byte
	if trimmed := strings.TrimSpace(dataHex); trimmed != "" && trimmed != "0x" {
		var err error
		data, err = hexutil.Decode(trimmed)
		if err != nil {
			return nil, fmt.Errorf("invalid data: %w", err)
		}
	}
	values, err := event.Inputs.NonIndexed().Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", event.Sig, err)
	}
	return values, nil
}
