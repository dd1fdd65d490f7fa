package compiler

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Input is a solc standard-JSON input document.
type Input struct {
	Language string                     `json:"language"`
	Sources  map[string]SourceFile      `json:"sources"`
	Settings map[string]json.RawMessage `json:"settings,omitempty"`
}

// SourceFile is one entry of Input.Sources.
type SourceFile struct {
	Content string `json:"content"`
}

// abiOnlySelection asks solc for nothing but the ABI of every contract.
var abiOnlySelection = json.RawMessage(`{"*":{"*":["abi"]}}`)

// BuildInput turns explorer source text into a standard-JSON input.
//
// Explorers return one of three shapes: a standard-JSON document wrapped in
// an extra pair of braces, a bare {"File.sol": {"content": ...}} map, or a
// single flattened file.
func BuildInput(source, contractName string) (*Input, error) {
	trimmed := strings.TrimSpace(source)
	if trimmed == "" {
		return nil, fmt.Errorf("empty source")
	}

	var in *Input
	switch {
	case strings.HasPrefix(trimmed, "{{") && strings.HasSuffix(trimmed, "}}"):
		in = &Input{}
		if err := json.Unmarshal([]byte(trimmed[1:len(trimmed)-1]), in); err != nil {
			return nil, fmt.Errorf("parse standard-json source: %w", err)
		}
	case strings.HasPrefix(trimmed, "{"):
		sources := make(map[string]SourceFile)
		if err := json.Unmarshal([]byte(trimmed), &sources); err != nil {
			return nil, fmt.Errorf("parse source map: %w", err)
		}
		in = &Input{Sources: sources}
	default:
		name := contractName
		if name == "" {
			name = "Contract"
		}
		in = &Input{Sources: map[string]SourceFile{name + ".sol": {Content: source}}}
	}

	if len(in.Sources) == 0 {
		return nil, fmt.Errorf("source has no files")
	}
	if in.Language == "" {
		in.Language = "Solidity"
	}
	if in.Settings == nil {
		in.Settings = make(map[string]json.RawMessage)
	}
	in.Settings["outputSelection"] = abiOnlySelection
	return in, nil
}
