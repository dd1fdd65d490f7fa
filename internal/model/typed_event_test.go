package model

import (
	"encoding/json"
	"testing"
)

func TestDecodedInputOmitsUnscaledFields(t *testing.T) {
	payload := DecodedInput{
		Name:         "to",
		SolidityType: "address",
		RawValue:     "0x1111111111111111111111111111111111111111",
		DisplayValue: "0x1111111111111111111111111111111111111111",
	}

	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if _, ok := decoded["formatted_value"]; ok {
		t.Fatalf("formatted_value should be omitted")
	}
	if _, ok := decoded["symbol"]; ok {
		t.Fatalf("symbol should be omitted")
	}
	if _, ok := decoded["raw_value"].(string); !ok {
		t.Fatalf("raw_value should be string")
	}
}

func TestDecodedEventInputLookup(t *testing.T) {
	event := DecodedEvent{Inputs: []DecodedInput{{Name: "from"}, {Name: "value", RawValue: "1"}}}

	in, ok := event.Input("value")
	if !ok || in.RawValue != "1" {
		t.Fatalf("value input not found: %+v", in)
	}
	if _, ok := event.Input("missing"); ok {
		t.Fatalf("unexpected input")
	}
}

func TestTokenMetaKnown(t *testing.T) {
	if UnknownToken.Known() {
		t.Fatalf("unknown token reported as known")
	}
	if !(TokenMeta{Symbol: "DAI", Decimals: 18}).Known() {
		t.Fatalf("DAI reported as unknown")
	}
}
