package model

// DecodedEvent is a decoded and display-formatted log.
type DecodedEvent struct {
	TxHash          string         `json:"tx_hash,omitempty"`
	EventIndex      uint64         `json:"event_index"`
	Name            string         `json:"name"`
	Signature       string         `json:"signature"`
	ContractAddress string         `json:"contract_address"`
	Inputs          []DecodedInput `json:"inputs"`
}

// DecodedInput is one event argument in declared order.
type DecodedInput struct {
	Name           string   `json:"name"`
	SolidityType   string   `json:"type"`
	Indexed        bool     `json:"indexed"`
	RawValue       string   `json:"raw_value"`
	DisplayValue   string   `json:"display_value"`
	FormattedValue *float64 `json:"formatted_value,omitempty"`
	Symbol         *string  `json:"symbol,omitempty"`
}

// Input returns the first input with the given name.
func (e DecodedEvent) Input(name string) (DecodedInput, bool) {
	for _, in := range e.Inputs {
		if in.Name == name {
			return in, true
		}
	}
	return DecodedInput{}, false
}
