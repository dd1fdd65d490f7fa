package model

// UnknownSymbol marks token metadata that could not be resolved.
const UnknownSymbol = "?"

// TokenMeta captures the display metadata of a token.
type TokenMeta struct {
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}

// UnknownToken is the default for addresses that are not tokens.
var UnknownToken = TokenMeta{Symbol: UnknownSymbol, Decimals: 18}

// Known reports whether the metadata was actually resolved.
func (m TokenMeta) Known() bool {
	return m.Symbol != "" && m.Symbol != UnknownSymbol
}
