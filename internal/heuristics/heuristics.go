// Package heuristics holds every name- and symbol-based lookup table used to
// infer token units for decoded event arguments. Changing any table changes
// formatted output, so bump Version alongside it.
package heuristics

import (
	"strings"
	"unicode"

	"github.com/ethereum/go-ethereum/common"

	"txLogScope/internal/model"
)

// Version identifies the revision of the tables below.
const Version = "2026.10.1"

// NativeSentinel is the pseudo-token address DEX aggregators use for ETH.
var NativeSentinel = common.HexToAddress("0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE")

// NativeAsset is reported for NativeSentinel without a chain call.
var NativeAsset = model.TokenMeta{Symbol: "ETH", Decimals: 18}

// KnownAssets maps upper-case symbols to their canonical metadata.
var KnownAssets = map[string]model.TokenMeta{
	"ETH":  {Symbol: "ETH", Decimals: 18},
	"WETH": {Symbol: "WETH", Decimals: 18},
	"USDC": {Symbol: "USDC", Decimals: 6},
	"USDT": {Symbol: "USDT", Decimals: 6},
	"DAI":  {Symbol: "DAI", Decimals: 18},
	"SAI":  {Symbol: "SAI", Decimals: 18},
	"WBTC": {Symbol: "WBTC", Decimals: 8},
	"BAT":  {Symbol: "BAT", Decimals: 18},
	"ZRX":  {Symbol: "ZRX", Decimals: 18},
	"REP":  {Symbol: "REP", Decimals: 18},
	"COMP": {Symbol: "COMP", Decimals: 18},
	"UNI":  {Symbol: "UNI", Decimals: 18},
	"LINK": {Symbol: "LINK", Decimals: 18},
	"TUSD": {Symbol: "TUSD", Decimals: 18},
}

// LookupAsset returns the canonical metadata for a symbol.
func LookupAsset(symbol string) (model.TokenMeta, bool) {
	meta, ok := KnownAssets[strings.ToUpper(strings.TrimSpace(symbol))]
	return meta, ok
}

// ScaleKeyword marks a uint parameter name as a token-denominated quantity.
type ScaleKeyword string

const (
	KeywordAmount ScaleKeyword = "amount"
	KeywordValue  ScaleKeyword = "value"
	KeywordWad    ScaleKeyword = "wad"
	KeywordFee    ScaleKeyword = "fee"
	KeywordToken  ScaleKeyword = "token"
	KeywordPrice  ScaleKeyword = "price"
	KeywordBought ScaleKeyword = "bought"
	KeywordSold   ScaleKeyword = "sold"
	KeywordRate   ScaleKeyword = "rate"
	KeywordBorrow ScaleKeyword = "borrow"
)

// ScaleKeywords is matched as a case-insensitive substring of the parameter name.
var ScaleKeywords = []ScaleKeyword{
	KeywordAmount, KeywordValue, KeywordWad, KeywordFee, KeywordToken,
	KeywordPrice, KeywordBought, KeywordSold, KeywordRate, KeywordBorrow,
}

// IsScaledName reports whether a uint parameter should be scaled by token decimals.
func IsScaledName(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range ScaleKeywords {
		if strings.Contains(lower, string(kw)) {
			return true
		}
	}
	return false
}

// UnderlyingActions are parameter names whose amounts are denominated in a
// wrapper token's underlying asset rather than in the wrapper itself.
var UnderlyingActions = []string{"mintamount", "borrowamount", "repayamount", "redeemamount"}

// IsUnderlyingAction reports whether name carries an underlying-denominated amount.
func IsUnderlyingAction(name string) bool {
	lower := strings.ToLower(name)
	for _, action := range UnderlyingActions {
		if strings.Contains(lower, action) {
			return true
		}
	}
	return false
}

// NameGuess maps a parameter-name fragment to an asset symbol.
type NameGuess struct {
	Fragment string
	Symbol   string
}

// NameGuesses is consulted in order; the first fragment found in the name wins.
var NameGuesses = []NameGuess{
	{Fragment: "usdc", Symbol: "USDC"},
	{Fragment: "usdt", Symbol: "USDT"},
	{Fragment: "dai", Symbol: "DAI"},
	{Fragment: "btc", Symbol: "WBTC"},
	{Fragment: "eth", Symbol: "ETH"},
}

// GuessFromName infers token metadata from a parameter name.
func GuessFromName(name string) (model.TokenMeta, bool) {
	lower := strings.ToLower(name)
	for _, guess := range NameGuesses {
		if strings.Contains(lower, guess.Fragment) {
			return LookupAsset(guess.Symbol)
		}
	}
	return model.TokenMeta{}, false
}

// WrapperMarkers prefix the symbols of interest-bearing wrapper tokens (Compound cTokens).
var WrapperMarkers = []string{"c"}

// StripWrapper returns the underlying symbol of a wrapper symbol such as
// "cETH". The marker must be followed by an upper-case letter, so "crvUSD"
// is not treated as a wrapper.
func StripWrapper(symbol string) (string, bool) {
	for _, marker := range WrapperMarkers {
		if !strings.HasPrefix(symbol, marker) {
			continue
		}
		rest := symbol[len(marker):]
		if rest == "" {
			continue
		}
		if r := []rune(rest)[0]; unicode.IsUpper(r) {
			return rest, true
		}
	}
	return "", false
}

// WrapperUnderlying maps well-known wrapper token contracts to their underlying symbol.
var WrapperUnderlying = map[common.Address]string{
	common.HexToAddress("0x4Ddc2D193948926D02f9B1fE9e1daa0718270ED5"): "ETH",  // cETH
	common.HexToAddress("0xC11b1268C1A384e55C48c2391d8d480264A3A7F4"): "WBTC", // cWBTC
	common.HexToAddress("0x39AA39c021dfbaE8faC545936693aC917d5E7563"): "USDC", // cUSDC
}
