package format

import (
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"txLogScope/internal/cache"
	"txLogScope/internal/decode"
	"txLogScope/internal/heuristics"
	"txLogScope/internal/model"
)

const defaultFractionDigits = 6

// TokenSource supplies token metadata for unit scaling.
type TokenSource interface {
	Resolve(ctx context.Context, address common.Address) model.TokenMeta
	Underlying(wrapper common.Address, meta model.TokenMeta) (model.TokenMeta, bool)
}

// Options tunes display output.
type Options struct {
	// GroupRaw inserts thousands separators into the raw part of scaled values.
	GroupRaw bool
	// FractionDigits caps the scaled part; zero means 6.
	FractionDigits int
	// Language selects the grouping locale; the zero value means English.
	Language language.Tag
}

// resolvedToken is a token inference result remembered by raw value.
type resolvedToken struct {
	address *common.Address
	meta    model.TokenMeta
}

// Formatter turns decoded events into display records. One Formatter
// belongs to one run: it remembers which token each raw amount resolved to
// and reuses that answer for later arguments carrying the same value. Equal
// amounts of different tokens in one transaction are therefore shown with the
// first token seen.
type Formatter struct {
	tokens  TokenSource
	opts    Options
	byValue *cache.Memo[resolvedToken]
	printer *message.Printer
}

func New(tokens TokenSource, opts Options) *Formatter {
	if opts.FractionDigits <= 0 {
		opts.FractionDigits = defaultFractionDigits
	}
	tag := opts.Language
	if tag == language.Und {
		tag = language.English
	}
	return &Formatter{
		tokens:  tokens,
		opts:    opts,
		byValue: cache.NewMemo[resolvedToken](),
		printer: message.NewPrinter(tag),
	}
}

// Format renders every argument of ev in declared order.
func (f *Formatter) Format(ctx context.Context, txHash string, ev *decode.Event) model.DecodedEvent {
	out := model.DecodedEvent{
		TxHash:          txHash,
		EventIndex:      ev.Index,
		Name:            ev.Name,
		Signature:       ev.Signature,
		ContractAddress: ev.Address.Hex(),
		Inputs:          make([]model.DecodedInput, 0, len(ev.Args)),
	}
	for _, arg := range ev.Args {
		out.Inputs = append(out.Inputs, f.formatArg(ctx, ev, arg))
	}
	return out
}

func (f *Formatter) formatArg(ctx context.Context, ev *decode.Event, arg decode.Arg) model.DecodedInput {
	raw := decode.FormatValue(arg.Type, arg.Value)
	in := model.DecodedInput{
		Name:         arg.Name,
		SolidityType: arg.Type.String(),
		Indexed:      arg.Indexed,
		RawValue:     raw,
		DisplayValue: raw,
	}

	if arg.Type.T != abi.UintTy || !heuristics.IsScaledName(arg.Name) {
		return in
	}
	amount, ok := decode.AsBigInt(arg.Value)
	if !ok {
		return in
	}

	meta := f.tokenFor(ctx, ev, arg.Name, raw)
	scaled := Scale(amount, meta.Decimals)
	symbol := meta.Symbol

	in.FormattedValue = &scaled
	in.Symbol = &symbol
	in.DisplayValue = f.display(raw, scaled, symbol)
	return in
}

// tokenFor picks the token an amount is denominated in.
func (f *Formatter) tokenFor(ctx context.Context, ev *decode.Event, name, raw string) model.TokenMeta {
	resolved, ok := f.byValue.Get(raw)
	if !ok {
		resolved, ok = f.infer(ctx, ev, name)
		if ok {
			f.byValue.Store(raw, resolved)
		}
	}
	if !ok {
		return model.UnknownToken
	}

	if resolved.address != nil && heuristics.IsUnderlyingAction(name) {
		if underlying, ok := f.tokens.Underlying(*resolved.address, resolved.meta); ok {
			return underlying
		}
	}
	return resolved.meta
}

// infer tries address-typed sibling arguments, then the emitting contract,
// then a guess from the argument name. The first known token wins.
func (f *Formatter) infer(ctx context.Context, ev *decode.Event, name string) (resolvedToken, bool) {
	if f.tokens != nil {
		for _, sibling := range ev.Args {
			if sibling.Type.T != abi.AddressTy {
				continue
			}
			addr, ok := decode.AsAddress(sibling.Value)
			if !ok {
				continue
			}
			if meta := f.tokens.Resolve(ctx, addr); meta.Known() {
				return resolvedToken{address: &addr, meta: meta}, true
			}
		}

		addr := ev.Address
		if meta := f.tokens.Resolve(ctx, addr); meta.Known() {
			return resolvedToken{address: &addr, meta: meta}, true
		}
	}

	if meta, ok := heuristics.GuessFromName(name); ok {
		return resolvedToken{meta: meta}, true
	}
	return resolvedToken{}, false
}

func (f *Formatter) display(raw string, scaled float64, symbol string) string {
	if f.opts.GroupRaw {
		raw = GroupDigits(raw)
	}
	value := f.printer.Sprint(number.Decimal(scaled, number.MaxFractionDigits(f.opts.FractionDigits)))
	return raw + " (" + value + " " + symbol + ")"
}

// Scale divides amount by 10^decimals.
func Scale(amount *big.Int, decimals uint8) float64 {
	denom := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	value, _ := new(big.Rat).SetFrac(amount, denom).Float64()
	return value
}

// GroupDigits inserts a comma every three digits of a decimal integer string.
func GroupDigits(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	if len(s) <= 3 {
		return sign + s
	}
	var b strings.Builder
	b.Grow(len(s) + len(s)/3)
	head := len(s) % 3
	if head == 0 {
		head = 3
	}
	b.WriteString(s[:head])
	for i := head; i < len(s); i += 3 {
		b.WriteByte(',')
		b.WriteString(s[i : i+3])
	}
	return sign + b.String()
}
