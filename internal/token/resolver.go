package token

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"txLogScope/internal/cache"
	"txLogScope/internal/heuristics"
	"txLogScope/internal/metrics"
	"txLogScope/internal/model"
)

// Caller performs read-only contract calls.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Resolver looks up ERC-20 symbol and decimals. Answers, including the
// unknown default, are remembered for the lifetime of the Resolver.
type Resolver struct {
	caller Caller
	memo   *cache.Memo[model.TokenMeta]
	logger *zap.Logger
}

func New(caller Caller, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		caller: caller,
		memo:   cache.NewMemo[model.TokenMeta](),
		logger: logger,
	}
}

// Resolve returns the metadata of address, or model.UnknownToken when the
// address does not answer like a token.
func (r *Resolver) Resolve(ctx context.Context, address common.Address) model.TokenMeta {
	if address == heuristics.NativeSentinel {
		return heuristics.NativeAsset
	}
	meta, _ := r.memo.Load(strings.ToLower(address.Hex()), func() (model.TokenMeta, error) {
		meta, err := r.probe(ctx, address)
		if err != nil {
			metrics.TokenProbesTotal.WithLabelValues("error").Inc()
			r.logger.Debug("token probe failed", zap.String("token", address.Hex()), zap.Error(err))
			return model.UnknownToken, nil
		}
		metrics.TokenProbesTotal.WithLabelValues("ok").Inc()
		return meta, nil
	})
	return meta
}

// Underlying returns the metadata of the asset a wrapper token represents.
// Known wrapper contracts map statically; otherwise the wrapper marker is
// stripped from the symbol. Unlisted underlyings keep 18 decimals.
func (r *Resolver) Underlying(wrapper common.Address, meta model.TokenMeta) (model.TokenMeta, bool) {
	if symbol, ok := heuristics.WrapperUnderlying[wrapper]; ok {
		if asset, ok := heuristics.LookupAsset(symbol); ok {
			return asset, true
		}
		return model.TokenMeta{Symbol: symbol, Decimals: 18}, true
	}
	symbol, ok := heuristics.StripWrapper(meta.Symbol)
	if !ok {
		return meta, false
	}
	if asset, ok := heuristics.LookupAsset(symbol); ok {
		return asset, true
	}
	return model.TokenMeta{Symbol: symbol, Decimals: 18}, true
}

func (r *Resolver) probe(ctx context.Context, address common.Address) (model.TokenMeta, error) {
	if r.caller == nil {
		return model.UnknownToken, fmt.Errorf("contract caller is nil")
	}
	stringABI, bytes32ABI, err := erc20ABIs()
	if err != nil {
		return model.UnknownToken, err
	}

	var (
		symbol   string
		decimals uint8
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		values, err := r.call(gctx, address, stringABI, "symbol")
		if err == nil {
			if s, ok := values[0].(string); ok && s != "" {
				symbol = s
				return nil
			}
		}
		values, err = r.call(gctx, address, bytes32ABI, "symbol")
		if err != nil {
			return err
		}
		s, ok := bytes32ToString(values[0])
		if !ok || s == "" {
			return fmt.Errorf("empty symbol")
		}
		symbol = s
		return nil
	})
	g.Go(func() error {
		values, err := r.call(gctx, address, stringABI, "decimals")
		if err != nil {
			return err
		}
		decimals, err = asUint8(values[0])
		return err
	})
	if err := g.Wait(); err != nil {
		return model.UnknownToken, err
	}
	return model.TokenMeta{Symbol: symbol, Decimals: decimals}, nil
}

func (r *Resolver) call(ctx context.Context, address common.Address, parsed abi.ABI, method string) ([]interface{}, error) {
	data, err := parsed.Pack(method)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	resp, err := r.caller.CallContract(ctx, ethereum.CallMsg{To: &address, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	values, err := parsed.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%s returned nothing", method)
	}
	return values, nil
}
