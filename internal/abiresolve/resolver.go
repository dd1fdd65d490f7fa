package abiresolve

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"txLogScope/internal/cache"
	"txLogScope/internal/metrics"
	"txLogScope/internal/model"
)

// Resolver resolves ABIs through a strategy chain and remembers every
// outcome, including misses, for its lifetime.
type Resolver struct {
	strategy Strategy
	memo     *cache.Memo[Result]
	logger   *zap.Logger
}

// Deps are the collaborators of the default strategy chain. A nil Cache or
// Explorer drops the strategies that need it; a nil Compiler limits source
// recovery to ABIs published with the verified source.
type Deps struct {
	Cache    *cache.AbiCache
	Explorer interface {
		ABIFetcher
		SourceLookup
	}
	Compiler Compiler
}

// New builds the cache > explorer > compile chain.
func New(deps Deps, logger *zap.Logger) *Resolver {
	var chain []Strategy
	persist := func(s Strategy) Strategy {
		if deps.Cache == nil {
			return s
		}
		return Persisting(s, deps.Cache, logger)
	}

	if deps.Cache != nil {
		chain = append(chain, CacheStrategy(deps.Cache, logger))
	}
	if deps.Explorer != nil {
		chain = append(chain, persist(ExplorerStrategy(deps.Explorer)))
		chain = append(chain, persist(CompileStrategy(deps.Explorer, deps.Compiler, logger)))
	}
	return NewWithStrategy(FirstSuccess(chain...), logger)
}

// NewWithStrategy wraps an arbitrary strategy with per-run memoization.
func NewWithStrategy(strategy Strategy, logger *zap.Logger) *Resolver {
	return &Resolver{
		strategy: strategy,
		memo:     cache.NewMemo[Result](),
		logger:   orNop(logger),
	}
}

// Lookup returns the tagged outcome for address.
func (r *Resolver) Lookup(ctx context.Context, address common.Address) Result {
	key := strings.ToLower(address.Hex())
	res, _ := r.memo.Load(key, func() (Result, error) {
		res := r.strategy.Resolve(ctx, address)
		r.observe(address, res)
		return res, nil
	})
	return res
}

// Resolve returns the contract ABI for address, or an error wrapping
// model.ErrNotFound when no strategy produced one.
func (r *Resolver) Resolve(ctx context.Context, address common.Address) (*Contract, error) {
	res := r.Lookup(ctx, address)
	if res.IsFound() {
		return res.Contract, nil
	}
	if res.Err != nil {
		return nil, fmt.Errorf("abi for %s: %w: %w", address.Hex(), model.ErrNotFound, res.Err)
	}
	return nil, fmt.Errorf("abi for %s: %w", address.Hex(), model.ErrNotFound)
}

func (r *Resolver) observe(address common.Address, res Result) {
	if res.IsFound() {
		metrics.AbiResolutionsTotal.WithLabelValues(res.Contract.Source).Inc()
		r.logger.Debug("abi resolved", zap.String("address", address.Hex()), zap.String("source", res.Contract.Source))
		return
	}
	metrics.AbiResolutionsTotal.WithLabelValues(res.Status.String()).Inc()
	if res.Status == StatusFailed {
		r.logger.Warn("abi resolution failed", zap.String("address", address.Hex()), zap.Error(res.Err))
		return
	}
	r.logger.Debug("abi not found", zap.String("address", address.Hex()), zap.Error(res.Err))
}
