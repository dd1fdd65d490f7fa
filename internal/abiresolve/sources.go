package abiresolve

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"txLogScope/internal/cache"
	"txLogScope/internal/model"
)

const (
	SourceCache    = "cache"
	SourceExplorer = "explorer"
	SourceCompile  = "compile"
)

// ABIFetcher returns verified ABI JSON for an address.
type ABIFetcher interface {
	GetABI(ctx context.Context, address common.Address) (string, error)
}

// SourceLookup returns verified source for an address.
type SourceLookup interface {
	GetSourceMetadata(ctx context.Context, address common.Address) (*model.SourceMetadata, error)
}

// Compiler recompiles verified source and returns its ABI JSON.
type Compiler interface {
	Compile(ctx context.Context, source, contractName, compilerVersion string) (string, error)
}

type cacheStrategy struct {
	cache  *cache.AbiCache
	logger *zap.Logger
}

// CacheStrategy reads ABIs persisted by earlier runs.
func CacheStrategy(c *cache.AbiCache, logger *zap.Logger) Strategy {
	return &cacheStrategy{cache: c, logger: orNop(logger)}
}

func (s *cacheStrategy) Name() string { return SourceCache }

func (s *cacheStrategy) Resolve(_ context.Context, address common.Address) Result {
	data, ok, err := s.cache.Get(address)
	if err != nil {
		s.logger.Warn("abi cache read failed", zap.String("address", address.Hex()), zap.Error(err))
		return NotFound(err)
	}
	if !ok {
		return NotFound(nil)
	}
	contract, err := ParseABI(address, string(data), SourceCache)
	if err != nil {
		s.logger.Warn("ignoring corrupt cached abi", zap.String("address", address.Hex()), zap.Error(err))
		return NotFound(err)
	}
	return Found(contract)
}

type explorerStrategy struct {
	explorer ABIFetcher
}

// ExplorerStrategy fetches verified ABIs from a block explorer.
func ExplorerStrategy(explorer ABIFetcher) Strategy {
	return &explorerStrategy{explorer: explorer}
}

func (s *explorerStrategy) Name() string { return SourceExplorer }

func (s *explorerStrategy) Resolve(ctx context.Context, address common.Address) Result {
	abiJSON, err := s.explorer.GetABI(ctx, address)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return NotFound(err)
		}
		return Failed(err)
	}
	contract, err := ParseABI(address, abiJSON, SourceExplorer)
	if err != nil {
		return Failed(err)
	}
	return Found(contract)
}

type compileStrategy struct {
	sources  SourceLookup
	compiler Compiler
	logger   *zap.Logger
}

// CompileStrategy recovers an ABI from an explorer's verified-source record.
// An ABI published alongside the source is used as is; otherwise the source
// is recompiled. compiler may be nil, which limits it to published ABIs.
func CompileStrategy(sources SourceLookup, compiler Compiler, logger *zap.Logger) Strategy {
	return &compileStrategy{sources: sources, compiler: compiler, logger: orNop(logger)}
}

func (s *compileStrategy) Name() string { return SourceCompile }

func (s *compileStrategy) Resolve(ctx context.Context, address common.Address) Result {
	meta, err := s.sources.GetSourceMetadata(ctx, address)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return NotFound(err)
		}
		return Failed(err)
	}
	if meta == nil {
		return NotFound(fmt.Errorf("no source record for %s", address.Hex()))
	}

	if !isEmptyABI(meta.ABI) {
		contract, err := ParseABI(address, meta.ABI, SourceExplorer)
		if err == nil {
			return Found(contract)
		}
		s.logger.Debug("published abi unusable, recompiling", zap.String("address", address.Hex()), zap.Error(err))
	}

	if !meta.HasSource() {
		return NotFound(fmt.Errorf("no verified source for %s", address.Hex()))
	}
	if s.compiler == nil {
		return NotFound(fmt.Errorf("no compiler configured for %s", address.Hex()))
	}

	abiJSON, err := s.compiler.Compile(ctx, meta.SourceCode, meta.ContractName, meta.CompilerVersion)
	if err != nil {
		if errors.Is(err, model.ErrCompile) {
			s.logger.Warn("recompilation failed",
				zap.String("address", address.Hex()),
				zap.String("contract", meta.ContractName),
				zap.String("compiler", meta.CompilerVersion),
				zap.Error(err),
			)
			return NotFound(err)
		}
		return Failed(err)
	}
	if isEmptyABI(abiJSON) {
		return NotFound(fmt.Errorf("compiler produced no abi for %s", meta.ContractName))
	}

	contract, err := ParseABI(address, abiJSON, SourceCompile)
	if err != nil {
		return NotFound(err)
	}
	return Found(contract)
}

type persisting struct {
	Strategy
	cache  *cache.AbiCache
	logger *zap.Logger
}

// Persisting stores every ABI the wrapped strategy finds before returning it.
func Persisting(inner Strategy, c *cache.AbiCache, logger *zap.Logger) Strategy {
	return &persisting{Strategy: inner, cache: c, logger: orNop(logger)}
}

func (p *persisting) Resolve(ctx context.Context, address common.Address) Result {
	res := p.Strategy.Resolve(ctx, address)
	if !res.IsFound() {
		return res
	}
	if err := p.cache.Put(address, []byte(res.Contract.JSON)); err != nil {
		p.logger.Warn("abi cache write failed", zap.String("address", address.Hex()), zap.Error(err))
	}
	return res
}

func orNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
