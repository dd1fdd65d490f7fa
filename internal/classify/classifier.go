package classify

import (
	"context"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"txLogScope/internal/cache"
	"txLogScope/internal/metrics"
	"txLogScope/internal/model"
)

// ImplementationSlot is the EIP-1967 implementation storage slot,
// keccak256("eip1967.proxy.implementation") - 1.
var ImplementationSlot = common.HexToHash("0x360894a13ba1a3210667c828492db98dca3e2076cc3735a920a3ca505d382bbc")

// ChainReader is the chain access the classifier needs.
type ChainReader interface {
	CodeAt(ctx context.Context, address common.Address) ([]byte, error)
	StorageAt(ctx context.Context, address common.Address, slot common.Hash) ([]byte, error)
}

// SourceLookup reports explorer-side proxy information.
type SourceLookup interface {
	GetSourceMetadata(ctx context.Context, address common.Address) (*model.SourceMetadata, error)
}

// Classifier decides whether addresses are wallets, contracts or proxies.
// Results are remembered for the lifetime of the Classifier.
type Classifier struct {
	chain    ChainReader
	explorer SourceLookup
	memo     *cache.Memo[model.Classification]
	logger   *zap.Logger
}

// New creates a Classifier. explorer may be nil.
func New(chain ChainReader, explorer SourceLookup, logger *zap.Logger) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{
		chain:    chain,
		explorer: explorer,
		memo:     cache.NewMemo[model.Classification](),
		logger:   logger,
	}
}

// Classify never fails; lookup errors degrade to the safest answer.
func (c *Classifier) Classify(ctx context.Context, address common.Address) model.Classification {
	key := strings.ToLower(address.Hex())
	result, _ := c.memo.Load(key, func() (model.Classification, error) {
		res := c.classify(ctx, address)
		metrics.ClassificationsTotal.WithLabelValues(label(res)).Inc()
		return res, nil
	})
	return result
}

func (c *Classifier) classify(ctx context.Context, address common.Address) model.Classification {
	res := model.Classification{Address: address, Kind: model.KindEOA}

	code, err := c.chain.CodeAt(ctx, address)
	if err != nil {
		c.logger.Warn("code lookup failed", zap.String("address", address.Hex()), zap.Error(err))
		return res
	}
	if len(code) == 0 {
		return res
	}
	res.Kind = model.KindContract

	if impl, ok := c.slotImplementation(ctx, address); ok {
		res.IsProxy = true
		res.Implementation = &impl
		return res
	}

	if c.explorer == nil {
		return res
	}
	meta, err := c.explorer.GetSourceMetadata(ctx, address)
	if err != nil {
		c.logger.Debug("source lookup failed", zap.String("address", address.Hex()), zap.Error(err))
		return res
	}
	if meta.IsProxy && meta.Implementation != nil && *meta.Implementation != (common.Address{}) {
		impl := *meta.Implementation
		res.IsProxy = true
		res.Implementation = &impl
	}
	return res
}

func (c *Classifier) slotImplementation(ctx context.Context, address common.Address) (common.Address, bool) {
	word, err := c.chain.StorageAt(ctx, address, ImplementationSlot)
	if err != nil {
		c.logger.Warn("implementation slot lookup failed", zap.String("address", address.Hex()), zap.Error(err))
		return common.Address{}, false
	}
	return ImplementationFromWord(word)
}

// ImplementationFromWord extracts the address held in the low 20 bytes of a
// storage word. An empty or all-zero word holds no address.
func ImplementationFromWord(word []byte) (common.Address, bool) {
	if len(word) == 0 {
		return common.Address{}, false
	}
	impl := common.BytesToAddress(word)
	if impl == (common.Address{}) {
		return common.Address{}, false
	}
	return impl, true
}

func label(c model.Classification) string {
	if c.IsProxy {
		return "proxy"
	}
	return string(c.Kind)
}
