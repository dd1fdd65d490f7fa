package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"txLogScope/internal/abiresolve"
	"txLogScope/internal/cache"
	"txLogScope/internal/chain"
	"txLogScope/internal/classify"
	"txLogScope/internal/decode"
	"txLogScope/internal/format"
	"txLogScope/internal/metrics"
	"txLogScope/internal/model"
	"txLogScope/internal/token"
)

// ChainClient is the chain access a session needs.
type ChainClient interface {
	classify.ChainReader
	token.Caller
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	BlockTimestamp(ctx context.Context, number uint64) (uint64, error)
}

// Explorer is the block explorer access a session needs.
type Explorer interface {
	abiresolve.ABIFetcher
	abiresolve.SourceLookup
}

// Config tunes a session.
type Config struct {
	// Concurrency bounds the pre-resolution workers. Values below 2 skip
	// pre-resolution and resolve lazily while decoding.
	Concurrency int
	GroupRaw    bool
}

func DefaultConfig() Config {
	return Config{Concurrency: 4, GroupRaw: true}
}

// Deps are a session's collaborators. Explorer, Compiler and Cache are optional.
type Deps struct {
	Chain    ChainClient
	Explorer Explorer
	Compiler abiresolve.Compiler
	Cache    *cache.AbiCache
}

// Result holds the decoded events and failures of one transaction.
type Result struct {
	RunID          string                `json:"run_id"`
	TxHash         string                `json:"tx_hash"`
	BlockNumber    uint64                `json:"block_number"`
	BlockTimestamp uint64                `json:"block_timestamp,omitempty"`
	Events         []model.DecodedEvent  `json:"events"`
	Failures       []model.DecodeFailure `json:"failures"`
}

// Session owns every per-run cache. Classifications, ABI outcomes and token
// metadata live as long as the Session; value-to-token guesses last for one
// Decode call.
type Session struct {
	RunID string

	chain      ChainClient
	classifier *classify.Classifier
	abis       *abiresolve.Resolver
	tokens     *token.Resolver
	formatOpts format.Options
	cfg        Config
	logger     *zap.Logger
}

func NewSession(deps Deps, cfg Config, logger *zap.Logger) (*Session, error) {
	if deps.Chain == nil {
		return nil, fmt.Errorf("chain client is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	runID := uuid.NewString()
	logger = logger.With(zap.String("run_id", runID))

	var sources classify.SourceLookup
	resolverDeps := abiresolve.Deps{Cache: deps.Cache}
	if deps.Explorer != nil {
		sources = deps.Explorer
		resolverDeps.Explorer = deps.Explorer
		resolverDeps.Compiler = deps.Compiler
	}

	tokens := token.New(deps.Chain, logger)
	return &Session{
		RunID:      runID,
		chain:      deps.Chain,
		classifier: classify.New(deps.Chain, sources, logger),
		abis:       abiresolve.New(resolverDeps, logger),
		tokens:     tokens,
		formatOpts: format.Options{GroupRaw: cfg.GroupRaw},
		cfg:        cfg,
		logger:     logger,
	}, nil
}

// Classifier exposes the session's classifier.
func (s *Session) Classifier() *classify.Classifier { return s.classifier }

// ABIs exposes the session's ABI resolver.
func (s *Session) ABIs() *abiresolve.Resolver { return s.abis }

// DecodeTransaction fetches the receipt of txHash and decodes its logs.
func (s *Session) DecodeTransaction(ctx context.Context, txHash common.Hash) (*Result, error) {
	receipt, err := s.chain.TransactionReceipt(ctx, txHash)
	if err != nil {
		return nil, fmt.Errorf("fetch receipt %s: %w", txHash.Hex(), err)
	}

	result := s.Decode(ctx, txHash.Hex(), chain.ReceiptLogs(receipt))
	if receipt.BlockNumber != nil {
		result.BlockNumber = receipt.BlockNumber.Uint64()
		if ts, err := s.chain.BlockTimestamp(ctx, result.BlockNumber); err == nil {
			result.BlockTimestamp = ts
		} else {
			s.logger.Warn("block timestamp lookup failed", zap.Uint64("block", result.BlockNumber), zap.Error(err))
		}
	}
	return result, nil
}

// Decode classifies, resolves and decodes logs in order. It never fails as
// a whole; logs that cannot be decoded are reported in Result.Failures.
func (s *Session) Decode(ctx context.Context, txHash string, logs []model.RawLog) *Result {
	result := &Result{
		RunID:    s.RunID,
		TxHash:   txHash,
		Events:   make([]model.DecodedEvent, 0, len(logs)),
		Failures: make([]model.DecodeFailure, 0),
	}
	if len(logs) > 0 {
		result.BlockNumber = logs[0].BlockNumber
	}

	if s.cfg.Concurrency > 1 {
		s.prewarm(ctx, logs)
	}

	formatter := format.New(s.tokens, s.formatOpts)

	for _, log := range logs {
		if txHash == "" {
			txHash = log.TxHash
			result.TxHash = txHash
		}
		event, failure := s.decodeLog(ctx, log)
		switch {
		case failure != nil:
			failure.TxHash = txHash
			result.Failures = append(result.Failures, *failure)
			metrics.LogsTotal.WithLabelValues(failure.Kind).Inc()
			s.logger.Info("log not decoded",
				zap.Uint64("log_index", log.LogIndex),
				zap.String("address", log.Address),
				zap.String("topic0", log.Topic0()),
				zap.String("reason", failure.Reason),
			)
		case event != nil:
			result.Events = append(result.Events, formatter.Format(ctx, txHash, event))
			metrics.LogsTotal.WithLabelValues("decoded").Inc()
		default:
			metrics.LogsTotal.WithLabelValues("skipped_eoa").Inc()
		}
	}
	return result
}

// prewarm classifies and resolves every distinct emitter concurrently so
// that sequential decoding hits warm caches.
func (s *Session) prewarm(ctx context.Context, logs []model.RawLog) {
	addresses := lo.Uniq(lo.FilterMap(logs, func(l model.RawLog, _ int) (string, bool) {
		if !common.IsHexAddress(l.Address) {
			return "", false
		}
		return strings.ToLower(l.Address), true
	}))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for _, addr := range addresses {
		address := common.HexToAddress(addr)
		g.Go(func() error {
			cls := s.classifier.Classify(gctx, address)
			if cls.Kind != model.KindContract {
				return nil
			}
			s.abis.Lookup(gctx, cls.Target())
			if cls.IsProxy {
				s.abis.Lookup(gctx, cls.Address)
			}
			return nil
		})
	}
	_ = g.Wait()

	s.logger.Debug("prewarm complete", zap.Int("addresses", len(addresses)))
}

// decodeLog returns an event, a failure, or neither for logs emitted by
// externally owned accounts.
func (s *Session) decodeLog(ctx context.Context, log model.RawLog) (*decode.Event, *model.DecodeFailure) {
	if !common.IsHexAddress(log.Address) {
		return nil, newFailure(log, model.FailureInvalidLog, fmt.Sprintf("invalid address %q", log.Address))
	}
	address := common.HexToAddress(log.Address)

	cls := s.classifier.Classify(ctx, address)
	if cls.Kind == model.KindEOA {
		s.logger.Debug("skipping log from externally owned account",
			zap.Uint64("log_index", log.LogIndex),
			zap.String("address", address.Hex()),
		)
		return nil, nil
	}

	contract, err := s.contractFor(ctx, cls, log.Topic0())
	if err != nil {
		return nil, newFailure(log, model.FailureAbiNotFound, err.Error())
	}

	event, err := decode.Decode(log, contract.ABI)
	if err != nil {
		return nil, newFailure(log, model.FailureDecodeMismatch, err.Error())
	}
	return event, nil
}

// contractFor resolves the ABI for a classified emitter. Proxies use the
// implementation ABI, falling back to the proxy's own ABI when the
// implementation has none or does not declare the log's event.
func (s *Session) contractFor(ctx context.Context, cls model.Classification, topic0 string) (*abiresolve.Contract, error) {
	contract, err := s.abis.Resolve(ctx, cls.Target())
	if !cls.IsProxy {
		return contract, err
	}
	if err == nil && decode.HasEvent(contract.ABI, topic0) {
		return contract, nil
	}

	own, ownErr := s.abis.Resolve(ctx, cls.Address)
	if ownErr == nil && decode.HasEvent(own.ABI, topic0) {
		return own, nil
	}
	if err != nil {
		return nil, err
	}
	return contract, nil
}

func newFailure(log model.RawLog, kind, reason string) *model.DecodeFailure {
	return &model.DecodeFailure{
		TxHash:   log.TxHash,
		LogIndex: log.LogIndex,
		Address:  log.Address,
		Topic0:   log.Topic0(),
		Kind:     kind,
		Reason:   reason,
	}
}
