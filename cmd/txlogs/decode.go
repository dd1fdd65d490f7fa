package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"txLogScope/internal/config"
	"txLogScope/internal/graph"
	"txLogScope/internal/metrics"
	"txLogScope/internal/model"
	"txLogScope/internal/pipeline"
	"txLogScope/internal/storage"
	"txLogScope/internal/storage/postgres"
)

func runDecode(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadDecode(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.TxHash == "" && cfg.In == "" {
		return fmt.Errorf("either --tx or --in is required")
	}
	if cfg.TxHash != "" && cfg.In != "" {
		return fmt.Errorf("--tx and --in are mutually exclusive")
	}
	if cfg.Out == "" {
		return fmt.Errorf("output path is required")
	}
	if cfg.Errors == "" {
		return fmt.Errorf("errors path is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(cfg.MetricsAddr); err != nil {
				logger.Error("metrics server stopped", zap.Error(err))
			}
		}()
	}

	svc, err := openServices(ctx, cfg.Common, logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	session, err := pipeline.NewSession(svc.deps, pipeline.Config{
		Concurrency: cfg.Concurrency,
		GroupRaw:    cfg.GroupRaw,
	}, logger)
	if err != nil {
		return err
	}

	sinks := []storage.Sink{storage.NewJsonlStorage(cfg.Out, cfg.Errors)}
	var pgStore *postgres.Store
	if cfg.PGDSN != "" {
		pgStore, err = postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pgStore.Close()
		if err := pgStore.Migrate(ctx); err != nil {
			return err
		}
		sinks = append(sinks, pgStore)
	}

	logger.Info("decode start",
		zap.String("run_id", session.RunID),
		zap.String("rpc", cfg.RPCURL),
		zap.String("tx", cfg.TxHash),
		zap.String("in", cfg.In),
		zap.String("out", cfg.Out),
		zap.String("errors", cfg.Errors),
		zap.String("cache_backend", cfg.CacheBackend),
		zap.Bool("explorer", svc.deps.Explorer != nil),
	)

	var results []*pipeline.Result
	if cfg.TxHash != "" {
		hash, err := parseTxHash(cfg.TxHash)
		if err != nil {
			return err
		}
		result, err := session.DecodeTransaction(ctx, hash)
		if err != nil {
			return err
		}
		results = append(results, result)
	} else {
		batches, rejected, err := readRawLogs(cfg.In)
		if err != nil {
			return err
		}
		if len(rejected) > 0 {
			results = append(results, &pipeline.Result{RunID: session.RunID, Failures: rejected})
		}
		for _, batch := range batches {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			results = append(results, session.Decode(ctx, batch.txHash, batch.logs))
		}
	}

	var decoded, failed int
	for _, result := range results {
		for _, sink := range sinks {
			if err := sink.PutEvents(ctx, session.RunID, result.Events); err != nil {
				return fmt.Errorf("store events: %w", err)
			}
			if err := sink.PutFailures(ctx, session.RunID, result.Failures); err != nil {
				return fmt.Errorf("store failures: %w", err)
			}
		}
		decoded += len(result.Events)
		failed += len(result.Failures)

		if pgStore != nil && result.TxHash != "" {
			if n, err := pgStore.CountEvents(ctx, result.TxHash); err == nil {
				logger.Debug("postgres events stored", zap.String("tx", result.TxHash), zap.Int("count", n))
			}
		}

		if cfg.Graph != "" && result.TxHash != "" {
			path := graphPath(cfg.Graph, result.TxHash, len(results) > 1)
			if err := graph.Build(result.Events).WriteFile(path); err != nil {
				return err
			}
		}

		if cfg.Table && len(result.Events) > 0 {
			renderEvents(os.Stdout, result)
		}
	}

	logger.Info("decode complete",
		zap.Int("transactions", len(results)),
		zap.Int("decoded", decoded),
		zap.Int("failed", failed),
	)

	return nil
}

func parseTxHash(s string) (common.Hash, error) {
	raw, err := hexutil.Decode(strings.TrimSpace(s))
	if err != nil || len(raw) != common.HashLength {
		return common.Hash{}, fmt.Errorf("invalid transaction hash %q", s)
	}
	return common.BytesToHash(raw), nil
}

type txBatch struct {
	txHash string
	logs   []model.RawLog
}

// readRawLogs groups JSONL raw logs by transaction in first-seen order.
// Lines that do not parse are returned as invalid_log failures.
func readRawLogs(path string) ([]txBatch, []model.DecodeFailure, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open input: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	var batches []txBatch
	var rejected []model.DecodeFailure
	index := make(map[string]int)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var log model.RawLog
		if err := json.Unmarshal(line, &log); err != nil {
			rejected = append(rejected, model.DecodeFailure{
				Kind:   model.FailureInvalidLog,
				Reason: fmt.Sprintf("line %d: %v", lineNo, err),
			})
			continue
		}

		key := strings.ToLower(log.TxHash)
		i, ok := index[key]
		if !ok {
			i = len(batches)
			index[key] = i
			batches = append(batches, txBatch{txHash: log.TxHash})
		}
		batches[i].logs = append(batches[i].logs, log)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("scan input: %w", err)
	}
	return batches, rejected, nil
}

func graphPath(base, txHash string, perTx bool) string {
	if !perTx {
		return base
	}
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + "." + strings.ToLower(txHash) + ext
}
