package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"txLogScope/internal/config"
	"txLogScope/internal/model"
	"txLogScope/internal/pipeline"
)

func runClassify(cmd *cobra.Command, args []string) error {
	session, cfg, logger, cleanup, err := openInspect(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	addresses := lo.Uniq(append(cfg.Addresses, args...))
	if len(addresses) == 0 {
		return fmt.Errorf("at least one address is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rows := make([]model.Classification, 0, len(addresses))
	for _, raw := range addresses {
		if !common.IsHexAddress(raw) {
			return fmt.Errorf("invalid address %q", raw)
		}
		rows = append(rows, session.Classifier().Classify(ctx, common.HexToAddress(raw)))
	}
	logger.Debug("classified", zap.Int("addresses", len(rows)))

	renderClassifications(os.Stdout, rows)
	return nil
}

func runABI(cmd *cobra.Command, args []string) error {
	session, _, logger, cleanup, err := openInspect(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	if !common.IsHexAddress(args[0]) {
		return fmt.Errorf("invalid address %q", args[0])
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cls := session.Classifier().Classify(ctx, common.HexToAddress(args[0]))
	if cls.Kind == model.KindEOA {
		return fmt.Errorf("%s is an externally owned account", cls.Address.Hex())
	}

	contract, err := session.ABIs().Resolve(ctx, cls.Target())
	if err != nil {
		return err
	}
	logger.Info("abi resolved",
		zap.String("address", cls.Address.Hex()),
		zap.String("target", cls.Target().Hex()),
		zap.Bool("proxy", cls.IsProxy),
		zap.String("source", contract.Source),
		zap.Int("events", len(contract.ABI.Events)),
	)

	_, err = fmt.Fprintln(os.Stdout, contract.JSON)
	return err
}

func openInspect(cmd *cobra.Command) (*pipeline.Session, config.InspectConfig, *zap.Logger, func(), error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadInspect(cfgFile, cmd.Flags())
	if err != nil {
		return nil, cfg, nil, nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, cfg, nil, nil, err
	}

	svc, err := openServices(cmd.Context(), cfg.Common, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, cfg, nil, nil, err
	}

	session, err := pipeline.NewSession(svc.deps, pipeline.Config{Concurrency: 1}, logger)
	if err != nil {
		svc.Close()
		_ = logger.Sync()
		return nil, cfg, nil, nil, err
	}

	cleanup := func() {
		svc.Close()
		_ = logger.Sync()
	}
	return session, cfg, logger, cleanup, nil
}
