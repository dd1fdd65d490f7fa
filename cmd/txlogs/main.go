package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "txlogs",
		Short:        "Decode transaction event logs into readable events",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	decodeCmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode the logs of a transaction",
		RunE:  runDecode,
	}

	addCommonFlags(decodeCmd)
	decodeCmd.Flags().String("tx", "", "transaction hash to fetch and decode")
	decodeCmd.Flags().String("in", "", "input raw logs JSONL (alternative to --tx)")
	decodeCmd.Flags().String("out", "./data/decoded_events.jsonl", "output decoded events JSONL")
	decodeCmd.Flags().String("errors", "./data/decode_failures.jsonl", "decode failures JSONL")
	decodeCmd.Flags().String("graph", "", "optional value-flow graph JSON path")
	decodeCmd.Flags().String("pg-dsn", "", "optional Postgres DSN for decoded events")
	decodeCmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address")
	decodeCmd.Flags().Int("concurrency", 4, "concurrent address resolutions per transaction")
	decodeCmd.Flags().Bool("group-raw", true, "group raw integer digits with commas")
	decodeCmd.Flags().Bool("table", false, "print decoded events as a table")

	root.AddCommand(decodeCmd)

	classifyCmd := &cobra.Command{
		Use:   "classify [address...]",
		Short: "Classify addresses as wallets, contracts or proxies",
		RunE:  runClassify,
	}

	addCommonFlags(classifyCmd)
	classifyCmd.Flags().StringSlice("address", nil, "addresses (comma-separated)")

	root.AddCommand(classifyCmd)

	abiCmd := &cobra.Command{
		Use:   "abi <address>",
		Short: "Resolve and print the ABI used to decode an address's logs",
		Args:  cobra.ExactArgs(1),
		RunE:  runABI,
	}

	addCommonFlags(abiCmd)

	root.AddCommand(abiCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addCommonFlags(cmd *cobra.Command) {
	cmd.Flags().String("rpc", "", "JSON-RPC URL")
	cmd.Flags().Uint64("chain-id", 1, "chain ID used for explorer queries")
	cmd.Flags().String("explorer-url", "https://api.etherscan.io/v2/api", "Etherscan-compatible API URL")
	cmd.Flags().String("explorer-api-key", "", "explorer API key (falls back to ETHERSCAN_API_KEY)")
	cmd.Flags().Float64("explorer-rps", 5, "explorer requests per second")
	cmd.Flags().String("cache-backend", "pebble", "ABI cache backend (pebble, dir, memory)")
	cmd.Flags().String("cache-dir", "./data/abi-cache", "ABI cache location")
	cmd.Flags().String("compiler-dir", "./data/solc", "directory holding solc binaries")
	cmd.Flags().Bool("compiler-download", false, "download missing solc releases")
	cmd.Flags().Duration("call-timeout", 10*time.Second, "per-call RPC timeout")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
