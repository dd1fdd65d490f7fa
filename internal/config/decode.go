package config

import (
	"github.com/spf13/pflag"
)

// DecodeConfig holds configuration for the decode command.
type DecodeConfig struct {
	Common
	TxHash      string
	In          string
	Out         string
	Errors      string
	Graph       string
	PGDSN       string
	MetricsAddr string
	Concurrency int
	GroupRaw    bool
	Table       bool
}

// LoadDecode merges config file, environment variables, and flags into DecodeConfig.
func LoadDecode(cfgFile string, flags *pflag.FlagSet) (DecodeConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return DecodeConfig{}, err
	}
	v.SetDefault("out", "./data/decoded_events.jsonl")
	v.SetDefault("errors", "./data/decode_failures.jsonl")
	v.SetDefault("concurrency", 4)
	v.SetDefault("group-raw", true)

	cfg := DecodeConfig{
		Common:      loadCommon(v),
		TxHash:      v.GetString("tx"),
		In:          v.GetString("in"),
		Out:         v.GetString("out"),
		Errors:      v.GetString("errors"),
		Graph:       v.GetString("graph"),
		PGDSN:       v.GetString("pg-dsn"),
		MetricsAddr: v.GetString("metrics-addr"),
		Concurrency: v.GetInt("concurrency"),
		GroupRaw:    v.GetBool("group-raw"),
		Table:       v.GetBool("table"),
	}

	return cfg, nil
}
