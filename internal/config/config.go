package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Common holds the settings every command shares.
type Common struct {
	RPCURL           string
	ChainID          uint64
	ExplorerURL      string
	ExplorerAPIKey   string
	ExplorerRPS      float64
	CacheBackend     string
	CacheDir         string
	CompilerDir      string
	CompilerDownload bool
	CallTimeout      time.Duration
	LogLevel         string
}

// newViper layers flags over environment over an optional config file.
// A local .env file is loaded first; it never overrides the real environment.
func newViper(cfgFile string, flags *pflag.FlagSet) (*viper.Viper, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("TXLOGS")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("explorer-api-key", "TXLOGS_EXPLORER_API_KEY", "ETHERSCAN_API_KEY"); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	v.SetDefault("chain-id", uint64(1))
	v.SetDefault("explorer-url", "https://api.etherscan.io/v2/api")
	v.SetDefault("explorer-rps", 5.0)
	v.SetDefault("cache-backend", "pebble")
	v.SetDefault("cache-dir", "./data/abi-cache")
	v.SetDefault("compiler-dir", "./data/solc")
	v.SetDefault("compiler-download", false)
	v.SetDefault("call-timeout", 10*time.Second)
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}
	return v, nil
}

func loadCommon(v *viper.Viper) Common {
	return Common{
		RPCURL:           v.GetString("rpc"),
		ChainID:          v.GetUint64("chain-id"),
		ExplorerURL:      v.GetString("explorer-url"),
		ExplorerAPIKey:   v.GetString("explorer-api-key"),
		ExplorerRPS:      v.GetFloat64("explorer-rps"),
		CacheBackend:     v.GetString("cache-backend"),
		CacheDir:         v.GetString("cache-dir"),
		CompilerDir:      v.GetString("compiler-dir"),
		CompilerDownload: v.GetBool("compiler-download"),
		CallTimeout:      v.GetDuration("call-timeout"),
		LogLevel:         v.GetString("log-level"),
	}
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
