package config

import (
	"github.com/spf13/pflag"
)

// InspectConfig holds configuration for the classify and abi commands.
type InspectConfig struct {
	Common
	Addresses []string
}

// LoadInspect merges config file, environment variables, and flags into InspectConfig.
func LoadInspect(cfgFile string, flags *pflag.FlagSet) (InspectConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return InspectConfig{}, err
	}

	return InspectConfig{
		Common:    loadCommon(v),
		Addresses: getStringSlice(v, "address"),
	}, nil
}
