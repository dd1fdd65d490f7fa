package model

import "github.com/ethereum/go-ethereum/common"

// AccountKind distinguishes wallets from contracts.
type AccountKind string

const (
	KindEOA      AccountKind = "EOA"
	KindContract AccountKind = "CA"
)

// Classification describes an address encountered in a log set.
// IsProxy implies Kind == KindContract and Implementation != nil.
type Classification struct {
	Address        common.Address  `json:"address"`
	Kind           AccountKind     `json:"kind"`
	IsProxy        bool            `json:"is_proxy"`
	Implementation *common.Address `json:"implementation,omitempty"`
}

// Target returns the address whose ABI describes this account's logs.
func (c Classification) Target() common.Address {
	if c.IsProxy && c.Implementation != nil {
		return *c.Implementation
	}
	return c.Address
}
