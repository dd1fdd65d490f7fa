package model

import "github.com/ethereum/go-ethereum/common"

// SourceMetadata is the verified-source record an explorer keeps for a contract.
type SourceMetadata struct {
	SourceCode      string
	ContractName    string
	CompilerVersion string
	ABI             string
	IsProxy         bool
	Implementation  *common.Address
}

// HasSource reports whether the record is usable for recompilation.
func (m *SourceMetadata) HasSource() bool {
	return m != nil && m.SourceCode != "" && m.CompilerVersion != ""
}
