package abiresolve

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Status tags the outcome of one resolution attempt.
type Status int

const (
	StatusNotFound Status = iota
	StatusFound
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusFound:
		return "found"
	case StatusFailed:
		return "failed"
	default:
		return "not_found"
	}
}

// Contract is a resolved ABI for one address.
type Contract struct {
	Address common.Address
	ABI     abi.ABI
	JSON    string
	// Source names the strategy that produced the ABI.
	Source string
}

// Result is the tagged outcome of a Strategy.
type Result struct {
	Status   Status
	Contract *Contract
	Err      error
}

func Found(c *Contract) Result  { return Result{Status: StatusFound, Contract: c} }
func NotFound(err error) Result { return Result{Status: StatusNotFound, Err: err} }
func Failed(err error) Result   { return Result{Status: StatusFailed, Err: err} }

func (r Result) IsFound() bool {
	return r.Status == StatusFound && r.Contract != nil
}

// Strategy is one way of obtaining an ABI for an address.
type Strategy interface {
	Name() string
	Resolve(ctx context.Context, address common.Address) Result
}

type firstSuccess struct {
	strategies []Strategy
}

// FirstSuccess tries strategies in order and returns the first Found
// result. When none succeeds it reports the last failure, or NotFound.
func FirstSuccess(strategies ...Strategy) Strategy {
	return &firstSuccess{strategies: strategies}
}

func (f *firstSuccess) Name() string {
	names := make([]string, len(f.strategies))
	for i, s := range f.strategies {
		names[i] = s.Name()
	}
	return strings.Join(names, ">")
}

func (f *firstSuccess) Resolve(ctx context.Context, address common.Address) Result {
	last := NotFound(nil)
	for _, s := range f.strategies {
		if err := ctx.Err(); err != nil {
			return Failed(err)
		}
		res := s.Resolve(ctx, address)
		if res.IsFound() {
			return res
		}
		if res.Status == StatusFailed || last.Status != StatusFailed {
			last = res
		}
	}
	return last
}

// ParseABI parses ABI JSON into a Contract.
func ParseABI(address common.Address, abiJSON, source string) (*Contract, error) {
	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		return nil, fmt.Errorf("parse abi %s: %w", address.Hex(), err)
	}
	return &Contract{Address: address, ABI: parsed, JSON: abiJSON, Source: source}, nil
}

// isEmptyABI reports whether abiJSON is an array without entries.
func isEmptyABI(abiJSON string) bool {
	var entries []json.RawMessage
	if err := json.Unmarshal([]byte(abiJSON), &entries); err != nil {
		return strings.TrimSpace(abiJSON) == ""
	}
	return len(entries) == 0
}
