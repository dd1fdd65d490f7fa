package cache

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/klauspost/compress/zstd"
)

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// AbiCacheOptions controls key layout and blob encoding.
type AbiCacheOptions struct {
	// Prefix namespaces keys inside a shared store, e.g. "abi:".
	Prefix string
	// Compress stores blobs as zstd frames. Reads detect the encoding.
	Compress bool
}

// AbiCache persists one ABI JSON blob per lowercase address.
type AbiCache struct {
	store Store
	opts  AbiCacheOptions
	enc   *zstd.Encoder
	dec   *zstd.Decoder
}

func NewAbiCache(store Store, opts AbiCacheOptions) (*AbiCache, error) {
	if store == nil {
		return nil, fmt.Errorf("cache store is nil")
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &AbiCache{store: store, opts: opts, enc: enc, dec: dec}, nil
}

// Key returns the store key for an address.
func (c *AbiCache) Key(address common.Address) string {
	return c.opts.Prefix + strings.ToLower(address.Hex())
}

// Get returns the cached ABI JSON for address.
func (c *AbiCache) Get(address common.Address) ([]byte, bool, error) {
	data, ok, err := c.store.Get(c.Key(address))
	if err != nil || !ok {
		return nil, false, err
	}
	if bytes.HasPrefix(data, zstdMagic) {
		data, err = c.dec.DecodeAll(data, nil)
		if err != nil {
			return nil, false, fmt.Errorf("decompress abi %s: %w", address.Hex(), err)
		}
	}
	return data, true, nil
}

// Put stores the ABI JSON for address.
func (c *AbiCache) Put(address common.Address, abiJSON []byte) error {
	data := abiJSON
	if c.opts.Compress {
		data = c.enc.EncodeAll(abiJSON, nil)
	}
	if err := c.store.Put(c.Key(address), data); err != nil {
		return fmt.Errorf("store abi %s: %w", address.Hex(), err)
	}
	return nil
}
