package cache

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleABI = `[{"anonymous":false,"inputs":[{"indexed":true,"name":"from","type":"address"}],"name":"Ping","type":"event"}]`

var sampleAddress = common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")

func TestAbiCacheCompressedRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	c, err := NewAbiCache(store, AbiCacheOptions{Prefix: "abi:", Compress: true})
	require.NoError(t, err)

	_, ok, err := c.Get(sampleAddress)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Put(sampleAddress, []byte(sampleABI)))

	raw, ok, err := store.Get("abi:" + strings.ToLower(sampleAddress.Hex()))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, zstdMagic, raw[:4])

	got, ok, err := c.Get(sampleAddress)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, sampleABI, string(got))
}

func TestAbiCacheDirLayoutMatchesLowercaseAddress(t *testing.T) {
	dir := t.TempDir()
	store, err := NewDirStore(dir)
	require.NoError(t, err)
	c, err := NewAbiCache(store, AbiCacheOptions{})
	require.NoError(t, err)

	require.NoError(t, c.Put(sampleAddress, []byte(sampleABI)))

	data, err := os.ReadFile(filepath.Join(dir, strings.ToLower(sampleAddress.Hex())+".json"))
	require.NoError(t, err)
	assert.JSONEq(t, sampleABI, string(data))

	// Plain entries written by other tools are still readable by a compressing cache.
	compressing, err := NewAbiCache(store, AbiCacheOptions{Compress: true})
	require.NoError(t, err)
	got, ok, err := compressing.Get(sampleAddress)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, sampleABI, string(got))
}

func TestDirStoreRejectsPathKeys(t *testing.T) {
	store, err := NewDirStore(t.TempDir())
	require.NoError(t, err)
	assert.Error(t, store.Put("../escape", []byte("x")))
}

func TestPebbleStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "abis")

	store, err := NewPebbleStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Put("abi:key", []byte("value")))
	require.NoError(t, store.Close())

	reopened, err := Open(BackendPebble, path)
	require.NoError(t, err)
	defer reopened.Close()

	got, ok, err := reopened.Get("abi:key")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("value"), got)

	_, ok, err = reopened.Get("abi:missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open("redis", "")
	assert.Error(t, err)
}
