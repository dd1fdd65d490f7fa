package classify

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"txLogScope/internal/model"
)

type fakeChain struct {
	mu           sync.Mutex
	code         map[common.Address][]byte
	storage      map[common.Address][]byte
	codeErr      error
	storageErr   error
	codeCalls    int
	storageCalls int
}

func (f *fakeChain) CodeAt(_ context.Context, address common.Address) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codeCalls++
	if f.codeErr != nil {
		return nil, f.codeErr
	}
	return f.code[address], nil
}

func (f *fakeChain) StorageAt(_ context.Context, address common.Address, slot common.Hash) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.storageCalls++
	if slot != ImplementationSlot {
		return nil, errors.New("unexpected slot")
	}
	if f.storageErr != nil {
		return nil, f.storageErr
	}
	if word, ok := f.storage[address]; ok {
		return word, nil
	}
	return make([]byte, 32), nil
}

type fakeExplorer struct {
	meta  map[common.Address]*model.SourceMetadata
	calls int
}

func (f *fakeExplorer) GetSourceMetadata(_ context.Context, address common.Address) (*model.SourceMetadata, error) {
	f.calls++
	if m, ok := f.meta[address]; ok {
		return m, nil
	}
	return nil, model.ErrNotFound
}

var (
	wallet   = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	contract = common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")
	impl     = common.HexToAddress("0x43506849D7C04F9138D1A2050bbF3A0c054402dd")
)

func TestClassifyEOAIsIdempotent(t *testing.T) {
	chain := &fakeChain{}
	c := New(chain, &fakeExplorer{}, nil)

	first := c.Classify(context.Background(), wallet)
	second := c.Classify(context.Background(), wallet)

	assert.Equal(t, model.KindEOA, first.Kind)
	assert.False(t, first.IsProxy)
	assert.Nil(t, first.Implementation)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, chain.codeCalls)
	assert.Equal(t, 0, chain.storageCalls)
}

func TestClassifyPlainContract(t *testing.T) {
	chain := &fakeChain{code: map[common.Address][]byte{contract: {0x60, 0x80}}}
	explorer := &fakeExplorer{}
	c := New(chain, explorer, nil)

	res := c.Classify(context.Background(), contract)
	assert.Equal(t, model.KindContract, res.Kind)
	assert.False(t, res.IsProxy)
	assert.Equal(t, contract, res.Target())
	assert.Equal(t, 1, explorer.calls)
}

func TestClassifyProxyFromSlot(t *testing.T) {
	word := common.LeftPadBytes(impl.Bytes(), 32)
	word[0] = 0xff // high bytes are ignored
	chain := &fakeChain{
		code:    map[common.Address][]byte{contract: {0x60}},
		storage: map[common.Address][]byte{contract: word},
	}
	explorer := &fakeExplorer{}
	c := New(chain, explorer, nil)

	res := c.Classify(context.Background(), contract)
	require.True(t, res.IsProxy)
	require.NotNil(t, res.Implementation)
	assert.Equal(t, impl, *res.Implementation)
	assert.Equal(t, "0x43506849D7C04F9138D1A2050bbF3A0c054402dd", res.Implementation.Hex())
	assert.Equal(t, impl, res.Target())
	assert.Equal(t, 0, explorer.calls)
}

func TestClassifyProxyFromExplorer(t *testing.T) {
	chain := &fakeChain{code: map[common.Address][]byte{contract: {0x60}}}
	explorer := &fakeExplorer{meta: map[common.Address]*model.SourceMetadata{
		contract: {IsProxy: true, Implementation: &impl},
	}}
	c := New(chain, explorer, nil)

	res := c.Classify(context.Background(), contract)
	require.True(t, res.IsProxy)
	assert.Equal(t, impl, *res.Implementation)
	assert.Equal(t, model.KindContract, res.Kind)
}

func TestClassifyExplorerProxyWithoutImplementation(t *testing.T) {
	chain := &fakeChain{code: map[common.Address][]byte{contract: {0x60}}}
	explorer := &fakeExplorer{meta: map[common.Address]*model.SourceMetadata{
		contract: {IsProxy: true},
	}}
	c := New(chain, explorer, nil)

	res := c.Classify(context.Background(), contract)
	assert.False(t, res.IsProxy)
	assert.Nil(t, res.Implementation)
}

func TestClassifyCodeErrorDegradesToEOA(t *testing.T) {
	chain := &fakeChain{codeErr: model.ErrNetworkFailure}
	c := New(chain, nil, nil)

	res := c.Classify(context.Background(), contract)
	assert.Equal(t, model.KindEOA, res.Kind)
}

func TestClassifyStorageErrorIsSwallowed(t *testing.T) {
	chain := &fakeChain{
		code:       map[common.Address][]byte{contract: {0x60}},
		storageErr: model.ErrNetworkFailure,
	}
	c := New(chain, nil, nil)

	res := c.Classify(context.Background(), contract)
	assert.Equal(t, model.KindContract, res.Kind)
	assert.False(t, res.IsProxy)
}

func TestImplementationFromWord(t *testing.T) {
	_, ok := ImplementationFromWord(nil)
	assert.False(t, ok)
	_, ok = ImplementationFromWord(make([]byte, 32))
	assert.False(t, ok)

	addr, ok := ImplementationFromWord(common.LeftPadBytes(impl.Bytes(), 32))
	assert.True(t, ok)
	assert.Equal(t, impl, addr)
}
