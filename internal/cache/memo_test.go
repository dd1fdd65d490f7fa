package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoLoadDeduplicatesConcurrentFetches(t *testing.T) {
	memo := NewMemo[string]()
	var calls int32
	release := make(chan struct{})

	var wg sync.WaitGroup
	results := make([]string, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := memo.Load("0xabc", func() (string, error) {
				atomic.AddInt32(&calls, 1)
				<-release
				return "resolved", nil
			})
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for _, v := range results {
		assert.Equal(t, "resolved", v)
	}
}

func TestMemoFirstWriteWins(t *testing.T) {
	memo := NewMemo[int]()
	assert.True(t, memo.Store("k", 1))
	assert.False(t, memo.Store("k", 2))

	v, err := memo.Load("k", func() (int, error) {
		t.Fatal("fetch must not run for a cached key")
		return 0, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestMemoDoesNotRememberErrors(t *testing.T) {
	memo := NewMemo[int]()
	boom := errors.New("boom")

	_, err := memo.Load("k", func() (int, error) { return 0, boom })
	require.ErrorIs(t, err, boom)

	v, err := memo.Load("k", func() (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}
