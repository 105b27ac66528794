package ring

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRingEmpty(t *testing.T) {
	r := New[int](4)
	require.Nil(t, r.NextToRead())
	require.Equal(t, 0, r.Size())
	require.Equal(t, 4, r.Capacity())
}

func TestRingFIFO(t *testing.T) {
	r := New[int](4)
	for i := 1; i <= 3; i++ {
		*r.NextToWrite() = i
		r.CommitWrite()
	}
	require.Equal(t, 3, r.Size())
	for i := 1; i <= 3; i++ {
		v := r.NextToRead()
		require.NotNil(t, v)
		require.Equal(t, i, *v)
		r.CommitRead()
	}
	require.Nil(t, r.NextToRead())
}

func TestRingWrapAround(t *testing.T) {
	r := New[int](3)
	next := 0
	read := 0
	for cycle := 0; cycle < 5; cycle++ {
		for i := 0; i < 2; i++ {
			*r.NextToWrite() = next
			r.CommitWrite()
			next++
		}
		for i := 0; i < 2; i++ {
			v := r.NextToRead()
			require.NotNil(t, v)
			require.Equal(t, read, *v)
			r.CommitRead()
			read++
		}
	}
	require.Equal(t, 0, r.Size())
}

func TestRingOverflowPanics(t *testing.T) {
	r := New[int](2)
	*r.NextToWrite() = 1
	r.CommitWrite()
	*r.NextToWrite() = 2
	r.CommitWrite()
	require.Panics(t, func() { r.NextToWrite() })
}

func TestRingSingleProducerSingleConsumer(t *testing.T) {
	const total = 100_000
	r := New[uint64](1024)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := uint64(0); i < total; i++ {
			for r.Size() == r.Capacity() {
				// spin until the consumer frees a slot
			}
			*r.NextToWrite() = i
			r.CommitWrite()
		}
	}()

	for expected := uint64(0); expected < total; {
		v := r.NextToRead()
		if v == nil {
			continue
		}
		require.Equal(t, expected, *v)
		r.CommitRead()
		expected++
	}
	wg.Wait()
	require.Equal(t, 0, r.Size())
}
