package pipeline

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGuardSinglePermit(t *testing.T) {
	t.Parallel()

	g := NewGuard()
	require.True(t, g.TryAcquire())
	require.False(t, g.TryAcquire())

	g.Release()
	require.True(t, g.TryAcquire())
	g.Release()
}

func TestGuardOnlyOneWinnerUnderContention(t *testing.T) {
	t.Parallel()

	g := NewGuard()

	const goroutines = 32
	var wg sync.WaitGroup
	wins := make(chan struct{}, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g.TryAcquire() {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)

	count := 0
	for range wins {
		count++
	}
	require.Equal(t, 1, count)
}

func TestGuardReleaseWithoutAcquirePanics(t *testing.T) {
	t.Parallel()

	g := NewGuard()
	require.Panics(t, func() { g.Release() })
}
