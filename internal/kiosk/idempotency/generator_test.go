package idempotency

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerator_KeysNeverCollide(t *testing.T) {
	g := NewGenerator("GATE-01")

	seen := make(map[string]bool)
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := g.NewKey()
				mu.Lock()
				assert.False(t, seen[key])
				seen[key] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 5000)
}

func TestGenerator_KeyCarriesDeviceCode(t *testing.T) {
	g := NewGenerator("GATE-07")
	assert.True(t, strings.HasPrefix(g.NewKey(), "GATE-07-"))
}

func TestGenerator_MonotonicUnderClockStep(t *testing.T) {
	g := NewGenerator("GATE-01")

	// Jam mundur (NTP step): komponen nano tetap naik ketat
	base := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	times := []time.Time{base, base.Add(-time.Second), base.Add(-2 * time.Second)}
	idx := 0
	g.now = func() time.Time {
		t := times[idx%len(times)]
		idx++
		return t
	}

	k1 := g.NewKey()
	k2 := g.NewKey()
	k3 := g.NewKey()
	assert.NotEqual(t, k1, k2)
	assert.NotEqual(t, k2, k3)
	assert.Greater(t, g.lastNano, base.Add(-2*time.Second).UnixNano())
}
