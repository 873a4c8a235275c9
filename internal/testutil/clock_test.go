package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testOrigin = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

func TestDeterministicClock_StartsAtOrigin(t *testing.T) {
	clock := NewDeterministicClock(testOrigin, time.Second)
	assert.Equal(t, testOrigin, clock.Current())
	assert.Equal(t, testOrigin, clock.Now())
}

func TestDeterministicClock_AdvancesByStep(t *testing.T) {
	clock := NewDeterministicClock(testOrigin, 250*time.Millisecond)

	assert.Equal(t, testOrigin, clock.Now())
	assert.Equal(t, testOrigin.Add(250*time.Millisecond), clock.Now())
	assert.Equal(t, testOrigin.Add(500*time.Millisecond), clock.Now())
	assert.Equal(t, testOrigin.Add(750*time.Millisecond), clock.Current())
}

func TestDeterministicClock_Reset(t *testing.T) {
	clock := NewDeterministicClock(testOrigin, time.Second)

	clock.Now()
	clock.Now()
	clock.Now()
	require.Equal(t, testOrigin.Add(3*time.Second), clock.Current())

	clock.Reset()
	assert.Equal(t, testOrigin, clock.Current())
	assert.Equal(t, testOrigin, clock.Now())
}

func TestDeterministicClock_Deterministic(t *testing.T) {
	clock1 := NewDeterministicClock(testOrigin, time.Second)
	clock2 := NewDeterministicClock(testOrigin, time.Second)

	for i := 0; i < 100; i++ {
		assert.Equal(t, clock1.Now(), clock2.Now())
	}
}

func TestDeterministicClock_ThreadSafe(t *testing.T) {
	clock := NewDeterministicClock(testOrigin, time.Second)
	const numGoroutines = 50
	const callsPerGoroutine = 20

	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	results := make([][]time.Time, numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		results[i] = make([]time.Time, callsPerGoroutine)
		go func(idx int) {
			defer wg.Done()
			for j := 0; j < callsPerGoroutine; j++ {
				results[idx][j] = clock.Now()
			}
		}(i)
	}

	wg.Wait()

	// Every stamp must be unique: the step is handed out exactly once.
	seen := make(map[time.Time]bool)
	for i := 0; i < numGoroutines; i++ {
		for j := 0; j < callsPerGoroutine; j++ {
			ts := results[i][j]
			require.False(t, seen[ts], "duplicate stamp %v", ts)
			seen[ts] = true
		}
	}
	assert.Len(t, seen, numGoroutines*callsPerGoroutine)
}
