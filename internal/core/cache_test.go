package core

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_VersionIncrementsByOnePerPublish(t *testing.T) {
	c := NewCache()

	snap, version := c.State()
	assert.Nil(t, snap)
	assert.Equal(t, int64(0), version)

	for i := 1; i <= 5; i++ {
		v := c.Publish(&Snapshot{LastUpdated: time.Now()})
		assert.Equal(t, int64(i), v)
	}
}

func TestCache_StateReturnsConsistentPair(t *testing.T) {
	c := NewCache()
	first := &Snapshot{SheetNames: []string{"Plan"}}
	second := &Snapshot{SheetNames: []string{"Plan", "Done"}}

	c.Publish(first)

	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			snap, version := c.State()
			require.NotNil(t, snap)
			// Version 1 pairs with first, version 2 with second; any other
			// combination means a torn read.
			switch version {
			case 1:
				require.Len(t, snap.SheetNames, 1)
			case 2:
				require.Len(t, snap.SheetNames, 2)
			default:
				t.Errorf("unexpected version %d", version)
				return
			}
		}
	}()

	time.Sleep(10 * time.Millisecond)
	c.Publish(second)
	time.Sleep(10 * time.Millisecond)
	close(stop)
	wg.Wait()
}

func TestIsReal(t *testing.T) {
	assert.False(t, isReal(nil))
	assert.False(t, isReal(placeholderSnapshot()))

	real := &Snapshot{
		Sheets: map[string]map[string][]TaskEntry{
			"Plan": {"Build": {{TaskName: "Build"}}},
		},
		SheetNames: []string{"Plan"},
	}
	assert.True(t, isReal(real))

	// A sheet that only restates the placeholder task is still not real.
	fake := &Snapshot{
		Sheets: map[string]map[string][]TaskEntry{
			"Plan": {PlaceholderTaskName: {{TaskName: PlaceholderTaskName}}},
		},
		SheetNames: []string{"Plan"},
	}
	assert.False(t, isReal(fake))
}
