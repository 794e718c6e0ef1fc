// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package sqlite_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sigil-dev/ragd/internal/store"
	"github.com/sigil-dev/ragd/internal/store/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHistory(t *testing.T) *sqlite.HistoryLog {
	t.Helper()
	hl, err := sqlite.NewHistoryLog(testDBPath(t, "history"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = hl.Close() })
	return hl
}

func TestHistoryLog_AppendAndRecent(t *testing.T) {
	ctx := context.Background()
	hl := newHistory(t)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	hl.SetNowFunc(func() time.Time { return fixed })

	first, err := hl.Append(ctx, "What color is the sky?", "Blue.")
	require.NoError(t, err)
	second, err := hl.Append(ctx, "And grass?", "Green.")
	require.NoError(t, err)
	assert.Greater(t, second.ID, first.ID)
	assert.Equal(t, fixed, first.CreatedAt)

	recs, err := hl.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "And grass?", recs[0].Query)
	assert.Equal(t, "Blue.", recs[1].Response)
	assert.Equal(t, fixed, recs[1].CreatedAt)

	recs, err = hl.Recent(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, recs, 1)

	_, err = hl.Recent(ctx, 0)
	assert.ErrorIs(t, err, store.ErrInvalidInput)
}

func TestHistoryLog_ConcurrentAppendsGetDistinctIDs(t *testing.T) {
	ctx := context.Background()
	hl := newHistory(t)

	const n = 20
	ids := make(chan int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec, err := hl.Append(ctx, fmt.Sprintf("q%d", i), "a")
			if assert.NoError(t, err) {
				ids <- rec.ID
			}
		}(i)
	}
	wg.Wait()
	close(ids)

	seen := map[int64]bool{}
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
}
