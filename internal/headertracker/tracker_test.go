package headertracker

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTryClaimFirstWinnerOnly(t *testing.T) {
	tr := New()
	assert.True(t, tr.TryClaim("/repo/a.h", "hash1"))
	assert.False(t, tr.TryClaim("/repo/a.h", "hash1"))
}

func TestTryClaimReturnsFalseAfterCompletion(t *testing.T) {
	tr := New()
	assert.True(t, tr.TryClaim("/repo/a.h", "hash1"))
	tr.MarkCompleted("/repo/a.h", "hash1")
	assert.False(t, tr.TryClaim("/repo/a.h", "hash1"))
	assert.True(t, tr.IsProcessed("/repo/a.h", "hash1"))
}

func TestTryClaimReclaimsOnContentChange(t *testing.T) {
	tr := New()
	tr.TryClaim("/repo/a.h", "hash1")
	tr.MarkCompleted("/repo/a.h", "hash1")
	assert.True(t, tr.TryClaim("/repo/a.h", "hash2"))
}

func TestInvalidateHeaderIsSafeOnUnknownPath(t *testing.T) {
	tr := New()
	assert.NotPanics(t, func() { tr.InvalidateHeader("/nope.h") })
}

func TestInvalidateHeaderAllowsReclaim(t *testing.T) {
	tr := New()
	tr.TryClaim("/repo/a.h", "hash1")
	tr.MarkCompleted("/repo/a.h", "hash1")
	tr.InvalidateHeader("/repo/a.h")
	assert.True(t, tr.TryClaim("/repo/a.h", "hash1"))
}

func TestClearAllEmptiesBothSets(t *testing.T) {
	tr := New()
	tr.TryClaim("/repo/a.h", "hash1")
	tr.TryClaim("/repo/b.h", "hash1")
	tr.MarkCompleted("/repo/b.h", "hash1")
	tr.ClearAll()
	assert.Equal(t, 0, tr.GetProcessedCount())
	assert.True(t, tr.TryClaim("/repo/a.h", "hash1"))
	assert.True(t, tr.TryClaim("/repo/b.h", "hash1"))
}

func TestGetAndRestoreProcessedHeaders(t *testing.T) {
	tr := New()
	tr.TryClaim("/repo/a.h", "hash1")
	tr.MarkCompleted("/repo/a.h", "hash1")

	snapshot := tr.GetProcessedHeaders()
	assert.Equal(t, map[string]string{"/repo/a.h": "hash1"}, snapshot)

	other := New()
	other.RestoreProcessedHeaders(snapshot)
	assert.True(t, other.IsProcessed("/repo/a.h", "hash1"))
	assert.False(t, other.TryClaim("/repo/a.h", "hash1"))
}

func TestConcurrentTryClaimExactlyOneWinner(t *testing.T) {
	tr := New()
	const n = 64
	results := make([]bool, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			results[i] = tr.TryClaim("/repo/shared.h", "hash1")
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, r := range results {
		if r {
			wins++
		}
	}
	assert.Equal(t, 1, wins)
}
