package flank

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/geneflank/internal/bed"
)

func testEngine(t *testing.T, n int) *Engine {
	t.Helper()
	ivs := make([]bed.Interval, n)
	for i := range ivs {
		start := int64(i * 1000)
		ivs[i] = bed.Interval{Chrom: "1", Start: start, End: start + 500, Name: fmt.Sprintf("g%d", i), Strand: bed.Plus}
	}
	e, err := NewEngine(ivs, Options{BPLimit: 2000, Policy: AnyStrand})
	require.NoError(t, err)
	return e
}

func makeItems(n int) <-chan WorkItem {
	ch := make(chan WorkItem, n)
	for i := range n {
		ch <- WorkItem{Seq: i, Index: i, End: Three}
	}
	close(ch)
	return ch
}

func TestParallelCompute_OrderPreservation(t *testing.T) {
	e := testEngine(t, 200)

	results := e.ParallelCompute(makeItems(200), 8)

	var collected []int
	err := OrderedCollect(results, func(r WorkResult) error {
		collected = append(collected, r.Seq)
		return nil
	})
	require.NoError(t, err)

	assert.Len(t, collected, 200)
	for i, seq := range collected {
		assert.Equal(t, i, seq, "result %d out of order", i)
	}
}

func TestParallelCompute_SingleWorker(t *testing.T) {
	e := testEngine(t, 50)

	results := e.ParallelCompute(makeItems(50), 1)

	var collected []int
	err := OrderedCollect(results, func(r WorkResult) error {
		collected = append(collected, r.Seq)
		return nil
	})
	require.NoError(t, err)

	assert.Len(t, collected, 50)
	for i, seq := range collected {
		assert.Equal(t, i, seq)
	}
}

func TestParallelCompute_EmptyInput(t *testing.T) {
	e := testEngine(t, 0)

	ch := make(chan WorkItem)
	close(ch)
	results := e.ParallelCompute(ch, 4)

	count := 0
	err := OrderedCollect(results, func(r WorkResult) error {
		count++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestOrderedCollect_EarlyError(t *testing.T) {
	e := testEngine(t, 100)

	results := e.ParallelCompute(makeItems(100), 4)

	count := 0
	err := OrderedCollect(results, func(r WorkResult) error {
		count++
		if count == 5 {
			return fmt.Errorf("stop at 5")
		}
		return nil
	})
	require.Error(t, err)
	assert.Equal(t, 5, count)
}

func TestParallelCompute_ProducesDistances(t *testing.T) {
	e := testEngine(t, 5)

	results := e.ParallelCompute(makeItems(5), 2)

	err := OrderedCollect(results, func(r WorkResult) error {
		assert.Equal(t, r.Seq, r.Result.Index)
		assert.Equal(t, Three, r.Result.End)
		if r.Result.Index == 4 {
			// last gene has nothing to its right
			assert.Equal(t, int64(2000), r.Result.Distance)
		} else {
			assert.Equal(t, int64(500), r.Result.Distance)
		}
		return nil
	})
	require.NoError(t, err)
}
