package duckdb

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/geneflank/internal/bed"
	"github.com/inodb/geneflank/internal/flank"
)

func openInMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleGenes() []flank.Gene {
	return []flank.Gene{
		{
			Interval: bed.Interval{Chrom: "chr1", Start: 100, End: 200, Name: "A", Strand: bed.Plus},
			Results: []flank.Result{
				{Index: 0, End: flank.Five, Distance: 1000},
				{Index: 0, End: flank.Three, Distance: 300},
			},
		},
		{
			Interval: bed.Interval{Chrom: "chr1", Start: 500, End: 600, Name: "B", Strand: bed.Minus},
			Results: []flank.Result{
				{Index: 1, End: flank.Five, Distance: 1000},
				{Index: 1, End: flank.Three, Distance: 300},
			},
		},
	}
}

func TestOpenClose(t *testing.T) {
	s := openInMemory(t)
	assert.NotNil(t, s.DB())
	assert.Equal(t, "", s.Path())
}

func TestOpen_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "flanks.duckdb")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestWriteGenesAndQuery(t *testing.T) {
	s := openInMemory(t)

	runID, err := s.BeginRun(Run{
		Input:         FileFingerprint{Path: "genes.bed"},
		BPLimit:       1000,
		Stream:        "both",
		Policy:        "any",
		IntervalCount: 2,
	})
	require.NoError(t, err)

	n, err := s.WriteGenes(runID, sampleGenes())
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	count, err := s.FlankCount(runID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)

	rows, err := s.FlanksByGene("B")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// 5' of a minus gene sits after its end.
	assert.Equal(t, "5", rows[0].QueryEnd)
	assert.Equal(t, int64(600), rows[0].Record.Start)
	assert.Equal(t, int64(1600), rows[0].Record.End)
	assert.Equal(t, "B_5_1000", rows[0].Record.Name)
	assert.Equal(t, bed.Minus, rows[0].Record.Strand)

	assert.Equal(t, "3", rows[1].QueryEnd)
	assert.Equal(t, int64(200), rows[1].Record.Start)
	assert.Equal(t, int64(500), rows[1].Record.End)
	assert.Equal(t, int64(500), rows[1].GeneStart)

	none, err := s.FlanksByGene("NOTEXIST")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestWriteGenes_Empty(t *testing.T) {
	s := openInMemory(t)

	n, err := s.WriteGenes(1, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestRuns(t *testing.T) {
	s := openInMemory(t)

	path := filepath.Join(t.TempDir(), "genes.bed")
	require.NoError(t, os.WriteFile(path, []byte("chr1\t1\t2\tA\t0\t+\n"), 0644))
	fp, err := StatFile(path)
	require.NoError(t, err)
	assert.Equal(t, int64(15), fp.Size)

	id1, err := s.BeginRun(Run{Input: fp, BPLimit: 500, Stream: "5", Policy: "same", IntervalCount: 1})
	require.NoError(t, err)
	id2, err := s.BeginRun(Run{Input: FileFingerprint{Path: "-"}, BPLimit: 800, Stream: "3", Policy: "any", ByChrom: true})
	require.NoError(t, err)
	assert.Greater(t, id2, id1)

	runs, err := s.Runs()
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, path, runs[0].Input.Path)
	assert.Equal(t, int64(15), runs[0].Input.Size)
	assert.False(t, runs[0].Input.ModTime.IsZero())
	assert.Equal(t, int64(500), runs[0].BPLimit)
	assert.Equal(t, "same", runs[0].Policy)

	assert.Equal(t, "-", runs[1].Input.Path)
	assert.True(t, runs[1].Input.ModTime.IsZero())
	assert.True(t, runs[1].ByChrom)
	assert.False(t, runs[1].CreatedAt.IsZero())
}

func TestStatFile_Missing(t *testing.T) {
	_, err := StatFile(filepath.Join(t.TempDir(), "missing.bed"))
	assert.Error(t, err)

	fp, err := StatFile("-")
	require.NoError(t, err)
	assert.Equal(t, "-", fp.Path)
}
