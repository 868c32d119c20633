package entity

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAverageEmbeddingsIdenticalVectorsIsIdentity(t *testing.T) {
	v := []float32{0.25, -1.5, 3, 1e-7}
	got := AverageEmbeddings(v, v)
	assert.Equal(t, v, got)

	// repeated merges of the same vector stay fixed
	for i := 0; i < 5; i++ {
		got = AverageEmbeddings(got, v)
	}
	assert.Equal(t, v, got)
}

func TestAverageEmbeddingsCommutative(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{3, -2, 0.5}
	assert.Equal(t, AverageEmbeddings(a, b), AverageEmbeddings(b, a))
	assert.Equal(t, []float32{2, 0, 1.75}, AverageEmbeddings(a, b))
}

func TestAverageEmbeddingsLengthMismatchTruncates(t *testing.T) {
	got := AverageEmbeddings([]float32{1, 1, 1, 1}, []float32{3, 3})
	assert.Equal(t, []float32{2, 2}, got)
}

func TestAverageEmbeddingsAbsentSide(t *testing.T) {
	b := []float32{1, 2}
	got := AverageEmbeddings(nil, b)
	require.Equal(t, b, got)
	got[0] = 9
	assert.Equal(t, float32(1), b[0], "result must not alias input")
	assert.Empty(t, AverageEmbeddings(nil, nil))
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float32{1, 2}, []float32{2, 4}), 1e-9)
	assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, CosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.Equal(t, 0.0, CosineSimilarity(nil, []float32{1}))
	assert.Equal(t, 0.0, CosineSimilarity([]float32{0, 0}, []float32{1, 1}))
	assert.False(t, math.IsNaN(CosineSimilarity([]float32{0}, []float32{0})))
}

func TestStateExpectsFreeText(t *testing.T) {
	assert.True(t, StateAwaitingDescription.ExpectsFreeText())
	assert.True(t, StateAwaitingEvidence.ExpectsFreeText())
	assert.False(t, StateIdle.ExpectsFreeText())
	assert.False(t, StateAwaitingEvidenceDecision.ExpectsFreeText())
	assert.False(t, StateAwaitingConfirmation.ExpectsFreeText())
}

func TestDraftCloneDoesNotAliasEvidence(t *testing.T) {
	d := Draft{Evidence: []Evidence{TextEvidence("a")}}
	c := d.Clone()
	c.Evidence[0].Text = "b"
	c.Evidence = append(c.Evidence, PhotoEvidence("p"))
	assert.Equal(t, "a", d.Evidence[0].Text)
	assert.Len(t, d.Evidence, 1)
	assert.Equal(t, 1, c.PhotoCount())
}
