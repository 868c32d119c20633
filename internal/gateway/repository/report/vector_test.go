package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatParseVector(t *testing.T) {
	v := []float32{1, -2.5, 0.125, 3e-5}
	s := formatVector(v)
	assert.Equal(t, "[1,-2.5,0.125,3e-05]", s)

	got, err := parseVector(s)
	require.NoError(t, err)
	assert.Equal(t, v, got)
}

func TestParseVectorEmptyAndMalformed(t *testing.T) {
	got, err := parseVector("[]")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = parseVector("1,2")
	assert.Error(t, err)
	_, err = parseVector("[1,x]")
	assert.Error(t, err)
}
