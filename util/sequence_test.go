package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequence(t *testing.T) {
	seq := NewSequence(0)
	assert.Equal(t, int64(0), seq.Next())
	assert.Equal(t, int64(1), seq.Next())
	assert.Equal(t, int64(2), seq.Next())

	seq.ResetTo(100)
	assert.Equal(t, int64(100), seq.Next())
	assert.Equal(t, int64(101), seq.Next())
}
