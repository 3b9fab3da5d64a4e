package idgen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewID(t *testing.T) {
	id := NewID()
	assert.Len(t, id, 20)
	assert.True(t, IsValidID(id))
	assert.NotEqual(t, id, NewID())
}

func TestNewExportID(t *testing.T) {
	id := NewExportID()
	assert.True(t, strings.HasPrefix(id, "exp_"))
	assert.True(t, IsValidID(strings.TrimPrefix(id, "exp_")))
}

func TestNewRequestID(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		id := NewRequestID()
		_, dup := seen[id]
		assert.False(t, dup)
		seen[id] = struct{}{}
	}
}

func TestIsValidID(t *testing.T) {
	assert.False(t, IsValidID(""))
	assert.False(t, IsValidID("not-an-xid"))
}
