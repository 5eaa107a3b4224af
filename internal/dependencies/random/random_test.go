package random

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDIsUUID(t *testing.T) {
	r := New()

	id := r.ID()
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.NotEqual(t, id, r.ID())
}

func TestTokenEncoding(t *testing.T) {
	r := New()

	assert.Len(t, r.Token(32), 43)
	assert.Empty(t, r.Token(0))
	assert.NotEqual(t, r.Token(16), r.Token(16))
}
