package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	first, err := h.Hash("Abcd1234!")
	require.NoError(t, err)
	second, err := h.Hash("Abcd1234!")
	require.NoError(t, err)

	assert.NotEqual(t, "Abcd1234!", first)
	assert.NotEqual(t, first, second, "each hash uses a fresh salt")

	ok, err := h.Verify("Abcd1234!", first)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify("Abcd1234!", second)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify("wrong", first)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBcryptHasher_UsesConfiguredCost(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost + 1)

	digest, err := h.Hash("Abcd1234!")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(digest))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost+1, cost)
}

func TestBcryptHasher_Errors(t *testing.T) {
	_, err := NewBcryptHasher(bcrypt.MinCost).Hash("")
	assert.ErrorIs(t, err, ErrEmptyPassword)

	_, err = NewBcryptHasher(bcrypt.MaxCost + 1).Hash("Abcd1234!")
	assert.Error(t, err)

	ok, err := NewBcryptHasher(bcrypt.MinCost).Verify("Abcd1234!", "not-a-digest")
	assert.Error(t, err)
	assert.False(t, ok)
}
