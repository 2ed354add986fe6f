package hashing

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasher_Hash_Deterministic(t *testing.T) {
	h, err := New(DefaultIterations, DefaultKeyBits)
	require.NoError(t, err)

	salt, err := h.NewSalt()
	require.NoError(t, err)

	first, err := h.Hash("CorrectHorseBatteryStaple", salt)
	require.NoError(t, err)
	second, err := h.Hash("CorrectHorseBatteryStaple", salt)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first, DefaultKeyBits/8*2) // hex doubles byte length
}

func TestHasher_Hash_SaltChangesOutput(t *testing.T) {
	h, err := New(DefaultIterations, DefaultKeyBits)
	require.NoError(t, err)

	saltA, err := h.NewSalt()
	require.NoError(t, err)
	saltB, err := h.NewSalt()
	require.NoError(t, err)
	require.NotEqual(t, saltA, saltB)

	hashA, err := h.Hash("password1", saltA)
	require.NoError(t, err)
	hashB, err := h.Hash("password1", saltB)
	require.NoError(t, err)

	assert.NotEqual(t, hashA, hashB)
}

func TestHasher_Hash_InvalidSalt(t *testing.T) {
	h, err := New(DefaultIterations, DefaultKeyBits)
	require.NoError(t, err)

	_, err = h.Hash("password1", "not-hex")
	assert.Error(t, err)
}

func TestHasher_Verify(t *testing.T) {
	h, err := New(DefaultIterations, DefaultKeyBits)
	require.NoError(t, err)

	salt, err := h.NewSalt()
	require.NoError(t, err)
	hash, err := h.Hash("s3cret", salt)
	require.NoError(t, err)

	ok, err := h.Verify("s3cret", salt, hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify("wrong", salt, hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHasher_Verify_CaseSensitive(t *testing.T) {
	h, err := New(DefaultIterations, DefaultKeyBits)
	require.NoError(t, err)

	salt, err := h.NewSalt()
	require.NoError(t, err)
	hash, err := h.Hash("s3cret", salt)
	require.NoError(t, err)

	// An uppercased stored hash must not verify against the lowercase
	// hex this hasher produces.
	upper := ""
	for _, r := range hash {
		if r >= 'a' && r <= 'f' {
			upper += string(r - 32)
		} else {
			upper += string(r)
		}
	}
	require.NotEqual(t, hash, upper)

	ok, err := h.Verify("s3cret", salt, upper)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHasher_NewSalt_Length(t *testing.T) {
	h, err := New(DefaultIterations, DefaultKeyBits)
	require.NoError(t, err)

	salt, err := h.NewSalt()
	require.NoError(t, err)

	raw, err := hex.DecodeString(salt)
	require.NoError(t, err)
	assert.Len(t, raw, 20)
}

func TestNew_RejectsBadConfig(t *testing.T) {
	cases := []struct {
		name       string
		iterations int
		keyBits    int
	}{
		{"zero iterations", 0, 160},
		{"negative iterations", -1, 160},
		{"zero key bits", 1000, 0},
		{"non-byte key bits", 1000, 14},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.iterations, tc.keyBits)
			assert.Error(t, err)
		})
	}
}
