package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(b byte) [32]byte {
	var k [32]byte
	for i := range k {
		k[i] = b
	}
	return k
}

func TestSealer_RoundTrip(t *testing.T) {
	s := NewSealer(testKey(7))

	sealed, err := s.Seal("APP_USR-123456")
	require.NoError(t, err)
	assert.NotContains(t, sealed, "APP_USR")

	again, err := s.Seal("APP_USR-123456")
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again, "nonce must differ per seal")

	plain, err := s.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "APP_USR-123456", plain)
}

func TestSealer_Empty(t *testing.T) {
	s := NewSealer(testKey(1))

	sealed, err := s.Seal("")
	require.NoError(t, err)
	assert.Empty(t, sealed)

	plain, err := s.Open("")
	require.NoError(t, err)
	assert.Empty(t, plain)
}

func TestSealer_OpenFailures(t *testing.T) {
	s := NewSealer(testKey(1))
	other := NewSealer(testKey(2))

	sealed, err := s.Seal("token")
	require.NoError(t, err)

	_, err = other.Open(sealed)
	assert.ErrorIs(t, err, ErrUnseal)

	_, err = s.Open("not base64!")
	assert.ErrorIs(t, err, ErrUnseal)

	_, err = s.Open("c2hvcnQ=")
	assert.ErrorIs(t, err, ErrUnseal)
}

func TestMask(t *testing.T) {
	assert.Equal(t, "", Mask(""))
	assert.Equal(t, "****", Mask("abc"))
	assert.Equal(t, "****7890", Mask("TEST-1234567890"))
}
