package domain

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	t.Run("Success_OpenReturnsMaterial", func(t *testing.T) {
		material := bytes.Repeat([]byte{0x07}, 32)
		expected := append([]byte(nil), material...)

		key := NewKey("alias", true, true, "e1", material)
		assert.Equal(t, make([]byte, 32), material, "input material is wiped")

		buf, err := key.Open()
		require.NoError(t, err)
		defer buf.Destroy()

		assert.Equal(t, expected, buf.Bytes())
		assert.Equal(t, "alias", key.Alias)
		assert.True(t, key.HardwareBacked)
		assert.True(t, key.AuthRequired)
	})

	t.Run("Error_OpenAfterDestroy", func(t *testing.T) {
		key := NewKey("alias", false, true, "", bytes.Repeat([]byte{0x01}, 32))
		key.Destroy()

		buf, err := key.Open()
		assert.Nil(t, buf)
		assert.ErrorIs(t, err, ErrKeyPermanentlyInvalidated)
	})
}
