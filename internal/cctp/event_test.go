package cctp

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// encodeEventData wraps a payload in the ABI dynamic-bytes encoding the
// MessageSent event uses: offset word, length word, padded payload.
func encodeEventData(t *testing.T, payload []byte) []byte {
	t.Helper()

	padded := len(payload)
	if rem := padded % wordSize; rem != 0 {
		padded += wordSize - rem
	}

	data := make([]byte, 2*wordSize+padded)
	binary.BigEndian.PutUint64(data[wordSize-8:], wordSize)
	binary.BigEndian.PutUint64(data[2*wordSize-8:], uint64(len(payload)))
	copy(data[2*wordSize:], payload)

	return data
}

func TestDecodeMessageSentData(t *testing.T) {
	t.Run("extracts exact payload", func(t *testing.T) {
		payload := buildMessage(t, buildBurnBody(t, 100000, 10))

		got, err := DecodeMessageSentData(encodeEventData(t, payload))
		require.NoError(t, err)
		assert.Equal(t, payload, got)
	})

	t.Run("length not a word multiple", func(t *testing.T) {
		payload := []byte{0x01, 0x02, 0x03}

		got, err := DecodeMessageSentData(encodeEventData(t, payload))
		require.NoError(t, err)
		assert.Equal(t, payload, got)
	})

	t.Run("same bytes decode to same message and hash", func(t *testing.T) {
		payload := buildMessage(t, buildBurnBody(t, 42, 0))
		data := encodeEventData(t, payload)

		first, err := DecodeMessageSentData(data)
		require.NoError(t, err)
		second, err := DecodeMessageSentData(data)
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, Keccak256(first), Keccak256(second))
	})

	t.Run("rejects short data", func(t *testing.T) {
		_, err := DecodeMessageSentData(make([]byte, wordSize))
		assert.Error(t, err)
	})

	t.Run("rejects out of range offset", func(t *testing.T) {
		data := make([]byte, 2*wordSize)
		binary.BigEndian.PutUint64(data[wordSize-8:], 1024)
		_, err := DecodeMessageSentData(data)
		assert.Error(t, err)
	})

	t.Run("rejects length exceeding payload", func(t *testing.T) {
		data := encodeEventData(t, []byte{0x01})
		binary.BigEndian.PutUint64(data[2*wordSize-8:], 4096)
		_, err := DecodeMessageSentData(data)
		assert.Error(t, err)
	})

	t.Run("rejects overflowing offset word", func(t *testing.T) {
		data := make([]byte, 3*wordSize)
		data[0] = 0x01
		_, err := DecodeMessageSentData(data)
		assert.Error(t, err)
	})
}
