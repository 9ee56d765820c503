package cctp

import (
	"encoding/binary"
	"fmt"
)

// MessageSentTopic is keccak256("MessageSent(bytes)"), the topic0 of the
// event the message transmitter emits alongside every burn.
var MessageSentTopic = Keccak256([]byte("MessageSent(bytes)"))

const wordSize = 32

// DecodeMessageSentData extracts the message payload from the data field of
// a MessageSent event. The data is a single ABI-encoded dynamic bytes value:
// a 32-byte offset word, a 32-byte length word at that offset, then the
// payload padded to a word boundary. Decoded as a length-prefixed record,
// not by string slicing.
func DecodeMessageSentData(data []byte) ([]byte, error) {
	if len(data) < 2*wordSize {
		return nil, fmt.Errorf("event data too short: %d bytes", len(data))
	}

	offset, err := wordToUint(data[:wordSize])
	if err != nil {
		return nil, fmt.Errorf("offset word: %w", err)
	}
	if offset+wordSize > uint64(len(data)) {
		return nil, fmt.Errorf("event data offset %d out of range", offset)
	}

	length, err := wordToUint(data[offset : offset+wordSize])
	if err != nil {
		return nil, fmt.Errorf("length word: %w", err)
	}
	start := offset + wordSize
	if start+length > uint64(len(data)) {
		return nil, fmt.Errorf("event data length %d exceeds payload", length)
	}

	return data[start : start+length], nil
}

// wordToUint reads a 32-byte ABI word as a uint64, rejecting values that do
// not fit.
func wordToUint(word []byte) (uint64, error) {
	for _, b := range word[:wordSize-8] {
		if b != 0 {
			return 0, fmt.Errorf("word overflows uint64")
		}
	}
	return binary.BigEndian.Uint64(word[wordSize-8:]), nil
}
