package middleware

import (
	"fmt"
	"strconv"
	"strings"
)

// Minimal calldata decoding for the handful of contract methods the
// interpreters recognize. Calldata is a 4-byte selector followed by
// 32-byte argument words; dynamic arguments hold a byte offset into
// the argument area instead of a value.

const (
	selectorHexLen = 8
	wordHexLen     = 64
)

// hasSelector reports whether calldata starts with the given 4-byte
// method selector (hex, no 0x prefix).
func hasSelector(input, selector string) bool {
	return strings.HasPrefix(strings.ToLower(input), "0x"+selector)
}

// argWords strips the selector and returns the raw argument hex.
func argWords(input string) (string, error) {
	data := strings.TrimPrefix(strings.ToLower(input), "0x")
	if len(data) < selectorHexLen {
		return "", fmt.Errorf("calldata too short: %d hex chars", len(data))
	}
	return data[selectorHexLen:], nil
}

func wordAt(args string, index int) (string, error) {
	start := index * wordHexLen
	end := start + wordHexLen
	if end > len(args) {
		return "", fmt.Errorf("argument %d out of range", index)
	}
	return args[start:end], nil
}

// addressArg decodes the argument at index as an address.
func addressArg(input string, index int) (string, error) {
	args, err := argWords(input)
	if err != nil {
		return "", err
	}
	word, err := wordAt(args, index)
	if err != nil {
		return "", err
	}
	return "0x" + word[wordHexLen-40:], nil
}

// addressArrayArg decodes the argument at index as a dynamic address
// array.
func addressArrayArg(input string, index int) ([]string, error) {
	args, err := argWords(input)
	if err != nil {
		return nil, err
	}
	offsetWord, err := wordAt(args, index)
	if err != nil {
		return nil, err
	}
	offset, err := strconv.ParseUint(offsetWord, 16, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid offset word: %w", err)
	}

	// offset is in bytes from the start of the argument area
	lengthIndex := int(offset) / 32
	lengthWord, err := wordAt(args, lengthIndex)
	if err != nil {
		return nil, err
	}
	length, err := strconv.ParseUint(lengthWord, 16, 16)
	if err != nil {
		return nil, fmt.Errorf("invalid length word: %w", err)
	}

	addresses := make([]string, 0, length)
	for i := 0; i < int(length); i++ {
		word, err := wordAt(args, lengthIndex+1+i)
		if err != nil {
			return nil, err
		}
		addresses = append(addresses, "0x"+word[wordHexLen-40:])
	}
	return addresses, nil
}

// tupleAddressArg decodes field number fieldIndex of a dynamic tuple
// argument at index as an address.
func tupleAddressArg(input string, index, fieldIndex int) (string, error) {
	args, err := argWords(input)
	if err != nil {
		return "", err
	}
	offsetWord, err := wordAt(args, index)
	if err != nil {
		return "", err
	}
	offset, err := strconv.ParseUint(offsetWord, 16, 32)
	if err != nil {
		return "", fmt.Errorf("invalid offset word: %w", err)
	}

	word, err := wordAt(args, int(offset)/32+fieldIndex)
	if err != nil {
		return "", err
	}
	return "0x" + word[wordHexLen-40:], nil
}

// shortAddress abbreviates an address for narration text.
func shortAddress(address string) string {
	if len(address) < 10 {
		return address
	}
	return fmt.Sprintf("%s...%s", address[:6], address[len(address)-4:])
}
