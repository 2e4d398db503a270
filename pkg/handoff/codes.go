// Package handoff issues the opaque codes exchanged at physical pickup and
// dropoff. Codes are generated exactly once, when a bid is accepted, and are
// immutable afterwards.
package handoff

import (
	"crypto/rand"
	"fmt"
)

// Alphabet excludes 0/O/1/I so codes survive being read over the phone.
const codeAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

const codeLength = 6

// NewCode returns a fresh handoff verification code.
func NewCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("reading random bytes: %w", err)
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf), nil
}

// NewCodePair issues the pickup and dropoff codes together so acceptance can
// persist both in one write.
func NewCodePair() (pickup, dropoff string, err error) {
	pickup, err = NewCode()
	if err != nil {
		return "", "", err
	}
	dropoff, err = NewCode()
	if err != nil {
		return "", "", err
	}
	return pickup, dropoff, nil
}
