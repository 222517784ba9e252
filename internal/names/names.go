// Package names generates short random session names.
package names

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	letters = "abcdefghijklmnopqrstuvwxyz"
	digits  = "0123456789"
)

// GenerateName returns a droid-style name in letter-digit-letter-digit form (e.g. "r2d2").
func GenerateName() string {
	name, err := generate()
	if err != nil {
		// crypto/rand only fails when the OS entropy source is unavailable.
		return "g0o5"
	}
	return name
}

func generate() (string, error) {
	out := make([]byte, 0, 4)
	for _, set := range []string{letters, digits, letters, digits} {
		c, err := randomChar(set)
		if err != nil {
			return "", err
		}
		out = append(out, c)
	}
	return string(out), nil
}

// randomChar selects a random byte from set using crypto/rand.
func randomChar(set string) (byte, error) {
	if len(set) == 0 {
		return 0, fmt.Errorf("character set is empty")
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(set))))
	if err != nil {
		return 0, fmt.Errorf("generating random number: %w", err)
	}
	return set[n.Int64()], nil
}
