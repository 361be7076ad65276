package otp

import (
	"crypto/rand"
	"io"
	"math/big"
)

const DefaultLength = 6

var ten = big.NewInt(10)

// Generator draws digits uniformly from 0-9.
type Generator struct {
	// Rand defaults to crypto/rand.Reader.
	Rand io.Reader
}

// Generate returns a numeric code of length digits. Non-positive lengths use DefaultLength.
func (g Generator) Generate(length int) (string, error) {
	if length <= 0 {
		length = DefaultLength
	}
	src := g.Rand
	if src == nil {
		src = rand.Reader
	}
	code := make([]byte, length)
	for i := range code {
		n, err := rand.Int(src, ten)
		if err != nil {
			return "", err
		}
		code[i] = byte('0' + n.Int64())
	}
	return string(code), nil
}

// Generate uses the default secure source.
func Generate(length int) (string, error) {
	return Generator{}.Generate(length)
}
