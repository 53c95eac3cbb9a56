package service

import (
	"crypto/rand"
	"io"
)

// codeAlphabet omits I, O, 0 and 1. Its 32 symbols divide 256 evenly, so byte%32 is unbiased.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const (
	inviteCodeLength   = 26 // 130 bits
	authCodeLength     = 8
	ticketSuffixLength = 6
)

func randomCode(r io.Reader, length int) (string, error) {
	if r == nil {
		r = rand.Reader
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf), nil
}
