package service

import (
	"unicode/utf8"
)

// PasswordBytes encodes a password character sequence as UTF-8.
//
// Characters outside the Basic Multilingual Plane are encoded as a single
// four-byte sequence, never as two surrogate halves, so PasswordChars recovers
// the exact input. The caller owns both slices and should wipe them after use.
func PasswordBytes(chars []rune) []byte {
	n := 0
	for _, r := range chars {
		n += utf8.RuneLen(r)
	}

	b := make([]byte, 0, n)
	for _, r := range chars {
		b = utf8.AppendRune(b, r)
	}
	return b
}

// PasswordChars decodes UTF-8 password bytes back into characters.
func PasswordChars(b []byte) []rune {
	chars := make([]rune, 0, utf8.RuneCount(b))
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		chars = append(chars, r)
		b = b[size:]
	}
	return chars
}

// WipeChars overwrites a password character sequence with zeros.
func WipeChars(chars []rune) {
	for i := range chars {
		chars[i] = 0
	}
}
