// Package obfuscate encodes numeric ids as short salted strings so sequential
// database ids are not exposed in public URLs.
package obfuscate

import (
	"errors"
	"fmt"

	"github.com/speps/go-hashids/v2"
)

// ErrInvalidID is returned by Encode for ids below 1.
var ErrInvalidID = errors.New("id must be positive")

// Codec is a reversible id encoder keyed by a salt and a minimum output
// length. It is safe for concurrent use.
type Codec struct {
	hd        *hashids.HashID
	minLength int
}

// New builds a Codec. minLength below 0 is treated as 0.
func New(salt string, minLength int) (*Codec, error) {
	if minLength < 0 {
		minLength = 0
	}
	data := hashids.NewData()
	data.Salt = salt
	data.MinLength = minLength

	hd, err := hashids.NewWithData(data)
	if err != nil {
		return nil, fmt.Errorf("hashids: %w", err)
	}
	return &Codec{hd: hd, minLength: minLength}, nil
}

// Encode returns the opaque string for id.
func (c *Codec) Encode(id int64) (string, error) {
	if id < 1 {
		return "", ErrInvalidID
	}
	return c.hd.EncodeInt64([]int64{id})
}

// Decode returns the id encoded in s. Strings that were not produced by
// Encode with the same salt and length yield false.
func (c *Codec) Decode(s string) (id int64, ok bool) {
	defer func() {
		if recover() != nil {
			id, ok = 0, false
		}
	}()

	if s == "" {
		return 0, false
	}
	ids, err := c.hd.DecodeInt64WithError(s)
	if err != nil || len(ids) != 1 || ids[0] < 1 {
		return 0, false
	}
	return ids[0], true
}

// LooksEncoded reports whether s is alphanumeric, at least the minimum
// length, decodes, and encodes back to exactly s.
func (c *Codec) LooksEncoded(s string) bool {
	if len(s) < c.minLength || len(s) == 0 {
		return false
	}
	for _, r := range s {
		if !isAlphanumeric(r) {
			return false
		}
	}
	id, ok := c.Decode(s)
	if !ok {
		return false
	}
	back, err := c.Encode(id)
	return err == nil && back == s
}

func isAlphanumeric(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
