// Package hmackey generates the shared secret that signs bearer tokens.
package hmackey

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

const keyBytes = 32

// Run writes a fresh token secret export to out.
func Run(out io.Writer, reader io.Reader) error {
	if out == nil {
		return errors.New("output is required")
	}
	if reader == nil {
		reader = rand.Reader
	}
	key := make([]byte, keyBytes)
	if _, err := io.ReadFull(reader, key); err != nil {
		return fmt.Errorf("generate token secret: %w", err)
	}
	if _, err := fmt.Fprintf(out, "export JANTABLE_TOKEN_SECRET=%s\n", hex.EncodeToString(key)); err != nil {
		return err
	}
	return nil
}
