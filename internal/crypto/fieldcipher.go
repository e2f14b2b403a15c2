package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrCrypto signals a cipher failure: wrong key, corrupted ciphertext, or input that
// was never produced by this cipher. Callers must abort the operation rather than
// treat it as a missing value.
var ErrCrypto = errors.New("crypto: field cipher failure")

// FieldCipher encrypts individual string fields deterministically so that equal
// plaintexts always yield equal ciphertexts. Lookups by sensitive value (account
// numbers, ID numbers) become exact-match queries on ciphertext instead of a
// decrypt-and-compare scan over the whole table.
//
// The determinism comes from AES-256-CBC with a fixed all-zero IV. That is a known,
// deliberate weakness: two principals holding the same plaintext produce identical
// ciphertext, leaking equality. Hardening the scheme would invalidate every stored
// ciphertext and the unique indexes built on them.
type FieldCipher struct {
	key []byte
}

// NewFieldCipher derives the 32-byte AES key from the configured secret. Secrets
// shorter than 32 bytes are right-padded with '!', longer ones are truncated, so
// the same secret always maps to the same key.
func NewFieldCipher(secret string) *FieldCipher {
	padded := secret
	if len(padded) < 32 {
		padded += strings.Repeat("!", 32-len(padded))
	}
	return &FieldCipher{key: []byte(padded[:32])}
}

// Encrypt returns the hex-encoded ciphertext of plaintext. Empty input passes
// through unchanged so optional fields stay optional.
func (f *FieldCipher) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return plaintext, nil
	}

	block, err := aes.NewCipher(f.key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCrypto, err)
	}

	padded := pkcs7Pad([]byte(plaintext), aes.BlockSize)
	out := make([]byte, len(padded))
	iv := make([]byte, aes.BlockSize)
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, padded)

	return hex.EncodeToString(out), nil
}

// Decrypt reverses Encrypt. It fails with ErrCrypto when the input is not valid
// ciphertext under the current key.
func (f *FieldCipher) Decrypt(ciphertext string) (string, error) {
	if ciphertext == "" {
		return ciphertext, nil
	}

	raw, err := hex.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: invalid hex encoding", ErrCrypto)
	}
	if len(raw) == 0 || len(raw)%aes.BlockSize != 0 {
		return "", fmt.Errorf("%w: ciphertext length not a block multiple", ErrCrypto)
	}

	block, err := aes.NewCipher(f.key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCrypto, err)
	}

	out := make([]byte, len(raw))
	iv := make([]byte, aes.BlockSize)
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, raw)

	plain, err := pkcs7Unpad(out, aes.BlockSize)
	if err != nil {
		return "", err
	}
	// CBC carries no authenticator, and a wrong-key decrypt can produce bytes whose
	// trailing padding happens to validate. Every field this cipher protects was a
	// UTF-8 string on the way in, so non-UTF-8 output can only mean a key mismatch
	// or corruption. Never return it as plaintext.
	if !utf8.Valid(plain) {
		return "", fmt.Errorf("%w: plaintext failed integrity check", ErrCrypto)
	}
	return string(plain), nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, fmt.Errorf("%w: invalid padded length", ErrCrypto)
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize || n > len(data) {
		return nil, fmt.Errorf("%w: invalid padding", ErrCrypto)
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, fmt.Errorf("%w: invalid padding", ErrCrypto)
		}
	}
	return data[:len(data)-n], nil
}
