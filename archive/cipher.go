package archive

import (
	"github.com/dar-go/dar/crypto/encryption"
	"github.com/dar-go/dar/derr"
)

// Cipher wraps a crypto/encryption key descriptor into whole-buffer
// encrypt/decrypt operations, one per file payload. The teacher's
// Encrypter/Decrypter interfaces work over a single in-memory block
// rather than a stream (encryption.go's CiphertextSize/Encrypt pair), so
// archive buffers one file's post-compression payload at a time instead
// of layering the cipher as an io.Writer the way the compressor is.
type Cipher struct {
	Descriptor encryption.KeyDescriptor
}

// NewCipher resolves registry (e.g. "passwd-aes", registered by
// crypto/encryption/passwd's init) against a key ID, producing a Cipher
// ready to encrypt or decrypt.
func NewCipher(registry string, id encryption.KeyID) Cipher {
	return Cipher{Descriptor: encryption.KeyDescriptor{Registry: registry, ID: id}}
}

// Enabled reports whether c is configured to do anything.
func (c Cipher) Enabled() bool { return c.Descriptor.Registry != "" }

// Seal encrypts plaintext as a single block, prefixed with the IV and
// the HMAC/SHA512 of the plaintext per crypto/encryption's documented
// block format.
func (c Cipher) Seal(plaintext []byte) ([]byte, error) {
	enc, err := encryption.NewEncrypter(c.Descriptor)
	if err != nil {
		return nil, derr.E(derr.Feature, err, "archive: no such key registry "+c.Descriptor.Registry)
	}
	dst := make([]byte, enc.CiphertextSize(plaintext))
	if err := enc.Encrypt(plaintext, dst); err != nil {
		return nil, derr.E(derr.Data, err, "archive: encrypt")
	}
	return dst, nil
}

// Open decrypts and authenticates a block Seal produced.
func (c Cipher) Open(ciphertext []byte) ([]byte, error) {
	dec, err := encryption.NewDecrypter(c.Descriptor)
	if err != nil {
		return nil, derr.E(derr.Feature, err, "archive: no such key registry "+c.Descriptor.Registry)
	}
	dst := make([]byte, dec.PlaintextSize(ciphertext))
	_, plaintext, err := dec.Decrypt(ciphertext, dst)
	if err != nil {
		return nil, derr.E(derr.Data, err, "archive: decrypt: authentication failed")
	}
	return plaintext, nil
}
