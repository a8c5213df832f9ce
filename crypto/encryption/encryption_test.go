// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package encryption_test

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha512"
	"encoding/json"
	"fmt"
	"hash"
	"reflect"
	"strings"
	"testing"

	"github.com/dar-go/dar/crypto/encryption"
	"github.com/stretchr/testify/require"
)

var testID = []byte("0123456789abcdef")
var badID = []byte("badbadbadbadbadb")

const failGenKey = "fail-gen-key"

// fakeAESRegistry is a minimal in-memory encryption.KeyRegistry, grounded on
// crypto/encryption/passwd's AES registry but without the interactive
// password prompt, for use in tests that exercise the Encrypter/Decrypter
// plumbing directly.
type fakeAESRegistry struct {
	Key []byte
}

func newFakeAESRegistry() *fakeAESRegistry {
	return &fakeAESRegistry{Key: bytes.Repeat([]byte{0x11}, 16)}
}

func (r *fakeAESRegistry) BlockSize() int { return aes.BlockSize }
func (r *fakeAESRegistry) HMACSize() int  { return sha512.Size }

func (r *fakeAESRegistry) GenerateKey() ([]byte, error) {
	if string(r.Key) == failGenKey {
		return nil, fmt.Errorf("generate-key-failed")
	}
	return testID, nil
}

func (r *fakeAESRegistry) NewBlock(id []byte, opts ...interface{}) (hash.Hash, cipher.Block, error) {
	if bytes.Equal(id, badID) {
		return nil, nil, fmt.Errorf("new-block-failed")
	}
	hm := hmac.New(sha512.New, r.Key)
	blk, err := aes.NewCipher(r.Key)
	return hm, blk, err
}

func (r *fakeAESRegistry) NewGCM(block cipher.Block, opts ...interface{}) (cipher.AEAD, error) {
	return nil, fmt.Errorf("not implemented")
}

type randError struct{}

func (r *randError) Read(p []byte) (int, error) {
	return 0, fmt.Errorf("rand failures")
}

type shortRandError struct{}

func (r *shortRandError) Read(p []byte) (int, error) {
	return 10, nil
}

func TestJSON(t *testing.T) {
	out, _ := json.Marshal(&encryption.KeyDescriptor{})
	if got, want := string(out), `{"registry":"","keyid":""}`; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	out, _ = json.Marshal(&encryption.KeyDescriptor{Registry: "x", ID: testID})
	if got, want := string(out), `{"registry":"x","keyid":"30313233343536373839616263646566"}`; got != want {
		t.Errorf("got %v, want %v", got, want)
	}

	kd := encryption.KeyDescriptor{}
	json.Unmarshal([]byte(`{"keyid":""}`), &kd)
	ekd := encryption.KeyDescriptor{ID: []byte{}}
	if got, want := kd, ekd; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	kd = encryption.KeyDescriptor{}
	json.Unmarshal([]byte(`{"keyid":"ffee"}`), &kd)
	ekd = encryption.KeyDescriptor{ID: []byte{0xff, 0xee}}
	if got, want := kd, ekd; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	err := json.Unmarshal([]byte(`{"keyid": {} }`), &kd)
	if err == nil || !strings.Contains(err.Error(), "not quoted") {
		t.Errorf("missing or wrong error: %v", err)
	}
}

func TestErrors(t *testing.T) {
	reg := newFakeAESRegistry()
	require.NoError(t, encryption.Register("aesTE", reg))
	// Multiple registrations of the same registry.
	reg = newFakeAESRegistry()
	require.Error(t, encryption.Register("aesTE", reg))

	// Missing registry.
	kd := encryption.KeyDescriptor{Registry: "aesxxx", ID: []byte("any-old-id")}
	_, err := encryption.NewEncrypter(kd)
	require.Contains(t, err.Error(), "no such registry")
	_, err = encryption.NewDecrypter(kd)
	require.Contains(t, err.Error(), "no such registry")

	// Buffer too small.
	kd.Registry = "aesTE"
	enc, _ := encryption.NewEncrypter(kd)
	dec, _ := encryption.NewDecrypter(kd)

	err = enc.Encrypt([]byte("something"), []byte{0x00})
	require.Contains(t, err.Error(), "too small")
	err = enc.EncryptSlices([]byte{0x00}, []byte("anything"))
	require.Contains(t, err.Error(), "too small")
	_, _, err = dec.Decrypt([]byte("anything"), []byte{0x00})
	require.Contains(t, err.Error(), "too small")

	// Generate key error.
	reg = newFakeAESRegistry()
	reg.Key = []byte(failGenKey)
	_, err = reg.GenerateKey()
	require.Contains(t, err.Error(), "generate-key-failed")

	// NewBlock failure.
	orig := []byte("some-errors")
	src := make([]byte, enc.CiphertextSize(orig))
	enc, _ = encryption.NewEncrypter(encryption.KeyDescriptor{
		Registry: "aesTE", ID: badID,
	})
	err = enc.Encrypt(orig, src[:])
	require.Contains(t, err.Error(), "new-block-failed")

	err = enc.EncryptSlices(src[:], orig)
	require.Contains(t, err.Error(), "new-block-failed")

	// Failure to generate IV.
	encryption.SetRandSource(&randError{})
	err = enc.Encrypt(orig, src[:])
	require.Contains(t, err.Error(), "failed to read 16 bytes of random data")

	encryption.SetRandSource(&shortRandError{})
	err = enc.Encrypt(orig, src[:])
	require.Contains(t, err.Error(), "failed to generate complete iv")
	encryption.SetRandSource(rand.Reader)

	enc, _ = encryption.NewEncrypter(encryption.KeyDescriptor{
		Registry: "aesTE", ID: testID,
	})
	require.NoError(t, enc.Encrypt(orig, src[:]))
	dec, _ = encryption.NewDecrypter(encryption.KeyDescriptor{
		Registry: "aesTE", ID: badID,
	})
	dst := make([]byte, dec.PlaintextSize(src))
	_, _, err = dec.Decrypt(src[:], dst[:])
	require.Contains(t, err.Error(), "new-block-failed")

	dec, _ = encryption.NewDecrypter(encryption.KeyDescriptor{
		Registry: "aesTE", ID: testID,
	})

	// short IV
	_, _, err = dec.Decrypt(src[:10], dst[:])
	require.Contains(t, err.Error(), "failed to read IV")

	// short Buffer
	_, _, err = dec.Decrypt(src[:20], dst[:])
	require.Contains(t, err.Error(), "mismatched checksums")

	// corrupt the checksum
	src[20] = src[20] + 1
	_, _, err = dec.Decrypt(src[:], dst[:])
	require.Contains(t, err.Error(), "mismatched checksums")
}

var keyDesc encryption.KeyDescriptor
var aesKey []byte

func init() {
	aesReg := newFakeAESRegistry()
	if err := encryption.Register("aes", aesReg); err != nil {
		panic(err)
	}
	reg, err := encryption.Lookup("aes")
	if err != nil {
		panic(err)
	}
	id, err := reg.GenerateKey()
	if err != nil {
		panic(err)
	}

	keyDesc = encryption.KeyDescriptor{Registry: "aes", ID: id}
	aesKey = aesReg.Key
}

func TestEncryption(t *testing.T) {
	enc, err := encryption.NewEncrypter(keyDesc)
	require.NoError(t, err)
	dec, err := encryption.NewDecrypter(keyDesc)
	require.NoError(t, err)

	for _, tc := range []string{
		"",
		"me",
		"oh hello world",
		"oh hello world and something a little longer, really we should test with more data",
	} {
		orig := []byte(tc)
		ctext := make([]byte, enc.CiphertextSize(orig))
		err = enc.Encrypt(orig, ctext)
		require.NoError(t, err)

		dst := make([]byte, dec.PlaintextSize(ctext))
		sum, ptext, err := dec.Decrypt(ctext, dst)
		require.NoError(t, err)

		if got, want := ptext, orig; !bytes.Equal(got, want) {
			t.Fatalf("%v: got %v, want %v", orig, got, want)
		}
		hm := hmac.New(sha512.New, aesKey)
		hm.Write(orig)
		if got, want := hm.Sum(nil), sum; !hmac.Equal(got[:], want) {
			t.Fatalf("%v: got %v, want %v", orig, got, want)
		}
	}

	data := [][]byte{
		[]byte(""),
		[]byte("me"),
		[]byte("oh hello world"),
		[]byte("oh hello world and something a little longer, really we should test with more data"),
	}
	orig := bytes.Join(data, nil)
	ctext := make([]byte, enc.CiphertextSizeSlices(data...))
	err = enc.EncryptSlices(ctext, data...)
	require.NoError(t, err)

	dst := make([]byte, dec.PlaintextSize(ctext))
	sum, ptext, err := dec.Decrypt(ctext, dst)
	require.NoError(t, err)

	if got, want := ptext, orig; !bytes.Equal(got, want) {
		t.Fatalf("%v: got %v, want %v", orig, got, want)
	}

	hm := hmac.New(sha512.New, aesKey)
	hm.Write(orig)
	if got, want := hm.Sum(nil), sum; !hmac.Equal(got[:], want) {
		t.Fatalf("%v: got %v, want %v", orig, got, want)
	}
}
