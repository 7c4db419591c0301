package screenshot

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestCipherRoundTrip(t *testing.T) {
	key := bytes.Repeat([]byte{0x42}, keySize)
	c, err := NewCipher(key)
	if err != nil {
		t.Fatalf("NewCipher(): %v", err)
	}

	plaintext := []byte("png image bytes")
	encrypted, err := c.Encrypt(plaintext)
	if err != nil {
		t.Fatalf("Encrypt(): %v", err)
	}
	if bytes.Contains(encrypted, plaintext) {
		t.Error("ciphertext contains plaintext")
	}

	decrypted, err := c.Decrypt(encrypted)
	if err != nil {
		t.Fatalf("Decrypt(): %v", err)
	}
	if !bytes.Equal(decrypted, plaintext) {
		t.Errorf("round trip = %q, want %q", decrypted, plaintext)
	}
}

func TestCipher_UniqueNonces(t *testing.T) {
	c, err := NewCipher(bytes.Repeat([]byte{0x01}, keySize))
	if err != nil {
		t.Fatal(err)
	}

	a, _ := c.Encrypt([]byte("same input"))
	b, _ := c.Encrypt([]byte("same input"))
	if bytes.Equal(a, b) {
		t.Error("two encryptions of the same plaintext are identical")
	}
}

func TestCipher_TamperDetection(t *testing.T) {
	c, err := NewCipher(bytes.Repeat([]byte{0x02}, keySize))
	if err != nil {
		t.Fatal(err)
	}

	encrypted, _ := c.Encrypt([]byte("payload"))
	encrypted[len(encrypted)-1] ^= 0xff

	if _, err := c.Decrypt(encrypted); err == nil {
		t.Error("Decrypt() accepted tampered ciphertext")
	}
}

func TestNewCipher_BadKey(t *testing.T) {
	_, err := NewCipher([]byte("short"))
	if !errors.Is(err, ErrInvalidKey) {
		t.Errorf("error = %v, want ErrInvalidKey", err)
	}
}

func TestLoadOrCreateKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys", "screenshot.key")

	key, err := LoadOrCreateKey(path)
	if err != nil {
		t.Fatalf("LoadOrCreateKey(): %v", err)
	}
	if len(key) != keySize {
		t.Fatalf("key length = %d", len(key))
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("key file mode = %o, want 600", perm)
	}

	again, err := LoadOrCreateKey(path)
	if err != nil {
		t.Fatalf("second LoadOrCreateKey(): %v", err)
	}
	if !bytes.Equal(key, again) {
		t.Error("second load returned a different key")
	}
}

func TestLoadOrCreateKey_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "screenshot.key")
	if err := os.WriteFile(path, []byte("not base64!!"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadOrCreateKey(path); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("error = %v, want ErrInvalidKey", err)
	}
}
