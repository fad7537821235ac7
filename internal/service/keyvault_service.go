package service

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters for the at-rest key encryption.
const (
	vaultSaltLen    = 16
	vaultKeyLen     = 32 // AES-256
	vaultArgonTime  = 1
	vaultArgonMem   = 64 * 1024
	vaultArgonLanes = 4
)

// Argon2Vault implements ports.KeyVault: private key PEMs are sealed with
// AES-256-GCM under an argon2id-derived key, so stored key material is
// useless without the owner's passphrase.
type Argon2Vault struct{}

// NewArgon2Vault creates the key vault.
func NewArgon2Vault() *Argon2Vault {
	return &Argon2Vault{}
}

// Seal encrypts a private key PEM with a passphrase-derived key.
// Output layout: base64(salt || gcm nonce || ciphertext).
func (v *Argon2Vault) Seal(privateKeyPEM string, passphrase string) (string, error) {
	salt := make([]byte, vaultSaltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	gcm, err := newVaultGCM(passphrase, salt)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}

	sealed := gcm.Seal(nil, nonce, []byte(privateKeyPEM), nil)

	out := make([]byte, 0, len(salt)+len(nonce)+len(sealed))
	out = append(out, salt...)
	out = append(out, nonce...)
	out = append(out, sealed...)
	return base64.StdEncoding.EncodeToString(out), nil
}

// Open decrypts a sealed private key. A wrong passphrase fails GCM
// authentication and returns an error.
func (v *Argon2Vault) Open(sealed string, passphrase string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("decoding sealed key: %w", err)
	}
	if len(raw) < vaultSaltLen {
		return "", fmt.Errorf("sealed key too short")
	}
	salt, rest := raw[:vaultSaltLen], raw[vaultSaltLen:]

	gcm, err := newVaultGCM(passphrase, salt)
	if err != nil {
		return "", err
	}
	if len(rest) < gcm.NonceSize() {
		return "", fmt.Errorf("sealed key too short")
	}
	nonce, ciphertext := rest[:gcm.NonceSize()], rest[gcm.NonceSize():]

	plain, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("opening sealed key: %w", err)
	}
	return string(plain), nil
}

func newVaultGCM(passphrase string, salt []byte) (cipher.AEAD, error) {
	key := argon2.IDKey([]byte(passphrase), salt, vaultArgonTime, vaultArgonMem, vaultArgonLanes, vaultKeyLen)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating gcm: %w", err)
	}
	return gcm, nil
}
