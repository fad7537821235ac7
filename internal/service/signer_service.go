package service

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
)

// rsaKeySize matches the wallet keypair size used across devices.
const rsaKeySize = 2048

// RSASigner implements ports.Signer with RSA-PSS over SHA-256. Signatures are
// base64 encoded for QR transport. The private key stays inside this value;
// callers only see canonical bytes in and a signature out.
type RSASigner struct {
	key       *rsa.PrivateKey
	publicPEM string
}

// GenerateRSASigner creates a fresh 2048-bit keypair for a new wallet.
func GenerateRSASigner() (*RSASigner, error) {
	key, err := rsa.GenerateKey(rand.Reader, rsaKeySize)
	if err != nil {
		return nil, fmt.Errorf("generating rsa keypair: %w", err)
	}
	return newRSASigner(key)
}

// NewRSASignerFromPEM restores a signer from a PKCS#8 private key PEM, e.g.
// one unsealed from the key vault.
func NewRSASignerFromPEM(privateKeyPEM string) (*RSASigner, error) {
	block, _ := pem.Decode([]byte(privateKeyPEM))
	if block == nil {
		return nil, fmt.Errorf("no PEM block in private key")
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parsing private key: %w", err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("private key is %T, want *rsa.PrivateKey", parsed)
	}
	return newRSASigner(key)
}

func newRSASigner(key *rsa.PrivateKey) (*RSASigner, error) {
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("marshaling public key: %w", err)
	}
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})
	return &RSASigner{key: key, publicPEM: string(pubPEM)}, nil
}

// Sign produces a base64 RSA-PSS signature over the canonical bytes.
func (s *RSASigner) Sign(canonical []byte) (string, error) {
	digest := sha256.Sum256(canonical)
	sig, err := rsa.SignPSS(rand.Reader, s.key, crypto.SHA256, digest[:], &rsa.PSSOptions{
		SaltLength: rsa.PSSSaltLengthAuto,
	})
	if err != nil {
		return "", fmt.Errorf("signing payload: %w", err)
	}
	return base64.StdEncoding.EncodeToString(sig), nil
}

// PublicKeyPEM returns the registry copy of the public key.
func (s *RSASigner) PublicKeyPEM() string {
	return s.publicPEM
}

// PrivateKeyPEM exports the private key in PKCS#8 PEM for vault sealing.
func (s *RSASigner) PrivateKeyPEM() (string, error) {
	der, err := x509.MarshalPKCS8PrivateKey(s.key)
	if err != nil {
		return "", fmt.Errorf("marshaling private key: %w", err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})), nil
}

// RSAVerifier implements ports.Verifier. Verify returns false on any
// malformed key or signature bytes; it never raises.
type RSAVerifier struct{}

// NewRSAVerifier creates the paired verifier.
func NewRSAVerifier() *RSAVerifier {
	return &RSAVerifier{}
}

// Verify checks a base64 RSA-PSS signature over canonical bytes against a PEM
// public key.
func (v *RSAVerifier) Verify(canonical []byte, signatureB64 string, publicKeyPEM string) bool {
	block, _ := pem.Decode([]byte(publicKeyPEM))
	if block == nil {
		return false
	}
	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return false
	}
	pub, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return false
	}
	sig, err := base64.StdEncoding.DecodeString(signatureB64)
	if err != nil {
		return false
	}
	digest := sha256.Sum256(canonical)
	return rsa.VerifyPSS(pub, crypto.SHA256, digest[:], sig, &rsa.PSSOptions{
		SaltLength: rsa.PSSSaltLengthAuto,
	}) == nil
}
