// Package cryptox owns the per-user RSA keypairs and the encryption of draw numbers.
package cryptox

import (
	"crypto/rand"   // Randomness for key generation and OAEP
	"crypto/rsa"    // RSA keys and OAEP
	"crypto/sha256" // OAEP hash
	"crypto/x509"   // PKCS#1 key encoding
	"encoding/pem"  // PEM armour for stored keys
	"errors"        // Static errors
	"fmt"           // Error wrapping

	"lottery_system/internal/domain" // Domain errors
)

// MinKeyBits is the smallest modulus NewService accepts
const MinKeyBits = 2048

const (
	publicKeyBlock  = "RSA PUBLIC KEY"
	privateKeyBlock = "RSA PRIVATE KEY"
)

// KeyPair holds a PEM encoded RSA keypair as stored on a user
type KeyPair struct {
	PublicKey  []byte // PKCS#1 public key
	PrivateKey []byte // PKCS#1 private key
}

// Service generates keypairs and encrypts short strings with RSA-OAEP (SHA-256)
type Service struct {
	bits int // Modulus size for new keypairs
}

// NewService returns a Service generating keys of the given size
func NewService(bits int) (*Service, error) {
	if bits < MinKeyBits {
		return nil, fmt.Errorf("rsa key size %d is below the minimum of %d bits", bits, MinKeyBits)
	}
	return &Service{bits: bits}, nil
}

// GenerateKeyPair creates a fresh keypair
func (s *Service) GenerateKeyPair() (KeyPair, error) {
	key, err := rsa.GenerateKey(rand.Reader, s.bits)
	if err != nil {
		return KeyPair{}, fmt.Errorf("generate rsa key: %w", err)
	}
	return KeyPair{
		PublicKey:  pem.EncodeToMemory(&pem.Block{Type: publicKeyBlock, Bytes: x509.MarshalPKCS1PublicKey(&key.PublicKey)}),
		PrivateKey: pem.EncodeToMemory(&pem.Block{Type: privateKeyBlock, Bytes: x509.MarshalPKCS1PrivateKey(key)}),
	}, nil
}

// Encrypt encrypts plaintext for the holder of publicKey.
// Every call uses fresh randomness, so equal plaintexts give different ciphertexts.
func (s *Service) Encrypt(plaintext string, publicKey []byte) ([]byte, error) {
	pub, err := parsePublicKey(publicKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEncryption, err)
	}
	if len(plaintext) > MaxPlaintext(pub) {
		return nil, fmt.Errorf("%w: plaintext of %d bytes exceeds %d byte limit", domain.ErrEncryption, len(plaintext), MaxPlaintext(pub))
	}
	ciphertext, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, pub, []byte(plaintext), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEncryption, err)
	}
	return ciphertext, nil
}

// Decrypt recovers the plaintext encrypted for privateKey
func (s *Service) Decrypt(ciphertext, privateKey []byte) (string, error) {
	priv, err := parsePrivateKey(privateKey)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrDecryption, err)
	}
	plaintext, err := rsa.DecryptOAEP(sha256.New(), nil, priv, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrDecryption, err)
	}
	return string(plaintext), nil
}

// MaxPlaintext is the largest OAEP payload for pub: k - 2*hLen - 2
func MaxPlaintext(pub *rsa.PublicKey) int {
	return pub.Size() - 2*sha256.Size - 2
}

func parsePublicKey(data []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(data)
	if block == nil || block.Type != publicKeyBlock {
		return nil, errors.New("malformed public key")
	}
	return x509.ParsePKCS1PublicKey(block.Bytes)
}

func parsePrivateKey(data []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil || block.Type != privateKeyBlock {
		return nil, errors.New("malformed private key")
	}
	return x509.ParsePKCS1PrivateKey(block.Bytes)
}
