package security

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"errors"
	"fmt"
)

// Signer signs and verifies payment processor webhook bodies (RSA-SHA256, PKCS#1 v1.5).
type Signer interface {
	Sign(payload []byte) ([]byte, error)
	Verify(payload, signature []byte) error
}

type rsaSigner struct {
	rsaPub  *rsa.PublicKey
	rsaPriv *rsa.PrivateKey // optional; nil => verify-only
}

func NewRSASigner(km *KeyMaterial) (Signer, error) {
	if km == nil || km.RSAPub == nil {
		return nil, errors.New("rsa public key required")
	}
	return &rsaSigner{rsaPub: km.RSAPub, rsaPriv: km.RSAPri}, nil
}

func (s *rsaSigner) Sign(payload []byte) ([]byte, error) {
	if s.rsaPriv == nil {
		return nil, errors.New("signing not configured (no RSA private key)")
	}
	sum := sha256.Sum256(payload)
	sig, err := rsa.SignPKCS1v15(rand.Reader, s.rsaPriv, crypto.SHA256, sum[:])
	if err != nil {
		return nil, fmt.Errorf("rsa sign: %w", err)
	}
	return sig, nil
}

func (s *rsaSigner) Verify(payload, signature []byte) error {
	sum := sha256.Sum256(payload)
	if err := rsa.VerifyPKCS1v15(s.rsaPub, crypto.SHA256, sum[:], signature); err != nil {
		return fmt.Errorf("rsa verify: %w", err)
	}
	return nil
}
