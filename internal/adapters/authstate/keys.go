package authstate

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/binary"
	"fmt"

	"github.com/bnema/chat-sessiond/internal/domain"
	"golang.org/x/crypto/curve25519"
)

const (
	initialPreKeyID = 1
	advSecretSize   = 32
)

// InitCredentials returns a fresh, unregistered credential set.
func InitCredentials() (domain.Credentials, error) {
	noise, err := generateKeyPair()
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("generate noise key: %w", err)
	}
	ephemeral, err := generateKeyPair()
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("generate pairing key: %w", err)
	}
	identity, err := generateKeyPair()
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("generate identity key: %w", err)
	}
	preKey, err := generateKeyPair()
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("generate signed pre-key: %w", err)
	}
	registrationID, err := generateRegistrationID()
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("generate registration id: %w", err)
	}
	advSecret := make([]byte, advSecretSize)
	if _, err := rand.Read(advSecret); err != nil {
		return domain.Credentials{}, fmt.Errorf("generate adv secret: %w", err)
	}

	return domain.Credentials{
		NoiseKey:                noise,
		PairingEphemeralKeyPair: ephemeral,
		SignedIdentityKey:       identity,
		// The engine signs the pre-key with the identity key on registration.
		SignedPreKey: domain.SignedKeyPair{
			KeyPair: preKey,
			KeyID:   initialPreKeyID,
		},
		RegistrationID:          registrationID,
		AdvSecretKey:            base64.StdEncoding.EncodeToString(advSecret),
		NextPreKeyID:            initialPreKeyID,
		FirstUnuploadedPreKeyID: initialPreKeyID,
	}, nil
}

// generateKeyPair returns a clamped Curve25519 key pair.
func generateKeyPair() (domain.KeyPair, error) {
	priv := make([]byte, curve25519.ScalarSize)
	if _, err := rand.Read(priv); err != nil {
		return domain.KeyPair{}, err
	}
	priv[0] &= 248
	priv[31] &= 127
	priv[31] |= 64

	pub, err := curve25519.X25519(priv, curve25519.Basepoint)
	if err != nil {
		return domain.KeyPair{}, err
	}
	return domain.KeyPair{Public: pub, Private: priv}, nil
}

// generateRegistrationID draws a 14-bit id, never zero.
func generateRegistrationID() (uint16, error) {
	var buf [2]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, err
	}
	id := binary.BigEndian.Uint16(buf[:]) & 0x3fff
	if id == 0 {
		id = 1
	}
	return id, nil
}
