package domain

type KeyPair struct {
	Public  []byte `json:"public"`
	Private []byte `json:"private"`
}

type SignedKeyPair struct {
	KeyPair   KeyPair `json:"keyPair"`
	Signature []byte  `json:"signature"`
	KeyID     uint32  `json:"keyId"`
}

// Me identifies the paired device once registration succeeded.
type Me struct {
	ID   string  `json:"id"`
	LID  *string `json:"lid,omitempty"`
	Name *string `json:"name,omitempty"`
}

// Credentials is the core identity half of an account's credential blob.
type Credentials struct {
	NoiseKey                KeyPair       `json:"noiseKey"`
	PairingEphemeralKeyPair KeyPair       `json:"pairingEphemeralKeyPair"`
	SignedIdentityKey       KeyPair       `json:"signedIdentityKey"`
	SignedPreKey            SignedKeyPair `json:"signedPreKey"`
	RegistrationID          uint16        `json:"registrationId"`
	AdvSecretKey            string        `json:"advSecretKey"`
	Me                      *Me           `json:"me,omitempty"`
	NextPreKeyID            uint32        `json:"nextPreKeyId"`
	FirstUnuploadedPreKeyID uint32        `json:"firstUnuploadedPreKeyId"`
	Registered              bool          `json:"registered"`
	Platform                string        `json:"platform,omitempty"`
}
