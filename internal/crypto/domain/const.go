package domain

// Algorithm represents the cryptographic algorithm used for encryption.
//
// All supported algorithms provide Authenticated Encryption with Associated Data (AEAD),
// ensuring both confidentiality and authenticity of encrypted data. AEAD prevents both
// unauthorized reading and tampering with encrypted data.
//
// Algorithm selection guidelines:
//   - Use AESGCM on modern CPUs with AES-NI hardware acceleration
//   - Use ChaCha20 on mobile devices or systems without AES-NI
//   - Both provide equivalent 256-bit security when used correctly
type Algorithm string

const (
	// AESGCM represents the AES-256-GCM authenticated encryption algorithm.
	//
	// AES-GCM (Advanced Encryption Standard in Galois/Counter Mode) combines
	// AES encryption with GMAC authentication. It uses a 256-bit key and
	// provides excellent performance on hardware with AES-NI acceleration.
	AESGCM Algorithm = "aes-gcm"

	// ChaCha20 represents the ChaCha20-Poly1305 authenticated encryption algorithm.
	//
	// ChaCha20-Poly1305 combines the ChaCha20 stream cipher with the Poly1305 MAC
	// for authentication. It's designed for high performance on platforms without
	// AES hardware acceleration and is resistant to timing attacks.
	ChaCha20 Algorithm = "chacha20-poly1305"
)

// DataClassification labels a field with its handling requirements before
// storage or transmission. The classification decides whether a field is
// encrypted and whether access to it is audit-logged as PHI access.
type DataClassification string

const (
	// Public data carries no handling restrictions (e.g., state, language preference).
	Public DataClassification = "public"

	// Internal data is restricted to the organization but is not patient-identifying
	// on its own (e.g., internal identifiers, timestamps, workflow status).
	Internal DataClassification = "internal"

	// PHI is Protected Health Information. PHI fields are always encrypted at
	// rest and every access to them is audit-logged.
	PHI DataClassification = "phi"
)

// Sensitivity returns the ordering of a classification for threshold
// comparisons: Public < Internal < PHI. Unknown classifications rank
// highest so that misconfigured fields fail toward encryption.
func (c DataClassification) Sensitivity() int {
	switch c {
	case Public:
		return 0
	case Internal:
		return 1
	case PHI:
		return 2
	default:
		return 3
	}
}

// Valid reports whether the classification is one of the known levels.
func (c DataClassification) Valid() bool {
	switch c {
	case Public, Internal, PHI:
		return true
	default:
		return false
	}
}

// Cryptographic size constants. Salt and IV lengths follow the AEAD
// recommendations for PBKDF2 salts and GCM/ChaCha20 nonces.
const (
	// KeySize is the symmetric key size in bytes (256 bits).
	KeySize = 32

	// SaltSize is the key-derivation salt size in bytes.
	SaltSize = 16

	// IVSize is the AEAD nonce size in bytes (96 bits).
	IVSize = 12

	// TagSize is the AEAD authentication tag size in bytes (128 bits).
	TagSize = 16
)
