package domain

// Sizes of the AES-256-GCM primitive shared by every wrapping in the vault.
//
// The vault format fixes a single AEAD: a 256-bit key, a 96-bit nonce and a
// 128-bit tag that is persisted separately from the ciphertext.
const (
	// KeySize is the size in bytes of the master key and of every slot key.
	KeySize = 32

	// NonceSize is the size in bytes of the GCM nonce (the "iv" field on disk).
	NonceSize = 12

	// TagSize is the size in bytes of the GCM authentication tag.
	TagSize = 16

	// SaltSize is the size in bytes of freshly generated scrypt salts.
	SaltSize = 32
)

// Upper bounds on persisted scrypt costs. A vault file may come from anywhere,
// so derivations that would allocate more than 1 GiB are refused up front.
const (
	// MaxSCryptN is the largest accepted scrypt cost parameter.
	MaxSCryptN = 1 << 20

	// MaxSCryptMemory is the largest accepted scrypt working set (128 * N * r bytes).
	MaxSCryptMemory = 1 << 30
)
