// Package auth generates and verifies the API keys accepted by the HTTP API.
// Configured keys are either plain keys or bcrypt hashes of keys, so that a
// config file does not have to hold the secrets themselves.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base32"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/projectdiscovery/gcache"
	"golang.org/x/crypto/bcrypt"
)

// API key generation and validation constants
const (
	// APIKeyLength is the length of the random part of an API key
	APIKeyLength = 32
	// APIKeyPrefix is the standard prefix for all API keys
	APIKeyPrefix = "nd"
	// BcryptCost is the bcrypt cost for hashing API keys
	BcryptCost = 12
	// BcryptMaxInputLength is the maximum input length for bcrypt (72 bytes)
	BcryptMaxInputLength = 72

	verifiedCacheSize = 256
	verifiedCacheTTL  = 5 * time.Minute
)

// hashCost is lowered by tests.
var hashCost = BcryptCost

// GeneratedAPIKey is a new key together with the hash to put in the
// configuration instead of the key.
type GeneratedAPIKey struct {
	Key           string `json:"key"`
	Hash          string `json:"hash"`
	DisplayPrefix string `json:"display_prefix"`
}

// GenerateAPIKey creates a random API key and its bcrypt hash.
func GenerateAPIKey() (*GeneratedAPIKey, error) {
	randomBytes := make([]byte, APIKeyLength)
	if _, err := rand.Read(randomBytes); err != nil {
		return nil, fmt.Errorf("failed to generate random key: %w", err)
	}

	// base32 avoids ambiguous characters; padding is cut with the length.
	randomPart := strings.ToLower(base32.StdEncoding.EncodeToString(randomBytes))[:APIKeyLength]
	fullKey := fmt.Sprintf("%s_%s", APIKeyPrefix, randomPart)

	hash, err := HashAPIKey(fullKey)
	if err != nil {
		return nil, err
	}

	return &GeneratedAPIKey{
		Key:           fullKey,
		Hash:          hash,
		DisplayPrefix: CreateDisplayPrefix(fullKey),
	}, nil
}

// HashAPIKey creates a bcrypt hash of an API key for secure storage
func HashAPIKey(apiKey string) (string, error) {
	if apiKey == "" {
		return "", fmt.Errorf("API key cannot be empty")
	}

	hash, err := bcrypt.GenerateFromPassword(bcryptInput(apiKey), hashCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash API key: %w", err)
	}
	return string(hash), nil
}

// ValidateAPIKey checks if a provided API key matches the stored hash
func ValidateAPIKey(apiKey, storedHash string) bool {
	if apiKey == "" || storedHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(storedHash), bcryptInput(apiKey)) == nil
}

// bcrypt has a 72-byte limit, so longer keys are hashed with SHA-256 first.
func bcryptInput(apiKey string) []byte {
	keyBytes := []byte(apiKey)
	if len(keyBytes) > BcryptMaxInputLength {
		sum := sha256.Sum256(keyBytes)
		keyBytes = sum[:]
	}
	return keyBytes
}

// IsHash reports whether s looks like a bcrypt hash.
func IsHash(s string) bool {
	for _, prefix := range []string{"$2a$", "$2b$", "$2y$"} {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}

// IsValidAPIKeyFormat checks if an API key has the format GenerateAPIKey
// produces.
func IsValidAPIKeyFormat(apiKey string) bool {
	random, ok := strings.CutPrefix(apiKey, APIKeyPrefix+"_")
	if !ok || len(random) != APIKeyLength {
		return false
	}
	for _, char := range random {
		if (char < 'a' || char > 'z') && (char < '2' || char > '7') {
			return false
		}
	}
	return true
}

// CreateDisplayPrefix creates a safe-to-display prefix from a full API key
func CreateDisplayPrefix(apiKey string) string {
	if !IsValidAPIKeyFormat(apiKey) {
		return "invalid_key"
	}
	return apiKey[:len(APIKeyPrefix)+1+8] + "..."
}

// KeyStore verifies presented keys against the configured entries.
// Successful bcrypt comparisons are cached, keyed by the SHA-256 of the
// presented key, since each comparison costs tens of milliseconds.
type KeyStore struct {
	plain    [][]byte
	hashes   []string
	verified gcache.Cache[string, bool]
}

// NewKeyStore builds a KeyStore from configured keys and key hashes.
func NewKeyStore(entries []string) *KeyStore {
	ks := &KeyStore{
		verified: gcache.New[string, bool](verifiedCacheSize).
			LRU().
			Expiration(verifiedCacheTTL).
			Build(),
	}
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		switch {
		case entry == "":
		case IsHash(entry):
			ks.hashes = append(ks.hashes, entry)
		default:
			ks.plain = append(ks.plain, []byte(entry))
		}
	}
	return ks
}

// Len returns the number of configured entries.
func (ks *KeyStore) Len() int {
	return len(ks.plain) + len(ks.hashes)
}

// Verify reports whether apiKey matches a configured key or hash.
func (ks *KeyStore) Verify(apiKey string) bool {
	if apiKey == "" {
		return false
	}

	presented := []byte(apiKey)
	match := 0
	for _, key := range ks.plain {
		match |= subtle.ConstantTimeCompare(presented, key)
	}
	if match == 1 {
		return true
	}
	if len(ks.hashes) == 0 {
		return false
	}

	sum := sha256.Sum256(presented)
	cacheKey := hex.EncodeToString(sum[:])
	if ok, err := ks.verified.Get(cacheKey); err == nil && ok {
		return true
	}
	for _, hash := range ks.hashes {
		if ValidateAPIKey(apiKey, hash) {
			_ = ks.verified.Set(cacheKey, true)
			return true
		}
	}
	return false
}
