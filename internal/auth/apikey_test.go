package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	hashCost = bcrypt.MinCost
	m.Run()
}

func TestGenerateAPIKey(t *testing.T) {
	generated, err := GenerateAPIKey()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(generated.Key, "nd_"))
	assert.Len(t, generated.Key, len("nd_")+APIKeyLength)
	assert.True(t, IsValidAPIKeyFormat(generated.Key))
	assert.True(t, IsHash(generated.Hash))
	assert.True(t, ValidateAPIKey(generated.Key, generated.Hash))
	assert.Equal(t, generated.Key[:11]+"...", generated.DisplayPrefix)

	other, err := GenerateAPIKey()
	require.NoError(t, err)
	assert.NotEqual(t, generated.Key, other.Key)
	assert.False(t, ValidateAPIKey(other.Key, generated.Hash))
}

func TestHashAPIKey(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{"short key", "nd_abcdefgh"},
		{"long key beyond bcrypt limit", strings.Repeat("k", 100)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := HashAPIKey(tt.key)
			require.NoError(t, err)
			assert.NotEqual(t, tt.key, hash)
			assert.True(t, ValidateAPIKey(tt.key, hash))
			assert.False(t, ValidateAPIKey(tt.key+"x", hash))
		})
	}

	_, err := HashAPIKey("")
	assert.EqualError(t, err, "API key cannot be empty")
}

func TestValidateAPIKeyEmpty(t *testing.T) {
	hash, err := HashAPIKey("nd_key")
	require.NoError(t, err)

	assert.False(t, ValidateAPIKey("", hash))
	assert.False(t, ValidateAPIKey("nd_key", ""))
	assert.False(t, ValidateAPIKey("nd_key", "not-a-hash"))
}

func TestIsValidAPIKeyFormat(t *testing.T) {
	tests := map[string]bool{
		"nd_" + strings.Repeat("a", APIKeyLength):   true,
		"nd_" + strings.Repeat("2", APIKeyLength):   true,
		"nd_" + strings.Repeat("a", APIKeyLength-1): false,
		"sk_" + strings.Repeat("a", APIKeyLength):   false,
		"nd_" + strings.Repeat("A", APIKeyLength):   false,
		"nd_" + strings.Repeat("1", APIKeyLength):   false,
		"": false,
		"nd_" + strings.Repeat("a", APIKeyLength) + "!": false,
	}
	for key, want := range tests {
		assert.Equal(t, want, IsValidAPIKeyFormat(key), key)
	}

	assert.Equal(t, "invalid_key", CreateDisplayPrefix("secret"))
}

func TestKeyStore(t *testing.T) {
	hashed, err := GenerateAPIKey()
	require.NoError(t, err)

	ks := NewKeyStore([]string{"plain-secret-key-01", " ", hashed.Hash})
	assert.Equal(t, 2, ks.Len())

	tests := []struct {
		name string
		key  string
		want bool
	}{
		{"plain key", "plain-secret-key-01", true},
		{"hashed key", hashed.Key, true},
		{"hashed key again from cache", hashed.Key, true},
		{"the hash itself", hashed.Hash, false},
		{"prefix of plain key", "plain-secret", false},
		{"unknown", "nd_unknown", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ks.Verify(tt.key))
		})
	}
}

func TestKeyStorePlainOnly(t *testing.T) {
	ks := NewKeyStore([]string{"only-plain-key-0001"})
	assert.True(t, ks.Verify("only-plain-key-0001"))
	assert.False(t, ks.Verify("only-plain-key-0002"))
}
