package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testHasher keeps the cost low so the suite stays fast. The parameters
// still exercise the full encode/decode path.
func testHasher() *Hasher {
	return NewHasher(HashParams{Memory: 1024, Iterations: 1, Parallelism: 1})
}

func TestHasher_HashIsSaltedAndEncoded(t *testing.T) {
	h := testHasher()

	a, err := h.Hash("123456")
	require.NoError(t, err)
	b, err := h.Hash("123456")
	require.NoError(t, err)

	assert.NotEqual(t, "123456", a)
	assert.NotEqual(t, a, b, "random salt must make hashes differ")
	assert.True(t, strings.HasPrefix(a, "$argon2id$v=19$m=1024,t=1,p=1$"), a)
}

func TestHasher_DefaultParamsInEncoding(t *testing.T) {
	encoded, err := NewHasher(DefaultHashParams).Hash("pw")
	require.NoError(t, err)
	assert.Contains(t, encoded, "$m=19456,t=2,p=1$")
}

func TestHasher_Verify(t *testing.T) {
	h := testHasher()
	encoded, err := h.Hash("correct horse")
	require.NoError(t, err)

	ok, err := h.Verify(encoded, "correct horse")
	require.NoError(t, err)
	assert.True(t, ok)

	for _, wrong := range []string{"", "correct horse ", "Correct horse", "battery staple"} {
		ok, err := h.Verify(encoded, wrong)
		require.NoError(t, err, "mismatch must not be an error")
		assert.False(t, ok, "password %q must not verify", wrong)
	}
}

func TestHasher_VerifyUsesEmbeddedParams(t *testing.T) {
	encoded, err := testHasher().Hash("pw")
	require.NoError(t, err)

	// A hasher configured differently still verifies older hashes.
	ok, err := NewHasher(DefaultHashParams).Verify(encoded, "pw")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestHasher_VerifyMalformed(t *testing.T) {
	h := testHasher()
	good, err := h.Hash("pw")
	require.NoError(t, err)
	parts := strings.Split(good, "$")

	tests := map[string]string{
		"empty":         "",
		"plaintext":     "pw",
		"bcrypt":        "$2a$12$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy",
		"wrong version": strings.Join([]string{"", "argon2id", "v=18", parts[3], parts[4], parts[5]}, "$"),
		"bad params":    strings.Join([]string{"", "argon2id", parts[2], "m=x,t=1,p=1", parts[4], parts[5]}, "$"),
		"zero memory":   strings.Join([]string{"", "argon2id", parts[2], "m=0,t=1,p=1", parts[4], parts[5]}, "$"),
		"bad salt":      strings.Join([]string{"", "argon2id", parts[2], parts[3], "!!!", parts[5]}, "$"),
		"empty key":     strings.Join([]string{"", "argon2id", parts[2], parts[3], parts[4], ""}, "$"),
	}

	for name, encoded := range tests {
		t.Run(name, func(t *testing.T) {
			ok, err := h.Verify(encoded, "pw")
			assert.False(t, ok)
			assert.ErrorIs(t, err, ErrHashFormat)
		})
	}
}
