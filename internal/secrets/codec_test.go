package secrets

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptforge/promptforge/internal/apperr"
)

const testSecret = "0S1hXcmB3qAUWNqCSXoQ0uLF9FQoIhqY"

func newTestCodec(t *testing.T) *Codec {
	t.Helper()
	c, err := NewCodec(testSecret)
	require.NoError(t, err)
	return c
}

func TestNewCodecRequiresSecret(t *testing.T) {
	_, err := NewCodec("")
	require.Error(t, err)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	c := newTestCodec(t)

	tests := []struct {
		name  string
		input map[string]interface{}
	}{
		{
			name: "pinecone config",
			input: map[string]interface{}{
				"apiKey":      "pk-123456",
				"environment": "us-east-1",
				"indexName":   "prompts",
			},
		},
		{
			name: "pgvector config",
			input: map[string]interface{}{
				"connection_string": "postgres://user:pass@db:5432/vectors",
				"sslmode":           "require",
			},
		},
		{
			name:  "empty config",
			input: map[string]interface{}{},
		},
		{
			name: "nested values",
			input: map[string]interface{}{
				"auth": map[string]interface{}{"user": "admin", "password": "s3cret"},
				"port": json.Number("6333"),
				"tls":  true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opaque, err := c.Encode(tt.input)
			require.NoError(t, err)

			var got map[string]interface{}
			require.NoError(t, c.Decode(opaque, &got))
			assert.Equal(t, tt.input, got)
		})
	}
}

// Numeric credential fields must come back exactly: an account ID past
// 2^53 rounded through float64 would be persisted corrupted with no
// error anywhere.
func TestRoundTripPreservesLargeIntegers(t *testing.T) {
	c := newTestCodec(t)
	input := map[string]interface{}{
		"account_id": json.Number("9007199254740993"),
		"apiKey":     "pk-123456",
	}

	opaque, err := c.Encode(input)
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, c.Decode(opaque, &got))

	n, ok := got["account_id"].(json.Number)
	require.True(t, ok, "account_id decoded as %T", got["account_id"])
	assert.Equal(t, "9007199254740993", n.String())
}

func TestEncodeNeverStoresPlaintext(t *testing.T) {
	c := newTestCodec(t)

	opaque, err := c.Encode(map[string]interface{}{"apiKey": "super-secret-key"})
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(opaque)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "super-secret-key")
	assert.NotContains(t, opaque, "super-secret-key")
}

func TestEncodeFreshNoncePerCall(t *testing.T) {
	c := newTestCodec(t)
	input := map[string]interface{}{"apiKey": "abc"}

	first, err := c.Encode(input)
	require.NoError(t, err)
	second, err := c.Encode(input)
	require.NoError(t, err)

	// Same plaintext, different nonce, different ciphertext.
	assert.NotEqual(t, first, second)
}

func TestDecodeTamperDetection(t *testing.T) {
	c := newTestCodec(t)

	opaque, err := c.Encode(map[string]interface{}{"host": "qdrant.local", "port": float64(6333)})
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(opaque)
	require.NoError(t, err)

	// Flipping any single byte (nonce, tag or ciphertext) must fail
	// authentication; a flip never yields corrupted plaintext.
	for i := range raw {
		tampered := make([]byte, len(raw))
		copy(tampered, raw)
		tampered[i] ^= 0x01

		var got map[string]interface{}
		err := c.Decode(base64.StdEncoding.EncodeToString(tampered), &got)
		require.Errorf(t, err, "byte %d: tampered input decoded successfully", i)
		assert.Equal(t, apperr.KindDecryption, apperr.KindOf(err), "byte %d", i)
	}
}

func TestDecodeMalformedInput(t *testing.T) {
	c := newTestCodec(t)

	tests := []struct {
		name  string
		input string
	}{
		{"not base64", "%%%not-base64%%%"},
		{"empty", ""},
		{"too short", base64.StdEncoding.EncodeToString([]byte("short"))},
		{"one byte short of header", base64.StdEncoding.EncodeToString(make([]byte, nonceSize+tagSize-1))},
		{"header but empty ciphertext", base64.StdEncoding.EncodeToString(make([]byte, nonceSize+tagSize))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got map[string]interface{}
			err := c.Decode(tt.input, &got)
			require.Error(t, err)
			assert.Equal(t, apperr.KindDecryption, apperr.KindOf(err))
		})
	}
}

func TestDecodeWrongSecret(t *testing.T) {
	c := newTestCodec(t)
	opaque, err := c.Encode(map[string]interface{}{"apiKey": "abc"})
	require.NoError(t, err)

	other, err := NewCodec(strings.Repeat("x", 32))
	require.NoError(t, err)

	var got map[string]interface{}
	err = other.Decode(opaque, &got)
	require.Error(t, err)
	assert.Equal(t, apperr.KindDecryption, apperr.KindOf(err))
}
