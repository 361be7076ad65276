package secrets

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoxRoundTrip(t *testing.T) {
	box, err := NewBox("correct horse battery staple")
	require.NoError(t, err)

	tests := []struct {
		name   string
		secret string
	}{
		{name: "ultramsg token", secret: "k3j4h5g6f7d8"},
		{name: "twilio auth token", secret: "0123456789abcdef0123456789abcdef"},
		{name: "empty", secret: ""},
		{name: "unicode", secret: "مفتاح-سري"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, err := box.Encrypt(tt.secret)
			require.NoError(t, err)
			if tt.secret != "" {
				assert.NotContains(t, enc, tt.secret)
			}
			_, err = base64.StdEncoding.DecodeString(enc)
			require.NoError(t, err)

			dec, err := box.Decrypt(enc)
			require.NoError(t, err)
			assert.Equal(t, tt.secret, dec)
		})
	}
}

func TestBoxEncryptUsesFreshNonce(t *testing.T) {
	box, err := NewBox("k")
	require.NoError(t, err)

	a, err := box.Encrypt("same")
	require.NoError(t, err)
	b, err := box.Encrypt("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestBoxDecryptFailures(t *testing.T) {
	box, err := NewBox("key-one")
	require.NoError(t, err)
	other, err := NewBox("key-two")
	require.NoError(t, err)

	enc, err := other.Encrypt("token")
	require.NoError(t, err)

	for name, input := range map[string]string{
		"wrong key":  enc,
		"not base64": "%%%not-base64%%%",
		"too short":  base64.StdEncoding.EncodeToString([]byte("abc")),
		"plaintext":  "plain-token",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := box.Decrypt(input)
			assert.ErrorIs(t, err, ErrUndecryptable)
		})
	}
}

func TestNewBoxRejectsEmptyKey(t *testing.T) {
	_, err := NewBox("")
	assert.ErrorIs(t, err, ErrEmptyKey)
}

func TestNewSelectsImplementation(t *testing.T) {
	d, err := New("")
	require.NoError(t, err)
	assert.IsType(t, Plain{}, d)

	v, err := d.Decrypt("as-is")
	require.NoError(t, err)
	assert.Equal(t, "as-is", v)

	d, err = New("secret")
	require.NoError(t, err)
	assert.IsType(t, &Box{}, d)
}
