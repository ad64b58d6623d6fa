package paymentprovider

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
)

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"id":"evt_1","type":"checkout.session.completed"}`)

	tests := []struct {
		name      string
		secret    string
		body      []byte
		signature string
		expected  bool
	}{
		{
			name:      "валидная подпись",
			secret:    "whsec_test",
			body:      body,
			signature: sign("whsec_test", body),
			expected:  true,
		},
		{
			name:      "подпись другим секретом",
			secret:    "whsec_test",
			body:      body,
			signature: sign("whsec_other", body),
			expected:  false,
		},
		{
			name:      "подпись другого тела",
			secret:    "whsec_test",
			body:      body,
			signature: sign("whsec_test", []byte(`{"id":"evt_2"}`)),
			expected:  false,
		},
		{
			name:      "пустая подпись",
			secret:    "whsec_test",
			body:      body,
			signature: "",
			expected:  false,
		},
		{
			name:      "не base64",
			secret:    "whsec_test",
			body:      body,
			signature: "%%%not-base64%%%",
			expected:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, VerifySignature(tt.secret, tt.body, tt.signature))
		})
	}
}
