package payos

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignatureFieldOrder(t *testing.T) {
	// The signed string must follow the fixed field order regardless of how
	// the request struct is populated.
	sig := Signature("secret", 150000, "https://app.test/cancel", "Dat coc lich hen", 123456, "https://app.test/return")

	expected := sign("secret", "amount=150000&cancelUrl=https://app.test/cancel&description=Dat coc lich hen&orderCode=123456&returnUrl=https://app.test/return")
	assert.Equal(t, expected, sig)
	assert.Len(t, sig, 64) // hex-encoded sha256
}

func TestTruncateDescription(t *testing.T) {
	long := strings.Repeat("x", 40)
	require.Len(t, TruncateDescription(long), DescriptionLimit)

	short := "Phi kiem tra xe"
	assert.Equal(t, short, TruncateDescription(short))
}

func TestSignatureUsesTruncatedDescription(t *testing.T) {
	long := strings.Repeat("a", 30)
	truncated := TruncateDescription(long)

	full := Signature("k", 1000, "c", long, 1, "r")
	cut := Signature("k", 1000, "c", truncated, 1, "r")
	assert.NotEqual(t, full, cut, "truncation must happen before signing, not inside Signature")
}

func TestVerifyWebhook(t *testing.T) {
	fields := map[string]string{
		"orderCode": "654321",
		"amount":    "500000",
		"status":    "PAID",
	}
	sig := WebhookSignature("secret", fields)
	assert.True(t, VerifyWebhook("secret", fields, sig))
	assert.False(t, VerifyWebhook("secret", fields, sig+"00"))
	assert.False(t, VerifyWebhook("other", fields, sig))
}

func TestGenerateOrderCodeRange(t *testing.T) {
	for i := 0; i < 1000; i++ {
		code := GenerateOrderCode()
		require.GreaterOrEqual(t, code, int64(100000))
		require.LessOrEqual(t, code, int64(999999))
	}
}
