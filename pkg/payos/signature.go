package payos

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Signature computes the HMAC-SHA256 checksum for payment-link creation.
// The gateway dictates the exact field order:
// amount&cancelUrl&description&orderCode&returnUrl
func Signature(checksumKey string, amount int64, cancelURL, description string, orderCode int64, returnURL string) string {
	data := fmt.Sprintf("amount=%d&cancelUrl=%s&description=%s&orderCode=%d&returnUrl=%s",
		amount, cancelURL, description, orderCode, returnURL)
	return sign(checksumKey, data)
}

// WebhookSignature computes the checksum over webhook data fields, sorted
// alphabetically by key as the gateway does.
func WebhookSignature(checksumKey string, fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+fields[k])
	}
	return sign(checksumKey, strings.Join(pairs, "&"))
}

// VerifyWebhook reports whether the received signature matches the payload.
func VerifyWebhook(checksumKey string, fields map[string]string, signature string) bool {
	expected := WebhookSignature(checksumKey, fields)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// TruncateDescription applies the gateway's description length cap.
func TruncateDescription(desc string) string {
	if len(desc) > DescriptionLimit {
		return desc[:DescriptionLimit]
	}
	return desc
}

func sign(key, data string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}
