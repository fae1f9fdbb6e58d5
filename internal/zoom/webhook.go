package zoom

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// VerifyWebhookSignature checks Zoom's x-zm-signature header against the
// raw request body: HMAC-SHA256 over "v0:{timestamp}:{body}", presented as
// "v0={hex digest}".
func VerifyWebhookSignature(secret, timestamp string, body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "v0:%s:", timestamp)
	mac.Write(body)
	expected := "v0=" + hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// EncryptValidationToken answers Zoom's endpoint.url_validation challenge:
// HMAC-SHA256 of the plain token with the webhook secret, hex encoded.
func EncryptValidationToken(secret, plainToken string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(plainToken))
	return hex.EncodeToString(mac.Sum(nil))
}

// WebhookPayload is the envelope Zoom posts to the webhook endpoint.
type WebhookPayload struct {
	Event   string `json:"event"`
	Payload struct {
		PlainToken string `json:"plainToken"`
		Object     struct {
			ID    string `json:"id"`
			UUID  string `json:"uuid"`
			Topic string `json:"topic"`
		} `json:"object"`
	} `json:"payload"`
}
