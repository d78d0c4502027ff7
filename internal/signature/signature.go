// Package signature computes and checks the HMAC-SHA256 message codes used
// by the payment provider protocol. Canonical string layouts are fixed by the
// provider contract; callers must not reorder fields.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

var ErrSecretMissing = errors.New("signing secret is not configured")

// Sign returns the lowercase hex HMAC-SHA256 of the canonical string.
// An unconfigured secret is a configuration error: requests must never go
// out unsigned.
func Sign(canonical, secret string) (string, error) {
	if secret == "" {
		return "", ErrSecretMissing
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(canonical))
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// Verify recomputes the digest and compares it to the presented one,
// case-insensitively. Comparison runs over the full digest regardless of
// where a mismatch occurs.
func Verify(canonical, secret, presented string) bool {
	if secret == "" || presented == "" {
		return false
	}
	expected, err := Sign(canonical, secret)
	if err != nil {
		return false
	}
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(presented)))
}

// ProviderRequestCanonical builds the signing string for an outbound
// payment-request call:
// amount=$amount&cancelUrl=$cancelUrl&description=$description&orderCode=$orderCode&returnUrl=$returnUrl
// The description must already be truncated to the provider limit before
// signing, since the provider verifies against the transmitted value.
func ProviderRequestCanonical(amount int64, cancelURL, description string, orderCode int64, returnURL string) string {
	return fmt.Sprintf("amount=%d&cancelUrl=%s&description=%s&orderCode=%d&returnUrl=%s",
		amount, cancelURL, description, orderCode, returnURL)
}

// ProviderWebhookCanonical builds the verification string for an inbound
// provider webhook: orderCode|amount|description|accountNumber|transactionDateTime.
func ProviderWebhookCanonical(orderCode int64, amount int64, description, accountNumber, transactionDateTime string) string {
	return fmt.Sprintf("%d|%d|%s|%s|%s", orderCode, amount, description, accountNumber, transactionDateTime)
}

// QuickLinkWebhookCanonical builds the verification string for the manual
// bank-notification path: paymentId|status|amount|transactionId.
func QuickLinkWebhookCanonical(paymentID, status string, amount int64, transactionID string) string {
	return fmt.Sprintf("%s|%s|%d|%s", paymentID, status, amount, transactionID)
}
