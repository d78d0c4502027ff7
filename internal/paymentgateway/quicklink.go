package paymentgateway

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	quickLinkBaseURL  = "https://api.vietqr.io/image"
	defaultTemplateID = "compact2"

	// Domestic bank BINs are six digits starting with 970. Account numbers
	// that embed their BIN as a prefix are resolved from it directly.
	bankBINPrefix = "970"
	bankBINLength = 6
)

type QuickLinkConfig struct {
	ReceiverAccountNo   string
	ReceiverAccountName string
	BankBIN             string
	TemplateID          string
}

// QuickLinkBuilder constructs stateless payment-QR image URLs. No provider
// round-trip and no signature: the rendering endpoint is public and the
// transfer itself is confirmed out-of-band.
type QuickLinkBuilder struct {
	cfg QuickLinkConfig
}

func NewQuickLinkBuilder(cfg QuickLinkConfig) *QuickLinkBuilder {
	if cfg.TemplateID == "" {
		cfg.TemplateID = defaultTemplateID
	}
	return &QuickLinkBuilder{cfg: cfg}
}

// BuildImageURL returns the quick-link image URL for the given transfer.
// Empty account fields fall back to the configured receiver.
func (b *QuickLinkBuilder) BuildImageURL(accountNo, accountName, description string, amount int64) string {
	if accountNo == "" {
		accountNo = b.cfg.ReceiverAccountNo
	}
	if accountName == "" {
		accountName = b.cfg.ReceiverAccountName
	}

	bin := b.resolveBankBIN(accountNo)

	return fmt.Sprintf("%s/%s-%s-%s.jpg?amount=%d&addInfo=%s&accountName=%s",
		quickLinkBaseURL,
		bin,
		accountNo,
		b.cfg.TemplateID,
		amount,
		url.QueryEscape(description),
		url.QueryEscape(accountName),
	)
}

// resolveBankBIN takes the BIN from the account number when its first six
// digits look like one, otherwise uses the configured default.
func (b *QuickLinkBuilder) resolveBankBIN(accountNo string) string {
	if len(accountNo) >= bankBINLength {
		prefix := accountNo[:bankBINLength]
		if strings.HasPrefix(prefix, bankBINPrefix) {
			return prefix
		}
	}
	return b.cfg.BankBIN
}
