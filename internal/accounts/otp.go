// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package accounts

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"strings"

	"github.com/wneessen/go-mail"

	"github.com/pdiddy/pubmed-assistant/pkg/types"
)

// otpLength is the number of digits in a registration code.
const otpLength = 6

// GenerateOTP returns a random numeric registration code.
func GenerateOTP() (string, error) {
	var b strings.Builder
	for i := 0; i < otpLength; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("generating OTP digit: %w", err)
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}

// OTPMatches compares a submitted code against the issued one in constant
// time.
func OTPMatches(issued, submitted string) bool {
	return subtle.ConstantTimeCompare([]byte(issued), []byte(submitted)) == 1
}

// Mailer delivers registration codes. The SMTP implementation is swapped
// for a recorder in tests.
type Mailer interface {
	SendOTP(ctx context.Context, to, code string) error
}

// SMTPMailer sends registration codes over SMTP with STARTTLS.
type SMTPMailer struct {
	Cfg types.MailConfig
}

// SendOTP emails the code to the given address.
func (m *SMTPMailer) SendOTP(ctx context.Context, to, code string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.Cfg.From); err != nil {
		return fmt.Errorf("setting sender: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("setting recipient: %w", err)
	}
	msg.Subject("PubMed Search Registration OTP")
	msg.SetBodyString(mail.TypeTextPlain, "Your OTP for registration is: "+code)

	// App passwords are often pasted with spaces.
	password := strings.ReplaceAll(m.Cfg.Password, " ", "")

	client, err := mail.NewClient(m.Cfg.Host,
		mail.WithPort(m.Cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.Cfg.From),
		mail.WithPassword(password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return fmt.Errorf("creating mail client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("sending OTP email: %w", err)
	}
	return nil
}
