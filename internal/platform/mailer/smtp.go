// Package mailer delivers password reset links over SMTP.
package mailer

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/wneessen/go-mail"

	"catalog-accounts/internal/model"
)

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
	Insecure bool
	SiteName string
	// LinkBase is the absolute reset URL prefix, e.g. https://example.org/user/reset.
	LinkBase string
}

// Envelope is a rendered message, kept separate from delivery so it can be
// inspected without an SMTP server.
type Envelope struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

type SMTPSender struct {
	lg  zerolog.Logger
	cfg Config
}

func NewSMTPSender(cfg Config, lg zerolog.Logger) *SMTPSender {
	return &SMTPSender{
		lg:  lg.With().Str("component", "smtp_sender").Logger(),
		cfg: cfg,
	}
}

// SendResetLink mails the reset link for key to the user's address.
func (s *SMTPSender) SendResetLink(ctx context.Context, user *model.User, key string) error {
	env, err := s.ResetEnvelope(user, key)
	if err != nil {
		return err
	}
	return s.send(ctx, env)
}

func (s *SMTPSender) ResetEnvelope(user *model.User, key string) (Envelope, error) {
	to := strings.TrimSpace(user.Email)
	if to == "" {
		return Envelope{}, fmt.Errorf("user %s has no email address", user.Name)
	}

	link := ResetLink(s.cfg.LinkBase, user.ID, key)
	site := s.cfg.SiteName
	if site == "" {
		site = "the site"
	}

	subject := fmt.Sprintf("Reset your password - %s", site)
	text := fmt.Sprintf(
		"Dear %s,\n\nYou have requested your password on %s to be reset.\n\n"+
			"Please click the following link to confirm this request:\n\n   %s\n\n"+
			"If you did not ask for a reset you can ignore this message.\n",
		user.DisplayName(), site, link,
	)
	htmlBody := renderBasicHTML(
		"Reset your password",
		fmt.Sprintf("Dear %s, you have requested your password on %s to be reset.", user.DisplayName(), site),
		"Reset password",
		link,
	)
	return Envelope{To: to, Subject: subject, TextBody: text, HTMLBody: htmlBody}, nil
}

// ResetLink builds <base>/<userID>?key=<key>.
func ResetLink(base string, userID uint, key string) string {
	q := url.Values{}
	q.Set("key", key)
	return strings.TrimRight(base, "/") + "/" + strconv.FormatUint(uint64(userID), 10) + "?" + q.Encode()
}

func (s *SMTPSender) send(ctx context.Context, env Envelope) error {
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	m := mail.NewMsg()
	if err := m.From(s.cfg.From); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}
	if err := m.To(env.To); err != nil {
		return fmt.Errorf("invalid to address: %w", err)
	}
	m.Subject(env.Subject)
	m.SetBodyString(mail.TypeTextPlain, env.TextBody)
	m.AddAlternativeString(mail.TypeTextHTML, env.HTMLBody)

	tlsPolicy := mail.TLSMandatory
	if s.cfg.Insecure {
		tlsPolicy = mail.TLSOpportunistic
	}
	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithTLSPolicy(tlsPolicy),
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}

	c, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client init failed: %w", err)
	}

	if err := c.DialAndSendWithContext(ctx, m); err != nil {
		s.lg.Error().Err(err).Str("host", s.cfg.Host).Int("port", s.cfg.Port).Msg("smtp send failed")
		return fmt.Errorf("SMTP server could not be connected to: %q: %w", s.cfg.Host, err)
	}
	s.lg.Info().Str("subject", env.Subject).Msg("smtp send ok")
	return nil
}

func renderBasicHTML(title, intro, buttonText, link string) string {
	escLink := html.EscapeString(link)
	return `<!doctype html>
<html>
  <body style="font-family:Arial,Helvetica,sans-serif; line-height:1.4;">
    <h2>` + html.EscapeString(title) + `</h2>
    <p>` + html.EscapeString(intro) + `</p>
    <p><a href="` + escLink + `">` + html.EscapeString(buttonText) + `</a></p>
    <p style="color:#555; font-size:12px;">
      If the button doesn't work, open this link:<br/>
      <a href="` + escLink + `">` + escLink + `</a>
    </p>
  </body>
</html>`
}
