package services

import (
	"context"
	"fmt"
	"log"
	"net/smtp"
	"strings"

	"crosspost-backend/internal/platform"
)

// Notifier emails operators about conditions that need a human: an expired
// platform credential or a non-retryable publish failure. Without SMTP
// config it degrades to console logging so local runs stay quiet.
type Notifier struct {
	host    string
	port    string
	user    string
	pass    string
	from    string
	users   *userEmailSource
	devMode bool
}

type userEmailSource struct {
	list func(ctx context.Context) ([]string, error)
}

func NewNotifier(host, port, user, pass, from string, listEmails func(ctx context.Context) ([]string, error)) *Notifier {
	devMode := host == "" || user == ""
	if devMode {
		log.Println("⚠ Notifier running in DEV MODE (logging to console)")
	}
	return &Notifier{
		host:    host,
		port:    port,
		user:    user,
		pass:    pass,
		from:    from,
		users:   &userEmailSource{list: listEmails},
		devMode: devMode,
	}
}

func (n *Notifier) TokenExpired(ctx context.Context, p platform.Platform) {
	subject := fmt.Sprintf("Action needed: %s credential expired", p)
	body := fmt.Sprintf(
		"The %s access token expired or was revoked. Scheduled posts for this platform will keep failing until you re-authenticate it in the dashboard.",
		p,
	)
	n.send(ctx, subject, body)
}

func (n *Notifier) PublishFailed(ctx context.Context, p platform.Platform, kind platform.ErrorKind, detail string) {
	// Transient network errors retry on the next dispatch; no need to wake
	// anyone up for those.
	if kind.Retryable() {
		return
	}
	subject := fmt.Sprintf("Publish to %s failed (%s)", p, kind)
	body := fmt.Sprintf("Publishing to %s failed and will not be retried automatically.\n\nReason: %s", p, detail)
	n.send(ctx, subject, body)
}

func (n *Notifier) send(ctx context.Context, subject, body string) {
	recipients, err := n.users.list(ctx)
	if err != nil || len(recipients) == 0 {
		log.Printf("Notifier: no recipients (%v); %s", err, subject)
		return
	}

	if n.devMode {
		log.Printf("📧 [DEV] To: %s | %s\n%s", strings.Join(recipients, ", "), subject, body)
		return
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s",
		n.from, strings.Join(recipients, ", "), subject, body)

	auth := smtp.PlainAuth("", n.user, n.pass, n.host)
	if err := smtp.SendMail(n.host+":"+n.port, auth, n.from, recipients, []byte(msg)); err != nil {
		log.Printf("Notifier: failed to send %q: %v", subject, err)
	}
}
