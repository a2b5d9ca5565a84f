// Package notifier renders account emails and hands them to a Sender.
package notifier

import (
	"bytes"
	"context"
	"fmt"
	htmltpl "html/template"
	"net/url"
	"strings"
	texttpl "text/template"

	"github.com/dtroode/passkeeper-server/internal/model"
)

const (
	verifySubject = "Verify your email"
	changeSubject = "Confirm your new email"
)

var (
	verifyText = texttpl.Must(texttpl.New("verify_txt").Parse(`Hello {{.Name}},

confirm your email address by opening the link below:

{{.Link}}
`))
	verifyHTML = htmltpl.Must(htmltpl.New("verify_html").Parse(`<p>Hello {{.Name}},</p>
<p>confirm your email address by opening the link below:</p>
<p><a href="{{.Link}}">Verify email</a></p>
`))
	changeText = texttpl.Must(texttpl.New("change_txt").Parse(`Hello {{.Name}},

a change of your account email to {{.NewEmail}} was requested.
Confirm it by opening the link below:

{{.Link}}
`))
	changeHTML = htmltpl.Must(htmltpl.New("change_html").Parse(`<p>Hello {{.Name}},</p>
<p>a change of your account email to <b>{{.NewEmail}}</b> was requested.</p>
<p><a href="{{.Link}}">Confirm new email</a></p>
`))
)

type vars struct {
	Name     string
	NewEmail string
	Link     string
}

// Email implements model.Notifier on top of a Sender.
type Email struct {
	sender      Sender
	linkBaseURL string
	// notifyNewAddress sends change confirmations to the requested address
	// instead of the current one.
	notifyNewAddress bool
}

var _ model.Notifier = (*Email)(nil)

func NewEmail(sender Sender, linkBaseURL string, notifyNewAddress bool) *Email {
	return &Email{
		sender:           sender,
		linkBaseURL:      strings.TrimRight(linkBaseURL, "/"),
		notifyNewAddress: notifyNewAddress,
	}
}

func (e *Email) SendVerificationEmail(ctx context.Context, user model.User, token string) error {
	link := e.link(user, "verify", url.Values{"token": {token}})

	msg, err := render(user.Email, verifySubject, verifyText, verifyHTML, vars{Name: user.Name, Link: link})
	if err != nil {
		return err
	}

	return e.sender.Send(ctx, msg)
}

func (e *Email) SendEmailChangeEmail(ctx context.Context, user model.User, token, newEmail string) error {
	link := e.link(user, "change", url.Values{"token": {token}, "email": {newEmail}})

	to := user.Email
	if e.notifyNewAddress {
		to = newEmail
	}

	msg, err := render(to, changeSubject, changeText, changeHTML, vars{Name: user.Name, NewEmail: newEmail, Link: link})
	if err != nil {
		return err
	}

	return e.sender.Send(ctx, msg)
}

func (e *Email) link(user model.User, action string, query url.Values) string {
	return fmt.Sprintf("%s/api/users/%s/email/%s?%s", e.linkBaseURL, user.ID, action, query.Encode())
}

func render(to, subject string, text *texttpl.Template, html *htmltpl.Template, v vars) (Message, error) {
	var textBody, htmlBody bytes.Buffer
	if err := text.Execute(&textBody, v); err != nil {
		return Message{}, fmt.Errorf("failed to render %s: %w", text.Name(), err)
	}
	if err := html.Execute(&htmlBody, v); err != nil {
		return Message{}, fmt.Errorf("failed to render %s: %w", html.Name(), err)
	}

	return Message{
		To:      to,
		Subject: subject,
		Text:    textBody.String(),
		HTML:    htmlBody.String(),
	}, nil
}
