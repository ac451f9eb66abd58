// Package notify delivers invitation e-mails.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/url"
	textTemplate "text/template"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/mmynk/splitledger/internal/ledger"
)

// Ensure mailers implement ledger.Mailer.
var (
	_ ledger.Mailer = (*SESMailer)(nil)
	_ ledger.Mailer = LogMailer{}
)

// sesAPI is the subset of *sesv2.Client the mailer uses.
type sesAPI interface {
	SendEmail(ctx context.Context, in *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESMailer sends invitations through Amazon SES.
type SESMailer struct {
	client     sesAPI
	fromEmail  string
	fromName   string
	appBaseURL string
}

// NewSESMailer loads the default AWS configuration for region and returns
// a mailer sending from fromEmail.
func NewSESMailer(ctx context.Context, region, fromEmail, fromName, appBaseURL string) (*SESMailer, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	slog.Info("Invite mailer enabled", "from", fromEmail, "region", region)
	return newSESMailer(sesv2.NewFromConfig(cfg), fromEmail, fromName, appBaseURL), nil
}

func newSESMailer(client sesAPI, fromEmail, fromName, appBaseURL string) *SESMailer {
	return &SESMailer{
		client:     client,
		fromEmail:  fromEmail,
		fromName:   fromName,
		appBaseURL: appBaseURL,
	}
}

type inviteView struct {
	GroupName    string
	InviterEmail string
	Link         string
	ExpiresAt    string
}

var inviteHTML = template.Must(template.New("invite").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
	<p>You have been invited to join <strong>{{.GroupName}}</strong>{{if .InviterEmail}} by {{.InviterEmail}}{{end}}.</p>
	<p><a href="{{.Link}}">Accept the invitation</a></p>
	<p style="font-size: 12px; color: #666;">This link expires on {{.ExpiresAt}}.</p>
</body>
</html>
`))

var inviteText = textTemplate.Must(textTemplate.New("invite").Parse(`You have been invited to join {{.GroupName}}{{if .InviterEmail}} by {{.InviterEmail}}{{end}}.

Accept the invitation: {{.Link}}

This link expires on {{.ExpiresAt}}.
`))

// SendInvite renders and sends the invitation for notice.
func (m *SESMailer) SendInvite(ctx context.Context, notice ledger.InviteNotice) error {
	view := inviteView{
		GroupName:    notice.GroupName,
		InviterEmail: notice.InviterEmail,
		Link:         m.acceptLink(notice.Token),
		ExpiresAt:    notice.ExpiresAt.UTC().Format(time.RFC1123),
	}

	var htmlBody, textBody bytes.Buffer
	if err := inviteHTML.Execute(&htmlBody, view); err != nil {
		return fmt.Errorf("failed to render invite: %w", err)
	}
	if err := inviteText.Execute(&textBody, view); err != nil {
		return fmt.Errorf("failed to render invite: %w", err)
	}

	subject := fmt.Sprintf("You're invited to %s", notice.GroupName)
	return m.send(ctx, notice.Email, subject, htmlBody.String(), textBody.String())
}

func (m *SESMailer) acceptLink(token string) string {
	return fmt.Sprintf("%s/invites/accept?token=%s", m.appBaseURL, url.QueryEscape(token))
}

func (m *SESMailer) send(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	fromAddress := m.fromEmail
	if m.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", m.fromName, m.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(htmlBody),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(textBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	result, err := m.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	slog.Info("Invite email sent", "to", toEmail, "message_id", aws.ToString(result.MessageId))
	return nil
}

// LogMailer logs invitations instead of sending them. It is used when SES
// is not configured.
type LogMailer struct{}

// SendInvite logs the invite.
func (m LogMailer) SendInvite(ctx context.Context, notice ledger.InviteNotice) error {
	slog.InfoContext(ctx, "Skipping invite email (mailer disabled)",
		"to", notice.Email,
		"group", notice.GroupName,
		"expires_at", notice.ExpiresAt,
	)
	return nil
}
