package capability

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"shortcoder-go/internal/config"
)

// GmailProvider delivers SendMessage over the Gmail API for email
// destinations. Notifications and capability launches fall back to logging;
// they have no mail-world equivalent.
type GmailProvider struct {
	service   *gmail.Service
	userEmail string
	fallback  LogProvider
}

// NewGmailProvider creates a Gmail-backed provider from OAuth2 credentials.
func NewGmailProvider(cfg *config.GmailConfig) (*GmailProvider, error) {
	ctx := context.Background()

	oauth2Config := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Scopes:       []string{gmail.GmailSendScope},
		Endpoint:     google.Endpoint,
	}
	token := &oauth2.Token{RefreshToken: cfg.RefreshToken}
	tokenSource := oauth2Config.TokenSource(ctx, token)

	service, err := gmail.NewService(ctx, option.WithTokenSource(tokenSource))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}

	return &GmailProvider{
		service:   service,
		userEmail: cfg.UserEmail,
	}, nil
}

// SendMessage sends body to destination as a plain-text email.
func (p *GmailProvider) SendMessage(ctx context.Context, destination, body string) error {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("From: %s\r\n", p.userEmail))
	b.WriteString(fmt.Sprintf("To: %s\r\n", destination))
	b.WriteString("Subject: Forwarded message\r\n")
	b.WriteString(fmt.Sprintf("Date: %s\r\n", time.Now().Format(time.RFC1123Z)))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)

	message := &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString([]byte(b.String())),
	}
	if _, err := p.service.Users.Messages.Send(p.userEmail, message).Do(); err != nil {
		return fmt.Errorf("failed to send message to %s: %w", destination, err)
	}
	logrus.Infof("Sent message to %s via Gmail", destination)
	return nil
}

func (p *GmailProvider) PresentNotification(ctx context.Context, title, body string) error {
	return p.fallback.PresentNotification(ctx, title, body)
}

func (p *GmailProvider) LaunchCapability(ctx context.Context, kind string, params map[string]string) error {
	return p.fallback.LaunchCapability(ctx, kind, params)
}

// TestConnection verifies the Gmail API credentials.
func (p *GmailProvider) TestConnection(ctx context.Context) error {
	if _, err := p.service.Users.GetProfile(p.userEmail).Do(); err != nil {
		return fmt.Errorf("failed to test Gmail API connection: %w", err)
	}
	return nil
}
