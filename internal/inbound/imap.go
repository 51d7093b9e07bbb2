package inbound

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message"
	"github.com/sirupsen/logrus"

	"shortcoder-go/internal/config"
	"shortcoder-go/internal/event"
)

// IMAPSource polls a mailbox and converts new mail into inbound message
// events: the sender address becomes the event sender, the subject and text
// body the event body.
type IMAPSource struct {
	client    *client.Client
	processor *Processor
	interval  time.Duration
	lastCheck time.Time
}

// NewIMAPSource connects and logs in to the configured IMAP server.
func NewIMAPSource(cfg *config.GmailConfig, processor *Processor, interval time.Duration) (*IMAPSource, error) {
	c, err := client.DialTLS(fmt.Sprintf("%s:%d", cfg.IMAPHost, cfg.IMAPPort), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to IMAP server: %w", err)
	}

	if err := c.Login(cfg.IMAPUser, cfg.IMAPPassword); err != nil {
		c.Logout()
		return nil, fmt.Errorf("failed to login to IMAP server: %w", err)
	}

	return &IMAPSource{
		client:    c,
		processor: processor,
		interval:  interval,
		lastCheck: time.Now().Add(-24 * time.Hour),
	}, nil
}

// Run polls until the context is cancelled. A failed poll is logged and
// retried on the next interval.
func (s *IMAPSource) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	logrus.Infof("IMAP inbound source started with interval %s", s.interval)
	for {
		select {
		case <-ctx.Done():
			logrus.Info("IMAP inbound source stopped")
			return
		case <-ticker.C:
			events, err := s.poll(ctx)
			if err != nil {
				logrus.Errorf("IMAP poll failed: %v", err)
				continue
			}
			for _, msg := range events {
				s.processor.HandleMessageAsync(ctx, msg)
			}
		}
	}
}

func (s *IMAPSource) poll(ctx context.Context) ([]event.Message, error) {
	if _, err := s.client.Select("INBOX", false); err != nil {
		return nil, fmt.Errorf("failed to select INBOX: %w", err)
	}

	criteria := imap.NewSearchCriteria()
	criteria.Since = s.lastCheck

	uids, err := s.client.Search(criteria)
	if err != nil {
		return nil, fmt.Errorf("failed to search messages: %w", err)
	}
	if len(uids) == 0 {
		s.lastCheck = time.Now()
		return nil, nil
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(uids...)

	messages := make(chan *imap.Message, len(uids))
	done := make(chan error, 1)
	go func() {
		done <- s.client.Fetch(seqset, []imap.FetchItem{imap.FetchEnvelope, imap.FetchBody, imap.FetchUid}, messages)
	}()

	var events []event.Message
	for msg := range messages {
		ev, err := s.parseMessage(msg)
		if err != nil {
			logrus.Warnf("Failed to parse IMAP message: %v", err)
			continue
		}
		events = append(events, ev)
	}

	if err := <-done; err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	s.lastCheck = time.Now()
	return events, nil
}

func (s *IMAPSource) parseMessage(msg *imap.Message) (event.Message, error) {
	ev := event.Message{
		Kind:      event.KindSMS,
		Timestamp: time.Now(),
	}

	if msg.Envelope != nil {
		if len(msg.Envelope.From) > 0 {
			ev.Sender = msg.Envelope.From[0].Address()
		}
		if !msg.Envelope.Date.IsZero() {
			ev.Timestamp = msg.Envelope.Date
		}
		ev.Body = msg.Envelope.Subject
	}

	body, err := s.textBody(msg)
	if err != nil {
		return ev, err
	}
	if body != "" {
		if ev.Body != "" {
			ev.Body = ev.Body + "\n" + body
		} else {
			ev.Body = body
		}
	}
	return ev, nil
}

func (s *IMAPSource) textBody(msg *imap.Message) (string, error) {
	if msg.Body == nil {
		return "", nil
	}

	section := &imap.BodySectionName{}
	r := msg.GetBody(section)
	if r == nil {
		return "", fmt.Errorf("failed to get message body")
	}

	entity, err := message.Read(r)
	if err != nil {
		return "", fmt.Errorf("failed to read message: %w", err)
	}

	if mr := entity.MultipartReader(); mr != nil {
		for {
			p, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				return "", fmt.Errorf("failed to read part: %w", err)
			}
			if !strings.Contains(p.Header.Get("Content-Type"), "text/plain") {
				continue
			}
			content, err := io.ReadAll(p.Body)
			if err != nil {
				return "", fmt.Errorf("failed to read part body: %w", err)
			}
			return strings.TrimSpace(string(content)), nil
		}
		return "", nil
	}

	content, err := io.ReadAll(entity.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read message body: %w", err)
	}
	return strings.TrimSpace(string(content)), nil
}

// Close logs out of the IMAP server.
func (s *IMAPSource) Close() error {
	return s.client.Logout()
}
