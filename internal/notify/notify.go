// Package notify pushes batch summaries to the operator over Telegram.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"dripsend/internal/dispatch"
	"dripsend/pkg/logx"
)

type Config struct {
	Token  string
	ChatID int64
}

// Service is a send-only Telegram client. It never polls for updates.
type Service struct {
	bot    *tele.Bot
	chatID int64
	log    logx.Logger
}

// New returns (nil, nil) when no token is configured; callers treat a nil
// Service as notifications disabled.
func New(cfg Config, log logx.Logger) (*Service, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, nil
	}
	if cfg.ChatID == 0 {
		return nil, errors.New("notify: chat_id is required when a token is set")
	}
	b, err := tele.NewBot(tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		return nil, fmt.Errorf("notify: %w", err)
	}
	return &Service{bot: b, chatID: cfg.ChatID, log: log}, nil
}

// BatchFinished implements dispatch.Notifier.
func (s *Service) BatchFinished(ctx context.Context, r dispatch.Report) {
	if s == nil {
		return
	}
	text := formatReport(r)
	if _, err := s.bot.Send(tele.ChatID(s.chatID), text, tele.ModeMarkdown); err != nil {
		s.log.Warn("batch summary notification failed", logx.Err(err))
		return
	}
	s.log.Debug("batch summary notified", logx.Int64("chat_id", s.chatID))
}

func formatReport(r dispatch.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Batch finished*\n")
	fmt.Fprintf(&b, "Sent: %d\n", r.Totals.Sent)
	fmt.Fprintf(&b, "Failed: %d\n", r.Totals.Failed)
	fmt.Fprintf(&b, "Total: %d\n", r.Totals.Total)
	fmt.Fprintf(&b, "At: %s", r.Timestamp.Format(time.RFC3339))
	return b.String()
}
