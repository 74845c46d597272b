// Package notify sends run reports and alerts to Telegram.
package notify

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Min interval between two messages to the same chat, to stay under the
// Telegram per-chat rate limit (~30/min).
const sendInterval = 2 * time.Second

// Notifier is the (title, body) alert collaborator. A nil *Notifier is a
// valid no-op, so callers never branch on whether Telegram is configured.
type Notifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64

	mu       sync.Mutex
	lastSend time.Time
	sleep    func(time.Duration)
}

// NewNotifier creates a Telegram notifier. Returns nil (no-op notifier)
// when token or chat is missing or the bot cannot be reached.
func NewNotifier(token string, chatID int64) *Notifier {
	if token == "" || chatID == 0 {
		slog.Info("Telegram notifications disabled (token or chat_id not configured)")
		return nil
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		slog.Error("Failed to create telegram bot", "error", err)
		return nil
	}
	bot.Debug = false

	if _, err := bot.GetMe(); err != nil {
		slog.Error("Failed to verify telegram bot", "error", err)
		return nil
	}

	return &Notifier{bot: bot, chatID: chatID, sleep: time.Sleep}
}

// Send delivers "<b>title</b>\n\nbody" to the configured chat, throttled to
// one message per sendInterval. Failures are logged, never propagated: an
// alert that cannot be sent must not take the pipeline down with it.
func (n *Notifier) Send(title, body string) bool {
	if n == nil {
		return false
	}

	n.mu.Lock()
	if wait := sendInterval - time.Since(n.lastSend); wait > 0 {
		n.sleep(wait)
	}
	n.lastSend = time.Now()
	n.mu.Unlock()

	msg := tgbotapi.NewMessage(n.chatID, fmt.Sprintf("<b>%s</b>\n\n%s", title, body))
	msg.ParseMode = tgbotapi.ModeHTML

	if _, err := n.bot.Send(msg); err != nil {
		slog.Warn("Telegram send failed", "title", title, "error", err)
		return false
	}
	return true
}

// SendRunReport formats and sends a per-run parser summary.
func (n *Notifier) SendRunReport(published int, perSource map[string]int, failures map[string]string) {
	if n == nil {
		return
	}

	body := fmt.Sprintf("Published: %d matches\n", published)
	for name, count := range perSource {
		body += fmt.Sprintf("• %s: %d\n", name, count)
	}
	for name, errMsg := range failures {
		body += fmt.Sprintf("❌ %s: %s\n", name, errMsg)
	}
	n.Send("Parser run report", body)
}
