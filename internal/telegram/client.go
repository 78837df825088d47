// Package telegram provides a client for sending the relegation report via
// the Telegram Bot API.
package telegram

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/lmoroni/dropzone/internal/league"
	"github.com/lmoroni/dropzone/internal/report"
	"github.com/lmoroni/dropzone/internal/sim"
)

// maxReportRows caps how many teams a notification lists.
const maxReportRows = 10

// Client handles Telegram notifications.
type Client struct {
	bot            *tgbotapi.BotAPI
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
}

// NewClient creates a new Telegram client.
func NewClient(botToken, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}

	return &Client{
		bot:            bot,
		chatID:         chatIDInt,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}, nil
}

// sendMarkdownV2 sends a MarkdownV2 message with linear-backoff retry.
func (c *Client) sendMarkdownV2(text string) error {
	msg := tgbotapi.NewMessage(c.chatID, text)
	msg.ParseMode = "MarkdownV2"

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		if _, err := c.bot.Send(msg); err == nil {
			return nil
		} else {
			lastErr = err
		}
		time.Sleep(c.retryDelayBase * time.Duration(i+1))
	}
	return fmt.Errorf("failed after %d retries: %w", c.maxRetries, lastErr)
}

// SendError sends a simulation failure notification.
func (c *Client) SendError(runErr error) error {
	text := fmt.Sprintf("⚠️ *Simulation failed*\n`%s`", escapeMarkdownV2(runErr.Error()))
	return c.sendMarkdownV2(text)
}

// SendReport sends the relegation risk summary for one completed batch.
func (c *Client) SendReport(snap *league.Snapshot, rows []report.Row, agg *sim.Aggregate) error {
	return c.sendMarkdownV2(formatReport(snap, rows, agg))
}

// formatReport formats the risk table into a Telegram MarkdownV2 message.
func formatReport(snap *league.Snapshot, rows []report.Row, agg *sim.Aggregate) string {
	var b strings.Builder

	header := fmt.Sprintf("%s %s, matchday %d", snap.League, snap.Season, snap.Matchday)
	b.WriteString("📉 *Relegation risk update*\n")
	b.WriteString(escapeMarkdownV2(header) + "\n\n")

	shown := rows
	if len(shown) > maxReportRows {
		shown = shown[:maxReportRows]
	}
	for i, r := range shown {
		prob := r.FormProb
		if prob == 0 && r.BaselineProb > 0 {
			prob = r.BaselineProb
		}
		line := fmt.Sprintf("%d. %s: %.1f%% (%s)", i+1, r.Team, prob, r.Status)
		b.WriteString(escapeMarkdownV2(line) + "\n")
	}

	footer := fmt.Sprintf("\nSurvival threshold: %.1f pts\n%d trials", agg.AvgSurvivalPoints, agg.Completed)
	if agg.Partial {
		footer += fmt.Sprintf(" (partial, %d requested)", agg.Trials)
	}
	b.WriteString(escapeMarkdownV2(footer))

	return b.String()
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2.
func escapeMarkdownV2(text string) string {
	var b strings.Builder
	b.Grow(len(text) + len(text)/4) // pre-allocate with room for escapes
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!':
			b.WriteByte('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}
