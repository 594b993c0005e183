// Package notify posts club results to a Telegram chat.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"

	"github.com/ifitclub/clubstats/internal/club"
	"github.com/ifitclub/clubstats/internal/stats"
)

// ErrDisabled is returned when no chat is configured.
var ErrDisabled = errors.New("announcements disabled")

// Sender is the part of the Telegram bot the announcer uses.
type Sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// Announcer formats leaderboards and sends them to one chat.
type Announcer struct {
	sender Sender
	chatID int64
	log    zerolog.Logger
}

// NewAnnouncer returns an announcer. A nil sender or zero chat id yields a
// disabled announcer whose calls return ErrDisabled.
func NewAnnouncer(sender Sender, chatID int64, log zerolog.Logger) *Announcer {
	return &Announcer{
		sender: sender,
		chatID: chatID,
		log:    log.With().Str("component", "notify").Logger(),
	}
}

// Enabled reports whether messages will be sent.
func (a *Announcer) Enabled() bool {
	return a != nil && a.sender != nil && a.chatID != 0
}

// AnnouncePodium posts the podium of board.
func (a *Announcer) AnnouncePodium(ctx context.Context, board club.Leaderboard) error {
	if !a.Enabled() {
		return ErrDisabled
	}

	text := FormatPodium(board)
	_, err := a.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    a.chatID,
		Text:      text,
		ParseMode: models.ParseModeMarkdown,
	})
	if err != nil {
		return fmt.Errorf("sending podium: %w", err)
	}

	a.log.Info().
		Int64("chat_id", a.chatID).
		Str("period", string(board.Period)).
		Int("participants", board.TotalParticipants).
		Msg("podium announced")
	return nil
}

var medals = []string{"🥇", "🥈", "🥉"}

// FormatPodium renders the top three active athletes of board as MarkdownV2.
func FormatPodium(board club.Leaderboard) string {
	var b strings.Builder

	title := fmt.Sprintf("Club leaderboard (%s, %s)", periodLabel(board.Period), board.ActivityType)
	b.WriteString("*" + bot.EscapeMarkdown(title) + "*\n\n")

	var active []stats.Entry
	for _, e := range board.Entries {
		if e.ActivityCount > 0 {
			active = append(active, e)
		}
	}
	top, others := stats.Podium(active, len(medals))
	if len(top) == 0 {
		b.WriteString(bot.EscapeMarkdown("No activities yet. Get moving!"))
		return b.String()
	}

	for i, e := range top {
		line := fmt.Sprintf("%s %s: %.1f pts, %.2f km, %d activities",
			medals[i], e.DisplayName, e.Score, e.TotalDistanceKm, e.ActivityCount)
		b.WriteString(bot.EscapeMarkdown(line))
		b.WriteString("\n")
	}

	if len(others) > 0 {
		b.WriteString("\n")
		b.WriteString(bot.EscapeMarkdown(fmt.Sprintf("+%d more on the board", len(others))))
	}
	return b.String()
}

func periodLabel(p stats.Period) string {
	switch p {
	case stats.PeriodWeek:
		return "last 7 days"
	case stats.PeriodMonth:
		return "last 30 days"
	default:
		return "all time"
	}
}
