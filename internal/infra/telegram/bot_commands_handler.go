// internal/infra/telegram/bot_commands_handler.go
package telegram

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

func RegisterBotCommands(
	b *telebot.Bot,
	operatorID int64,
	baseLogger *logrus.Entry, // For contextual logging
) {
	h := &startHelpHandlers{operatorID: operatorID, logger: baseLogger.WithField("handler_group", "start_help")}
	b.Handle("/start", h.handleStart)
	b.Handle("/help", h.handleHelp)
}

type startHelpHandlers struct {
	operatorID int64
	logger     *logrus.Entry
}

func (h *startHelpHandlers) handleStart(c telebot.Context) error {
	senderID := c.Sender().ID
	logCtx := h.logger.WithField("command", "/start").WithField("sender_id", senderID)
	logCtx.Info("Processing /start command")

	if senderID == h.operatorID {
		logCtx.Info("User identified as operator")
		return c.Send(fmt.Sprintf("Hallo %s! Ich melde Probleme beim Erinnerungsversand. Mit /help sehen Sie alle Befehle.", c.Sender().FirstName))
	}

	logCtx.Info("User is unknown")
	return c.Send("Hallo! Dieser Bot ist nur für den Betreiber des Bewertungsdienstes bestimmt.")
}

func (h *startHelpHandlers) handleHelp(c telebot.Context) error {
	senderID := c.Sender().ID
	logCtx := h.logger.WithField("command", "/help").WithField("sender_id", senderID)
	logCtx.Info("Processing /help command")

	if senderID != h.operatorID {
		logCtx.Info("User is unknown, sending restricted help.")
		return c.Send("Für Sie sind keine Befehle verfügbar.")
	}

	var helpText strings.Builder
	helpText.WriteString("Verfügbare Befehle:\n\n")
	helpText.WriteString("`/sweep`\n - Fällige Erinnerungen sofort versenden.\n\n")
	helpText.WriteString("`/deactivate <E-Mail>`\n - Abonnent deaktivieren (keine weiteren Erinnerungen).\n\n")
	helpText.WriteString("`/help`\n - Diese Hilfe anzeigen.")
	return c.Send(helpText.String(), &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
}
