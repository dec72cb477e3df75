// internal/infra/telegram/client.go
package telegram

import (
	"fmt"

	"gopkg.in/telebot.v3"
)

// TelebotAdapter delivers sweep summaries and alerts to the operator over
// gopkg.in/telebot.v3. Reminder recipients are never messaged here.
type TelebotAdapter struct {
	bot *telebot.Bot
}

func NewTelebotAdapter(b *telebot.Bot) *TelebotAdapter {
	return &TelebotAdapter{bot: b}
}

// SendMessage posts text to the operator's private chat. Nil options send plain text.
func (tba *TelebotAdapter) SendMessage(recipientChatID int64, text string, options *telebot.SendOptions) error {
	if options == nil {
		options = &telebot.SendOptions{}
	}

	if _, err := tba.bot.Send(&telebot.User{ID: recipientChatID}, text, options); err != nil {
		return fmt.Errorf("send operator message to chat %d: %w", recipientChatID, err)
	}
	return nil
}
