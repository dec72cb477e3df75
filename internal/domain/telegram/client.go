package telegram

import "gopkg.in/telebot.v3"

// Client sends messages to the operator chat.
type Client interface {
	SendMessage(chatID int64, text string, options *telebot.SendOptions) error
}
