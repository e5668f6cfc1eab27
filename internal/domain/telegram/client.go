package telegram

import "gopkg.in/telebot.v3"

// Client is the outbound notification capability: it can send text to a
// Telegram user and may fail transiently. The core records the outcome of a
// send and never retries on its own.
type Client interface {
	SendMessage(recipientChatID int64, text string, options *telebot.SendOptions) error
}
