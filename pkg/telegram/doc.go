// Package telegram uploads photos through the Telegram Bot API sendPhoto
// method. The bot token is kept out of every log line and error message.
package telegram
