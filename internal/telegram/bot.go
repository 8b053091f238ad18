package telegram

import (
	"github.com/davecgh/go-spew/spew"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"deriv-alert-telegram-bot/internal/capture"
	"deriv-alert-telegram-bot/lib/translation"
)

// NewBot creates new telegram bot
func NewBot(c BotConfig, capture *capture.Manager) (*Bot, error) {
	bot, err := tgbotapi.NewBotAPI(c.Token)
	if err != nil {
		return nil, errors.Wrap(err, "could not create telegram bot")
	}

	bot.Debug = c.Debug

	return &Bot{
		Bot:     bot,
		Config:  c,
		Capture: capture,
	}, nil
}

// GetUpdatesChannel gets new updates
func (b *Bot) GetUpdatesChannel() (tgbotapi.UpdatesChannel, error) {
	updatesConfig := tgbotapi.NewUpdate(0)
	if b.Config.UpdatesTimeout > 0 {
		updatesConfig.Timeout = b.Config.UpdatesTimeout
	}
	return b.Bot.GetUpdatesChan(updatesConfig), nil
}

// SendMessage sends a plain text telegram message
func (b *Bot) SendMessage(m Message) error {
	msg := tgbotapi.NewMessage(m.ChatID, m.Text)
	msg.ReplyToMessageID = m.MessageID
	msg.DisableWebPagePreview = true
	_, err := b.Bot.Send(msg)
	return errors.Wrapf(err, "could not send message: %v", m)
}

// Notify delivers an alert notification directly to a user's chat. The
// poller treats a returned error as a delivery failure, nothing more.
func (b *Bot) Notify(userID int64, text string) error {
	return b.SendMessage(Message{ChatID: userID, Text: text})
}

// HandleUpdate processes a Telegram update and returns the reply text;
// an empty reply means nothing should be sent.
func (b *Bot) HandleUpdate(u tgbotapi.Update) string {
	msg := u.Message
	userID := msg.From.ID

	log.Debugf("received message: %s", spew.Sdump(msg.Text, msg.Command()))

	if msg.IsCommand() {
		switch msg.Command() {
		case "setalert":
			return b.Capture.StartSetFlow(userID)
		case "myalerts":
			return b.Capture.ListAlerts(userID)
		case "deletealert":
			return b.Capture.StartDeleteFlow(userID)
		case "cancel":
			return b.Capture.Cancel(userID)
		default:
			return helpText()
		}
	}

	if reply, ok := b.Capture.HandleText(userID, msg.Text); ok {
		return reply
	}

	// Free text with no draft in progress is ignored.
	return ""
}

func helpText() string {
	return translation.Translate("Commands:\n/setalert - set a price alert\n/myalerts - list your active alerts\n/deletealert - delete an alert\n/cancel - cancel the current setup")
}
