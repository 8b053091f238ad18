// Package capture implements the conversational flows that create and
// delete alerts. Each user moves through a small state machine; partial
// input lives in a session draft until the flow commits or is cancelled.
package capture

import (
	"math"
	"strconv"
	"strings"
	"time"

	"deriv-alert-telegram-bot/internal/database"
	"deriv-alert-telegram-bot/internal/session"
	"deriv-alert-telegram-bot/internal/types"
	"deriv-alert-telegram-bot/lib/helpers"
	"deriv-alert-telegram-bot/lib/translation"

	humanize "github.com/dustin/go-humanize"
	log "github.com/sirupsen/logrus"
)

type Manager struct {
	sessions *session.Store
}

func NewManager(sessions *session.Store) *Manager {
	return &Manager{sessions: sessions}
}

// StartSetFlow begins alert creation, replacing any draft in progress.
func (m *Manager) StartSetFlow(userID int64) string {
	m.sessions.Put(userID, session.Draft{State: session.StateAwaitingInstrument})
	return translation.Translate("Which Deriv synthetic index do you want to track? (e.g. Volatility 100)")
}

// StartDeleteFlow lists the user's active alerts and asks for a selection.
func (m *Manager) StartDeleteFlow(userID int64) string {
	alerts, err := database.GetActiveAlerts(userID)
	if err != nil {
		log.Errorf("Failed to fetch alerts for user %d: %v", userID, err)
		return translation.Translate("Something went wrong. Please try again later.")
	}
	if len(alerts) == 0 {
		return translation.Translate("You have no alerts to delete.")
	}

	m.sessions.Put(userID, session.Draft{State: session.StateAwaitingSelection})

	var b strings.Builder
	b.WriteString(translation.Translate("Select the alert number to delete:"))
	b.WriteString("\n")
	writeAlertLines(&b, alerts)
	return b.String()
}

// ListAlerts renders the user's active alerts.
func (m *Manager) ListAlerts(userID int64) string {
	alerts, err := database.GetActiveAlerts(userID)
	if err != nil {
		log.Errorf("Failed to fetch alerts for user %d: %v", userID, err)
		return translation.Translate("Something went wrong. Please try again later.")
	}
	if len(alerts) == 0 {
		return translation.Translate("You have no active alerts.")
	}

	var b strings.Builder
	b.WriteString(translation.Translate("Your active alerts:"))
	b.WriteString("\n")
	writeAlertLines(&b, alerts)
	return b.String()
}

// Cancel discards the user's draft, whatever state it is in.
func (m *Manager) Cancel(userID int64) string {
	if _, ok := m.sessions.Get(userID); !ok {
		return translation.Translate("Nothing to cancel.")
	}
	m.sessions.Delete(userID)
	return translation.Translate("Alert setup cancelled.")
}

// HandleText feeds a plain text message into the user's draft. The second
// return value is false when no draft is active and the text should be
// ignored by the caller.
func (m *Manager) HandleText(userID int64, text string) (string, bool) {
	draft, ok := m.sessions.Get(userID)
	if !ok {
		return "", false
	}

	trimmed := strings.TrimSpace(text)

	switch draft.State {
	case session.StateAwaitingInstrument:
		if trimmed == "" {
			return translation.Translate("Please enter an instrument name."), true
		}
		// Stored verbatim; an unknown symbol simply never gets a quote.
		draft.Instrument = text
		draft.State = session.StateAwaitingCondition
		m.sessions.Put(userID, draft)
		return translation.Translate("Should the alert fire when the price goes 'above' or 'below'?"), true

	case session.StateAwaitingCondition:
		condition := strings.ToLower(trimmed)
		if !types.ValidCondition(condition) {
			return translation.Translate("Please answer 'above' or 'below'."), true
		}
		draft.Condition = condition
		draft.State = session.StateAwaitingPrice
		m.sessions.Put(userID, draft)
		return translation.Translate("Enter the price level for the alert:"), true

	case session.StateAwaitingPrice:
		price, err := strconv.ParseFloat(trimmed, 64)
		if err != nil || math.IsNaN(price) || math.IsInf(price, 0) {
			return translation.Translate("Please enter a valid number for the price."), true
		}
		if _, err := database.InsertAlert(userID, draft.Instrument, draft.Condition, price); err != nil {
			log.Errorf("Failed to save alert for user %d: %v", userID, err)
			m.sessions.Delete(userID)
			return translation.Translate("Something went wrong. Please try again later."), true
		}
		m.sessions.Delete(userID)
		return translation.Translate("Alert set for %s when price is %s %s",
			draft.Instrument, draft.Condition, helpers.FormatPrice(price)), true

	case session.StateAwaitingSelection:
		alertID, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil {
			return translation.Translate("Please enter a valid alert number."), true
		}
		deleted, err := database.DeleteAlert(userID, alertID)
		if err != nil {
			log.Errorf("Failed to delete alert %d for user %d: %v", alertID, userID, err)
			m.sessions.Delete(userID)
			return translation.Translate("Something went wrong. Please try again later."), true
		}
		if !deleted {
			return translation.Translate("Alert not found."), true
		}
		m.sessions.Delete(userID)
		return translation.Translate("Alert %d deleted.", alertID), true
	}

	// Unknown state, drop the draft rather than trap the user in it.
	m.sessions.Delete(userID)
	return "", false
}

func writeAlertLines(b *strings.Builder, alerts []types.Alert) {
	for _, a := range alerts {
		b.WriteString(translation.Translate("%d. %s %s %s%s",
			a.ID, a.Instrument, a.Condition, helpers.FormatPrice(a.Price), alertAge(a.CreatedAt)))
		b.WriteString("\n")
	}
}

// alertAge renders " (set 2 hours ago)", or nothing when the row predates
// the created_at column.
func alertAge(createdAt time.Time) string {
	if createdAt.IsZero() {
		return ""
	}
	return translation.Translate(" (set %s)", humanize.Time(createdAt))
}
