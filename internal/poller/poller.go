// Package poller runs the recurring evaluation loop: load active alerts,
// fetch one quote per distinct instrument, compare, notify, and flip the
// trigger flag. The store's conditional update is the only gate against
// double notification; everything else in a cycle is best-effort.
package poller

import (
	"time"

	"deriv-alert-telegram-bot/internal/database"
	"deriv-alert-telegram-bot/internal/types"
	"deriv-alert-telegram-bot/lib/helpers"
	"deriv-alert-telegram-bot/lib/translation"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

// QuoteSource yields the current price for an instrument, or reports it
// unavailable for this cycle.
type QuoteSource interface {
	GetPrice(instrument string) (float64, bool)
}

// Notifier delivers a plain text message to a user.
type Notifier interface {
	Notify(userID int64, text string) error
}

var (
	CyclesRun = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "derivalerts",
		Subsystem: "poller",
		Name:      "cycles_run",
		Help:      "The total number of completed poll cycles",
	})
	AlertsTriggered = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "derivalerts",
		Subsystem: "poller",
		Name:      "alerts_triggered",
		Help:      "The total number of alerts flipped to triggered",
	})
	QuoteFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "derivalerts",
		Subsystem: "poller",
		Name:      "quote_failures",
		Help:      "The total number of failed quote fetches",
	})
	DeliveryFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "derivalerts",
		Subsystem: "poller",
		Name:      "delivery_failures",
		Help:      "The total number of failed alert notifications",
	})
)

func init() {
	prometheus.MustRegister(CyclesRun, AlertsTriggered, QuoteFailures, DeliveryFailures)
}

type Poller struct {
	Quotes   QuoteSource
	Notifier Notifier
	Interval time.Duration
}

func New(quotes QuoteSource, notifier Notifier, interval time.Duration) *Poller {
	return &Poller{
		Quotes:   quotes,
		Notifier: notifier,
		Interval: interval,
	}
}

// Start launches the loop in the background. A single goroutine owns its
// own sleep/wake cycle, so at most one cycle is ever in flight.
func (p *Poller) Start() {
	go func() {
		for {
			p.runCycle()
			time.Sleep(p.Interval)
		}
	}()
	log.Info("Alert poller started.")
}

func (p *Poller) runCycle() {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("Panic recovered in poll cycle: %v", r)
		}
	}()
	p.CheckAlerts()
	CyclesRun.Inc()
}

// CheckAlerts performs one evaluation pass over all active alerts.
func (p *Poller) CheckAlerts() {
	alerts, err := database.GetAllActiveAlerts()
	if err != nil {
		log.Errorf("Failed to fetch alerts from the database: %v", err)
		return
	}
	if len(alerts) == 0 {
		return
	}

	// One quote per distinct instrument, not one per alert. A failed
	// fetch is not retried within the cycle either.
	prices := make(map[string]float64)
	attempted := make(map[string]bool)
	for _, a := range alerts {
		if attempted[a.Instrument] {
			continue
		}
		attempted[a.Instrument] = true
		price, ok := p.Quotes.GetPrice(a.Instrument)
		if !ok {
			QuoteFailures.Inc()
			continue
		}
		prices[a.Instrument] = price
	}

	for _, a := range alerts {
		price, ok := prices[a.Instrument]
		if !ok {
			log.Debugf("No quote for %s this cycle, skipping alert %d", a.Instrument, a.ID)
			continue
		}
		if !matches(a, price) {
			continue
		}

		// Notification first, then the conditional flip. Delivery failure
		// still marks the alert: at-most-once, never a stuck retry loop.
		text := translation.Translate("Alert! %s is %s %s\nCurrent price: %s",
			a.Instrument, a.Condition, helpers.FormatPrice(a.Price), helpers.FormatPrice(price))
		if err := p.Notifier.Notify(a.UserID, text); err != nil {
			DeliveryFailures.Inc()
			log.Errorf("Failed to notify user %d for alert %d: %v", a.UserID, a.ID, err)
		}

		flipped, err := database.MarkTriggered(a.ID)
		if err != nil {
			log.Errorf("Failed to mark alert %d triggered: %v", a.ID, err)
			continue
		}
		if flipped {
			AlertsTriggered.Inc()
			log.Infof("Alert %d triggered for user %d (%s %s %f at %f)",
				a.ID, a.UserID, a.Instrument, a.Condition, a.Price, price)
		}
	}
}

// matches evaluates the threshold condition, boundary inclusive in both
// directions.
func matches(a types.Alert, price float64) bool {
	switch a.Condition {
	case types.ConditionAbove:
		return price >= a.Price
	case types.ConditionBelow:
		return price <= a.Price
	}
	return false
}
