package poller

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"

	"deriv-alert-telegram-bot/internal/database"
	"deriv-alert-telegram-bot/internal/types"
)

type fakeQuotes struct {
	prices map[string]float64 // instruments absent here are unavailable
	calls  map[string]int
}

func (f *fakeQuotes) GetPrice(instrument string) (float64, bool) {
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[instrument]++
	price, ok := f.prices[instrument]
	return price, ok
}

func (f *fakeQuotes) totalCalls() int {
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

type fakeNotifier struct {
	fail bool
	sent []string // "userID:text"
}

func (f *fakeNotifier) Notify(userID int64, text string) error {
	if f.fail {
		return errors.New("blocked by user")
	}
	f.sent = append(f.sent, text)
	return nil
}

func newTestPoller(t *testing.T, quotes *fakeQuotes, notifier *fakeNotifier) *Poller {
	t.Helper()

	if err := database.InitDB(filepath.Join(t.TempDir(), "poller_test.db")); err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	t.Cleanup(func() {
		_ = database.CloseDB()
	})

	return New(quotes, notifier, time.Second)
}

func activeCount(t *testing.T) int {
	t.Helper()
	alerts, err := database.GetAllActiveAlerts()
	if err != nil {
		t.Fatalf("GetAllActiveAlerts: %v", err)
	}
	return len(alerts)
}

func TestCheckAlerts_ThresholdBoundaries(t *testing.T) {
	cases := []struct {
		name      string
		condition string
		threshold float64
		quote     float64
		triggers  bool
	}{
		{"above at boundary", types.ConditionAbove, 100, 100, true},
		{"above just over", types.ConditionAbove, 100, 100.01, true},
		{"above just under", types.ConditionAbove, 100, 99.99, false},
		{"below at boundary", types.ConditionBelow, 100, 100, true},
		{"below just under", types.ConditionBelow, 100, 99.99, true},
		{"below just over", types.ConditionBelow, 100, 100.01, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			quotes := &fakeQuotes{prices: map[string]float64{"Volatility 100": tc.quote}}
			notifier := &fakeNotifier{}
			p := newTestPoller(t, quotes, notifier)

			if _, err := database.InsertAlert(7, "Volatility 100", tc.condition, tc.threshold); err != nil {
				t.Fatalf("InsertAlert: %v", err)
			}

			p.CheckAlerts()

			if tc.triggers {
				if len(notifier.sent) != 1 {
					t.Fatalf("expected 1 notification, got %d", len(notifier.sent))
				}
				if activeCount(t) != 0 {
					t.Fatal("triggered alert still active")
				}
			} else {
				if len(notifier.sent) != 0 {
					t.Fatalf("expected no notification, got %d", len(notifier.sent))
				}
				if activeCount(t) != 1 {
					t.Fatal("untriggered alert was retired")
				}
			}
		})
	}
}

func TestCheckAlerts_OneQuotePerDistinctInstrument(t *testing.T) {
	// Far-off thresholds so nothing triggers and all alerts stay active.
	quotes := &fakeQuotes{prices: map[string]float64{
		"Volatility 100": 500,
		"Boom 1000":      500,
	}}
	notifier := &fakeNotifier{}
	p := newTestPoller(t, quotes, notifier)

	for i := 0; i < 3; i++ {
		database.InsertAlert(7, "Volatility 100", types.ConditionAbove, 10000)
	}
	for i := 0; i < 2; i++ {
		database.InsertAlert(8, "Boom 1000", types.ConditionAbove, 10000)
	}

	p.CheckAlerts()

	if got := quotes.totalCalls(); got != 2 {
		t.Fatalf("expected 2 quote calls for 5 alerts on 2 instruments, got %d", got)
	}
}

func TestCheckAlerts_NoQuoteCallsWhenIdle(t *testing.T) {
	quotes := &fakeQuotes{prices: map[string]float64{}}
	p := newTestPoller(t, quotes, &fakeNotifier{})

	p.CheckAlerts()

	if quotes.totalCalls() != 0 {
		t.Fatalf("expected no quote calls without active alerts, got %d", quotes.totalCalls())
	}
}

func TestCheckAlerts_QuoteFailureIsolated(t *testing.T) {
	// "Volatility 100" is unavailable; "Boom 1000" must still evaluate.
	quotes := &fakeQuotes{prices: map[string]float64{"Boom 1000": 300}}
	notifier := &fakeNotifier{}
	p := newTestPoller(t, quotes, notifier)

	vol, _ := database.InsertAlert(7, "Volatility 100", types.ConditionAbove, 100)
	database.InsertAlert(8, "Boom 1000", types.ConditionAbove, 250)

	p.CheckAlerts()

	if len(notifier.sent) != 1 || !strings.Contains(notifier.sent[0], "Boom 1000") {
		t.Fatalf("expected one Boom 1000 notification, got %v", notifier.sent)
	}

	alerts, _ := database.GetAllActiveAlerts()
	if len(alerts) != 1 || alerts[0].ID != vol {
		t.Fatalf("expected only the unquoted alert to stay active, got %+v", alerts)
	}

	// Unavailable instruments are not hammered within the cycle.
	if quotes.calls["Volatility 100"] != 1 {
		t.Fatalf("expected 1 attempt for the failing instrument, got %d", quotes.calls["Volatility 100"])
	}
}

func TestCheckAlerts_TriggeredNotReevaluated(t *testing.T) {
	quotes := &fakeQuotes{prices: map[string]float64{"Volatility 100": 200}}
	notifier := &fakeNotifier{}
	p := newTestPoller(t, quotes, notifier)

	database.InsertAlert(7, "Volatility 100", types.ConditionAbove, 100)

	p.CheckAlerts()
	p.CheckAlerts()

	if len(notifier.sent) != 1 {
		t.Fatalf("expected exactly one notification across cycles, got %d", len(notifier.sent))
	}
	// An empty active set means the second cycle made no quote calls.
	if quotes.totalCalls() != 1 {
		t.Fatalf("expected 1 quote call total, got %d", quotes.totalCalls())
	}
}

func TestCheckAlerts_DeliveryFailureStillMarks(t *testing.T) {
	quotes := &fakeQuotes{prices: map[string]float64{"Volatility 100": 200}}
	notifier := &fakeNotifier{fail: true}
	p := newTestPoller(t, quotes, notifier)

	database.InsertAlert(7, "Volatility 100", types.ConditionAbove, 100)

	p.CheckAlerts()

	if activeCount(t) != 0 {
		t.Fatal("undeliverable alert was left active")
	}

	// And it is never retried.
	notifier.fail = false
	p.CheckAlerts()
	if len(notifier.sent) != 0 {
		t.Fatalf("marked alert was re-notified: %v", notifier.sent)
	}
}

func TestCheckAlerts_NotificationContent(t *testing.T) {
	quotes := &fakeQuotes{prices: map[string]float64{"Volatility 100": 1500}}
	notifier := &fakeNotifier{}
	p := newTestPoller(t, quotes, notifier)

	database.InsertAlert(7, "Volatility 100", types.ConditionAbove, 1234.5)

	p.CheckAlerts()

	if len(notifier.sent) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notifier.sent))
	}
	for _, want := range []string{"Volatility 100", "above", "1,234.50", "1,500.00"} {
		if !strings.Contains(notifier.sent[0], want) {
			t.Fatalf("notification %q missing %q", notifier.sent[0], want)
		}
	}
}
