// Package quote fetches current prices for Deriv synthetic indices from
// the public ticks endpoint. It is stateless; the poller decides when and
// how often to ask.
package quote

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	log "github.com/sirupsen/logrus"
)

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

// GetPrice returns the latest quote for an instrument symbol. Any
// transport, status or parse failure is logged and reported as
// unavailable; the caller skips the instrument for this cycle.
func (c *Client) GetPrice(instrument string) (float64, bool) {
	reqURL := fmt.Sprintf("%s/api/ticks?symbol=%s", c.BaseURL, url.QueryEscape(instrument))

	resp, err := c.HTTP.Get(reqURL)
	if err != nil {
		log.Warnf("Failed to fetch price for %s: %v", instrument, err)
		return 0, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Warnf("Unexpected status fetching price for %s: %s", instrument, resp.Status)
		return 0, false
	}

	var body struct {
		Tick struct {
			Quote float64 `json:"quote"`
		} `json:"tick"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		log.Warnf("Failed to parse price response for %s: %v", instrument, err)
		return 0, false
	}

	return body.Tick.Quote, true
}
