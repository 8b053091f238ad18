package quote

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGetPrice_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/ticks" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("symbol"); got != "Volatility 100" {
			t.Errorf("unexpected symbol: %q", got)
		}
		fmt.Fprint(w, `{"tick":{"quote":1234.56}}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	price, ok := c.GetPrice("Volatility 100")
	if !ok {
		t.Fatal("expected quote to be available")
	}
	if price != 1234.56 {
		t.Fatalf("expected 1234.56, got %v", price)
	}
}

func TestGetPrice_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if _, ok := c.GetPrice("Volatility 100"); ok {
		t.Fatal("expected unavailable on non-200 status")
	}
}

func TestGetPrice_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"tick":`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if _, ok := c.GetPrice("Volatility 100"); ok {
		t.Fatal("expected unavailable on malformed body")
	}
}

func TestGetPrice_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewClient(srv.URL)
	if _, ok := c.GetPrice("Volatility 100"); ok {
		t.Fatal("expected unavailable when the server is down")
	}
}
