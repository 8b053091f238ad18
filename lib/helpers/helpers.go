package helpers

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// FormatPrice renders a price with US-style thousand separators and a
// precision appropriate to its magnitude.
func FormatPrice(price float64) string {
	decimals := 6

	if price >= 1000 {
		decimals = 2
	} else if price > 1.2 {
		decimals = 2
	} else if price < 0.00001 && price > -0.00001 {
		decimals = 8
	}

	p := message.NewPrinter(language.English)
	return p.Sprintf("%.*f", decimals, price)
}
