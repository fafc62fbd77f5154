package parse

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

const NotSpecified = "Not specified"

// Salary is the structured form of a compensation string.
type Salary struct {
	Min         *int
	Max         *int
	Currency    string
	DisplayText string
}

var currencySymbols = map[string]string{
	"$": "USD",
	"£": "GBP",
	"€": "EUR",
	"₹": "INR",
}

var (
	// $120K - $175K, USD 90K-120K, €50k – 70k EUR
	salarySuffixed = regexp.MustCompile(
		`(?:\b([A-Z]{3})\s*)?([$£€₹])?\s*(\d+(?:\.\d+)?)\s*([KkMm])\s*[-–—]\s*([$£€₹])?\s*(\d+(?:\.\d+)?)\s*([KkMm])\b(?:\s*([A-Z]{3})\b)?`)
	// USD 265,000 - 340,000 / year, $90,000 – $120,000
	salaryGrouped = regexp.MustCompile(
		`(?:\b([A-Z]{3})\s*)?([$£€₹])?\s*(\d{1,3}(?:,\d{3})+|\d{4,})\s*[-–—]\s*([$£€₹])?\s*(\d{1,3}(?:,\d{3})+|\d{4,})(?:\s*(USD|GBP|EUR|INR)\b)?(?:\s*/\s*(?:year|yr|annum))?`)
)

// ParseSalary extracts a salary range. A range needs a currency marker and two
// magnitudes; anything else yields an empty Salary with DisplayText "Not specified".
func ParseSalary(text string) Salary {
	text = Normalize(text)
	if text == "" {
		return Salary{DisplayText: NotSpecified}
	}

	if m := salarySuffixed.FindStringSubmatch(text); m != nil {
		currency := resolveCurrency(m[1], m[8], m[2], m[5])
		if currency != "" {
			min, okMin := scaled(m[3], m[4])
			max, okMax := scaled(m[6], m[7])
			if okMin && okMax {
				return newSalary(min, max, currency, m[0])
			}
		}
	}

	if m := salaryGrouped.FindStringSubmatch(text); m != nil {
		currency := resolveCurrency(m[1], m[6], m[2], m[4])
		if currency != "" {
			min, okMin := grouped(m[3])
			max, okMax := grouped(m[5])
			if okMin && okMax {
				return newSalary(min, max, currency, m[0])
			}
		}
	}

	return Salary{DisplayText: NotSpecified}
}

func newSalary(min, max int, currency, matched string) Salary {
	return Salary{
		Min:         &min,
		Max:         &max,
		Currency:    currency,
		DisplayText: strings.TrimSpace(matched),
	}
}

// resolveCurrency prefers an explicit ISO code over a symbol.
func resolveCurrency(prefixCode, suffixCode string, symbols ...string) string {
	for _, code := range []string{prefixCode, suffixCode} {
		if isCurrencyCode(code) {
			return code
		}
	}
	for _, sym := range symbols {
		if c, ok := currencySymbols[sym]; ok {
			return c
		}
	}
	return ""
}

func isCurrencyCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	switch code {
	case "USD", "GBP", "EUR", "INR", "CAD", "AUD", "SGD", "CHF", "JPY", "SEK", "NOK", "DKK", "PLN", "BRL", "MXN", "ILS", "NZD", "HKD", "AED", "ZAR":
		return true
	}
	return false
}

func scaled(num, suffix string) (int, bool) {
	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, false
	}
	switch strings.ToUpper(suffix) {
	case "K":
		v *= 1_000
	case "M":
		v *= 1_000_000
	}
	return int(math.Round(v)), true
}

func grouped(num string) (int, bool) {
	v, err := strconv.Atoi(strings.ReplaceAll(num, ",", ""))
	if err != nil {
		return 0, false
	}
	return v, true
}

var equityMention = regexp.MustCompile(`(?i)\bequity\b`)

// ParseEquity reports true when text mentions equity, nil when it is silent.
func ParseEquity(text string) *bool {
	if !equityMention.MatchString(text) {
		return nil
	}
	yes := true
	return &yes
}
