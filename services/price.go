package services

import (
	"regexp"
	"strconv"
	"strings"

	"wa_listings/extract"
	"wa_listings/models"
)

var (
	priceNumber = regexp.MustCompile(`[0-9][0-9,]*(?:\.[0-9]+)?`)

	thousandWords = []string{"ألف", "الف", "آلاف", "الاف", "thousand"}
	millionWords  = []string{"مليون", "ملايين", "million"}
	dollarWords   = []string{"دولار", "usd", "$", "dollar"}

	kSuffix = regexp.MustCompile(`[0-9]\s*k\b`)
	mSuffix = regexp.MustCompile(`[0-9]\s*m\b`)
)

// ParsePrice reads a numeric amount from a captured price phrase. The first
// number is scaled by a thousand or million word when one is present.
// Currency is USD when a dollar word or sign appears and EGP otherwise.
func ParsePrice(text string) (amount float64, currency string, ok bool) {
	norm := extract.Normalize(text)

	currency = models.CurrencyEGP
	for _, w := range dollarWords {
		if strings.Contains(norm, w) {
			currency = models.CurrencyUSD
			break
		}
	}

	raw := priceNumber.FindString(norm)
	if raw == "" {
		return 0, currency, false
	}
	amount, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	if err != nil {
		return 0, currency, false
	}

	switch {
	case containsWord(norm, millionWords) || mSuffix.MatchString(norm):
		amount *= 1e6
	case containsWord(norm, thousandWords) || kSuffix.MatchString(norm):
		amount *= 1e3
	}
	return amount, currency, true
}

func containsWord(norm string, words []string) bool {
	for _, w := range words {
		if strings.Contains(norm, w) {
			return true
		}
	}
	return false
}
