// Package extract turns a raw chat line into structured listing attributes.
//
// Extraction is deterministic keyword and pattern matching over a normalized
// copy of the text. Property type, location, price and area size are each
// decided by an ordered cascade where the first rule that matches wins;
// feature flags are evaluated exhaustively.
package extract

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Features are the amenity flags found in a message.
type Features struct {
	Elevator    bool `json:"elevator"`
	Garage      bool `json:"garage"`
	Garden      bool `json:"garden"`
	Pool        bool `json:"pool"`
	MainStreet  bool `json:"main_street"`
	Furnished   bool `json:"furnished"`
	NewBuilding bool `json:"new_building"`
}

// Names lists the set flags in feature-table order.
func (f Features) Names() []string {
	var names []string
	for _, g := range featureGroups {
		if f.has(g.name) {
			names = append(names, g.name)
		}
	}
	return names
}

func (f Features) has(name string) bool {
	switch name {
	case FeatureElevator:
		return f.Elevator
	case FeatureGarage:
		return f.Garage
	case FeatureGarden:
		return f.Garden
	case FeaturePool:
		return f.Pool
	case FeatureMainStreet:
		return f.MainStreet
	case FeatureFurnished:
		return f.Furnished
	case FeatureNewBuilding:
		return f.NewBuilding
	}
	return false
}

func (f *Features) set(name string) {
	switch name {
	case FeatureElevator:
		f.Elevator = true
	case FeatureGarage:
		f.Garage = true
	case FeatureGarden:
		f.Garden = true
	case FeaturePool:
		f.Pool = true
	case FeatureMainStreet:
		f.MainStreet = true
	case FeatureFurnished:
		f.Furnished = true
	case FeatureNewBuilding:
		f.NewBuilding = true
	}
}

// Attributes is what one message yields. Nil pointers mean "not found".
type Attributes struct {
	PropertyType *string  `json:"property_type"`
	AreaName     *string  `json:"area_name"`
	Price        *string  `json:"price"`
	AreaSize     *int     `json:"area_size"`
	Rooms        *int     `json:"rooms"`
	Features     Features `json:"features"`
	Rental       bool     `json:"rental"`
	Currency     string   `json:"currency"`
}

// Populated counts the core attributes that were found.
func (a *Attributes) Populated() int {
	n := 0
	if a.PropertyType != nil {
		n++
	}
	if a.AreaName != nil {
		n++
	}
	if a.Price != nil {
		n++
	}
	if a.AreaSize != nil {
		n++
	}
	if a.Rooms != nil {
		n++
	}
	return n
}

// Keywords is the type code followed by feature names.
func (a *Attributes) Keywords() []string {
	var kw []string
	if a.PropertyType != nil {
		kw = append(kw, *a.PropertyType)
	}
	return append(kw, a.Features.Names()...)
}

// Extractor is stateless and safe for concurrent use.
type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

var digitMapper = strings.NewReplacer(
	"٠", "0", "١", "1", "٢", "2", "٣", "3", "٤", "4",
	"٥", "5", "٦", "6", "٧", "7", "٨", "8", "٩", "9",
	"۰", "0", "۱", "1", "۲", "2", "۳", "3", "۴", "4",
	"۵", "5", "۶", "6", "۷", "7", "۸", "8", "۹", "9",
)

// Normalize lower-cases text with the root locale and maps Arabic-Indic
// digits to ASCII. Arabic letters are left byte-for-byte.
func Normalize(text string) string {
	return digitMapper.Replace(cases.Lower(language.Und).String(text))
}

// Extract runs every extractor over text. Output depends only on text and
// RulesVersion.
func (e *Extractor) Extract(text string) Attributes {
	norm := Normalize(text)

	attrs := Attributes{
		PropertyType: matchType(norm),
		AreaName:     matchLocation(norm),
		Price:        firstCapture(priceRules, norm),
		AreaSize:     firstInt(areaSizeRules, norm),
		Rooms:        captureInt(roomsRule.FindStringSubmatch(norm)),
		Rental:       containsAny(norm, rentalKeywords),
		Currency:     "EGP",
	}
	if containsAny(norm, usdKeywords) {
		attrs.Currency = "USD"
	}

	for _, g := range featureGroups {
		if containsAny(norm, g.keywords) {
			attrs.Features.set(g.name)
		}
	}

	return attrs
}

func matchType(norm string) *string {
	for _, rule := range typeRules {
		if containsAny(norm, rule.keywords) {
			code := rule.code
			return &code
		}
	}
	return nil
}

func matchLocation(norm string) *string {
	for _, rule := range locationRules {
		for _, m := range rule.regex.FindAllStringSubmatch(norm, -1) {
			if loc := trimLocation(m[1]); loc != "" {
				return &loc
			}
		}
	}
	return nil
}

// trimLocation cuts the token run at the first stop word or number.
func trimLocation(run string) string {
	var kept []string
	for _, tok := range strings.Fields(run) {
		if locationStopWords[tok] || isNumber(tok) {
			break
		}
		kept = append(kept, tok)
	}
	return strings.TrimSpace(strings.Join(kept, " "))
}

func isNumber(tok string) bool {
	for _, r := range tok {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return tok != ""
}

func firstCapture(rules []patternRule, norm string) *string {
	for _, rule := range rules {
		if m := rule.regex.FindStringSubmatch(norm); m != nil {
			captured := strings.TrimSpace(m[1])
			if captured != "" {
				return &captured
			}
		}
	}
	return nil
}

func firstInt(rules []patternRule, norm string) *int {
	for _, rule := range rules {
		if v := captureInt(rule.regex.FindStringSubmatch(norm)); v != nil {
			return v
		}
	}
	return nil
}

func captureInt(m []string) *int {
	if m == nil {
		return nil
	}
	n, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
	if err != nil {
		return nil
	}
	return &n
}

func containsAny(norm string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(norm, kw) {
			return true
		}
	}
	return false
}
