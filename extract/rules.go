package extract

import (
	"regexp"

	"wa_listings/models"
)

// RulesVersion identifies the rule tables below. Output for a given text is
// only reproducible against the same version; bump it on any reorder.
const RulesVersion = "2024.06-2"

// typeRule maps a property type to its keywords. Table order is priority.
type typeRule struct {
	code     string
	keywords []string
}

var typeRules = []typeRule{
	{models.TypeApartment, []string{"شقة", "شقه", "apartment", "flat", "duplex", "دوبلكس"}},
	{models.TypeVilla, []string{"فيلا", "فيلة", "villa", "تاون هاوس", "townhouse"}},
	{models.TypeLand, []string{"أرض", "ارض", "land", "plot"}},
	{models.TypeOffice, []string{"مكتب", "اداري", "إداري", "office"}},
	{models.TypeWarehouse, []string{"مخزن", "مستودع", "warehouse"}},
	{models.TypeShop, []string{"محل", "shop", "store"}},
	{models.TypeBuilding, []string{"عمارة", "عماره", "مبنى", "building"}},
}

// patternRule is one step of an ordered first-match-wins cascade.
type patternRule struct {
	name  string
	regex *regexp.Regexp
}

// token is a run of characters without whitespace or separators.
const token = `[^\s,،.:;!؟?()\-]+`

var locationRules = []patternRule{
	{"district", regexp.MustCompile(`(?:^|\s)(?:بمنطقة|بمنطقه|منطقة|منطقه|بحي|حي|district of|area of)\s+(` + token + `(?:\s+` + token + `)?)`)},
	{"near", regexp.MustCompile(`(?:^|\s)(?:بجوار|قرب|بالقرب من|جنب|near)\s+(` + token + `(?:\s+` + token + `)?)`)},
	{"in", regexp.MustCompile(`(?:^|\s)(?:في|فى|in|at)\s+(` + token + `(?:\s+` + token + `)?)`)},
	{"prefixed", regexp.MustCompile(`(?:^|\s)(?:بال|بـ)(` + token + `)`)},
}

// locationStopWords end a location token run, as does any purely numeric
// token.
var locationStopWords = map[string]bool{
	"السعر": true, "بسعر": true, "سعر": true, "مساحة": true, "مساحه": true, "المساحة": true,
	"للبيع": true, "للايجار": true, "للإيجار": true, "ايجار": true, "إيجار": true, "بيع": true,
	"دور": true, "الدور": true, "على": true, "علي": true, "تشطيب": true, "فيها": true, "فيه": true,
	"price": true, "for": true, "with": true, "sale": true, "rent": true, "area": true, "floor": true,
}

// Alternations are longest first so a shorter currency word never wins
// over its own suffixed form.
const (
	amount    = `[0-9][0-9,]*(?:\.[0-9]+)?`
	bigWords  = `(?:ملايين|مليون|آلاف|الاف|ألف|الف|thousand|million)`
	magnitude = `(?:ملايين|مليون|آلاف|الاف|ألف|الف|thousand|million|k|m)`
	currency  = `(?:جنيها|جنيه|جنية|ج\.م|دولار|egp|l\.e|le|usd|pounds|pound|dollars|dollar|\$)`
)

// Single letter magnitudes only count when no latin letter follows, so
// "5m" is five million and "150 meters" is not.
var priceRules = []patternRule{
	{"amount_currency", regexp.MustCompile(`(` + amount + `(?:\s*` + magnitude + `)?\s*` + currency + `)(?:[^a-z]|$)`)},
	{"labelled", regexp.MustCompile(`(?:السعر|بسعر|سعر|المطلوب|price)\s*:?\s*(` + amount + `(?:\s*` + magnitude + `)?)(?:[^a-z]|$)`)},
	{"amount_magnitude", regexp.MustCompile(`(` + amount + `\s*(?:` + bigWords + `|k))(?:\s|$)`)},
}

var areaSizeRules = []patternRule{
	{"square_meters", regexp.MustCompile(`([0-9][0-9,]*)\s*(?:متر مربع|م2|م²|sqm|sq\.?\s?m|m2|m²|square meters?)`)},
	{"labelled", regexp.MustCompile(`(?:مساحة|مساحه|المساحة|المساحه|area|size)\s*:?\s*([0-9][0-9,]*)`)},
	{"meters", regexp.MustCompile(`([0-9][0-9,]*)\s*(?:متر|مترا|meters?)`)},
}

var roomsRule = regexp.MustCompile(`([0-9]+)\s*(?:غرف|غرفة|غرفه|اوض|أوض|rooms?|bedrooms?)`)

// featureGroup is tested independently of the others.
type featureGroup struct {
	name     string
	keywords []string
}

// Feature names, also used as message keywords.
const (
	FeatureElevator    = "elevator"
	FeatureGarage      = "garage"
	FeatureGarden      = "garden"
	FeaturePool        = "pool"
	FeatureMainStreet  = "main_street"
	FeatureFurnished   = "furnished"
	FeatureNewBuilding = "new_building"
)

var featureGroups = []featureGroup{
	{FeatureElevator, []string{"مصعد", "اسانسير", "أسانسير", "أصانصير", "elevator", "lift"}},
	{FeatureGarage, []string{"جراج", "جراچ", "باركينج", "garage", "parking"}},
	{FeatureGarden, []string{"حديقة", "حديقه", "جنينة", "جنينه", "garden"}},
	{FeaturePool, []string{"حمام سباحة", "حمام سباحه", "بيسين", "pool"}},
	{FeatureMainStreet, []string{"شارع رئيسي", "ع الرئيسي", "على الرئيسي", "ناصية", "main street", "main road"}},
	{FeatureFurnished, []string{"مفروش", "مفروشة", "مفروشه", "furnished"}},
	{FeatureNewBuilding, []string{"مبنى جديد", "عمارة جديدة", "عماره جديده", "حديث الإنشاء", "حديثة الانشاء", "new building", "newly built"}},
}

var rentalKeywords = []string{"للإيجار", "للايجار", "إيجار", "ايجار", "for rent", "rental", "to rent"}

var usdKeywords = []string{"دولار", "usd", "$", "dollar"}
