package extract

import (
	"reflect"
	"strings"
	"testing"

	"wa_listings/models"
)

func TestExtract_ApartmentListing(t *testing.T) {
	attrs := New().Extract("شقة للبيع في المعادي السعر 500 ألف جنيه, مساحة 120 متر")

	if attrs.PropertyType == nil || *attrs.PropertyType != models.TypeApartment {
		t.Fatalf("expected apartment, got %v", attrs.PropertyType)
	}
	if attrs.AreaName == nil || *attrs.AreaName != "المعادي" {
		t.Fatalf("expected location المعادي, got %v", attrs.AreaName)
	}
	if attrs.Price == nil || *attrs.Price != "500 ألف جنيه" {
		t.Fatalf("expected price 500 ألف جنيه, got %v", attrs.Price)
	}
	if attrs.AreaSize == nil || *attrs.AreaSize != 120 {
		t.Fatalf("expected area size 120, got %v", attrs.AreaSize)
	}
	if attrs.Rooms != nil {
		t.Fatalf("expected no rooms, got %d", *attrs.Rooms)
	}
	if attrs.Rental {
		t.Fatalf("sale listing flagged as rental")
	}
	if attrs.Currency != models.CurrencyEGP {
		t.Fatalf("expected EGP, got %s", attrs.Currency)
	}
	if attrs.Populated() != 4 {
		t.Fatalf("expected 4 populated attributes, got %d", attrs.Populated())
	}
}

func TestExtract_TypeTableOrder(t *testing.T) {
	attrs := New().Extract("شقة داخل فيلا للبيع")
	if attrs.PropertyType == nil || *attrs.PropertyType != models.TypeApartment {
		t.Fatalf("expected apartment to win over villa, got %v", attrs.PropertyType)
	}
}

func TestExtract_FeaturesOnly(t *testing.T) {
	attrs := New().Extract("يوجد مصعد وجراج")

	if attrs.Populated() != 0 {
		t.Fatalf("expected no core attributes, got %d", attrs.Populated())
	}
	if !attrs.Features.Elevator || !attrs.Features.Garage {
		t.Fatalf("expected elevator and garage, got %+v", attrs.Features)
	}
	if attrs.Features.Pool || attrs.Features.Garden {
		t.Fatalf("unexpected features %+v", attrs.Features)
	}
}

func TestExtract_ArabicDigits(t *testing.T) {
	attrs := New().Extract("شقة مساحة ١٥٠ متر ٣ غرف")

	if attrs.AreaSize == nil || *attrs.AreaSize != 150 {
		t.Fatalf("expected area size 150, got %v", attrs.AreaSize)
	}
	if attrs.Rooms == nil || *attrs.Rooms != 3 {
		t.Fatalf("expected 3 rooms, got %v", attrs.Rooms)
	}
	if attrs.Price != nil {
		t.Fatalf("expected no price, got %s", *attrs.Price)
	}
}

func TestExtract_RentalInDollars(t *testing.T) {
	attrs := New().Extract("Apartment for rent in Zamalek price 1,500 $ monthly")

	if attrs.AreaName == nil || *attrs.AreaName != "zamalek" {
		t.Fatalf("expected location zamalek, got %v", attrs.AreaName)
	}
	if attrs.Price == nil || *attrs.Price != "1,500 $" {
		t.Fatalf("expected price 1,500 $, got %v", attrs.Price)
	}
	if !attrs.Rental {
		t.Fatalf("expected rental listing")
	}
	if attrs.Currency != models.CurrencyUSD {
		t.Fatalf("expected USD, got %s", attrs.Currency)
	}
}

func TestExtract_SquareMetersAndMagnitude(t *testing.T) {
	land := New().Extract("ارض 300 م2")
	if land.PropertyType == nil || *land.PropertyType != models.TypeLand {
		t.Fatalf("expected land, got %v", land.PropertyType)
	}
	if land.AreaSize == nil || *land.AreaSize != 300 {
		t.Fatalf("expected area size 300, got %v", land.AreaSize)
	}

	villa := New().Extract("فيلا بسعر 2 مليون")
	if villa.Price == nil || *villa.Price != "2 مليون" {
		t.Fatalf("expected price 2 مليون, got %v", villa.Price)
	}
}

func TestExtract_PriceWordForms(t *testing.T) {
	shop := New().Extract("محل للبيع 250000 جنيها بالمعادي")
	if shop.Price == nil || *shop.Price != "250000 جنيها" {
		t.Fatalf("expected price 250000 جنيها, got %v", shop.Price)
	}

	villa := New().Extract("Villa in 6th of October price: 5m")
	if villa.Price == nil || *villa.Price != "5m" {
		t.Fatalf("expected price 5m, got %v", villa.Price)
	}

	usd := New().Extract("flat 90000 dollars cash")
	if usd.Price == nil || *usd.Price != "90000 dollars" {
		t.Fatalf("expected price 90000 dollars, got %v", usd.Price)
	}

	meters := New().Extract("apartment price 150 meters")
	if meters.Price == nil || *meters.Price != "150" {
		t.Fatalf("meters taken as magnitude: %v", meters.Price)
	}
}

func TestExtract_LocationStopsAtNumber(t *testing.T) {
	cases := map[string]string{
		"apartment in zamalek 2 bedrooms": "zamalek",
		"office near dokki 40 sqm":        "dokki",
		"شقة في الدقي 3 غرف":              "الدقي",
	}
	for text, want := range cases {
		attrs := New().Extract(text)
		if attrs.AreaName == nil || *attrs.AreaName != want {
			t.Fatalf("Extract(%q) location = %v, want %s", text, attrs.AreaName, want)
		}
	}
}

func TestExtract_NoFalsePositives(t *testing.T) {
	attrs := New().Extract("villa 3 levels")
	if attrs.Price != nil {
		t.Fatalf("unexpected price %q", *attrs.Price)
	}

	attrs = New().Extract("شقة في السعر")
	if attrs.AreaName != nil {
		t.Fatalf("stop word taken as location: %q", *attrs.AreaName)
	}
}

func TestExtract_Deterministic(t *testing.T) {
	text := "فيلا للايجار بمنطقة الشيخ زايد 5 غرف حديقة و حمام سباحة 25 الف"
	first := New().Extract(text)
	for i := 0; i < 5; i++ {
		if got := New().Extract(text); !reflect.DeepEqual(first, got) {
			t.Fatalf("extraction not deterministic: %+v vs %+v", first, got)
		}
	}
}

func TestAttributes_Keywords(t *testing.T) {
	attrs := New().Extract("شقة بها مصعد و جراج")
	got := strings.Join(attrs.Keywords(), ",")
	if got != "apartment,elevator,garage" {
		t.Fatalf("unexpected keywords %q", got)
	}
}

func TestNormalize(t *testing.T) {
	if got := Normalize("ABC ١٢٣ ۴۵"); got != "abc 123 45" {
		t.Fatalf("unexpected normalized text %q", got)
	}
}
