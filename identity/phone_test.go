package identity

import "testing"

func TestClassifyOperator_KnownPrefixes(t *testing.T) {
	cases := map[string]string{
		"01012345678":       "010",
		"011 2345 6789":     "011",
		"(012)-3456-7890":   "012",
		"015-123-45678":     "015",
		"+20 100 123 4567":  "010",
		"0020 1112345678":   "011",
		"٠١٠١٢٣٤٥٦٧٨":       "010",
		"\t012 34 56 78 90": "012",
	}
	for raw, want := range cases {
		if got := ClassifyOperator(raw); got != want {
			t.Fatalf("ClassifyOperator(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestClassifyOperator_Unrecognized(t *testing.T) {
	for _, raw := range []string{"", "   ", "013 1234 5678", "0221234567", "hello", "()", "-", "+1 555 0100"} {
		if got := ClassifyOperator(raw); got != "" {
			t.Fatalf("ClassifyOperator(%q) = %q, want unrecognized", raw, got)
		}
	}
}

func TestClassifyOperator_Totality(t *testing.T) {
	inputs := []string{"\x00", "٠", "+", "+20", "0020", "(((", "01", "010", string([]byte{0xff, 0xfe})}
	for _, raw := range inputs {
		got := ClassifyOperator(raw)
		switch got {
		case "", "010", "011", "012", "015":
		default:
			t.Fatalf("ClassifyOperator(%q) returned %q", raw, got)
		}
	}
}

func TestCleanPhone(t *testing.T) {
	if got := CleanPhone(" (010) 1234-5678 "); got != "01012345678" {
		t.Fatalf("unexpected cleaned phone %q", got)
	}
	if got := CleanPhone("+201012345678"); got != "01012345678" {
		t.Fatalf("unexpected cleaned international phone %q", got)
	}
}

func TestCleanPhone_UnicodeSpaces(t *testing.T) {
	for _, raw := range []string{"010\u20091234 5678", "010\u202f1234\u00a05678", "\u3000010 1234\u20035678"} {
		if got := CleanPhone(raw); got != "01012345678" {
			t.Fatalf("CleanPhone(%q) = %q", raw, got)
		}
		if op := ClassifyOperator(raw); op != "010" {
			t.Fatalf("ClassifyOperator(%q) = %q", raw, op)
		}
	}
	if got := FindMobile("رقم 0122\u2009345\u20096789"); got != "01223456789" {
		t.Fatalf("expected mobile across thin spaces, got %q", got)
	}
}

func TestFindMobile(t *testing.T) {
	if got := FindMobile("للتواصل 0101 234 5678 واتساب"); got != "01012345678" {
		t.Fatalf("expected mobile in text, got %q", got)
	}
	if got := FindMobile("call +20 122 345 6789 now"); got != "01223456789" {
		t.Fatalf("expected international mobile, got %q", got)
	}
	if got := FindMobile("السعر 500 ألف مساحة 120 متر"); got != "" {
		t.Fatalf("expected no mobile, got %q", got)
	}
}

func TestLooksLikePhone(t *testing.T) {
	if !LooksLikePhone("+20 100 123 4567") {
		t.Fatalf("expected phone sender to be detected")
	}
	if LooksLikePhone("Ahmed") {
		t.Fatalf("name detected as phone")
	}
}

func TestMessageKey(t *testing.T) {
	a := MessageKey("Ahmed", "شقة للبيع")
	if a != MessageKey("Ahmed", "شقة للبيع") {
		t.Fatalf("message key not deterministic")
	}
	if a == MessageKey("Ahmed", "شقة للبيع ") {
		t.Fatalf("message key must use exact text equality")
	}
	if MessageKey("ab", "c") == MessageKey("a", "bc") {
		t.Fatalf("message key must separate sender and text")
	}
}
