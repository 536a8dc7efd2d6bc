package views

import "testing"

func TestTruncate(t *testing.T) {
	if got := truncate("شقة للبيع", 4); got != "شقة…" {
		t.Fatalf("unexpected truncation %q", got)
	}
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("unexpected %q", got)
	}
}

func TestFormatEGP(t *testing.T) {
	cases := map[float64]string{
		500000:  "500K",
		1250000: "1.25M",
		3000000: "3M",
		950:     "950",
	}
	for in, want := range cases {
		if got := formatEGP(in); got != want {
			t.Fatalf("formatEGP(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestWrapText(t *testing.T) {
	lines := wrapText("one two three four", 10)
	if len(lines) != 2 || lines[0] != "one two" || lines[1] != "three four" {
		t.Fatalf("unexpected wrap %q", lines)
	}
}
