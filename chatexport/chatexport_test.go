package chatexport

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func openFixture(t *testing.T, name string) *os.File {
	t.Helper()
	f, err := os.Open(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("failed to open fixture %s: %v", name, err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func TestParseText_Android(t *testing.T) {
	msgs, err := ParseText(openFixture(t, "android.txt"), Options{})
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}

	first := msgs[0]
	if first.Sender != "Ahmed Broker" {
		t.Fatalf("unexpected sender %q", first.Sender)
	}
	if !strings.HasSuffix(first.Message, "\nللتواصل 0101 234 5678") {
		t.Fatalf("continuation line not appended: %q", first.Message)
	}
	if first.Timestamp != "2023-12-31T22:16:00Z" {
		t.Fatalf("unexpected timestamp %s", first.Timestamp)
	}
	if first.AgentPhone != "01012345678" {
		t.Fatalf("expected phone from text, got %q", first.AgentPhone)
	}

	second := msgs[1]
	if second.AgentPhone != "01223456789" {
		t.Fatalf("expected phone from sender, got %q", second.AgentPhone)
	}

	third := msgs[2]
	if third.Sender != "Omar" || third.Message != "يوجد مصعد وجراج" {
		t.Fatalf("unexpected third message %+v", third)
	}
	if third.Timestamp != "2024-01-02T12:30:00Z" {
		t.Fatalf("unexpected timestamp %s", third.Timestamp)
	}
	if third.AgentPhone != "" {
		t.Fatalf("expected no phone, got %q", third.AgentPhone)
	}
}

func TestParseText_IOSDayFirst(t *testing.T) {
	msgs, err := ParseText(openFixture(t, "ios.txt"), Options{DayFirst: true})
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Timestamp != "2023-12-31T22:15:03Z" {
		t.Fatalf("unexpected timestamp %s", msgs[0].Timestamp)
	}
	if msgs[1].Timestamp != "2024-02-01T08:00:00Z" {
		t.Fatalf("expected day-first date, got %s", msgs[1].Timestamp)
	}
	if msgs[1].Message != "ارض للبيع 300 م2\nبسعر 2 مليون" {
		t.Fatalf("unexpected multi-line message %q", msgs[1].Message)
	}
}

func TestParseText_InvalidDateSkipsLine(t *testing.T) {
	export := "12/31/23, 10:15 PM - Ahmed: شقة للبيع\n" +
		"31/31/2023, 10:00 - Ahmed: corrupt\n" +
		"tail of the corrupt message\n" +
		"1/2/24, 9:00 AM - Omar: فيلا للايجار\n"

	var skipped []int
	msgs, err := ParseText(strings.NewReader(export), Options{
		OnSkip: func(line int, err error) { skipped = append(skipped, line) },
	})
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Message != "شقة للبيع" || msgs[1].Sender != "Omar" {
		t.Fatalf("unexpected messages %+v", msgs)
	}
	if len(skipped) != 1 || skipped[0] != 2 {
		t.Fatalf("expected line 2 skipped, got %v", skipped)
	}
}

func TestParseText_LineTooLong(t *testing.T) {
	if _, err := ParseText(strings.NewReader(strings.Repeat("x", 5<<20)), Options{}); err == nil {
		t.Fatalf("expected error for oversized line")
	}
}

func TestParseHTML(t *testing.T) {
	sel := Selectors{Message: "div.message", Sender: ".sender", Text: ".text", Time: ".time", TimeAttr: "datetime"}
	msgs, err := ParseHTML(openFixture(t, "export.html"), sel, Options{})
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	if msgs[0].AgentPhone != "01012345678" || msgs[0].Timestamp != "2024-01-05T10:00:00Z" {
		t.Fatalf("unexpected first message %+v", msgs[0])
	}
	if msgs[1].Sender != "Ahmed Broker" {
		t.Fatalf("expected sender carried over, got %q", msgs[1].Sender)
	}
	if msgs[2].AgentPhone != "01112345678" {
		t.Fatalf("expected phone sender, got %q", msgs[2].AgentPhone)
	}
}

func TestParse_Dispatch(t *testing.T) {
	if _, err := Parse(strings.NewReader(""), "pdf", Selectors{}, Options{}); err == nil {
		t.Fatalf("expected error for unknown format")
	}
	if FormatFromName("chat.HTML") != FormatHTML || FormatFromName("chat.txt") != FormatText {
		t.Fatalf("unexpected format detection")
	}
	if !Matches("WhatsApp Chat.txt", FormatText) || Matches("notes.md", FormatText) {
		t.Fatalf("unexpected file matching")
	}
}
