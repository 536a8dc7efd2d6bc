// Package chatexport reads WhatsApp chat exports into importable messages.
package chatexport

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"wa_listings/identity"
	"wa_listings/models"
)

type Options struct {
	// DayFirst reads 01/02/24 as 1 February. Dates whose first field is
	// above 12 are always read day first.
	DayFirst bool
	Location *time.Location
	// OnSkip is told about header lines that were dropped, such as ones
	// carrying an impossible date.
	OnSkip func(line int, err error)
}

func (o Options) skip(line int, err error) {
	if o.OnSkip != nil {
		o.OnSkip(line, err)
	}
}

func (o Options) location() *time.Location {
	if o.Location == nil {
		return time.UTC
	}
	return o.Location
}

// Both export styles:
//
//	12/31/23, 10:15 PM - Sender: text
//	[31/12/2023, 22:15:03] Sender: text
var headerLine = regexp.MustCompile(
	`^\[?(\d{1,2})[/.](\d{1,2})[/.](\d{2,4}),?\s+(\d{1,2}):(\d{2})(?::(\d{2}))?(?:\s*([AaPp])\.?[Mm]\.?)?\]?\s*(?:-\s+)?(.*)$`)

var invisible = strings.NewReplacer("\u200e", "", "\u200f", "", "\u202a", "", "\u202c", "", "\ufeff", "", "\u202f", " ", "\u00a0", " ")

var mediaPlaceholders = []string{
	"<media omitted>", "<الوسائط محذوفة>", "image omitted", "video omitted", "audio omitted",
	"document omitted", "sticker omitted", "this message was deleted", "تم حذف هذه الرسالة",
}

// ParseText reads a .txt export. Continuation lines are appended to the
// previous message; system notices and media placeholders are dropped. A
// header with an impossible date drops that message only.
func ParseText(r io.Reader, opts Options) ([]models.IncomingMessage, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	var (
		out     []models.IncomingMessage
		current *models.IncomingMessage
	)
	flush := func() {
		if current == nil {
			return
		}
		current.Message = strings.TrimSpace(current.Message)
		if current.Message != "" && !isPlaceholder(current.Message) {
			current.AgentPhone = agentPhone(current.Sender, current.Message)
			out = append(out, *current)
		}
		current = nil
	}

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := invisible.Replace(scanner.Text())

		m := headerLine.FindStringSubmatch(line)
		if m == nil {
			if current != nil {
				current.Message += "\n" + line
			}
			continue
		}

		flush()

		ts, err := headerTime(m, opts)
		if err != nil {
			opts.skip(lineNo, err)
			continue
		}

		sender, text, ok := strings.Cut(m[8], ": ")
		if !ok {
			// group notices: joined, left, changed the subject
			continue
		}
		current = &models.IncomingMessage{
			Sender:    cleanSender(sender),
			Message:   text,
			Timestamp: ts.Format(time.RFC3339),
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read export: %w", err)
	}
	flush()

	return out, nil
}

func headerTime(m []string, opts Options) (time.Time, error) {
	a, _ := strconv.Atoi(m[1])
	b, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	hour, _ := strconv.Atoi(m[4])
	minute, _ := strconv.Atoi(m[5])
	second := 0
	if m[6] != "" {
		second, _ = strconv.Atoi(m[6])
	}

	day, month := b, a
	if opts.DayFirst || a > 12 {
		day, month = a, b
	}
	if year < 100 {
		year += 2000
	}

	switch strings.ToLower(m[7]) {
	case "p":
		if hour < 12 {
			hour += 12
		}
	case "a":
		if hour == 12 {
			hour = 0
		}
	}

	if month < 1 || month > 12 || day < 1 || day > 31 || hour > 23 || minute > 59 || second > 59 {
		return time.Time{}, fmt.Errorf("invalid date %s/%s/%s %s:%s", m[1], m[2], m[3], m[4], m[5])
	}
	return time.Date(year, time.Month(month), day, hour, minute, second, 0, opts.location()), nil
}

func cleanSender(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "~")
	return strings.TrimSpace(s)
}

func isPlaceholder(text string) bool {
	lower := strings.ToLower(text)
	for _, p := range mediaPlaceholders {
		if lower == p {
			return true
		}
	}
	return false
}

// agentPhone is the sender itself when the export shows a bare number,
// otherwise the first mobile number in the text.
func agentPhone(sender, text string) string {
	if identity.LooksLikePhone(sender) {
		return identity.CleanPhone(sender)
	}
	return identity.FindMobile(text)
}
