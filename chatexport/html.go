package chatexport

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"wa_listings/models"
)

// Selectors locate message parts in an HTML export. Sender, Text and Time
// are looked up inside each Message element; an empty Text selector takes
// the whole element text.
type Selectors struct {
	Message  string
	Sender   string
	Text     string
	Time     string
	TimeAttr string
}

var htmlTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"02/01/2006, 15:04",
	"02/01/2006 15:04",
}

// ParseHTML reads messages from an HTML export such as a saved WhatsApp Web
// page. Timestamps that match none of the known layouts are passed through
// unchanged.
func ParseHTML(r io.Reader, sel Selectors, opts Options) ([]models.IncomingMessage, error) {
	if sel.Message == "" {
		return nil, fmt.Errorf("message selector is required")
	}

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var out []models.IncomingMessage
	lastSender := ""
	doc.Find(sel.Message).Each(func(_ int, s *goquery.Selection) {
		sender := lastSender
		if sel.Sender != "" {
			if name := cleanSender(invisible.Replace(s.Find(sel.Sender).First().Text())); name != "" {
				sender = name
			}
		}
		// consecutive bubbles from one sender only label the first
		lastSender = sender

		textSel := s
		if sel.Text != "" {
			textSel = s.Find(sel.Text).First()
		}
		text := strings.TrimSpace(invisible.Replace(textSel.Text()))
		if text == "" || isPlaceholder(text) {
			return
		}

		out = append(out, models.IncomingMessage{
			Sender:     sender,
			Message:    text,
			Timestamp:  htmlTimestamp(s, sel, opts),
			AgentPhone: agentPhone(sender, text),
		})
	})

	return out, nil
}

func htmlTimestamp(s *goquery.Selection, sel Selectors, opts Options) string {
	node := s
	if sel.Time != "" {
		node = s.Find(sel.Time).First()
	} else if sel.TimeAttr == "" {
		return ""
	}

	raw := ""
	if sel.TimeAttr != "" {
		raw, _ = node.Attr(sel.TimeAttr)
	} else {
		raw = node.Text()
	}
	raw = strings.TrimSpace(invisible.Replace(raw))
	if raw == "" {
		return ""
	}

	for _, layout := range htmlTimeLayouts {
		if t, err := time.ParseInLocation(layout, raw, opts.location()); err == nil {
			return t.Format(time.RFC3339)
		}
	}
	return raw
}
