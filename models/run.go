package models

// IncomingMessage is one raw chat line submitted for import.
type IncomingMessage struct {
	Sender     string   `json:"sender"`
	Message    string   `json:"message"`
	Timestamp  string   `json:"timestamp"`
	AgentPhone string   `json:"agent_phone,omitempty"`
	Keywords   []string `json:"keywords,omitempty"`

	// Malformed is set when the submitted item could not be decoded. The
	// importer counts such items as skipped.
	Malformed error `json:"-"`
}

// ItemStatus is the per-message outcome inside a batch.
type ItemStatus string

const (
	ItemDuplicate       ItemStatus = "duplicate"
	ItemImported        ItemStatus = "imported"
	ItemPropertyCreated ItemStatus = "property_created"
	ItemError           ItemStatus = "error"
)

// ImportSummary is the batch result returned to callers. Per-item detail
// only goes to debug logs.
type ImportSummary struct {
	BatchID          string `json:"batch_id,omitempty"`
	Imported         int    `json:"imported"`
	Total            int    `json:"total"`
	Skipped          int    `json:"skipped"`
	PropertyMessages int    `json:"propertyMessages"`
	NewAgents        int    `json:"newAgents"`
}

// Record counts one message outcome.
func (s *ImportSummary) Record(status ItemStatus, newAgent bool) {
	switch status {
	case ItemDuplicate, ItemError:
		s.Skipped++
	case ItemImported:
		s.Imported++
	case ItemPropertyCreated:
		s.Imported++
		s.PropertyMessages++
	}
	if newAgent {
		s.NewAgents++
	}
}
