package models

// MessageView is the denormalized Message ⋈ Agent ⋈ Property ⋈ PropertyType ⋈ Area
// row consumed by the dashboard.
type MessageView struct {
	ID               int64   `json:"id"`
	Sender           string  `json:"sender"`
	Message          string  `json:"message"`
	Timestamp        string  `json:"timestamp"`
	PropertyType     *string `json:"property_type"`
	Keywords         string  `json:"keywords"`
	Location         *string `json:"location"`
	Price            *string `json:"price"`
	AgentPhone       *string `json:"agent_phone"`
	AgentDescription *string `json:"agent_description"`
	FullDescription  string  `json:"full_description"`
	PropertyID       *int64  `json:"property_id"`
}

// TypeStat counts available properties of one type.
type TypeStat struct {
	PropertyType string `json:"property_type"`
	NameArabic   string `json:"name_arabic"`
	NameEnglish  string `json:"name_english"`
	Count        int    `json:"count"`
}

// AgentSummary is an agent row with aggregates over its available properties.
type AgentSummary struct {
	Agent
	PropertiesCount int      `json:"properties_count"`
	AvgPrice        *float64 `json:"avg_price"`
}
