package models

import (
	"time"
)

// Agent is a broker or owner who posted listings in a chat group.
// Phone is the lookup key; agents are created lazily on first sight of a phone.
type Agent struct {
	ID              int64     `json:"id" db:"id"`
	Name            string    `json:"name" db:"name"`
	Phone           string    `json:"phone" db:"phone"`
	PhoneOperator   *string   `json:"phone_operator" db:"phone_operator"` // nil when the prefix is unknown
	CompanyName     string    `json:"company_name" db:"company_name"`
	Specialization  string    `json:"specialization" db:"specialization"`
	YearsExperience int       `json:"years_experience" db:"years_experience"`
	Description     string    `json:"description" db:"description"`
	IsActive        bool      `json:"is_active" db:"is_active"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// Message is one imported chat line. It is immutable after import except
// for PropertyID, which is set in the same batch that creates the property.
type Message struct {
	ID                int64     `json:"id" db:"id"`
	AgentID           *int64    `json:"agent_id" db:"agent_id"`
	PropertyID        *int64    `json:"property_id" db:"property_id"`
	SenderName        string    `json:"sender_name" db:"sender_name"`
	MessageText       string    `json:"message_text" db:"message_text"`
	MessageDate       time.Time `json:"message_date" db:"message_date"`
	ExtractedPrice    *string   `json:"extracted_price" db:"extracted_price"`
	ExtractedAreaSize *int      `json:"extracted_area_size" db:"extracted_area_size"`
	ExtractedLocation *string   `json:"extracted_location" db:"extracted_location"`
	Keywords          string    `json:"keywords" db:"keywords"`
	IsProcessed       bool      `json:"is_processed" db:"is_processed"`
	ConfidenceScore   float64   `json:"confidence_score" db:"confidence_score"`
	DedupKey          string    `json:"dedup_key" db:"dedup_key"` // sha256 of (sender, text)
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
}

// Property is materialized from a message that carried enough structure.
type Property struct {
	ID              int64     `json:"id" db:"id"`
	AgentID         int64     `json:"agent_id" db:"agent_id"`
	PropertyTypeID  int64     `json:"property_type_id" db:"property_type_id"`
	AreaID          *int64    `json:"area_id" db:"area_id"`
	Title           string    `json:"title" db:"title"`
	Description     string    `json:"description" db:"description"`
	PriceText       *string   `json:"price_text" db:"price_text"`
	Currency        string    `json:"currency" db:"currency"`
	TransactionType string    `json:"transaction_type" db:"transaction_type"` // sale, rental
	AreaSize        *int      `json:"area_size" db:"area_size"`
	Rooms           *int      `json:"rooms" db:"rooms"`
	HasElevator     bool      `json:"has_elevator" db:"has_elevator"`
	HasGarage       bool      `json:"has_garage" db:"has_garage"`
	HasGarden       bool      `json:"has_garden" db:"has_garden"`
	HasPool         bool      `json:"has_pool" db:"has_pool"`
	IsMainStreet    bool      `json:"is_main_street" db:"is_main_street"`
	IsAvailable     bool      `json:"is_available" db:"is_available"`
	IsFeatured      bool      `json:"is_featured" db:"is_featured"`
	ViewsCount      int       `json:"views_count" db:"views_count"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// Transaction types
const (
	TransactionSale   = "sale"
	TransactionRental = "rental"
)

// Currencies
const (
	CurrencyEGP = "EGP"
	CurrencyUSD = "USD"
)

// Agent defaults for lazily created agents
const (
	DefaultAgentSpecialization = "general"
	DefaultAgentExperience     = 0
)
