package storage

import "wa_listings/models"

// Column lists shared by the SQL backends. Each *Fields helper returns scan
// destinations in the same order as its column list.

const agentColumns = `id, name, phone, phone_operator, company_name, specialization,
	years_experience, description, is_active, created_at`

func agentFields(a *models.Agent) []any {
	return []any{&a.ID, &a.Name, &a.Phone, &a.PhoneOperator, &a.CompanyName, &a.Specialization,
		&a.YearsExperience, &a.Description, &a.IsActive, &a.CreatedAt}
}

const messageColumns = `id, agent_id, property_id, sender_name, message_text, message_date,
	extracted_price, extracted_area_size, extracted_location, keywords, is_processed,
	confidence_score, dedup_key, created_at`

func messageFields(m *models.Message) []any {
	return []any{&m.ID, &m.AgentID, &m.PropertyID, &m.SenderName, &m.MessageText, &m.MessageDate,
		&m.ExtractedPrice, &m.ExtractedAreaSize, &m.ExtractedLocation, &m.Keywords, &m.IsProcessed,
		&m.ConfidenceScore, &m.DedupKey, &m.CreatedAt}
}

const propertyColumns = `id, agent_id, property_type_id, area_id, title, description, price_text,
	currency, transaction_type, area_size, rooms, has_elevator, has_garage, has_garden,
	has_pool, is_main_street, is_available, is_featured, views_count, created_at, updated_at`

func propertyFields(p *models.Property) []any {
	return []any{&p.ID, &p.AgentID, &p.PropertyTypeID, &p.AreaID, &p.Title, &p.Description, &p.PriceText,
		&p.Currency, &p.TransactionType, &p.AreaSize, &p.Rooms, &p.HasElevator, &p.HasGarage, &p.HasGarden,
		&p.HasPool, &p.IsMainStreet, &p.IsAvailable, &p.IsFeatured, &p.ViewsCount, &p.CreatedAt, &p.UpdatedAt}
}
