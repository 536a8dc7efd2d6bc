package services

import (
	"context"
	"fmt"
	"time"

	"wa_listings/extract"
	"wa_listings/models"
	"wa_listings/storage"
)

const titleMaxRunes = 100

// Materializer turns a sufficiently structured message into a Property.
type Materializer struct{}

func NewMaterializer() *Materializer {
	return &Materializer{}
}

// Qualifies reports whether a message carries enough structure for a
// Property: a known type, an agent, and a price or an area size.
func (m *Materializer) Qualifies(res *Resolution, attrs *extract.Attributes) bool {
	return res.PropertyTypeID != nil &&
		res.AgentID != nil &&
		(attrs.Price != nil || attrs.AreaSize != nil)
}

// Materialize creates the Property for msg and links msg to it. msg must
// already be stored. It returns nil when the message does not qualify.
func (m *Materializer) Materialize(ctx context.Context, b storage.Batch, msg *models.Message, res *Resolution, attrs *extract.Attributes, now time.Time) (*models.Property, error) {
	if !m.Qualifies(res, attrs) {
		return nil, nil
	}

	transaction := models.TransactionSale
	if attrs.Rental {
		transaction = models.TransactionRental
	}

	prop := &models.Property{
		AgentID:         *res.AgentID,
		PropertyTypeID:  *res.PropertyTypeID,
		AreaID:          res.AreaID,
		Title:           truncateRunes(msg.MessageText, titleMaxRunes),
		Description:     msg.MessageText,
		PriceText:       attrs.Price,
		Currency:        attrs.Currency,
		TransactionType: transaction,
		AreaSize:        attrs.AreaSize,
		Rooms:           attrs.Rooms,
		HasElevator:     attrs.Features.Elevator,
		HasGarage:       attrs.Features.Garage,
		HasGarden:       attrs.Features.Garden,
		HasPool:         attrs.Features.Pool,
		IsMainStreet:    attrs.Features.MainStreet,
		IsAvailable:     true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if prop.Currency == "" {
		prop.Currency = models.CurrencyEGP
	}

	if err := b.InsertProperty(ctx, prop); err != nil {
		return nil, fmt.Errorf("insert property: %w", err)
	}
	if err := b.SetMessageProperty(ctx, msg.ID, prop.ID); err != nil {
		return nil, fmt.Errorf("link message %d: %w", msg.ID, err)
	}
	msg.PropertyID = &prop.ID

	return prop, nil
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
