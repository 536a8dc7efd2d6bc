package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"wa_listings/extract"
	"wa_listings/identity"
	"wa_listings/models"
	"wa_listings/storage"
)

// Resolution is what the resolver found for one message. Nil ids are
// unresolved.
type Resolution struct {
	AgentID        *int64
	AreaID         *int64
	PropertyTypeID *int64
	NewAgent       bool
}

// Resolver finds or creates the agent behind a message and matches the
// extracted area and type against the catalog. It never writes catalog rows.
type Resolver struct {
	catalog *models.Catalog
	logger  *slog.Logger
}

func NewResolver(catalog *models.Catalog, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{catalog: catalog, logger: logger}
}

func (r *Resolver) Resolve(ctx context.Context, b storage.Batch, attrs *extract.Attributes, sender, rawPhone string, now time.Time) (*Resolution, error) {
	res := &Resolution{}

	if strings.TrimSpace(rawPhone) != "" {
		agent, created, err := r.findOrCreateAgent(ctx, b, sender, rawPhone, now)
		if err != nil {
			return nil, err
		}
		if agent != nil {
			res.AgentID = &agent.ID
			res.NewAgent = created
		}
	}

	if attrs.AreaName != nil {
		if area := MatchArea(r.catalog, *attrs.AreaName); area != nil {
			res.AreaID = &area.ID
		}
	}

	if attrs.PropertyType != nil {
		if pt := r.catalog.PropertyTypeByCode(*attrs.PropertyType); pt != nil {
			res.PropertyTypeID = &pt.ID
		}
	}

	return res, nil
}

func (r *Resolver) findOrCreateAgent(ctx context.Context, b storage.Batch, sender, rawPhone string, now time.Time) (*models.Agent, bool, error) {
	phone := identity.CleanPhone(rawPhone)
	if phone == "" {
		return nil, false, nil
	}

	existing, err := b.FindAgentByPhone(ctx, phone)
	if err != nil {
		return nil, false, fmt.Errorf("find agent: %w", err)
	}
	if existing != nil {
		return existing, false, nil
	}

	agent := &models.Agent{
		Name:            sender,
		Phone:           phone,
		Specialization:  models.DefaultAgentSpecialization,
		YearsExperience: models.DefaultAgentExperience,
		IsActive:        true,
		CreatedAt:       now,
	}
	if op := identity.ClassifyOperator(phone); op != "" {
		agent.PhoneOperator = &op
	} else {
		r.logger.Warn("unrecognized phone operator", "phone", phone, "sender", sender)
	}

	created, err := b.UpsertAgentIfAbsent(ctx, agent)
	if err != nil {
		return nil, false, fmt.Errorf("create agent: %w", err)
	}
	return agent, created, nil
}

// MatchArea returns the first catalog area whose Arabic name contains the
// phrase or is contained in it. English names are compared the same way
// ignoring case.
func MatchArea(catalog *models.Catalog, phrase string) *models.Area {
	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		return nil
	}
	lower := extract.Normalize(phrase)

	for i := range catalog.Areas {
		area := &catalog.Areas[i]
		if area.NameArabic != "" &&
			(strings.Contains(area.NameArabic, phrase) || strings.Contains(phrase, area.NameArabic)) {
			return area
		}
		english := extract.Normalize(area.NameEnglish)
		if english != "" && (strings.Contains(english, lower) || strings.Contains(lower, english)) {
			return area
		}
	}
	return nil
}
