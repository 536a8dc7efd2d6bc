package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"wa_listings/extract"
	"wa_listings/models"
	"wa_listings/storage"
)

const (
	DefaultMessageLimit = 100
	MaxMessageLimit     = 1000
)

// MessageFilter narrows ListMessages. Zero values mean no filtering.
type MessageFilter struct {
	Search       string
	PropertyType string
	Limit        int
}

// QueryService builds the read-side projections over a store snapshot.
type QueryService struct {
	store storage.Store
}

func NewQueryService(store storage.Store) *QueryService {
	return &QueryService{store: store}
}

// projection indexes one snapshot for joins.
type projection struct {
	ds         *storage.Dataset
	agents     map[int64]*models.Agent
	properties map[int64]*models.Property
}

func (s *QueryService) load(ctx context.Context) (*projection, error) {
	ds, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	p := &projection{
		ds:         ds,
		agents:     make(map[int64]*models.Agent, len(ds.Agents)),
		properties: make(map[int64]*models.Property, len(ds.Properties)),
	}
	for i := range ds.Agents {
		p.agents[ds.Agents[i].ID] = &ds.Agents[i]
	}
	for i := range ds.Properties {
		p.properties[ds.Properties[i].ID] = &ds.Properties[i]
	}
	return p, nil
}

func (p *projection) view(m *models.Message) models.MessageView {
	v := models.MessageView{
		ID:              m.ID,
		Sender:          m.SenderName,
		Message:         m.MessageText,
		Timestamp:       m.MessageDate.Format(time.RFC3339),
		Keywords:        m.Keywords,
		Location:        m.ExtractedLocation,
		Price:           m.ExtractedPrice,
		FullDescription: m.MessageText,
		PropertyID:      m.PropertyID,
	}

	if m.AgentID != nil {
		if a := p.agents[*m.AgentID]; a != nil {
			v.AgentPhone = &a.Phone
			v.AgentDescription = &a.Description
		}
	}

	if m.PropertyID != nil {
		if prop := p.properties[*m.PropertyID]; prop != nil {
			if pt := p.ds.Catalog.PropertyTypeByID(prop.PropertyTypeID); pt != nil {
				v.PropertyType = &pt.TypeCode
			}
			if prop.AreaID != nil {
				if area := p.ds.Catalog.AreaByID(*prop.AreaID); area != nil {
					v.Location = &area.NameArabic
				}
			}
			if prop.PriceText != nil {
				v.Price = prop.PriceText
			}
			v.FullDescription = prop.Description
		}
	}
	return v
}

// ListMessages returns message views newest first.
func (s *QueryService) ListMessages(ctx context.Context, f MessageFilter) ([]models.MessageView, error) {
	p, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultMessageLimit
	}
	if limit > MaxMessageLimit {
		limit = MaxMessageLimit
	}

	typeCode := strings.TrimSpace(f.PropertyType)
	if typeCode != "" {
		typeCode = resolveTypeFilter(p.ds.Catalog, typeCode)
	}
	search := extract.Normalize(strings.TrimSpace(f.Search))

	views := make([]models.MessageView, 0)
	for i := range p.ds.Messages {
		v := p.view(&p.ds.Messages[i])
		if typeCode != "" && (v.PropertyType == nil || *v.PropertyType != typeCode) {
			continue
		}
		if search != "" && !matchesSearch(&v, search) {
			continue
		}
		views = append(views, v)
	}

	msgDates := make(map[int64]time.Time, len(p.ds.Messages))
	for _, m := range p.ds.Messages {
		msgDates[m.ID] = m.MessageDate
	}
	sort.SliceStable(views, func(i, j int) bool {
		di, dj := msgDates[views[i].ID], msgDates[views[j].ID]
		if !di.Equal(dj) {
			return di.After(dj)
		}
		return views[i].ID > views[j].ID
	})

	if len(views) > limit {
		views = views[:limit]
	}
	return views, nil
}

// resolveTypeFilter maps a type code or either catalog name to a type code.
func resolveTypeFilter(c *models.Catalog, value string) string {
	lower := extract.Normalize(value)
	for _, pt := range c.PropertyTypes {
		if lower == pt.TypeCode || value == pt.NameArabic || lower == extract.Normalize(pt.NameEnglish) {
			return pt.TypeCode
		}
	}
	return lower
}

func matchesSearch(v *models.MessageView, search string) bool {
	if strings.Contains(extract.Normalize(v.Sender), search) ||
		strings.Contains(extract.Normalize(v.Message), search) {
		return true
	}
	return v.Location != nil && strings.Contains(extract.Normalize(*v.Location), search)
}

// GetMessage returns one message view or storage.ErrNotFound.
func (s *QueryService) GetMessage(ctx context.Context, id int64) (*models.MessageView, error) {
	p, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range p.ds.Messages {
		if p.ds.Messages[i].ID == id {
			v := p.view(&p.ds.Messages[i])
			return &v, nil
		}
	}
	return nil, fmt.Errorf("message %d: %w", id, storage.ErrNotFound)
}

// GetProperty returns one property or storage.ErrNotFound.
func (s *QueryService) GetProperty(ctx context.Context, id int64) (*models.Property, error) {
	p, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if prop := p.properties[id]; prop != nil {
		return prop, nil
	}
	return nil, fmt.Errorf("property %d: %w", id, storage.ErrNotFound)
}

// Stats counts available properties per type, largest first. Types with the
// same count keep catalog order.
func (s *QueryService) Stats(ctx context.Context) ([]models.TypeStat, error) {
	p, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	counts := make(map[int64]int)
	for _, prop := range p.ds.Properties {
		if prop.IsAvailable {
			counts[prop.PropertyTypeID]++
		}
	}

	stats := make([]models.TypeStat, 0, len(counts))
	for _, pt := range p.ds.Catalog.PropertyTypes {
		if n := counts[pt.ID]; n > 0 {
			stats = append(stats, models.TypeStat{
				PropertyType: pt.TypeCode,
				NameArabic:   pt.NameArabic,
				NameEnglish:  pt.NameEnglish,
				Count:        n,
			})
		}
	}
	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].Count > stats[j].Count
	})
	return stats, nil
}

// Agents lists agents with aggregates over their available properties.
// AvgPrice only averages EGP prices that parse.
func (s *QueryService) Agents(ctx context.Context) ([]models.AgentSummary, error) {
	p, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	type agg struct {
		count int
		sum   float64
		n     int
	}
	byAgent := make(map[int64]*agg)
	for _, prop := range p.ds.Properties {
		if !prop.IsAvailable {
			continue
		}
		a := byAgent[prop.AgentID]
		if a == nil {
			a = &agg{}
			byAgent[prop.AgentID] = a
		}
		a.count++
		if prop.PriceText == nil {
			continue
		}
		if amount, currency, ok := ParsePrice(*prop.PriceText); ok && currency == models.CurrencyEGP {
			a.sum += amount
			a.n++
		}
	}

	out := make([]models.AgentSummary, 0, len(p.ds.Agents))
	for _, agent := range p.ds.Agents {
		summary := models.AgentSummary{Agent: agent}
		if a := byAgent[agent.ID]; a != nil {
			summary.PropertiesCount = a.count
			if a.n > 0 {
				avg := a.sum / float64(a.n)
				summary.AvgPrice = &avg
			}
		}
		out = append(out, summary)
	}
	return out, nil
}

func (s *QueryService) Catalog(ctx context.Context) (*models.Catalog, error) {
	return s.store.LoadCatalog(ctx)
}
