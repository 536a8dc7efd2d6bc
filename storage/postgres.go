package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"wa_listings/models"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	store := &PostgresStore{pool: pool}
	if err := store.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if err := store.seedCatalog(ctx, models.SeedCatalog()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("seed catalog: %w", err)
	}

	return store, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// =============================================================================
// Schema
// =============================================================================

func (s *PostgresStore) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS phone_operators (
		code TEXT PRIMARY KEY,
		name TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS property_types (
		id BIGINT PRIMARY KEY,
		type_code TEXT NOT NULL UNIQUE,
		name_arabic TEXT NOT NULL,
		name_english TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE
	);

	CREATE TABLE IF NOT EXISTS areas (
		id BIGINT PRIMARY KEY,
		name_arabic TEXT NOT NULL,
		name_english TEXT NOT NULL,
		city TEXT NOT NULL DEFAULT '',
		district TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS agents (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL,
		phone_operator TEXT REFERENCES phone_operators(code),
		company_name TEXT NOT NULL DEFAULT '',
		specialization TEXT NOT NULL DEFAULT '',
		years_experience INTEGER NOT NULL DEFAULT 0,
		description TEXT NOT NULL DEFAULT '',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS properties (
		id BIGSERIAL PRIMARY KEY,
		agent_id BIGINT NOT NULL REFERENCES agents(id),
		property_type_id BIGINT NOT NULL REFERENCES property_types(id),
		area_id BIGINT REFERENCES areas(id),
		title TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		price_text TEXT,
		currency TEXT NOT NULL DEFAULT 'EGP',
		transaction_type TEXT NOT NULL DEFAULT 'sale',
		area_size INTEGER,
		rooms INTEGER,
		has_elevator BOOLEAN NOT NULL DEFAULT FALSE,
		has_garage BOOLEAN NOT NULL DEFAULT FALSE,
		has_garden BOOLEAN NOT NULL DEFAULT FALSE,
		has_pool BOOLEAN NOT NULL DEFAULT FALSE,
		is_main_street BOOLEAN NOT NULL DEFAULT FALSE,
		is_available BOOLEAN NOT NULL DEFAULT TRUE,
		is_featured BOOLEAN NOT NULL DEFAULT FALSE,
		views_count INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS messages (
		id BIGSERIAL PRIMARY KEY,
		agent_id BIGINT REFERENCES agents(id),
		property_id BIGINT REFERENCES properties(id),
		sender_name TEXT NOT NULL,
		message_text TEXT NOT NULL,
		message_date TIMESTAMPTZ NOT NULL,
		extracted_price TEXT,
		extracted_area_size INTEGER,
		extracted_location TEXT,
		keywords TEXT NOT NULL DEFAULT '',
		is_processed BOOLEAN NOT NULL DEFAULT TRUE,
		confidence_score DOUBLE PRECISION NOT NULL DEFAULT 0,
		dedup_key TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_messages_dedup ON messages(dedup_key);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_agents_phone ON agents(phone);
	CREATE INDEX IF NOT EXISTS idx_messages_date ON messages(message_date DESC);
	CREATE INDEX IF NOT EXISTS idx_properties_agent ON properties(agent_id) WHERE is_available;
	CREATE INDEX IF NOT EXISTS idx_properties_type ON properties(property_type_id) WHERE is_available;
	`
	_, err := s.pool.Exec(ctx, schema)
	return err
}

func (s *PostgresStore) seedCatalog(ctx context.Context, c *models.Catalog) error {
	batch := &pgx.Batch{}
	for _, op := range c.PhoneOperators {
		batch.Queue(`INSERT INTO phone_operators (code, name) VALUES ($1, $2)
			ON CONFLICT (code) DO NOTHING`, op.Code, op.Name)
	}
	for _, pt := range c.PropertyTypes {
		batch.Queue(`INSERT INTO property_types (id, type_code, name_arabic, name_english, is_active)
			VALUES ($1, $2, $3, $4, $5) ON CONFLICT (id) DO NOTHING`,
			pt.ID, pt.TypeCode, pt.NameArabic, pt.NameEnglish, pt.IsActive)
	}
	for _, a := range c.Areas {
		batch.Queue(`INSERT INTO areas (id, name_arabic, name_english, city, district)
			VALUES ($1, $2, $3, $4, $5) ON CONFLICT (id) DO NOTHING`,
			a.ID, a.NameArabic, a.NameEnglish, a.City, a.District)
	}
	return s.pool.SendBatch(ctx, batch).Close()
}

// =============================================================================
// Reads
// =============================================================================

func (s *PostgresStore) LoadCatalog(ctx context.Context) (*models.Catalog, error) {
	var c models.Catalog

	rows, err := s.pool.Query(ctx, `SELECT code, name FROM phone_operators ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("query phone operators: %w", err)
	}
	c.PhoneOperators, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.PhoneOperator, error) {
		var op models.PhoneOperator
		err := row.Scan(&op.Code, &op.Name)
		return op, err
	})
	if err != nil {
		return nil, err
	}

	rows, err = s.pool.Query(ctx, `
		SELECT id, type_code, name_arabic, name_english, is_active
		FROM property_types ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query property types: %w", err)
	}
	c.PropertyTypes, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.PropertyType, error) {
		var pt models.PropertyType
		err := row.Scan(&pt.ID, &pt.TypeCode, &pt.NameArabic, &pt.NameEnglish, &pt.IsActive)
		return pt, err
	})
	if err != nil {
		return nil, err
	}

	rows, err = s.pool.Query(ctx, `
		SELECT id, name_arabic, name_english, city, district
		FROM areas ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query areas: %w", err)
	}
	c.Areas, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Area, error) {
		var a models.Area
		err := row.Scan(&a.ID, &a.NameArabic, &a.NameEnglish, &a.City, &a.District)
		return a, err
	})
	if err != nil {
		return nil, err
	}

	return &c, nil
}

func (s *PostgresStore) Snapshot(ctx context.Context) (*Dataset, error) {
	catalog, err := s.LoadCatalog(ctx)
	if err != nil {
		return nil, err
	}
	ds := &Dataset{Catalog: catalog}

	rows, err := s.pool.Query(ctx, `SELECT `+agentColumns+` FROM agents ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query agents: %w", err)
	}
	ds.Agents, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Agent, error) {
		var a models.Agent
		err := row.Scan(agentFields(&a)...)
		return a, err
	})
	if err != nil {
		return nil, err
	}

	rows, err = s.pool.Query(ctx, `SELECT `+messageColumns+` FROM messages ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	ds.Messages, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Message, error) {
		var m models.Message
		err := row.Scan(messageFields(&m)...)
		return m, err
	})
	if err != nil {
		return nil, err
	}

	rows, err = s.pool.Query(ctx, `SELECT `+propertyColumns+` FROM properties ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query properties: %w", err)
	}
	ds.Properties, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Property, error) {
		var p models.Property
		err := row.Scan(propertyFields(&p)...)
		return p, err
	})
	if err != nil {
		return nil, err
	}

	return ds, nil
}

// =============================================================================
// Batches
// =============================================================================

func (s *PostgresStore) WithBatch(ctx context.Context, fn func(Batch) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&pgBatch{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

type pgBatch struct {
	tx pgx.Tx
}

func (b *pgBatch) HasMessage(ctx context.Context, dedupKey string) (bool, error) {
	var exists bool
	err := b.tx.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM messages WHERE dedup_key = $1)`, dedupKey).Scan(&exists)
	return exists, err
}

func (b *pgBatch) FindAgentByPhone(ctx context.Context, phone string) (*models.Agent, error) {
	var a models.Agent
	err := b.tx.QueryRow(ctx,
		`SELECT `+agentColumns+` FROM agents WHERE phone = $1 ORDER BY id LIMIT 1`, phone).
		Scan(agentFields(&a)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (b *pgBatch) UpsertAgentIfAbsent(ctx context.Context, a *models.Agent) (bool, error) {
	err := b.tx.QueryRow(ctx, `
		INSERT INTO agents (name, phone, phone_operator, company_name, specialization,
			years_experience, description, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (phone) DO NOTHING
		RETURNING id`,
		a.Name, a.Phone, a.PhoneOperator, a.CompanyName, a.Specialization,
		a.YearsExperience, a.Description, a.IsActive, a.CreatedAt,
	).Scan(&a.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		existing, err := b.FindAgentByPhone(ctx, a.Phone)
		if err != nil {
			return false, err
		}
		if existing == nil {
			return false, fmt.Errorf("agent %s: %w", a.Phone, ErrNotFound)
		}
		*a = *existing
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (b *pgBatch) InsertMessage(ctx context.Context, m *models.Message) error {
	err := b.tx.QueryRow(ctx, `
		INSERT INTO messages (agent_id, property_id, sender_name, message_text, message_date,
			extracted_price, extracted_area_size, extracted_location, keywords, is_processed,
			confidence_score, dedup_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (dedup_key) DO NOTHING
		RETURNING id`,
		m.AgentID, m.PropertyID, m.SenderName, m.MessageText, m.MessageDate,
		m.ExtractedPrice, m.ExtractedAreaSize, m.ExtractedLocation, m.Keywords, m.IsProcessed,
		m.ConfidenceScore, m.DedupKey, m.CreatedAt,
	).Scan(&m.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrDuplicate
	}
	return err
}

func (b *pgBatch) InsertProperty(ctx context.Context, p *models.Property) error {
	return b.tx.QueryRow(ctx, `
		INSERT INTO properties (agent_id, property_type_id, area_id, title, description, price_text,
			currency, transaction_type, area_size, rooms, has_elevator, has_garage, has_garden,
			has_pool, is_main_street, is_available, is_featured, views_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		RETURNING id`,
		p.AgentID, p.PropertyTypeID, p.AreaID, p.Title, p.Description, p.PriceText,
		p.Currency, p.TransactionType, p.AreaSize, p.Rooms, p.HasElevator, p.HasGarage, p.HasGarden,
		p.HasPool, p.IsMainStreet, p.IsAvailable, p.IsFeatured, p.ViewsCount, p.CreatedAt, p.UpdatedAt,
	).Scan(&p.ID)
}

func (b *pgBatch) SetMessageProperty(ctx context.Context, messageID, propertyID int64) error {
	tag, err := b.tx.Exec(ctx,
		`UPDATE messages SET property_id = $1 WHERE id = $2`, propertyID, messageID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("message %d: %w", messageID, ErrNotFound)
	}
	return nil
}
