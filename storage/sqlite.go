package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"wa_listings/models"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if err := store.seedCatalog(models.SeedCatalog()); err != nil {
		db.Close()
		return nil, fmt.Errorf("seed catalog: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS phone_operators (
		code TEXT PRIMARY KEY,
		name TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS property_types (
		id INTEGER PRIMARY KEY,
		type_code TEXT NOT NULL UNIQUE,
		name_arabic TEXT NOT NULL,
		name_english TEXT NOT NULL,
		is_active BOOLEAN DEFAULT TRUE
	);

	CREATE TABLE IF NOT EXISTS areas (
		id INTEGER PRIMARY KEY,
		name_arabic TEXT NOT NULL,
		name_english TEXT NOT NULL,
		city TEXT,
		district TEXT
	);

	CREATE TABLE IF NOT EXISTS agents (
		id INTEGER PRIMARY KEY,
		name TEXT,
		phone TEXT NOT NULL,
		phone_operator TEXT REFERENCES phone_operators(code),
		company_name TEXT DEFAULT '',
		specialization TEXT,
		years_experience INTEGER DEFAULT 0,
		description TEXT DEFAULT '',
		is_active BOOLEAN DEFAULT TRUE,
		created_at DATETIME
	);

	CREATE TABLE IF NOT EXISTS properties (
		id INTEGER PRIMARY KEY,
		agent_id INTEGER NOT NULL REFERENCES agents(id),
		property_type_id INTEGER NOT NULL REFERENCES property_types(id),
		area_id INTEGER REFERENCES areas(id),
		title TEXT,
		description TEXT,
		price_text TEXT,
		currency TEXT,
		transaction_type TEXT,
		area_size INTEGER,
		rooms INTEGER,
		has_elevator BOOLEAN DEFAULT FALSE,
		has_garage BOOLEAN DEFAULT FALSE,
		has_garden BOOLEAN DEFAULT FALSE,
		has_pool BOOLEAN DEFAULT FALSE,
		is_main_street BOOLEAN DEFAULT FALSE,
		is_available BOOLEAN DEFAULT TRUE,
		is_featured BOOLEAN DEFAULT FALSE,
		views_count INTEGER DEFAULT 0,
		created_at DATETIME,
		updated_at DATETIME
	);

	CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY,
		agent_id INTEGER REFERENCES agents(id),
		property_id INTEGER REFERENCES properties(id),
		sender_name TEXT NOT NULL,
		message_text TEXT NOT NULL,
		message_date DATETIME,
		extracted_price TEXT,
		extracted_area_size INTEGER,
		extracted_location TEXT,
		keywords TEXT DEFAULT '',
		is_processed BOOLEAN DEFAULT TRUE,
		confidence_score REAL DEFAULT 0,
		dedup_key TEXT NOT NULL,
		created_at DATETIME
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_messages_dedup ON messages(dedup_key);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_agents_phone ON agents(phone);
	CREATE INDEX IF NOT EXISTS idx_messages_date ON messages(message_date);
	CREATE INDEX IF NOT EXISTS idx_properties_agent ON properties(agent_id, is_available);
	CREATE INDEX IF NOT EXISTS idx_properties_type ON properties(property_type_id, is_available);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) seedCatalog(c *models.Catalog) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, op := range c.PhoneOperators {
		if _, err := tx.Exec(`
			INSERT INTO phone_operators (code, name) VALUES (?, ?)
			ON CONFLICT(code) DO NOTHING`, op.Code, op.Name); err != nil {
			return err
		}
	}
	for _, pt := range c.PropertyTypes {
		if _, err := tx.Exec(`
			INSERT INTO property_types (id, type_code, name_arabic, name_english, is_active)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(id) DO NOTHING`,
			pt.ID, pt.TypeCode, pt.NameArabic, pt.NameEnglish, pt.IsActive); err != nil {
			return err
		}
	}
	for _, a := range c.Areas {
		if _, err := tx.Exec(`
			INSERT INTO areas (id, name_arabic, name_english, city, district)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(id) DO NOTHING`,
			a.ID, a.NameArabic, a.NameEnglish, a.City, a.District); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) LoadCatalog(ctx context.Context) (*models.Catalog, error) {
	var c models.Catalog

	rows, err := s.db.QueryContext(ctx, `SELECT code, name FROM phone_operators ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("query phone operators: %w", err)
	}
	for rows.Next() {
		var op models.PhoneOperator
		if err := rows.Scan(&op.Code, &op.Name); err != nil {
			rows.Close()
			return nil, err
		}
		c.PhoneOperators = append(c.PhoneOperators, op)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT id, type_code, name_arabic, name_english, COALESCE(is_active, TRUE)
		FROM property_types ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query property types: %w", err)
	}
	for rows.Next() {
		var pt models.PropertyType
		if err := rows.Scan(&pt.ID, &pt.TypeCode, &pt.NameArabic, &pt.NameEnglish, &pt.IsActive); err != nil {
			rows.Close()
			return nil, err
		}
		c.PropertyTypes = append(c.PropertyTypes, pt)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT id, name_arabic, name_english, COALESCE(city, ''), COALESCE(district, '')
		FROM areas ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query areas: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var a models.Area
		if err := rows.Scan(&a.ID, &a.NameArabic, &a.NameEnglish, &a.City, &a.District); err != nil {
			return nil, err
		}
		c.Areas = append(c.Areas, a)
	}
	return &c, rows.Err()
}

func (s *SQLiteStore) Snapshot(ctx context.Context) (*Dataset, error) {
	catalog, err := s.LoadCatalog(ctx)
	if err != nil {
		return nil, err
	}
	ds := &Dataset{Catalog: catalog}

	rows, err := s.db.QueryContext(ctx, `SELECT `+agentColumns+` FROM agents ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query agents: %w", err)
	}
	for rows.Next() {
		var a models.Agent
		if err := rows.Scan(agentFields(&a)...); err != nil {
			rows.Close()
			return nil, err
		}
		ds.Agents = append(ds.Agents, a)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx, `SELECT `+messageColumns+` FROM messages ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(messageFields(&m)...); err != nil {
			rows.Close()
			return nil, err
		}
		ds.Messages = append(ds.Messages, m)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx, `SELECT `+propertyColumns+` FROM properties ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query properties: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var p models.Property
		if err := rows.Scan(propertyFields(&p)...); err != nil {
			return nil, err
		}
		ds.Properties = append(ds.Properties, p)
	}
	return ds, rows.Err()
}

func (s *SQLiteStore) WithBatch(ctx context.Context, fn func(Batch) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	if err := fn(&sqliteBatch{tx: tx}); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

type sqliteBatch struct {
	tx *sql.Tx
}

func (b *sqliteBatch) HasMessage(ctx context.Context, dedupKey string) (bool, error) {
	var exists bool
	err := b.tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM messages WHERE dedup_key = ?)`, dedupKey).Scan(&exists)
	return exists, err
}

func (b *sqliteBatch) FindAgentByPhone(ctx context.Context, phone string) (*models.Agent, error) {
	var a models.Agent
	err := b.tx.QueryRowContext(ctx,
		`SELECT `+agentColumns+` FROM agents WHERE phone = ? ORDER BY id LIMIT 1`, phone).
		Scan(agentFields(&a)...)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (b *sqliteBatch) UpsertAgentIfAbsent(ctx context.Context, a *models.Agent) (bool, error) {
	result, err := b.tx.ExecContext(ctx, `
		INSERT INTO agents (name, phone, phone_operator, company_name, specialization,
			years_experience, description, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(phone) DO NOTHING`,
		a.Name, a.Phone, a.PhoneOperator, a.CompanyName, a.Specialization,
		a.YearsExperience, a.Description, a.IsActive, a.CreatedAt)
	if err != nil {
		return false, err
	}
	if n, _ := result.RowsAffected(); n == 0 {
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
	a.ID, err = result.LastInsertId()
	return err == nil, err
}

func (b *sqliteBatch) InsertMessage(ctx context.Context, m *models.Message) error {
	result, err := b.tx.ExecContext(ctx, `
		INSERT INTO messages (agent_id, property_id, sender_name, message_text, message_date,
			extracted_price, extracted_area_size, extracted_location, keywords, is_processed,
			confidence_score, dedup_key, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(dedup_key) DO NOTHING`,
		m.AgentID, m.PropertyID, m.SenderName, m.MessageText, m.MessageDate,
		m.ExtractedPrice, m.ExtractedAreaSize, m.ExtractedLocation, m.Keywords, m.IsProcessed,
		m.ConfidenceScore, m.DedupKey, m.CreatedAt)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrDuplicate
	}
	m.ID, err = result.LastInsertId()
	return err
}

func (b *sqliteBatch) InsertProperty(ctx context.Context, p *models.Property) error {
	result, err := b.tx.ExecContext(ctx, `
		INSERT INTO properties (agent_id, property_type_id, area_id, title, description, price_text,
			currency, transaction_type, area_size, rooms, has_elevator, has_garage, has_garden,
			has_pool, is_main_street, is_available, is_featured, views_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.AgentID, p.PropertyTypeID, p.AreaID, p.Title, p.Description, p.PriceText,
		p.Currency, p.TransactionType, p.AreaSize, p.Rooms, p.HasElevator, p.HasGarage, p.HasGarden,
		p.HasPool, p.IsMainStreet, p.IsAvailable, p.IsFeatured, p.ViewsCount, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return err
	}
	p.ID, err = result.LastInsertId()
	return err
}

func (b *sqliteBatch) SetMessageProperty(ctx context.Context, messageID, propertyID int64) error {
	result, err := b.tx.ExecContext(ctx,
		`UPDATE messages SET property_id = ? WHERE id = ?`, propertyID, messageID)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("message %d: %w", messageID, ErrNotFound)
	}
	return nil
}
