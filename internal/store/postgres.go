package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/bidwell-group/tender-cli/internal/db"
	"github.com/bidwell-group/tender-cli/internal/model"
	"github.com/bidwell-group/tender-cli/internal/normalize"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// uniqueViolation is the PostgreSQL error code raised when an insert
// collides with a primary key or unique constraint.
const uniqueViolation = "23505"

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"get_itt_item":       `SELECT id, project_id, section_id, item_code, description, unit, qty, rate, amount, section_code_hint, section_name_hint FROM itt_items WHERE id = $1 AND project_id = $2`,
	"get_response_item":  `SELECT id, project_id, contractor_id, item_code, description, unit, qty, rate, amount, amount_label FROM response_items WHERE id = $1 AND project_id = $2`,
	"get_match":          `SELECT id, project_id, itt_item_id, contractor_id, response_item_id, status, confidence, comment, created_at, updated_at FROM matches WHERE id = $1 AND project_id = $2`,
	"list_matches":       `SELECT id, project_id, itt_item_id, contractor_id, response_item_id, status, confidence, comment, created_at, updated_at FROM matches WHERE project_id = $1 ORDER BY created_at, id`,
	"insert_match":       `INSERT INTO matches (id, project_id, itt_item_id, contractor_id, response_item_id, status, confidence, comment, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
	"settle_match":       `UPDATE matches SET status = $1, comment = COALESCE(NULLIF($2, ''), comment), updated_at = $3 WHERE id = $4 AND project_id = $5 AND status = 'suggested'`,
	"get_contractor_key": `SELECT id, project_id, name, contact FROM contractors WHERE project_id = $1 AND name_key = $2`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// Pool returns the underlying database pool for subsystems that need
// direct query access.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS projects (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	client_name TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS sections (
	id          TEXT PRIMARY KEY,
	project_id  TEXT NOT NULL REFERENCES projects(id),
	section_key TEXT NOT NULL,
	code        TEXT NOT NULL DEFAULT '',
	name        TEXT NOT NULL,
	sort_order  INTEGER NOT NULL DEFAULT 0,
	UNIQUE (project_id, section_key)
);

CREATE TABLE IF NOT EXISTS itt_items (
	id                TEXT PRIMARY KEY,
	project_id        TEXT NOT NULL REFERENCES projects(id),
	section_id        TEXT NOT NULL DEFAULT '',
	item_code         TEXT NOT NULL DEFAULT '',
	description       TEXT NOT NULL,
	unit              TEXT NOT NULL DEFAULT '',
	qty               DOUBLE PRECISION NOT NULL DEFAULT 0,
	rate              DOUBLE PRECISION NOT NULL DEFAULT 0,
	amount            DOUBLE PRECISION NOT NULL DEFAULT 0,
	section_code_hint TEXT NOT NULL DEFAULT '',
	section_name_hint TEXT NOT NULL DEFAULT '',
	sort_order        INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS response_items (
	id            TEXT PRIMARY KEY,
	project_id    TEXT NOT NULL REFERENCES projects(id),
	contractor_id TEXT NOT NULL,
	item_code     TEXT NOT NULL DEFAULT '',
	description   TEXT NOT NULL,
	unit          TEXT NOT NULL DEFAULT '',
	qty           DOUBLE PRECISION,
	rate          DOUBLE PRECISION,
	amount        DOUBLE PRECISION,
	amount_label  TEXT NOT NULL DEFAULT '',
	sort_order    INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS contractors (
	id         TEXT PRIMARY KEY,
	project_id TEXT NOT NULL REFERENCES projects(id),
	name       TEXT NOT NULL,
	name_key   TEXT NOT NULL,
	contact    TEXT NOT NULL DEFAULT '',
	UNIQUE (project_id, name_key)
);

CREATE TABLE IF NOT EXISTS matches (
	id               TEXT PRIMARY KEY,
	project_id       TEXT NOT NULL REFERENCES projects(id),
	itt_item_id      TEXT NOT NULL,
	contractor_id    TEXT NOT NULL,
	response_item_id TEXT NOT NULL,
	status           TEXT NOT NULL DEFAULT 'suggested',
	confidence       DOUBLE PRECISION NOT NULL DEFAULT 0,
	comment          TEXT NOT NULL DEFAULT '',
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS exceptions (
	id               TEXT PRIMARY KEY,
	project_id       TEXT NOT NULL REFERENCES projects(id),
	response_item_id TEXT NOT NULL,
	contractor_id    TEXT NOT NULL,
	description      TEXT NOT NULL,
	section_id       TEXT NOT NULL DEFAULT '',
	amount           DOUBLE PRECISION,
	amount_label     TEXT NOT NULL DEFAULT '',
	note             TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_sections_project ON sections(project_id);
CREATE INDEX IF NOT EXISTS idx_itt_items_project ON itt_items(project_id);
CREATE INDEX IF NOT EXISTS idx_response_items_project ON response_items(project_id);
CREATE INDEX IF NOT EXISTS idx_response_items_contractor ON response_items(project_id, contractor_id);
CREATE INDEX IF NOT EXISTS idx_contractors_project ON contractors(project_id);
CREATE INDEX IF NOT EXISTS idx_matches_project ON matches(project_id);
CREATE INDEX IF NOT EXISTS idx_matches_project_status ON matches(project_id, status);
CREATE INDEX IF NOT EXISTS idx_exceptions_project ON exceptions(project_id);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateProject(ctx context.Context, name, clientName string) (*model.Project, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO projects (id, name, client_name, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		id, name, clientName, now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert project")
	}

	return &model.Project{
		ID:         id,
		Name:       name,
		ClientName: clientName,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

func (s *PostgresStore) GetProject(ctx context.Context, projectID string) (*model.Project, error) {
	var p model.Project
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, client_name, created_at, updated_at FROM projects WHERE id = $1`,
		projectID,
	).Scan(&p.ID, &p.Name, &p.ClientName, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get project %s", projectID)
	}
	return &p, nil
}

func (s *PostgresStore) ListProjects(ctx context.Context) ([]model.Project, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, client_name, created_at, updated_at FROM projects ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list projects")
	}
	defer rows.Close()

	var projects []model.Project
	for rows.Next() {
		var p model.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.ClientName, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan project")
		}
		projects = append(projects, p)
	}
	return projects, eris.Wrap(rows.Err(), "postgres: list projects iterate")
}

func (s *PostgresStore) UpsertSections(ctx context.Context, sections []model.Section) error {
	if len(sections) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(sections))
	for _, sec := range sections {
		rows = append(rows, []any{
			sec.ID, sec.ProjectID, normalize.SectionKey(sec.Code, sec.Name),
			sec.Code, sec.Name, sec.SortOrder,
		})
	}

	// Keep the stored id stable on re-ingest so item references survive.
	_, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "sections",
		Columns:      []string{"id", "project_id", "section_key", "code", "name", "sort_order"},
		ConflictKeys: []string{"project_id", "section_key"},
		UpdateCols:   []string{"code", "name", "sort_order"},
	}, rows)
	return eris.Wrap(err, "postgres: upsert sections")
}

func (s *PostgresStore) ListSections(ctx context.Context, projectID string) ([]model.Section, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, project_id, code, name, sort_order FROM sections WHERE project_id = $1 ORDER BY sort_order, id`,
		projectID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list sections")
	}
	defer rows.Close()

	var sections []model.Section
	for rows.Next() {
		var sec model.Section
		if err := rows.Scan(&sec.ID, &sec.ProjectID, &sec.Code, &sec.Name, &sec.SortOrder); err != nil {
			return nil, eris.Wrap(err, "postgres: scan section")
		}
		sections = append(sections, sec)
	}
	return sections, eris.Wrap(rows.Err(), "postgres: list sections iterate")
}

func (s *PostgresStore) ReplaceITTItems(ctx context.Context, projectID string, items []model.ITTItem) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: replace itt items begin")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM itt_items WHERE project_id = $1`, projectID); err != nil {
		return eris.Wrap(err, "postgres: clear itt items")
	}

	if len(items) > 0 {
		rows := make([][]any, 0, len(items))
		for i, it := range items {
			rows = append(rows, []any{
				it.ID, it.ProjectID, it.SectionID, it.ItemCode, it.Description, it.Unit,
				it.Qty, it.Rate, it.Amount, it.SectionCodeHint, it.SectionNameHint, i,
			})
		}
		if _, err := tx.CopyFrom(ctx,
			pgx.Identifier{"itt_items"},
			[]string{"id", "project_id", "section_id", "item_code", "description", "unit", "qty", "rate", "amount", "section_code_hint", "section_name_hint", "sort_order"},
			pgx.CopyFromRows(rows),
		); err != nil {
			return eris.Wrap(err, "postgres: copy itt items")
		}
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: replace itt items commit")
}

func (s *PostgresStore) ListITTItems(ctx context.Context, projectID string) ([]model.ITTItem, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, project_id, section_id, item_code, description, unit, qty, rate, amount, section_code_hint, section_name_hint
		 FROM itt_items WHERE project_id = $1 ORDER BY sort_order, id`,
		projectID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list itt items")
	}
	defer rows.Close()

	var items []model.ITTItem
	for rows.Next() {
		var it model.ITTItem
		if err := rows.Scan(&it.ID, &it.ProjectID, &it.SectionID, &it.ItemCode, &it.Description, &it.Unit,
			&it.Qty, &it.Rate, &it.Amount, &it.SectionCodeHint, &it.SectionNameHint); err != nil {
			return nil, eris.Wrap(err, "postgres: scan itt item")
		}
		items = append(items, it)
	}
	return items, eris.Wrap(rows.Err(), "postgres: list itt items iterate")
}

func (s *PostgresStore) GetITTItem(ctx context.Context, projectID, itemID string) (*model.ITTItem, error) {
	var it model.ITTItem
	err := s.pool.QueryRow(ctx,
		`SELECT id, project_id, section_id, item_code, description, unit, qty, rate, amount, section_code_hint, section_name_hint
		 FROM itt_items WHERE id = $1 AND project_id = $2`,
		itemID, projectID,
	).Scan(&it.ID, &it.ProjectID, &it.SectionID, &it.ItemCode, &it.Description, &it.Unit,
		&it.Qty, &it.Rate, &it.Amount, &it.SectionCodeHint, &it.SectionNameHint)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get itt item %s", itemID)
	}
	return &it, nil
}

func (s *PostgresStore) InsertResponseItems(ctx context.Context, items []model.ResponseItem) error {
	if len(items) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(items))
	for i, it := range items {
		rows = append(rows, []any{
			it.ID, it.ProjectID, it.ContractorID, it.ItemCode, it.Description, it.Unit,
			it.Qty, it.Rate, it.Amount, it.AmountLabel, i,
		})
	}

	_, err := db.CopyFrom(ctx, s.pool, "response_items",
		[]string{"id", "project_id", "contractor_id", "item_code", "description", "unit", "qty", "rate", "amount", "amount_label", "sort_order"},
		rows,
	)
	return eris.Wrap(err, "postgres: insert response items")
}

func (s *PostgresStore) ListResponseItems(ctx context.Context, projectID string) ([]model.ResponseItem, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, project_id, contractor_id, item_code, description, unit, qty, rate, amount, amount_label
		 FROM response_items WHERE project_id = $1 ORDER BY sort_order, id`,
		projectID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list response items")
	}
	defer rows.Close()

	var items []model.ResponseItem
	for rows.Next() {
		var it model.ResponseItem
		if err := rows.Scan(&it.ID, &it.ProjectID, &it.ContractorID, &it.ItemCode, &it.Description, &it.Unit,
			&it.Qty, &it.Rate, &it.Amount, &it.AmountLabel); err != nil {
			return nil, eris.Wrap(err, "postgres: scan response item")
		}
		items = append(items, it)
	}
	return items, eris.Wrap(rows.Err(), "postgres: list response items iterate")
}

func (s *PostgresStore) GetResponseItem(ctx context.Context, projectID, itemID string) (*model.ResponseItem, error) {
	var it model.ResponseItem
	err := s.pool.QueryRow(ctx,
		`SELECT id, project_id, contractor_id, item_code, description, unit, qty, rate, amount, amount_label
		 FROM response_items WHERE id = $1 AND project_id = $2`,
		itemID, projectID,
	).Scan(&it.ID, &it.ProjectID, &it.ContractorID, &it.ItemCode, &it.Description, &it.Unit,
		&it.Qty, &it.Rate, &it.Amount, &it.AmountLabel)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get response item %s", itemID)
	}
	return &it, nil
}

func (s *PostgresStore) InsertContractor(ctx context.Context, c model.Contractor) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO contractors (id, project_id, name, name_key, contact) VALUES ($1, $2, $3, $4, $5)`,
		c.ID, c.ProjectID, c.Name, normalize.Key(c.Name), c.Contact,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return eris.Wrapf(model.ErrConflict, "postgres: contractor %q already exists", c.Name)
		}
		return eris.Wrap(err, "postgres: insert contractor")
	}
	return nil
}

func (s *PostgresStore) GetContractorByKey(ctx context.Context, projectID, nameKey string) (*model.Contractor, error) {
	var c model.Contractor
	err := s.pool.QueryRow(ctx,
		`SELECT id, project_id, name, contact FROM contractors WHERE project_id = $1 AND name_key = $2`,
		projectID, nameKey,
	).Scan(&c.ID, &c.ProjectID, &c.Name, &c.Contact)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: get contractor by key")
	}
	return &c, nil
}

func (s *PostgresStore) ListContractors(ctx context.Context, projectID string) ([]model.Contractor, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, project_id, name, contact FROM contractors WHERE project_id = $1 ORDER BY name, id`,
		projectID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list contractors")
	}
	defer rows.Close()

	var contractors []model.Contractor
	for rows.Next() {
		var c model.Contractor
		if err := rows.Scan(&c.ID, &c.ProjectID, &c.Name, &c.Contact); err != nil {
			return nil, eris.Wrap(err, "postgres: scan contractor")
		}
		contractors = append(contractors, c)
	}
	return contractors, eris.Wrap(rows.Err(), "postgres: list contractors iterate")
}

func (s *PostgresStore) InsertMatch(ctx context.Context, m model.Match) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO matches (id, project_id, itt_item_id, contractor_id, response_item_id, status, confidence, comment, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		m.ID, m.ProjectID, m.ITTItemID, m.ContractorID, m.ResponseItemID,
		string(m.Status), m.Confidence, m.Comment, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return eris.Wrapf(model.ErrConflict, "postgres: match %s already exists", m.ID)
		}
		return eris.Wrapf(err, "postgres: insert match %s", m.ID)
	}
	return nil
}

func (s *PostgresStore) InsertSuggestions(ctx context.Context, matches []model.Match) (int, error) {
	if len(matches) == 0 {
		return 0, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: insert suggestions begin")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	inserted := 0
	for _, m := range matches {
		tag, err := tx.Exec(ctx,
			`INSERT INTO matches (id, project_id, itt_item_id, contractor_id, response_item_id, status, confidence, comment, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			 ON CONFLICT (id) DO NOTHING`,
			m.ID, m.ProjectID, m.ITTItemID, m.ContractorID, m.ResponseItemID,
			string(m.Status), m.Confidence, m.Comment, m.CreatedAt, m.UpdatedAt,
		)
		if err != nil {
			return 0, eris.Wrapf(err, "postgres: insert suggestion %s", m.ID)
		}
		inserted += int(tag.RowsAffected())
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "postgres: insert suggestions commit")
	}
	return inserted, nil
}

func (s *PostgresStore) SettleMatch(ctx context.Context, projectID, matchID string, status model.MatchStatus, comment string) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE matches SET status = $1, comment = COALESCE(NULLIF($2, ''), comment), updated_at = $3
		 WHERE id = $4 AND project_id = $5 AND status = 'suggested'`,
		string(status), comment, time.Now().UTC(), matchID, projectID,
	)
	if err != nil {
		return false, eris.Wrapf(err, "postgres: settle match %s", matchID)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) GetMatch(ctx context.Context, projectID, matchID string) (*model.Match, error) {
	var m model.Match
	err := s.pool.QueryRow(ctx,
		`SELECT id, project_id, itt_item_id, contractor_id, response_item_id, status, confidence, comment, created_at, updated_at
		 FROM matches WHERE id = $1 AND project_id = $2`,
		matchID, projectID,
	).Scan(&m.ID, &m.ProjectID, &m.ITTItemID, &m.ContractorID, &m.ResponseItemID,
		&m.Status, &m.Confidence, &m.Comment, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get match %s", matchID)
	}
	return &m, nil
}

func (s *PostgresStore) ListMatches(ctx context.Context, projectID string) ([]model.Match, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, project_id, itt_item_id, contractor_id, response_item_id, status, confidence, comment, created_at, updated_at
		 FROM matches WHERE project_id = $1 ORDER BY created_at, id`,
		projectID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list matches")
	}
	defer rows.Close()

	var matches []model.Match
	for rows.Next() {
		var m model.Match
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.ITTItemID, &m.ContractorID, &m.ResponseItemID,
			&m.Status, &m.Confidence, &m.Comment, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan match")
		}
		matches = append(matches, m)
	}
	return matches, eris.Wrap(rows.Err(), "postgres: list matches iterate")
}

func (s *PostgresStore) InsertExceptions(ctx context.Context, exceptions []model.Exception) error {
	if len(exceptions) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: insert exceptions begin")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, ex := range exceptions {
		if _, err := tx.Exec(ctx,
			`INSERT INTO exceptions (id, project_id, response_item_id, contractor_id, description, section_id, amount, amount_label, note)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			ex.ID, ex.ProjectID, ex.ResponseItemID, ex.ContractorID, ex.Description,
			ex.SectionID, ex.Amount, ex.AmountLabel, ex.Note,
		); err != nil {
			if isUniqueViolation(err) {
				return eris.Wrapf(model.ErrConflict, "postgres: exception %s already exists", ex.ID)
			}
			return eris.Wrapf(err, "postgres: insert exception %s", ex.ID)
		}
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: insert exceptions commit")
}

func (s *PostgresStore) AttachExceptionSection(ctx context.Context, projectID, exceptionID, sectionID string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE exceptions SET section_id = $1 WHERE id = $2 AND project_id = $3`,
		sectionID, exceptionID, projectID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: attach exception %s", exceptionID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(model.ErrNotFound, "exception not found: %s", exceptionID)
	}
	return nil
}

func (s *PostgresStore) ListExceptions(ctx context.Context, projectID string) ([]model.Exception, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, project_id, response_item_id, contractor_id, description, section_id, amount, amount_label, note
		 FROM exceptions WHERE project_id = $1 ORDER BY id`,
		projectID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list exceptions")
	}
	defer rows.Close()

	var exceptions []model.Exception
	for rows.Next() {
		var ex model.Exception
		if err := rows.Scan(&ex.ID, &ex.ProjectID, &ex.ResponseItemID, &ex.ContractorID, &ex.Description,
			&ex.SectionID, &ex.Amount, &ex.AmountLabel, &ex.Note); err != nil {
			return nil, eris.Wrap(err, "postgres: scan exception")
		}
		exceptions = append(exceptions, ex)
	}
	return exceptions, eris.Wrap(rows.Err(), "postgres: list exceptions iterate")
}

// isUniqueViolation reports whether err is a PostgreSQL unique or
// primary key constraint violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
