package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"modernc.org/sqlite"

	"github.com/bidwell-group/tender-cli/internal/model"
	"github.com/bidwell-group/tender-cli/internal/normalize"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS projects (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	client_name TEXT NOT NULL DEFAULT '',
	created_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at  DATETIME NOT NULL DEFAULT (datetime('now'))
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
	qty               REAL NOT NULL DEFAULT 0,
	rate              REAL NOT NULL DEFAULT 0,
	amount            REAL NOT NULL DEFAULT 0,
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
	qty           REAL,
	rate          REAL,
	amount        REAL,
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
	confidence       REAL NOT NULL DEFAULT 0,
	comment          TEXT NOT NULL DEFAULT '',
	created_at       DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at       DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS exceptions (
	id               TEXT PRIMARY KEY,
	project_id       TEXT NOT NULL REFERENCES projects(id),
	response_item_id TEXT NOT NULL,
	contractor_id    TEXT NOT NULL,
	description      TEXT NOT NULL,
	section_id       TEXT NOT NULL DEFAULT '',
	amount           REAL,
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

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateProject(ctx context.Context, name, clientName string) (*model.Project, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (id, name, client_name, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, name, clientName, now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert project")
	}

	return &model.Project{
		ID:         id,
		Name:       name,
		ClientName: clientName,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

func (s *SQLiteStore) GetProject(ctx context.Context, projectID string) (*model.Project, error) {
	var p model.Project
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, client_name, created_at, updated_at FROM projects WHERE id = ?`,
		projectID,
	).Scan(&p.ID, &p.Name, &p.ClientName, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get project %s", projectID)
	}
	return &p, nil
}

func (s *SQLiteStore) ListProjects(ctx context.Context) ([]model.Project, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, client_name, created_at, updated_at FROM projects ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list projects")
	}
	defer rows.Close()

	var projects []model.Project
	for rows.Next() {
		var p model.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.ClientName, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan project")
		}
		projects = append(projects, p)
	}
	return projects, eris.Wrap(rows.Err(), "sqlite: list projects iterate")
}

func (s *SQLiteStore) UpsertSections(ctx context.Context, sections []model.Section) error {
	if len(sections) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: upsert sections begin")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO sections (id, project_id, section_key, code, name, sort_order)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (project_id, section_key) DO UPDATE SET
			code = excluded.code,
			name = excluded.name,
			sort_order = excluded.sort_order`,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare upsert section")
	}
	defer stmt.Close()

	for _, sec := range sections {
		if _, err := stmt.ExecContext(ctx,
			sec.ID, sec.ProjectID, normalize.SectionKey(sec.Code, sec.Name),
			sec.Code, sec.Name, sec.SortOrder,
		); err != nil {
			return eris.Wrapf(err, "sqlite: upsert section %s", sec.ID)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: upsert sections commit")
}

func (s *SQLiteStore) ListSections(ctx context.Context, projectID string) ([]model.Section, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project_id, code, name, sort_order FROM sections WHERE project_id = ? ORDER BY sort_order, id`,
		projectID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list sections")
	}
	defer rows.Close()

	var sections []model.Section
	for rows.Next() {
		var sec model.Section
		if err := rows.Scan(&sec.ID, &sec.ProjectID, &sec.Code, &sec.Name, &sec.SortOrder); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan section")
		}
		sections = append(sections, sec)
	}
	return sections, eris.Wrap(rows.Err(), "sqlite: list sections iterate")
}

func (s *SQLiteStore) ReplaceITTItems(ctx context.Context, projectID string, items []model.ITTItem) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: replace itt items begin")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM itt_items WHERE project_id = ?`, projectID); err != nil {
		return eris.Wrap(err, "sqlite: clear itt items")
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO itt_items (id, project_id, section_id, item_code, description, unit, qty, rate, amount, section_code_hint, section_name_hint, sort_order)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare insert itt item")
	}
	defer stmt.Close()

	for i, it := range items {
		if _, err := stmt.ExecContext(ctx,
			it.ID, it.ProjectID, it.SectionID, it.ItemCode, it.Description, it.Unit,
			it.Qty, it.Rate, it.Amount, it.SectionCodeHint, it.SectionNameHint, i,
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert itt item %s", it.ID)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: replace itt items commit")
}

func (s *SQLiteStore) ListITTItems(ctx context.Context, projectID string) ([]model.ITTItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project_id, section_id, item_code, description, unit, qty, rate, amount, section_code_hint, section_name_hint
		 FROM itt_items WHERE project_id = ? ORDER BY sort_order, id`,
		projectID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list itt items")
	}
	defer rows.Close()

	var items []model.ITTItem
	for rows.Next() {
		it, err := scanITTItem(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan itt item")
		}
		items = append(items, *it)
	}
	return items, eris.Wrap(rows.Err(), "sqlite: list itt items iterate")
}

func (s *SQLiteStore) GetITTItem(ctx context.Context, projectID, itemID string) (*model.ITTItem, error) {
	it, err := scanITTItem(s.db.QueryRowContext(ctx,
		`SELECT id, project_id, section_id, item_code, description, unit, qty, rate, amount, section_code_hint, section_name_hint
		 FROM itt_items WHERE id = ? AND project_id = ?`,
		itemID, projectID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get itt item %s", itemID)
	}
	return it, nil
}

func (s *SQLiteStore) InsertResponseItems(ctx context.Context, items []model.ResponseItem) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: insert response items begin")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO response_items (id, project_id, contractor_id, item_code, description, unit, qty, rate, amount, amount_label, sort_order)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare insert response item")
	}
	defer stmt.Close()

	for i, it := range items {
		if _, err := stmt.ExecContext(ctx,
			it.ID, it.ProjectID, it.ContractorID, it.ItemCode, it.Description, it.Unit,
			it.Qty, it.Rate, it.Amount, it.AmountLabel, i,
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert response item %s", it.ID)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: insert response items commit")
}

func (s *SQLiteStore) ListResponseItems(ctx context.Context, projectID string) ([]model.ResponseItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project_id, contractor_id, item_code, description, unit, qty, rate, amount, amount_label
		 FROM response_items WHERE project_id = ? ORDER BY sort_order, id`,
		projectID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list response items")
	}
	defer rows.Close()

	var items []model.ResponseItem
	for rows.Next() {
		it, err := scanResponseItem(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan response item")
		}
		items = append(items, *it)
	}
	return items, eris.Wrap(rows.Err(), "sqlite: list response items iterate")
}

func (s *SQLiteStore) GetResponseItem(ctx context.Context, projectID, itemID string) (*model.ResponseItem, error) {
	it, err := scanResponseItem(s.db.QueryRowContext(ctx,
		`SELECT id, project_id, contractor_id, item_code, description, unit, qty, rate, amount, amount_label
		 FROM response_items WHERE id = ? AND project_id = ?`,
		itemID, projectID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get response item %s", itemID)
	}
	return it, nil
}

func (s *SQLiteStore) InsertContractor(ctx context.Context, c model.Contractor) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO contractors (id, project_id, name, name_key, contact) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.ProjectID, c.Name, normalize.Key(c.Name), c.Contact,
	)
	if err != nil {
		if isConstraintViolation(err) {
			return eris.Wrapf(model.ErrConflict, "sqlite: contractor %q already exists", c.Name)
		}
		return eris.Wrap(err, "sqlite: insert contractor")
	}
	return nil
}

func (s *SQLiteStore) GetContractorByKey(ctx context.Context, projectID, nameKey string) (*model.Contractor, error) {
	var c model.Contractor
	err := s.db.QueryRowContext(ctx,
		`SELECT id, project_id, name, contact FROM contractors WHERE project_id = ? AND name_key = ?`,
		projectID, nameKey,
	).Scan(&c.ID, &c.ProjectID, &c.Name, &c.Contact)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get contractor by key")
	}
	return &c, nil
}

func (s *SQLiteStore) ListContractors(ctx context.Context, projectID string) ([]model.Contractor, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project_id, name, contact FROM contractors WHERE project_id = ? ORDER BY name, id`,
		projectID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list contractors")
	}
	defer rows.Close()

	var contractors []model.Contractor
	for rows.Next() {
		var c model.Contractor
		if err := rows.Scan(&c.ID, &c.ProjectID, &c.Name, &c.Contact); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan contractor")
		}
		contractors = append(contractors, c)
	}
	return contractors, eris.Wrap(rows.Err(), "sqlite: list contractors iterate")
}

func (s *SQLiteStore) InsertMatch(ctx context.Context, m model.Match) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO matches (id, project_id, itt_item_id, contractor_id, response_item_id, status, confidence, comment, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.ProjectID, m.ITTItemID, m.ContractorID, m.ResponseItemID,
		string(m.Status), m.Confidence, m.Comment, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		if isConstraintViolation(err) {
			return eris.Wrapf(model.ErrConflict, "sqlite: match %s already exists", m.ID)
		}
		return eris.Wrapf(err, "sqlite: insert match %s", m.ID)
	}
	return nil
}

func (s *SQLiteStore) InsertSuggestions(ctx context.Context, matches []model.Match) (int, error) {
	if len(matches) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: insert suggestions begin")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO matches (id, project_id, itt_item_id, contractor_id, response_item_id, status, confidence, comment, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare insert suggestion")
	}
	defer stmt.Close()

	inserted := 0
	for _, m := range matches {
		res, err := stmt.ExecContext(ctx,
			m.ID, m.ProjectID, m.ITTItemID, m.ContractorID, m.ResponseItemID,
			string(m.Status), m.Confidence, m.Comment, m.CreatedAt, m.UpdatedAt,
		)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert suggestion %s", m.ID)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, eris.Wrap(err, "sqlite: insert suggestion rows affected")
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: insert suggestions commit")
	}
	return inserted, nil
}

func (s *SQLiteStore) SettleMatch(ctx context.Context, projectID, matchID string, status model.MatchStatus, comment string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE matches SET status = ?, comment = COALESCE(NULLIF(?, ''), comment), updated_at = ?
		 WHERE id = ? AND project_id = ? AND status = 'suggested'`,
		string(status), comment, time.Now().UTC(), matchID, projectID,
	)
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: settle match %s", matchID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, eris.Wrap(err, "sqlite: settle match rows affected")
	}
	return n > 0, nil
}

func (s *SQLiteStore) GetMatch(ctx context.Context, projectID, matchID string) (*model.Match, error) {
	m, err := scanMatch(s.db.QueryRowContext(ctx,
		`SELECT id, project_id, itt_item_id, contractor_id, response_item_id, status, confidence, comment, created_at, updated_at
		 FROM matches WHERE id = ? AND project_id = ?`,
		matchID, projectID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get match %s", matchID)
	}
	return m, nil
}

func (s *SQLiteStore) ListMatches(ctx context.Context, projectID string) ([]model.Match, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project_id, itt_item_id, contractor_id, response_item_id, status, confidence, comment, created_at, updated_at
		 FROM matches WHERE project_id = ? ORDER BY created_at, id`,
		projectID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list matches")
	}
	defer rows.Close()

	var matches []model.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan match")
		}
		matches = append(matches, *m)
	}
	return matches, eris.Wrap(rows.Err(), "sqlite: list matches iterate")
}

func (s *SQLiteStore) InsertExceptions(ctx context.Context, exceptions []model.Exception) error {
	if len(exceptions) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: insert exceptions begin")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO exceptions (id, project_id, response_item_id, contractor_id, description, section_id, amount, amount_label, note)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare insert exception")
	}
	defer stmt.Close()

	for _, ex := range exceptions {
		if _, err := stmt.ExecContext(ctx,
			ex.ID, ex.ProjectID, ex.ResponseItemID, ex.ContractorID, ex.Description,
			ex.SectionID, ex.Amount, ex.AmountLabel, ex.Note,
		); err != nil {
			if isConstraintViolation(err) {
				return eris.Wrapf(model.ErrConflict, "sqlite: exception %s already exists", ex.ID)
			}
			return eris.Wrapf(err, "sqlite: insert exception %s", ex.ID)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: insert exceptions commit")
}

func (s *SQLiteStore) AttachExceptionSection(ctx context.Context, projectID, exceptionID, sectionID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE exceptions SET section_id = ? WHERE id = ? AND project_id = ?`,
		sectionID, exceptionID, projectID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: attach exception %s", exceptionID)
	}
	return checkRowsAffected(res, "exception", exceptionID)
}

func (s *SQLiteStore) ListExceptions(ctx context.Context, projectID string) ([]model.Exception, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project_id, response_item_id, contractor_id, description, section_id, amount, amount_label, note
		 FROM exceptions WHERE project_id = ? ORDER BY id`,
		projectID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list exceptions")
	}
	defer rows.Close()

	var exceptions []model.Exception
	for rows.Next() {
		var ex model.Exception
		if err := rows.Scan(&ex.ID, &ex.ProjectID, &ex.ResponseItemID, &ex.ContractorID, &ex.Description,
			&ex.SectionID, &ex.Amount, &ex.AmountLabel, &ex.Note); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan exception")
		}
		exceptions = append(exceptions, ex)
	}
	return exceptions, eris.Wrap(rows.Err(), "sqlite: list exceptions iterate")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(model.ErrNotFound, "%s not found: %s", entity, id)
	}
	return nil
}

// isConstraintViolation reports whether err is a unique or primary key
// constraint violation from the sqlite driver.
func isConstraintViolation(err error) bool {
	var serr *sqlite.Error
	return errors.As(err, &serr) && serr.Code()&0xff == 19
}

type scannable interface {
	Scan(dest ...any) error
}

func scanITTItem(row scannable) (*model.ITTItem, error) {
	var it model.ITTItem
	err := row.Scan(&it.ID, &it.ProjectID, &it.SectionID, &it.ItemCode, &it.Description, &it.Unit,
		&it.Qty, &it.Rate, &it.Amount, &it.SectionCodeHint, &it.SectionNameHint)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func scanResponseItem(row scannable) (*model.ResponseItem, error) {
	var it model.ResponseItem
	err := row.Scan(&it.ID, &it.ProjectID, &it.ContractorID, &it.ItemCode, &it.Description, &it.Unit,
		&it.Qty, &it.Rate, &it.Amount, &it.AmountLabel)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func scanMatch(row scannable) (*model.Match, error) {
	var m model.Match
	err := row.Scan(&m.ID, &m.ProjectID, &m.ITTItemID, &m.ContractorID, &m.ResponseItemID,
		&m.Status, &m.Confidence, &m.Comment, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
