package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/bioinsight/backend/internal/matching"
	"github.com/bioinsight/backend/internal/storage/models"
	"github.com/bioinsight/backend/pkg/logger"
)

type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec("PRAGMA foreign_keys = ON")
	if err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	_, err = db.Exec("PRAGMA journal_mode = WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS drugs (
		drug_id TEXT PRIMARY KEY,
		name TEXT,
		company TEXT,
		therapeutic_class TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_drug_name ON drugs(name);

	CREATE TABLE IF NOT EXISTS targets (
		target_id TEXT PRIMARY KEY,
		name TEXT,
		symbol TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_target_symbol ON targets(symbol);

	CREATE TABLE IF NOT EXISTS interactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		target_id TEXT NOT NULL,
		drug_id TEXT NOT NULL,
		drug_name TEXT,
		clinical_phase TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_interactions_drug ON interactions(drug_id);
	CREATE INDEX IF NOT EXISTS idx_interactions_target ON interactions(target_id);

	CREATE TABLE IF NOT EXISTS analyses (
		id TEXT PRIMARY KEY,
		query_text TEXT,
		drug TEXT NOT NULL,
		drug_id TEXT,
		target TEXT NOT NULL,
		target_id TEXT,
		explanation TEXT,
		confidence_score REAL NOT NULL,
		max_phase REAL,
		raw_evidence_count INTEGER,
		source_count INTEGER,
		mechanism TEXT,
		reasoning TEXT,
		latency_ms INTEGER,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_analyses_created ON analyses(created_at);
	CREATE INDEX IF NOT EXISTS idx_analyses_pair ON analyses(drug, target);

	CREATE TABLE IF NOT EXISTS analysis_sources (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		analysis_id TEXT NOT NULL,
		source TEXT NOT NULL,
		FOREIGN KEY (analysis_id) REFERENCES analyses(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_sources_analysis ON analysis_sources(analysis_id);
	`

	_, err := c.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

// CorpusWriter loads TTD records inside one transaction.
type CorpusWriter struct {
	tx *sql.Tx

	upsertDrug     *sql.Stmt
	upsertTarget   *sql.Stmt
	addInteraction *sql.Stmt
	fillDrugName   *sql.Stmt
	addDrug        *sql.Stmt
}

func (c *Client) BeginCorpusLoad(ctx context.Context) (*CorpusWriter, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin corpus load: %w", err)
	}

	w := &CorpusWriter{tx: tx}
	stmts := []struct {
		dst   **sql.Stmt
		query string
	}{
		{&w.upsertDrug, `INSERT OR REPLACE INTO drugs (drug_id, name, company, therapeutic_class) VALUES (?, ?, ?, ?)`},
		{&w.upsertTarget, `INSERT OR REPLACE INTO targets (target_id, name, symbol) VALUES (?, ?, ?)`},
		{&w.addInteraction, `INSERT INTO interactions (target_id, drug_id, drug_name, clinical_phase) VALUES (?, ?, ?, ?)`},
		{&w.fillDrugName, `UPDATE drugs SET name = ? WHERE drug_id = ? AND name IS NULL`},
		{&w.addDrug, `INSERT OR IGNORE INTO drugs (drug_id, name) VALUES (?, ?)`},
	}
	for _, s := range stmts {
		stmt, err := tx.PrepareContext(ctx, s.query)
		if err != nil {
			_ = tx.Rollback()
			return nil, fmt.Errorf("failed to prepare statement: %w", err)
		}
		*s.dst = stmt
	}
	return w, nil
}

func (w *CorpusWriter) UpsertDrug(ctx context.Context, d models.Drug) error {
	_, err := w.upsertDrug.ExecContext(ctx, d.ID, nullable(d.Name), nullable(d.Company), nullable(d.TherapeuticClass))
	if err != nil {
		return fmt.Errorf("failed to upsert drug %s: %w", d.ID, err)
	}
	return nil
}

func (w *CorpusWriter) UpsertTarget(ctx context.Context, t models.Target) error {
	_, err := w.upsertTarget.ExecContext(ctx, t.ID, nullable(t.Name), nullable(t.Symbol))
	if err != nil {
		return fmt.Errorf("failed to upsert target %s: %w", t.ID, err)
	}
	return nil
}

// AddInteraction stores the row, fills the drug's name when it has none and
// creates the drug when it is unknown.
func (w *CorpusWriter) AddInteraction(ctx context.Context, in models.Interaction) error {
	if _, err := w.addInteraction.ExecContext(ctx, in.TargetID, in.DrugID, in.DrugName, in.ClinicalPhase); err != nil {
		return fmt.Errorf("failed to insert interaction: %w", err)
	}
	if _, err := w.fillDrugName.ExecContext(ctx, in.DrugName, in.DrugID); err != nil {
		return fmt.Errorf("failed to fill drug name: %w", err)
	}
	if _, err := w.addDrug.ExecContext(ctx, in.DrugID, in.DrugName); err != nil {
		return fmt.Errorf("failed to insert drug from interaction: %w", err)
	}
	return nil
}

func (w *CorpusWriter) Commit() error {
	if err := w.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit corpus load: %w", err)
	}
	return nil
}

func (w *CorpusWriter) Rollback() error {
	return w.tx.Rollback()
}

type CorpusCounts struct {
	Drugs        int `json:"drugs"`
	NamedDrugs   int `json:"named_drugs"`
	Targets      int `json:"targets"`
	Interactions int `json:"interactions"`
}

func (c *Client) CorpusCounts(ctx context.Context) (CorpusCounts, error) {
	var out CorpusCounts
	queries := []struct {
		dst   *int
		query string
	}{
		{&out.Drugs, `SELECT COUNT(*) FROM drugs`},
		{&out.NamedDrugs, `SELECT COUNT(*) FROM drugs WHERE name IS NOT NULL`},
		{&out.Targets, `SELECT COUNT(*) FROM targets`},
		{&out.Interactions, `SELECT COUNT(*) FROM interactions`},
	}
	for _, q := range queries {
		if err := c.db.QueryRowContext(ctx, q.query).Scan(q.dst); err != nil {
			return out, fmt.Errorf("failed to count corpus: %w", err)
		}
	}
	return out, nil
}

// EachDrugBatch streams named drugs ordered by id in batches of at most size.
func (c *Client) EachDrugBatch(ctx context.Context, size int, fn func([]models.Drug) error) error {
	rows, err := c.db.QueryContext(ctx,
		`SELECT drug_id, name, therapeutic_class FROM drugs WHERE name IS NOT NULL ORDER BY drug_id`)
	if err != nil {
		return fmt.Errorf("failed to list drugs: %w", err)
	}
	defer rows.Close()

	batch := make([]models.Drug, 0, size)
	for rows.Next() {
		var d models.Drug
		var class sql.NullString
		if err := rows.Scan(&d.ID, &d.Name, &class); err != nil {
			return fmt.Errorf("failed to scan drug: %w", err)
		}
		d.TherapeuticClass = class.String
		batch = append(batch, d)
		if len(batch) == size {
			if err := fn(batch); err != nil {
				return err
			}
			batch = make([]models.Drug, 0, size)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate drugs: %w", err)
	}
	if len(batch) > 0 {
		return fn(batch)
	}
	return nil
}

// EachTargetBatch streams named targets ordered by id in batches of at most
// size.
func (c *Client) EachTargetBatch(ctx context.Context, size int, fn func([]models.Target) error) error {
	rows, err := c.db.QueryContext(ctx,
		`SELECT target_id, name, symbol FROM targets WHERE name IS NOT NULL ORDER BY target_id`)
	if err != nil {
		return fmt.Errorf("failed to list targets: %w", err)
	}
	defer rows.Close()

	batch := make([]models.Target, 0, size)
	for rows.Next() {
		var t models.Target
		var symbol sql.NullString
		if err := rows.Scan(&t.ID, &t.Name, &symbol); err != nil {
			return fmt.Errorf("failed to scan target: %w", err)
		}
		t.Symbol = symbol.String
		batch = append(batch, t)
		if len(batch) == size {
			if err := fn(batch); err != nil {
				return err
			}
			batch = make([]models.Target, 0, size)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate targets: %w", err)
	}
	if len(batch) > 0 {
		return fn(batch)
	}
	return nil
}

// InteractionsForDrug returns corpus interactions whose drug matches name
// under matching.FuzzyMatchDrug. drugID, when set, also matches by id.
func (c *Client) InteractionsForDrug(ctx context.Context, name, drugID string) ([]models.CorpusInteraction, error) {
	stem := strings.ToLower(strings.TrimSpace(name))
	if i := strings.IndexByte(stem, ' '); i > 0 {
		stem = stem[:i]
	}
	if stem == "" && drugID == "" {
		return []models.CorpusInteraction{}, nil
	}

	query := `
		SELECT i.id, i.target_id, i.drug_id, COALESCE(i.drug_name, ''), COALESCE(i.clinical_phase, ''),
			COALESCE(t.name, ''), COALESCE(t.symbol, '')
		FROM interactions i
		LEFT JOIN targets t ON t.target_id = i.target_id
		WHERE (? != '' AND instr(lower(i.drug_name), ?) > 0) OR (? != '' AND i.drug_id = ?)
		ORDER BY i.id
	`
	rows, err := c.db.QueryContext(ctx, query, stem, stem, drugID, drugID)
	if err != nil {
		return nil, fmt.Errorf("failed to query interactions: %w", err)
	}
	defer rows.Close()

	out := []models.CorpusInteraction{}
	for rows.Next() {
		var ci models.CorpusInteraction
		err := rows.Scan(&ci.ID, &ci.TargetID, &ci.DrugID, &ci.DrugName, &ci.ClinicalPhase,
			&ci.TargetName, &ci.TargetSymbol)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		if matching.FuzzyMatchDrug(name, ci.DrugName, drugID, ci.DrugID) {
			out = append(out, ci)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate interactions: %w", err)
	}
	return out, nil
}

func (c *Client) InsertAnalysis(ctx context.Context, a *models.Analysis) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
		INSERT INTO analyses (id, query_text, drug, drug_id, target, target_id, explanation, confidence_score,
			max_phase, raw_evidence_count, source_count, mechanism, reasoning, latency_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = tx.ExecContext(ctx, query,
		a.ID,
		a.Query,
		a.Drug,
		a.DrugID,
		a.Target,
		a.TargetID,
		a.Explanation,
		a.ConfidenceScore,
		a.MaxPhase,
		a.RawEvidenceCount,
		a.SourceCount,
		a.Mechanism,
		a.Reasoning,
		a.LatencyMS,
		a.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert analysis: %w", err)
	}

	for _, src := range a.Sources {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO analysis_sources (analysis_id, source) VALUES (?, ?)`, a.ID, src); err != nil {
			return fmt.Errorf("failed to insert analysis source: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit analysis: %w", err)
	}

	logger.Info("Analysis recorded",
		zap.String("analysis_id", a.ID),
		zap.String("drug", a.Drug),
		zap.String("target", a.Target),
		zap.Float64("confidence", a.ConfidenceScore),
	)
	return nil
}

// ListAnalyses returns the most recent analyses first.
func (c *Client) ListAnalyses(ctx context.Context, limit int) ([]models.Analysis, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
		SELECT id, COALESCE(query_text, ''), drug, COALESCE(drug_id, ''), target, COALESCE(target_id, ''),
			COALESCE(explanation, ''), confidence_score, COALESCE(max_phase, 0), COALESCE(raw_evidence_count, 0),
			COALESCE(source_count, 0), COALESCE(mechanism, ''), COALESCE(reasoning, ''), COALESCE(latency_ms, 0),
			created_at
		FROM analyses
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`
	rows, err := c.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	defer rows.Close()

	out := []models.Analysis{}
	for rows.Next() {
		var a models.Analysis
		var createdAt int64
		err := rows.Scan(&a.ID, &a.Query, &a.Drug, &a.DrugID, &a.Target, &a.TargetID,
			&a.Explanation, &a.ConfidenceScore, &a.MaxPhase, &a.RawEvidenceCount,
			&a.SourceCount, &a.Mechanism, &a.Reasoning, &a.LatencyMS, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		a.CreatedAt = time.Unix(createdAt, 0)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate analyses: %w", err)
	}

	for i := range out {
		sources, err := c.analysisSources(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Sources = sources
	}
	return out, nil
}

func (c *Client) analysisSources(ctx context.Context, analysisID string) ([]string, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT source FROM analysis_sources WHERE analysis_id = ? ORDER BY id`, analysisID)
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis sources: %w", err)
	}
	defer rows.Close()

	sources := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		sources = append(sources, s)
	}
	return sources, rows.Err()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
