package output

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/zalepa/educenso/parser"
	"github.com/zalepa/educenso/series"
)

const schema = `
CREATE TABLE IF NOT EXISTS motivos (
	ano          INTEGER NOT NULL,
	motivo       TEXT    NOT NULL,
	sexo         TEXT    NOT NULL,
	faixa_etaria TEXT    NOT NULL,
	percentual   REAL    NOT NULL
);
CREATE INDEX IF NOT EXISTS motivos_ano ON motivos(ano, motivo);

CREATE TABLE IF NOT EXISTS rendimento (
	ano             INTEGER NOT NULL,
	regiao          TEXT    NOT NULL,
	uf              TEXT    NOT NULL,
	dependencia     TEXT    NOT NULL,
	nivel           TEXT    NOT NULL,
	taxa_aprovacao  REAL    NOT NULL,
	taxa_reprovacao REAL    NOT NULL,
	taxa_abandono   REAL    NOT NULL
);

CREATE TABLE IF NOT EXISTS distorcao (
	ano            INTEGER NOT NULL,
	regiao         TEXT    NOT NULL,
	uf             TEXT    NOT NULL,
	dependencia    TEXT    NOT NULL,
	nivel          TEXT    NOT NULL,
	taxa_distorcao REAL    NOT NULL
);

CREATE TABLE IF NOT EXISTS analfabetismo (
	ano                INTEGER NOT NULL,
	regiao             TEXT    NOT NULL,
	uf                 TEXT    NOT NULL,
	taxa_analfabetismo REAL    NOT NULL
);
`

type storeConfig struct {
	busyTimeout int
	synchronous string
}

// StoreOption customises Open.
type StoreOption func(*storeConfig)

// WithBusyTimeout sets PRAGMA busy_timeout in milliseconds. Default: 10000.
func WithBusyTimeout(ms int) StoreOption { return func(c *storeConfig) { c.busyTimeout = ms } }

// WithSynchronous sets PRAGMA synchronous. Default: "NORMAL".
func WithSynchronous(mode string) StoreOption { return func(c *storeConfig) { c.synchronous = mode } }

// Store is a SQLite database holding one table per series. Each Replace
// call swaps a table's whole content, so re-running a batch is idempotent.
type Store struct {
	db *sql.DB
}

// OpenStore opens or creates the database at path and applies the schema.
func OpenStore(path string, opts ...StoreOption) (*Store, error) {
	cfg := storeConfig{busyTimeout: 10_000, synchronous: "NORMAL"}
	for _, o := range opts {
		o(&cfg)
	}

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("store: mkdir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.busyTimeout),
		fmt.Sprintf("PRAGMA synchronous = %s", cfg.synchronous),
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: %s: %w", p, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// ReplaceMotives replaces the motivos table with recs.
func (s *Store) ReplaceMotives(ctx context.Context, recs []parser.Record) error {
	rows := make([][]any, len(recs))
	for i, r := range recs {
		rows[i] = []any{r.Year, r.Category, r.Sex, r.AgeBand, r.Percentage}
	}
	return s.replace(ctx, "motivos", []string{"ano", "motivo", "sexo", "faixa_etaria", "percentual"}, rows)
}

// ReplaceRendimento replaces the rendimento table with recs.
func (s *Store) ReplaceRendimento(ctx context.Context, recs []series.RendimentoRecord) error {
	rows := make([][]any, len(recs))
	for i, r := range recs {
		rows[i] = []any{r.Year, r.Region, r.UF, r.Dependency, r.Level, r.Approval, r.Failure, r.Dropout}
	}
	return s.replace(ctx, "rendimento",
		[]string{"ano", "regiao", "uf", "dependencia", "nivel", "taxa_aprovacao", "taxa_reprovacao", "taxa_abandono"}, rows)
}

// ReplaceDistorcao replaces the distorcao table with recs.
func (s *Store) ReplaceDistorcao(ctx context.Context, recs []series.DistorcaoRecord) error {
	rows := make([][]any, len(recs))
	for i, r := range recs {
		rows[i] = []any{r.Year, r.Region, r.UF, r.Dependency, r.Level, r.Distortion}
	}
	return s.replace(ctx, "distorcao", []string{"ano", "regiao", "uf", "dependencia", "nivel", "taxa_distorcao"}, rows)
}

// ReplaceAnalfabetismo replaces the analfabetismo table with recs.
func (s *Store) ReplaceAnalfabetismo(ctx context.Context, recs []series.AnalfabetismoRecord) error {
	rows := make([][]any, len(recs))
	for i, r := range recs {
		rows[i] = []any{r.Year, r.Region, r.UF, r.Rate}
	}
	return s.replace(ctx, "analfabetismo", []string{"ano", "regiao", "uf", "taxa_analfabetismo"}, rows)
}

// Motives returns the stored motive records ordered as they were written.
func (s *Store) Motives(ctx context.Context) ([]parser.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT ano, motivo, sexo, faixa_etaria, percentual FROM motivos ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("store: query motivos: %w", err)
	}
	defer rows.Close()

	var out []parser.Record
	for rows.Next() {
		var r parser.Record
		var pct float64
		if err := rows.Scan(&r.Year, &r.Category, &r.Sex, &r.AgeBand, &pct); err != nil {
			return nil, fmt.Errorf("store: scan motivos: %w", err)
		}
		r.Percentage = parser.FormatPercent(pct)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Count returns the number of rows in table.
func (s *Store) Count(ctx context.Context, table string) (int, error) {
	switch table {
	case "motivos", "rendimento", "distorcao", "analfabetismo":
	default:
		return 0, fmt.Errorf("store: unknown table %q", table)
	}
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n)
	return n, err
}

func (s *Store) replace(ctx context.Context, table string, cols []string, rows [][]any) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin %s: %w", table, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return fmt.Errorf("store: clear %s: %w", table, err)
	}

	marks := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	stmt, err := tx.PrepareContext(ctx,
		fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(cols, ", "), marks))
	if err != nil {
		return fmt.Errorf("store: prepare %s: %w", table, err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return fmt.Errorf("store: insert %s: %w", table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit %s: %w", table, err)
	}
	return nil
}
