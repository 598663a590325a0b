// Package clickhouse persists run reports for later analysis: one row
// per run plus one row per recorded finding.
package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/google/uuid"

	"waterprep/decision/policy"
	"waterprep/internal/results"
)

// Run is the persisted summary of one preprocessing run.
type Run struct {
	ID           uuid.UUID `ch:"id"`
	StartYear    int32     `ch:"start_year"`
	EndYear      int32     `ch:"end_year"`
	TimeExtend   bool      `ch:"time_extend"`
	Outcome      string    `ch:"outcome"`
	DatasetCount uint32    `ch:"dataset_count"`
	CreatedAt    time.Time `ch:"created_at"`
}

// FindingRow is one persisted finding.
type FindingRow struct {
	RunID    uuid.UUID `ch:"run_id"`
	Category string    `ch:"category"`
	Path     string    `ch:"path"`
}

// Config holds ClickHouse connection configuration.
type Config struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	Debug    bool
}

// DefaultConfig returns default development configuration.
func DefaultConfig() *Config {
	return &Config{
		Host:     "localhost",
		Port:     9000,
		Database: "waterprep",
		Username: "default",
		Password: "",
		Debug:    false,
	}
}

// Store writes run reports to ClickHouse.
type Store struct {
	conn clickhouse.Conn
	cfg  *Config
}

// NewStore creates a new ClickHouse report store.
func NewStore(cfg *Config) (*Store, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Debug: cfg.Debug,
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	return &Store{conn: conn, cfg: cfg}, nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.conn.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// SaveRun persists one run summary plus all of its findings. The finding
// rows are batched into a single insert.
func (s *Store) SaveRun(ctx context.Context, run *Run, res *results.Results) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	runQuery := `
		INSERT INTO prep_runs (
			id, start_year, end_year, time_extend, outcome, dataset_count, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	if err := s.conn.Exec(ctx, runQuery,
		run.ID,
		run.StartYear,
		run.EndYear,
		boolToUInt8(run.TimeExtend),
		run.Outcome,
		run.DatasetCount,
		run.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	rows := FindingRows(run.ID, res)
	if len(rows) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO prep_findings (run_id, category, path)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}
	for _, row := range rows {
		if err := batch.Append(row.RunID, row.Category, row.Path); err != nil {
			return fmt.Errorf("failed to append to batch: %w", err)
		}
	}
	return batch.Send()
}

// GetRun retrieves a persisted run summary by ID.
func (s *Store) GetRun(ctx context.Context, id uuid.UUID) (*Run, error) {
	query := `
		SELECT id, start_year, end_year, time_extend, outcome, dataset_count, created_at
		FROM prep_runs
		WHERE id = ?
		LIMIT 1
	`
	row := s.conn.QueryRow(ctx, query, id)

	var run Run
	var timeExtend uint8
	if err := row.Scan(
		&run.ID, &run.StartYear, &run.EndYear, &timeExtend,
		&run.Outcome, &run.DatasetCount, &run.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	run.TimeExtend = timeExtend == 1
	return &run, nil
}

// ListFindings retrieves all findings recorded for a run.
func (s *Store) ListFindings(ctx context.Context, runID uuid.UUID) ([]FindingRow, error) {
	query := `
		SELECT run_id, category, path
		FROM prep_findings
		WHERE run_id = ?
		ORDER BY category, path
	`
	rows, err := s.conn.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list findings: %w", err)
	}
	defer rows.Close()

	var findings []FindingRow
	for rows.Next() {
		var f FindingRow
		if err := rows.Scan(&f.RunID, &f.Category, &f.Path); err != nil {
			return nil, fmt.Errorf("failed to scan finding: %w", err)
		}
		findings = append(findings, f)
	}
	return findings, nil
}

// FindingRows flattens a results store into persistable rows. The
// run-wide spatial flag becomes a single row with an empty path.
func FindingRows(runID uuid.UUID, res *results.Results) []FindingRow {
	var rows []FindingRow
	for _, cat := range results.ListCategories {
		for _, path := range res.Paths(cat) {
			rows = append(rows, FindingRow{RunID: runID, Category: string(cat), Path: path})
		}
	}
	if !res.GridConsistent {
		rows = append(rows, FindingRow{RunID: runID, Category: "lat_lon_consistency"})
	}
	return rows
}

// NewRun builds the persistable summary from a finished evaluation.
func NewRun(startYear, endYear int, timeExtend bool, datasetCount int, outcome policy.Outcome) *Run {
	return &Run{
		ID:           uuid.New(),
		StartYear:    int32(startYear),
		EndYear:      int32(endYear),
		TimeExtend:   timeExtend,
		Outcome:      string(outcome),
		DatasetCount: uint32(datasetCount),
		CreatedAt:    time.Now(),
	}
}

func boolToUInt8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
