package sink

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/piyushdan-dataslush/bms-analytics/internal/models"
	"github.com/piyushdan-dataslush/bms-analytics/pkg/clock"
	"github.com/piyushdan-dataslush/bms-analytics/pkg/logger"
	"github.com/spf13/afero"
)

// Sink accepts finalized show records.
type Sink interface {
	Stream(ctx context.Context, show *models.ShowRecord) error
	LoadFile(ctx context.Context, path string) (int64, error)
}

// DB is the subset of *pgxpool.Pool the sink needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

const createTableSQL = `CREATE TABLE IF NOT EXISTS %[1]s (
	event_id       TEXT        NOT NULL,
	venue_code     TEXT        NOT NULL,
	venue_name     TEXT,
	session_id     TEXT        NOT NULL,
	show_date      TEXT        NOT NULL,
	show_time      TEXT,
	show_date_time TIMESTAMPTZ,
	trigger_time   TIMESTAMPTZ,
	ticket_link    TEXT,
	status         TEXT        NOT NULL,
	total_seats    INTEGER     NOT NULL,
	filled_sold    INTEGER     NOT NULL,
	available      INTEGER     NOT NULL,
	bestseller     INTEGER     NOT NULL,
	total_unsold   INTEGER     NOT NULL,
	title          TEXT,
	city           TEXT,
	processed_at   TIMESTAMPTZ NOT NULL
) PARTITION BY RANGE (processed_at)`

const createDefaultPartitionSQL = `CREATE TABLE IF NOT EXISTS %s PARTITION OF %s DEFAULT`

type PostgresSink struct {
	db    DB
	fs    afero.Fs
	clock clock.Clock
	l     logger.Logger

	mu     sync.Mutex
	tables map[string]struct{}
}

func NewPostgresSink(db DB, fs afero.Fs, c clock.Clock, l logger.Logger) *PostgresSink {
	return &PostgresSink{
		db:     db,
		fs:     fs,
		clock:  c,
		l:      l,
		tables: make(map[string]struct{}),
	}
}

// EnsureTable provisions the partitioned table for title once per process
// and returns its name.
func (s *PostgresSink) EnsureTable(ctx context.Context, title string) (string, error) {
	name := TableName(title)

	s.mu.Lock()
	_, ok := s.tables[name]
	s.mu.Unlock()
	if ok {
		return name, nil
	}

	table := pgx.Identifier{name}.Sanitize()
	if _, err := s.db.Exec(ctx, fmt.Sprintf(createTableSQL, table)); err != nil {
		return "", fmt.Errorf("create table %s: %w", name, err)
	}

	partition := pgx.Identifier{name + "_default"}.Sanitize()
	if _, err := s.db.Exec(ctx, fmt.Sprintf(createDefaultPartitionSQL, partition, table)); err != nil {
		return "", fmt.Errorf("create default partition of %s: %w", name, err)
	}

	s.mu.Lock()
	s.tables[name] = struct{}{}
	s.mu.Unlock()

	s.l.Infof(ctx, "sink.PostgresSink.EnsureTable: provisioned %s", name)
	return name, nil
}

func (s *PostgresSink) Stream(ctx context.Context, show *models.ShowRecord) error {
	name, err := s.EnsureTable(ctx, show.Title)
	if err != nil {
		return err
	}

	placeholders := make([]string, len(Columns))
	for i := range Columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		pgx.Identifier{name}.Sanitize(), strings.Join(Columns, ", "), strings.Join(placeholders, ", "))

	if _, err := s.db.Exec(ctx, sql, row(show, s.clock.Now())...); err != nil {
		return fmt.Errorf("insert into %s: %w", name, err)
	}
	return nil
}

// LoadFile bulk loads a CSV spool file written by WriteCSV, one COPY per
// distinct title. The file is left in place.
func (s *PostgresSink) LoadFile(ctx context.Context, path string) (int64, error) {
	f, err := s.fs.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open spool file: %w", err)
	}
	defer f.Close()

	rows, err := ReadCSV(f)
	if err != nil {
		return 0, err
	}

	byTitle := make(map[string][][]any)
	var titles []string
	for _, r := range rows {
		title, _ := r[colTitle].(string)
		if _, ok := byTitle[title]; !ok {
			titles = append(titles, title)
		}
		byTitle[title] = append(byTitle[title], r)
	}

	var total int64
	for _, title := range titles {
		name, err := s.EnsureTable(ctx, title)
		if err != nil {
			return total, err
		}

		start := time.Now()
		n, err := s.db.CopyFrom(ctx, pgx.Identifier{name}, Columns, pgx.CopyFromRows(byTitle[title]))
		if err != nil {
			return total, fmt.Errorf("copy into %s: %w", name, err)
		}
		total += n
		s.l.Infof(ctx, "sink.PostgresSink.LoadFile: %d rows into %s in %s", n, name, time.Since(start))
	}

	return total, nil
}
