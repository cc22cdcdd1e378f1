package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/kasuganosora/knapsackga/pkg/knapsack"
	"github.com/kasuganosora/knapsackga/pkg/reliability"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// dialect encapsulates database-engine-specific behavior.
type dialect interface {
	// DriverName returns the database/sql driver name
	DriverName() string
	// CheckDSN rejects connection strings the driver cannot parse
	CheckDSN(dsn string) error
	// QuoteIdentifier wraps a table/column name in dialect-specific quoting
	QuoteIdentifier(name string) string
}

type sqliteDialect struct{}

func (sqliteDialect) DriverName() string { return "sqlite" }

func (sqliteDialect) CheckDSN(dsn string) error { return nil }

func (sqliteDialect) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

type mysqlDialect struct{}

func (mysqlDialect) DriverName() string { return "mysql" }

func (mysqlDialect) CheckDSN(dsn string) error {
	_, err := mysqldriver.ParseDSN(dsn)
	return err
}

func (mysqlDialect) QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

type postgresDialect struct{}

func (postgresDialect) DriverName() string { return "postgres" }

func (postgresDialect) CheckDSN(dsn string) error { return nil }

func (postgresDialect) QuoteIdentifier(name string) string {
	return pq.QuoteIdentifier(name)
}

func dialectFor(driver string) (dialect, error) {
	switch strings.ToLower(driver) {
	case "sqlite", "sqlite3":
		return sqliteDialect{}, nil
	case "mysql":
		return mysqlDialect{}, nil
	case "postgres", "postgresql":
		return postgresDialect{}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported driver %q", ErrCatalog, driver)
	}
}

// SQLConfig describes where the items live in a relational database.
type SQLConfig struct {
	Driver       string
	DSN          string
	Table        string
	ValueColumn  string
	WeightColumn string
	// OrderColumn fixes item positions; empty keeps the database's row order.
	OrderColumn string
	Capacity    float64
	// Retries is how many times a failed connect or query is repeated.
	Retries int
}

// SQLSource reads one item per row.
type SQLSource struct {
	cfg     SQLConfig
	dialect dialect
	query   string
}

// NewSQLSource 创建 SQL 目录来源; identifiers are validated here, never at query time.
func NewSQLSource(cfg SQLConfig) (*SQLSource, error) {
	d, err := dialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("%w: empty dsn", ErrCatalog)
	}
	if err := d.CheckDSN(cfg.DSN); err != nil {
		return nil, fmt.Errorf("%w: invalid %s dsn: %v", ErrCatalog, d.DriverName(), err)
	}

	cfg.Table = orDefault(cfg.Table, "items")
	cfg.ValueColumn = orDefault(cfg.ValueColumn, "value")
	cfg.WeightColumn = orDefault(cfg.WeightColumn, "weight")
	for _, id := range []string{cfg.Table, cfg.ValueColumn, cfg.WeightColumn, cfg.OrderColumn} {
		if id != "" && !identifierPattern.MatchString(id) {
			return nil, fmt.Errorf("%w: invalid identifier %q", ErrCatalog, id)
		}
	}

	return &SQLSource{cfg: cfg, dialect: d, query: buildSelect(d, cfg)}, nil
}

func buildSelect(d dialect, cfg SQLConfig) string {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(d.QuoteIdentifier(cfg.ValueColumn))
	sb.WriteString(", ")
	sb.WriteString(d.QuoteIdentifier(cfg.WeightColumn))
	sb.WriteString(" FROM ")
	sb.WriteString(d.QuoteIdentifier(cfg.Table))
	if cfg.OrderColumn != "" {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(d.QuoteIdentifier(cfg.OrderColumn))
		sb.WriteString(" ASC")
	}
	return sb.String()
}

func (s *SQLSource) Name() string { return s.dialect.DriverName() + ":" + s.cfg.Table }

// Query returns the statement Load runs.
func (s *SQLSource) Query() string { return s.query }

func (s *SQLSource) Load(ctx context.Context) (*knapsack.Problem, error) {
	policy := reliability.DefaultRetryPolicy()
	policy.MaxRetries = s.cfg.Retries

	var items []knapsack.Item
	err := reliability.Retry(ctx, policy, func(ctx context.Context) error {
		var err error
		items, err = s.fetch(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	return knapsack.NewProblem(items, capacityOr(s.cfg.Capacity))
}

func (s *SQLSource) fetch(ctx context.Context) ([]knapsack.Item, error) {
	db, err := sql.Open(s.dialect.DriverName(), s.cfg.DSN)
	if err != nil {
		return nil, reliability.Permanent(fmt.Errorf("%w: open: %v", ErrCatalog, err))
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, s.query)
	if err != nil {
		return nil, fmt.Errorf("%w: query %s: %v", ErrCatalog, s.cfg.Table, err)
	}
	defer rows.Close()

	var items []knapsack.Item
	for rows.Next() {
		var it knapsack.Item
		if err := rows.Scan(&it.Value, &it.Weight); err != nil {
			return nil, reliability.Permanent(fmt.Errorf("%w: scan row %d: %v", ErrCatalog, len(items)+1, err))
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalog, err)
	}
	return items, nil
}
