package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"salesboard/internal/core"
	"salesboard/internal/sales"
)

// Dialect selects the SQL engine behind a SQLRepository.
type Dialect string

const (
	DialectSQLite Dialect = "sqlite"
	DialectMySQL  Dialect = "mysql"
)

// insertChunkSize bounds the rows of one multi-row INSERT, keeping the
// statement under the placeholder limits of both engines.
const insertChunkSize = 250

func (d Dialect) driverName() string {
	return string(d)
}

var _ sales.Store = (*SQLRepository)(nil)

// SQLRepository stores sales in a relational database through database/sql.
// Dates are kept as ISO strings (SQLite) or DATE (MySQL); amounts as cents.
type SQLRepository struct {
	db      *sql.DB
	dialect Dialect
}

// NewSQLiteRepository opens (creating if needed) the SQLite file at dbPath.
func NewSQLiteRepository(dbPath string) (*SQLRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	return open(DialectSQLite, dbPath)
}

// NewMySQLRepository connects to MySQL/MariaDB. DATE columns are parsed
// into UTC times regardless of the DSN.
func NewMySQLRepository(dsn string) (*SQLRepository, error) {
	cfg, err := mysqldriver.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	return open(DialectMySQL, cfg.FormatDSN())
}

func open(dialect Dialect, dsn string) (*SQLRepository, error) {
	db, err := sql.Open(dialect.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dialect, dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLRepository{db: db, dialect: dialect}, nil
}

func (r *SQLRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// CreateSale implements sales.Writer
func (r *SQLRepository) CreateSale(ctx context.Context, s core.Sale) (string, error) {
	if err := s.Validate(); err != nil {
		return "", err
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO sales (category, amount_cents, sale_date, description) VALUES (?, ?, ?, ?)`,
		string(s.Category), core.ToCents(s.Amount), s.Date.String(), s.Description)
	if err != nil {
		return "", fmt.Errorf("insert sale: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("last insert id: %w", err)
	}

	slog.InfoContext(ctx, "Sale saved",
		"id", id,
		"dialect", r.dialect,
		"category", s.Category,
		"amount_cents", core.ToCents(s.Amount),
		"date", s.Date.String())

	return strconv.FormatInt(id, 10), nil
}

// InsertSales writes the batch in one transaction using multi-row inserts.
func (r *SQLRepository) InsertSales(ctx context.Context, batch []core.Sale) error {
	if err := sales.ValidateBatch(batch); err != nil {
		return err
	}
	if len(batch) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for start := 0; start < len(batch); start += insertChunkSize {
		end := min(start+insertChunkSize, len(batch))
		query, args := buildInsert(batch[start:end])
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert sales %d-%d: %w", start, end, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit sales: %w", err)
	}

	slog.InfoContext(ctx, "Sales batch saved", "count", len(batch), "dialect", r.dialect)
	return nil
}

func buildInsert(batch []core.Sale) (string, []any) {
	var b strings.Builder
	b.WriteString("INSERT INTO sales (category, amount_cents, sale_date, description) VALUES ")
	args := make([]any, 0, len(batch)*4)
	for i, s := range batch {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(?, ?, ?, ?)")
		args = append(args, string(s.Category), core.ToCents(s.Amount), s.Date.String(), s.Description)
	}
	return b.String(), args
}

func (r *SQLRepository) DeleteAllSales(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sales`)
	if err != nil {
		return 0, fmt.Errorf("delete sales: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	slog.WarnContext(ctx, "All sales deleted", "count", n, "dialect", r.dialect)
	return n, nil
}

// CategoryTotals implements sales.Aggregator
func (r *SQLRepository) CategoryTotals(ctx context.Context) ([]core.CategoryTotal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT category, COALESCE(SUM(amount_cents), 0), COUNT(*)
		FROM sales
		GROUP BY category
		ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("query category totals: %w", err)
	}
	defer rows.Close()

	out := []core.CategoryTotal{}
	for rows.Next() {
		var (
			category string
			cents    int64
			count    int64
		)
		if err := rows.Scan(&category, &cents, &count); err != nil {
			return nil, fmt.Errorf("scan category total: %w", err)
		}
		out = append(out, core.CategoryTotal{
			Category: core.Category(category),
			Total:    core.FromCents(cents),
			Count:    count,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category totals: %w", err)
	}
	return out, nil
}

func (r *SQLRepository) Summary(ctx context.Context) (core.Summary, error) {
	var count, cents int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*), COALESCE(SUM(amount_cents), 0) FROM sales`).Scan(&count, &cents)
	if err != nil {
		return core.Summary{}, fmt.Errorf("query summary: %w", err)
	}
	return core.Summary{Count: count, Revenue: core.FromCents(cents)}, nil
}

// SalesBetween implements sales.Lister
func (r *SQLRepository) SalesBetween(ctx context.Context, from, to core.Date) ([]core.Sale, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, category, amount_cents, sale_date, description
		FROM sales
		WHERE sale_date >= ? AND sale_date <= ?
		ORDER BY sale_date ASC, id ASC`,
		from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("query sales between %s and %s: %w", from, to, err)
	}
	return scanSales(rows)
}

func (r *SQLRepository) RecentSales(ctx context.Context, limit int) ([]core.Sale, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, category, amount_cents, sale_date, description
		FROM sales
		ORDER BY sale_date DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent sales: %w", err)
	}
	return scanSales(rows)
}

func scanSales(rows *sql.Rows) ([]core.Sale, error) {
	defer rows.Close()

	var out []core.Sale
	for rows.Next() {
		var (
			id          int64
			category    string
			cents       int64
			rawDate     any
			description string
		)
		if err := rows.Scan(&id, &category, &cents, &rawDate, &description); err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		date, err := parseDateColumn(rawDate)
		if err != nil {
			return nil, fmt.Errorf("sale %d: %w", id, err)
		}
		out = append(out, core.Sale{
			ID:          strconv.FormatInt(id, 10),
			Category:    core.Category(category),
			Amount:      core.FromCents(cents),
			Date:        date,
			Description: description,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sales: %w", err)
	}
	return out, nil
}

// parseDateColumn accepts the representations the supported drivers return
// for a date column.
func parseDateColumn(v any) (core.Date, error) {
	switch t := v.(type) {
	case time.Time:
		return core.DateOf(t), nil
	case string:
		return core.ParseDate(firstN(t, len(core.DateLayout)))
	case []byte:
		return core.ParseDate(firstN(string(t), len(core.DateLayout)))
	default:
		return core.Date{}, fmt.Errorf("unexpected date column type %T", v)
	}
}

func firstN(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
