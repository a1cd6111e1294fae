// Package postgres stores sales in PostgreSQL through gorm.
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"salesboard/internal/core"
	"salesboard/internal/sales"
)

const insertBatchSize = 250

var _ sales.Store = (*Repository)(nil)

// saleRecord is the gorm model for the sales table.
type saleRecord struct {
	ID          uint            `gorm:"primaryKey"`
	Category    string          `gorm:"type:varchar(4);not null;index"`
	Amount      decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Date        time.Time       `gorm:"column:sale_date;type:date;not null;index"`
	Description string          `gorm:"type:varchar(100);not null;default:''"`
	CreatedAt   time.Time
}

func (saleRecord) TableName() string {
	return "sales"
}

func toRecord(s core.Sale) saleRecord {
	return saleRecord{
		Category:    string(s.Category),
		Amount:      s.Amount,
		Date:        s.Date.Time,
		Description: s.Description,
	}
}

func (r saleRecord) toSale() core.Sale {
	return core.Sale{
		ID:          strconv.FormatUint(uint64(r.ID), 10),
		Category:    core.Category(r.Category),
		Amount:      r.Amount.Round(2),
		Date:        core.DateOf(r.Date),
		Description: r.Description,
	}
}

type Repository struct {
	db *gorm.DB
}

// Open connects to PostgreSQL and migrates the sales table.
func Open(dsn string) (*Repository, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.AutoMigrate(&saleRecord{}); err != nil {
		return nil, fmt.Errorf("migrate sales table: %w", err)
	}
	return New(db), nil
}

func New(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (r *Repository) CreateSale(ctx context.Context, s core.Sale) (string, error) {
	if err := s.Validate(); err != nil {
		return "", err
	}
	rec := toRecord(s)
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return "", fmt.Errorf("insert sale: %w", err)
	}
	slog.InfoContext(ctx, "Sale saved", "id", rec.ID, "backend", "postgres", "category", rec.Category)
	return strconv.FormatUint(uint64(rec.ID), 10), nil
}

// InsertSales writes the batch inside one transaction.
func (r *Repository) InsertSales(ctx context.Context, batch []core.Sale) error {
	if err := sales.ValidateBatch(batch); err != nil {
		return err
	}
	if len(batch) == 0 {
		return nil
	}

	records := make([]saleRecord, len(batch))
	for i, s := range batch {
		records[i] = toRecord(s)
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(&records, insertBatchSize).Error
	})
	if err != nil {
		return fmt.Errorf("insert sales: %w", err)
	}
	slog.InfoContext(ctx, "Sales batch saved", "count", len(batch), "backend", "postgres")
	return nil
}

func (r *Repository) DeleteAllSales(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&saleRecord{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete sales: %w", res.Error)
	}
	slog.WarnContext(ctx, "All sales deleted", "count", res.RowsAffected, "backend", "postgres")
	return res.RowsAffected, nil
}

type categoryRow struct {
	Category string
	Total    decimal.Decimal
	Count    int64
}

func (r *Repository) CategoryTotals(ctx context.Context) ([]core.CategoryTotal, error) {
	var rows []categoryRow
	err := r.db.WithContext(ctx).
		Model(&saleRecord{}).
		Select("category, COALESCE(SUM(amount), 0) AS total, COUNT(*) AS count").
		Group("category").
		Order("category").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query category totals: %w", err)
	}

	out := make([]core.CategoryTotal, 0, len(rows))
	for _, row := range rows {
		out = append(out, core.CategoryTotal{
			Category: core.Category(row.Category),
			Total:    row.Total.Round(2),
			Count:    row.Count,
		})
	}
	return out, nil
}

func (r *Repository) Summary(ctx context.Context) (core.Summary, error) {
	var row struct {
		Count   int64
		Revenue decimal.Decimal
	}
	err := r.db.WithContext(ctx).
		Model(&saleRecord{}).
		Select("COUNT(*) AS count, COALESCE(SUM(amount), 0) AS revenue").
		Scan(&row).Error
	if err != nil {
		return core.Summary{}, fmt.Errorf("query summary: %w", err)
	}
	return core.Summary{Count: row.Count, Revenue: row.Revenue.Round(2)}, nil
}

func (r *Repository) SalesBetween(ctx context.Context, from, to core.Date) ([]core.Sale, error) {
	var records []saleRecord
	err := r.db.WithContext(ctx).
		Where("sale_date >= ? AND sale_date <= ?", from.String(), to.String()).
		Order("sale_date ASC, id ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("query sales between %s and %s: %w", from, to, err)
	}
	return toSales(records), nil
}

func (r *Repository) RecentSales(ctx context.Context, limit int) ([]core.Sale, error) {
	var records []saleRecord
	err := r.db.WithContext(ctx).
		Order("sale_date DESC, id DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("query recent sales: %w", err)
	}
	return toSales(records), nil
}

func toSales(records []saleRecord) []core.Sale {
	out := make([]core.Sale, len(records))
	for i, rec := range records {
		out[i] = rec.toSale()
	}
	return out
}
