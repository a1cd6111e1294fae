// Package mongo stores sales as documents in a MongoDB collection.
package mongo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"salesboard/internal/core"
	"salesboard/internal/sales"
)

const collectionName = "sales"

var _ sales.Store = (*Repository)(nil)

// saleDocument is the stored shape of a sale. Amounts are integer cents and
// dates midnight UTC so range queries and sums stay exact.
type saleDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Category    string             `bson:"category"`
	AmountCents int64              `bson:"amount_cents"`
	Date        time.Time          `bson:"date"`
	Description string             `bson:"description"`
	CreatedAt   time.Time          `bson:"created_at"`
}

func toDocument(s core.Sale, now time.Time) saleDocument {
	return saleDocument{
		Category:    string(s.Category),
		AmountCents: core.ToCents(s.Amount),
		Date:        s.Date.Time,
		Description: s.Description,
		CreatedAt:   now.UTC(),
	}
}

func (d saleDocument) toSale() core.Sale {
	return core.Sale{
		ID:          d.ID.Hex(),
		Category:    core.Category(d.Category),
		Amount:      core.FromCents(d.AmountCents),
		Date:        core.DateOf(d.Date),
		Description: d.Description,
	}
}

// Repository implements sales.Store on MongoDB.
type Repository struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// Connect dials MongoDB, verifies the connection and ensures the date index.
func Connect(ctx context.Context, uri, dbName string) (*Repository, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	r := &Repository{
		client: client,
		coll:   client.Database(dbName).Collection(collectionName),
	}

	_, err = r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "date", Value: 1}, {Key: "_id", Value: 1}}},
		{Keys: bson.D{{Key: "category", Value: 1}}},
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}

	return r, nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (r *Repository) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.client.Disconnect(ctx)
}

func (r *Repository) CreateSale(ctx context.Context, s core.Sale) (string, error) {
	if err := s.Validate(); err != nil {
		return "", err
	}
	res, err := r.coll.InsertOne(ctx, toDocument(s, time.Now()))
	if err != nil {
		return "", fmt.Errorf("failed to insert sale: %w", err)
	}
	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	slog.InfoContext(ctx, "Sale saved", "id", id.Hex(), "backend", "mongodb", "category", s.Category)
	return id.Hex(), nil
}

// InsertSales writes the batch with a single ordered InsertMany.
func (r *Repository) InsertSales(ctx context.Context, batch []core.Sale) error {
	if err := sales.ValidateBatch(batch); err != nil {
		return err
	}
	if len(batch) == 0 {
		return nil
	}

	now := time.Now()
	docs := make([]any, len(batch))
	for i, s := range batch {
		docs[i] = toDocument(s, now)
	}

	if _, err := r.coll.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true)); err != nil {
		return fmt.Errorf("failed to insert sales: %w", err)
	}
	slog.InfoContext(ctx, "Sales batch saved", "count", len(batch), "backend", "mongodb")
	return nil
}

func (r *Repository) DeleteAllSales(ctx context.Context) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("failed to delete sales: %w", err)
	}
	slog.WarnContext(ctx, "All sales deleted", "count", res.DeletedCount, "backend", "mongodb")
	return res.DeletedCount, nil
}

type groupResult struct {
	Category string `bson:"_id"`
	Cents    int64  `bson:"cents"`
	Count    int64  `bson:"count"`
}

func categoryPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$category"},
			{Key: "cents", Value: bson.D{{Key: "$sum", Value: "$amount_cents"}}},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}
}

func summaryPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "cents", Value: bson.D{{Key: "$sum", Value: "$amount_cents"}}},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
}

func (r *Repository) CategoryTotals(ctx context.Context) ([]core.CategoryTotal, error) {
	cur, err := r.coll.Aggregate(ctx, categoryPipeline())
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate category totals: %w", err)
	}
	var rows []groupResult
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode category totals: %w", err)
	}

	out := make([]core.CategoryTotal, 0, len(rows))
	for _, row := range rows {
		out = append(out, core.CategoryTotal{
			Category: core.Category(row.Category),
			Total:    core.FromCents(row.Cents),
			Count:    row.Count,
		})
	}
	return out, nil
}

func (r *Repository) Summary(ctx context.Context) (core.Summary, error) {
	cur, err := r.coll.Aggregate(ctx, summaryPipeline())
	if err != nil {
		return core.Summary{}, fmt.Errorf("failed to aggregate summary: %w", err)
	}
	var rows []struct {
		Cents int64 `bson:"cents"`
		Count int64 `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return core.Summary{}, fmt.Errorf("failed to decode summary: %w", err)
	}
	if len(rows) == 0 {
		return core.Summary{Revenue: core.FromCents(0)}, nil
	}
	return core.Summary{Count: rows[0].Count, Revenue: core.FromCents(rows[0].Cents)}, nil
}

func dateRangeFilter(from, to core.Date) bson.D {
	return bson.D{{Key: "date", Value: bson.D{
		{Key: "$gte", Value: from.Time},
		{Key: "$lte", Value: to.Time},
	}}}
}

func (r *Repository) SalesBetween(ctx context.Context, from, to core.Date) ([]core.Sale, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "_id", Value: 1}})
	return r.find(ctx, dateRangeFilter(from, to), opts)
}

func (r *Repository) RecentSales(ctx context.Context, limit int) ([]core.Sale, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))
	return r.find(ctx, bson.D{}, opts)
}

func (r *Repository) find(ctx context.Context, filter bson.D, opts *options.FindOptions) ([]core.Sale, error) {
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find sales: %w", err)
	}
	var docs []saleDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode sales: %w", err)
	}
	out := make([]core.Sale, len(docs))
	for i, d := range docs {
		out[i] = d.toSale()
	}
	return out, nil
}
