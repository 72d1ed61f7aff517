package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/stocklive/internal/domain/models"
)

const (
	inventoryCollection = "inventory_records"
	movementCollection  = "inventory_movements"
)

// Repository implements the ledger record store and the movement journal on
// MongoDB. The conditional write is a single UpdateOne filtered on
// {_id, version}: MongoDB applies it atomically, so a lost race shows up as
// zero matched documents rather than a silent overwrite.
type Repository struct {
	client *mongo.Client
	dbName string
}

// NewRepository connects to MongoDB and verifies the connection.
func NewRepository(ctx context.Context, uri string, dbName string) (*Repository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &Repository{client: client, dbName: dbName}, nil
}

func (r *Repository) records() *mongo.Collection {
	return r.client.Database(r.dbName).Collection(inventoryCollection)
}

func (r *Repository) movements() *mongo.Collection {
	return r.client.Database(r.dbName).Collection(movementCollection)
}

// Get retrieves the record for a composite key.
func (r *Repository) Get(ctx context.Context, key models.InventoryKey) (*models.InventoryRecord, error) {
	var rec models.InventoryRecord
	err := r.records().FindOne(ctx, bson.M{"_id": key.ID()}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query inventory record: %w", err)
	}
	return &rec, nil
}

// Create inserts a brand-new record. The _id is the canonical composite key,
// so two racing creates resolve to one winner and one duplicate-key error.
func (r *Repository) Create(ctx context.Context, record *models.InventoryRecord) error {
	_, err := r.records().InsertOne(ctx, record)
	if mongo.IsDuplicateKeyError(err) {
		return models.ErrRecordExists
	}
	if err != nil {
		return fmt.Errorf("insert inventory record: %w", err)
	}
	return nil
}

// UpdateCAS writes the record conditioned on the stored version still
// equalling expectedVersion.
func (r *Repository) UpdateCAS(ctx context.Context, record *models.InventoryRecord, expectedVersion int64) error {
	result, err := r.records().UpdateOne(ctx,
		bson.M{"_id": record.ID, "version": expectedVersion},
		bson.M{"$set": bson.M{
			"quantityAvailable": record.QuantityAvailable,
			"quantityReserved":  record.QuantityReserved,
			"quantityInTransit": record.QuantityInTransit,
			"minimumStock":      record.MinimumStock,
			"location":          record.Location,
			"version":           record.Version,
			"lastModifiedAt":    record.LastModifiedAt,
		}},
	)
	if err != nil {
		return fmt.Errorf("update inventory record: %w", err)
	}
	if result.MatchedCount == 0 {
		return models.ErrOptimisticLock
	}
	return nil
}

// ListBelowMinimum returns records at or below their configured minimum stock.
func (r *Repository) ListBelowMinimum(ctx context.Context) ([]models.InventoryRecord, error) {
	filter := bson.M{
		"minimumStock": bson.M{"$ne": nil},
		"$expr":        bson.M{"$lte": bson.A{"$quantityAvailable", "$minimumStock"}},
	}

	cursor, err := r.records().Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("query low stock records: %w", err)
	}
	defer cursor.Close(ctx)

	var out []models.InventoryRecord
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode low stock records: %w", err)
	}
	return out, nil
}

// Append writes one movement entry to the append-only journal.
func (r *Repository) Append(ctx context.Context, entry models.MovementEntry) error {
	if _, err := r.movements().InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("insert movement entry: %w", err)
	}
	return nil
}

// ListByKey returns the most recent movement entries for a composite key,
// newest first.
func (r *Repository) ListByKey(ctx context.Context, key models.InventoryKey, limit int64) ([]models.MovementEntry, error) {
	opts := options.Find().SetSort(bson.M{"timestamp": -1})
	if limit > 0 {
		opts = opts.SetLimit(limit)
	}

	cursor, err := r.movements().Find(ctx, bson.M{"inventoryId": key.ID()}, opts)
	if err != nil {
		return nil, fmt.Errorf("query movement entries: %w", err)
	}
	defer cursor.Close(ctx)

	var out []models.MovementEntry
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode movement entries: %w", err)
	}
	return out, nil
}

// Close closes the MongoDB connection.
func (r *Repository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
