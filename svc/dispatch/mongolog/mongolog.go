// Package mongolog stores the delivery log in a MongoDB collection.
package mongolog

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/notifykit/svc/dispatch"
)

// DefaultCollection is the collection used when none is given.
const DefaultCollection = "notification_logs"

// ErrDuplicateEntry is returned when an entry with the same ID already exists.
var ErrDuplicateEntry = errors.New("mongolog.duplicate_entry")

// DeliveryLog appends LogEntry documents. Documents are never updated.
type DeliveryLog struct {
	coll *mongo.Collection
}

func New(db *mongo.Database, collection string) *DeliveryLog {
	if collection == "" {
		collection = DefaultCollection
	}
	return &DeliveryLog{coll: db.Collection(collection)}
}

// EnsureIndexes creates the lookup indexes used by ListByReference and
// retention jobs. It is safe to call on every start.
func (l *DeliveryLog) EnsureIndexes(ctx context.Context) error {
	_, err := l.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "reference_type", Value: 1}, {Key: "reference_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "template_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("ensure delivery log indexes: %w", err)
	}
	return nil
}

// Insert implements dispatch.DeliveryLog.
func (l *DeliveryLog) Insert(ctx context.Context, e dispatch.LogEntry) error {
	if _, err := l.coll.InsertOne(ctx, e); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errors.Join(ErrDuplicateEntry, err)
		}
		return fmt.Errorf("insert delivery log %s: %w", e.ID, err)
	}
	return nil
}

// ListByReference returns the entries of one business object, newest first.
func (l *DeliveryLog) ListByReference(ctx context.Context, refType, refID string) ([]dispatch.LogEntry, error) {
	cur, err := l.coll.Find(ctx,
		bson.D{{Key: "reference_type", Value: refType}, {Key: "reference_id", Value: refID}},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("list delivery log: %w", err)
	}

	var out []dispatch.LogEntry
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("list delivery log: %w", err)
	}
	return out, nil
}
