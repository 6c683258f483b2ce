package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/leadflow/role-service/internal/core/domain"
)

const roleChangeCollection = "role_changes"

// RoleEventRepository implements ports.RoleEventRepository using MongoDB.
type RoleEventRepository struct {
	col *mongo.Collection
}

func NewRoleEventRepository(db *mongo.Database) *RoleEventRepository {
	return &RoleEventRepository{col: db.Collection(roleChangeCollection)}
}

// InsertRoleChange persists an applied role change.
func (r *RoleEventRepository) InsertRoleChange(ctx context.Context, event *domain.RoleChangeEvent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := bson.M{
		"target_uid":    event.TargetUID,
		"requester_uid": event.RequesterUID,
		"previous_role": event.PreviousRole,
		"new_role":      string(event.NewRole),
		"claims_synced": event.ClaimsSynced,
		"at":            event.At.UTC(),
		"processed_at":  time.Now().UTC(),
	}
	_, err := r.col.InsertOne(ctx, doc)
	return err
}

func (r *RoleEventRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "target_uid", Value: 1}, {Key: "at", Value: -1}},
	})
	return err
}
