package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/leadflow/role-service/internal/core/domain"
)

const profileCollection = "users"

// ProfileRepository stores Profiles keyed by uid in the users collection.
type ProfileRepository struct {
	col *mongo.Collection
}

func NewProfileRepository(db *mongo.Database) *ProfileRepository {
	return &ProfileRepository{col: db.Collection(profileCollection)}
}

type mongoProfile struct {
	UID          string    `bson:"_id"`
	Email        string    `bson:"email,omitempty"`
	Role         string    `bson:"role,omitempty"`
	IsActive     *bool     `bson:"isActive,omitempty"`
	CreatedAt    time.Time `bson:"createdAt,omitempty"`
	LastModified time.Time `bson:"lastModified,omitempty"`
}

// Create inserts a new profile document.
func (r *ProfileRepository) Create(ctx context.Context, p *domain.Profile) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	active := p.IsActive
	doc := mongoProfile{
		UID:       p.UID,
		Email:     p.Email,
		Role:      p.Role,
		IsActive:  &active,
		CreatedAt: p.CreatedAt.UTC(),
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrUserExists
		}
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

// FindByUID retrieves a profile.
func (r *ProfileRepository) FindByUID(ctx context.Context, uid string) (*domain.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoProfile
	if err := r.col.FindOne(ctx, bson.M{"_id": uid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

// List returns every profile ordered by creation time.
func (r *ProfileRepository) List(ctx context.Context) ([]*domain.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []mongoProfile
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*domain.Profile, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

// MergeRole sets role and lastModified only, creating the document when it
// does not exist yet.
func (r *ProfileRepository) MergeRole(ctx context.Context, uid string, role domain.Role, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{"role": string(role), "lastModified": at.UTC()}}
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": uid}, update, options.Update().SetUpsert(true))
	return err
}

// SetActive toggles isActive in place.
func (r *ProfileRepository) SetActive(ctx context.Context, uid string, active bool, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{"isActive": active, "lastModified": at.UTC()}}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": uid}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrProfileNotFound
	}
	return nil
}

func (d mongoProfile) toDomain() *domain.Profile {
	// Profiles created by an upsert before registration have no isActive
	// field and count as active.
	active := true
	if d.IsActive != nil {
		active = *d.IsActive
	}
	return &domain.Profile{
		UID:          d.UID,
		Email:        d.Email,
		Role:         d.Role,
		IsActive:     active,
		CreatedAt:    d.CreatedAt,
		LastModified: d.LastModified,
	}
}
