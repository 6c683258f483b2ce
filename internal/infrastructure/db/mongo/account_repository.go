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

const accountCollection = "auth_accounts"

// AccountRepository stores auth accounts: credentials, the disabled switch
// and custom token claims.
type AccountRepository struct {
	coll *mongo.Collection
}

func NewAccountRepository(db *mongo.Database) *AccountRepository {
	return &AccountRepository{coll: db.Collection(accountCollection)}
}

type mongoAccount struct {
	UID          string         `bson:"_id"`
	Email        string         `bson:"email"`
	PasswordHash string         `bson:"password_hash"`
	Disabled     bool           `bson:"disabled"`
	CustomClaims map[string]any `bson:"custom_claims"`
	CreatedAt    int64          `bson:"created_at"`
}

func (r *AccountRepository) Create(ctx context.Context, a *domain.Account) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	claims := a.CustomClaims
	if claims == nil {
		claims = map[string]any{}
	}
	doc := mongoAccount{
		UID:          a.UID,
		Email:        a.Email,
		PasswordHash: a.PasswordHash,
		Disabled:     a.Disabled,
		CustomClaims: claims,
		CreatedAt:    a.CreatedAt.Unix(),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrUserExists
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *AccountRepository) FindByUID(ctx context.Context, uid string) (*domain.Account, error) {
	return r.findOne(ctx, bson.M{"_id": uid})
}

func (r *AccountRepository) CustomClaims(ctx context.Context, uid string) (map[string]any, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc struct {
		CustomClaims map[string]any `bson:"custom_claims"`
	}
	opts := options.FindOne().SetProjection(bson.M{"custom_claims": 1})
	if err := r.coll.FindOne(ctx, bson.M{"_id": uid}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("read claims: %w", err)
	}
	if doc.CustomClaims == nil {
		doc.CustomClaims = map[string]any{}
	}
	return doc.CustomClaims, nil
}

func (r *AccountRepository) SetCustomClaims(ctx context.Context, uid string, claims map[string]any) error {
	if claims == nil {
		claims = map[string]any{}
	}
	return r.update(ctx, uid, bson.M{"$set": bson.M{"custom_claims": claims}})
}

func (r *AccountRepository) SetDisabled(ctx context.Context, uid string, disabled bool) error {
	return r.update(ctx, uid, bson.M{"$set": bson.M{"disabled": disabled}})
}

// EnsureIndexes creates the unique email index.
func (r *AccountRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *AccountRepository) update(ctx context.Context, uid string, update bson.M) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": uid}, update)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *AccountRepository) findOne(ctx context.Context, filter bson.M) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoAccount
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return doc.toDomain(), nil
}

func (d mongoAccount) toDomain() *domain.Account {
	claims := d.CustomClaims
	if claims == nil {
		claims = map[string]any{}
	}
	return &domain.Account{
		UID:          d.UID,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Disabled:     d.Disabled,
		CustomClaims: claims,
		CreatedAt:    unixToTime(d.CreatedAt),
	}
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
