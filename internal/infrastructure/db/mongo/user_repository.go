package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/authcore/identity-system/internal/core/domain"
)

const collectionUsers = "users"

// UserRepository implements ports.UserRepository backed by MongoDB.
// The unique indexes on (org_id, email) and (org_id, username) carry the
// tenant-scoped uniqueness invariants; violations come back as
// domain.ErrDuplicateIdentity.
type UserRepository struct {
	col *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection(collectionUsers)}
}

func (r *UserRepository) FindByID(ctx context.Context, id, orgID string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"_id": id, "org_id": orgID})
}

func (r *UserRepository) FindAll(ctx context.Context, orgID string) ([]*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{"org_id": orgID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var users []*domain.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// FindByEmail looks up by email across all orgs: the global uniqueness check
// performed before org resolution.
func (r *UserRepository) FindByEmail(ctx context.Context, email domain.Email) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email.String()})
}

func (r *UserRepository) FindByEmailInOrg(ctx context.Context, email domain.Email, orgID string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email.String(), "org_id": orgID})
}

func (r *UserRepository) FindByUsername(ctx context.Context, username, orgID string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"username": username, "org_id": orgID})
}

func (r *UserRepository) Exists(ctx context.Context, id, orgID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, bson.M{"_id": id, "org_id": orgID}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Save upserts the user document keyed by (_id, org_id).
func (r *UserRepository) Save(ctx context.Context, user *domain.User) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"_id": user.ID, "org_id": user.OrgID}
	_, err := r.col.ReplaceOne(ctx, filter, user, options.Replace().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateIdentity
		}
		return err
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id, orgID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id, "org_id": orgID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// EnsureIndexes creates the unique indexes backing per-org email and
// username uniqueness.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "org_id", Value: 1}, {Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "org_id", Value: 1}, {Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var u domain.User
	if err := r.col.FindOne(ctx, filter).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}
