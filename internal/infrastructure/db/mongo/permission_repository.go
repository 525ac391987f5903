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

const collectionPermissions = "permissions"

// PermissionRepository implements ports.PermissionRepository backed by
// MongoDB. System-wide permissions are stored with an empty org_id and match
// every org's visibility filter.
type PermissionRepository struct {
	col *mongo.Collection
}

func NewPermissionRepository(db *mongo.Database) *PermissionRepository {
	return &PermissionRepository{col: db.Collection(collectionPermissions)}
}

// visibleTo matches the org's custom permissions plus system-wide ones.
func visibleTo(orgID string) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"org_id": ""},
		bson.M{"org_id": orgID},
	}}
}

func (r *PermissionRepository) FindByID(ctx context.Context, id, orgID string) (*domain.Permission, error) {
	filter := visibleTo(orgID)
	filter["_id"] = id
	return r.findOne(ctx, filter)
}

func (r *PermissionRepository) FindByIDs(ctx context.Context, ids []string, orgID string) ([]*domain.Permission, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	filter := visibleTo(orgID)
	filter["_id"] = bson.M{"$in": ids}
	return r.findMany(ctx, filter)
}

func (r *PermissionRepository) FindAll(ctx context.Context, orgID string) ([]*domain.Permission, error) {
	return r.findMany(ctx, visibleTo(orgID))
}

// FindByName is a global lookup: permission names are unique across all orgs.
func (r *PermissionRepository) FindByName(ctx context.Context, name string) (*domain.Permission, error) {
	return r.findOne(ctx, bson.M{"name": name})
}

func (r *PermissionRepository) Save(ctx context.Context, permission *domain.Permission) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"_id": permission.ID, "org_id": permission.OrgID}
	_, err := r.col.ReplaceOne(ctx, filter, permission, options.Replace().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateIdentity
		}
		return err
	}
	return nil
}

func (r *PermissionRepository) Delete(ctx context.Context, id, orgID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id, "org_id": orgID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrPermissionNotFound
	}
	return nil
}

// EnsureIndexes creates the unique index backing global permission name
// uniqueness.
func (r *PermissionRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *PermissionRepository) findOne(ctx context.Context, filter bson.M) (*domain.Permission, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var p domain.Permission
	if err := r.col.FindOne(ctx, filter).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrPermissionNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *PermissionRepository) findMany(ctx context.Context, filter bson.M) ([]*domain.Permission, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var perms []*domain.Permission
	if err := cur.All(ctx, &perms); err != nil {
		return nil, err
	}
	return perms, nil
}
