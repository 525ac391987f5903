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

const collectionRoles = "roles"

// RoleRepository implements ports.RoleRepository backed by MongoDB.
type RoleRepository struct {
	col *mongo.Collection
}

func NewRoleRepository(db *mongo.Database) *RoleRepository {
	return &RoleRepository{col: db.Collection(collectionRoles)}
}

func (r *RoleRepository) FindByID(ctx context.Context, id, orgID string) (*domain.Role, error) {
	return r.findOne(ctx, bson.M{"_id": id, "org_id": orgID})
}

func (r *RoleRepository) FindAll(ctx context.Context, orgID string) ([]*domain.Role, error) {
	return r.findMany(ctx, bson.M{"org_id": orgID})
}

func (r *RoleRepository) FindByName(ctx context.Context, name, orgID string) (*domain.Role, error) {
	return r.findOne(ctx, bson.M{"name": name, "org_id": orgID})
}

// FindRolesWithPermissions loads the given roles with their permission ID
// sets. IDs that match nothing are skipped.
func (r *RoleRepository) FindRolesWithPermissions(ctx context.Context, ids []string, orgID string) ([]*domain.Role, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.findMany(ctx, bson.M{"_id": bson.M{"$in": ids}, "org_id": orgID})
}

func (r *RoleRepository) Exists(ctx context.Context, id, orgID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, bson.M{"_id": id, "org_id": orgID}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *RoleRepository) Save(ctx context.Context, role *domain.Role) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"_id": role.ID, "org_id": role.OrgID}
	_, err := r.col.ReplaceOne(ctx, filter, role, options.Replace().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateIdentity
		}
		return err
	}
	return nil
}

func (r *RoleRepository) Delete(ctx context.Context, id, orgID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id, "org_id": orgID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrRoleNotFound
	}
	return nil
}

// EnsureIndexes creates the unique index backing per-org role name
// uniqueness.
func (r *RoleRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "org_id", Value: 1}, {Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *RoleRepository) findOne(ctx context.Context, filter bson.M) (*domain.Role, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var role domain.Role
	if err := r.col.FindOne(ctx, filter).Decode(&role); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrRoleNotFound
		}
		return nil, err
	}
	return &role, nil
}

func (r *RoleRepository) findMany(ctx context.Context, filter bson.M) ([]*domain.Role, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var roles []*domain.Role
	if err := cur.All(ctx, &roles); err != nil {
		return nil, err
	}
	return roles, nil
}
