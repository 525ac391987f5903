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

const collectionOtps = "otps"

// OtpRepository implements ports.OtpRepository backed by MongoDB. The
// single-use guarantee rides on a conditional update (used:false in the
// filter), which Mongo applies atomically per document.
type OtpRepository struct {
	col *mongo.Collection
}

func NewOtpRepository(db *mongo.Database) *OtpRepository {
	return &OtpRepository{col: db.Collection(collectionOtps)}
}

func (r *OtpRepository) Save(ctx context.Context, otp *domain.Otp) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"_id": otp.ID, "org_id": otp.OrgID}
	_, err := r.col.ReplaceOne(ctx, filter, otp, options.Replace().SetUpsert(true))
	return err
}

// FindByEmailAndType returns the most recently issued, non-superseded OTP for
// the tuple, whatever its used/expired state.
func (r *OtpRepository) FindByEmailAndType(ctx context.Context, email domain.Email, typ domain.OtpType, orgID string) (*domain.Otp, error) {
	filter := bson.M{
		"email":      email.String(),
		"type":       string(typ),
		"org_id":     orgID,
		"superseded": false,
	}
	return r.findLatest(ctx, filter)
}

// FindValidByEmailAndType returns the tuple's OTP still valid at now:
// unused, unsuperseded, unexpired.
func (r *OtpRepository) FindValidByEmailAndType(ctx context.Context, email domain.Email, typ domain.OtpType, orgID string, now time.Time) (*domain.Otp, error) {
	filter := bson.M{
		"email":      email.String(),
		"type":       string(typ),
		"org_id":     orgID,
		"superseded": false,
		"used":       false,
		"expires_at": bson.M{"$gt": now},
	}
	return r.findLatest(ctx, filter)
}

// MarkUsed flips used with compare-and-swap semantics: the filter demands
// used:false, so of N concurrent calls exactly one matches. Losers see
// ErrOtpAlreadyUsed (or ErrOtpNotFound when the document is gone).
func (r *OtpRepository) MarkUsed(ctx context.Context, id, orgID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"_id": id, "org_id": orgID, "used": false}
	update := bson.M{"$set": bson.M{"used": true, "updated_at": time.Now().UTC()}}

	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		// Either the OTP never existed or a concurrent verifier won.
		n, err := r.col.CountDocuments(ctx, bson.M{"_id": id, "org_id": orgID}, options.Count().SetLimit(1))
		if err != nil {
			return err
		}
		if n == 0 {
			return domain.ErrOtpNotFound
		}
		return domain.ErrOtpAlreadyUsed
	}
	return nil
}

// SupersedeValid invalidates every OTP for the tuple still valid at now.
func (r *OtpRepository) SupersedeValid(ctx context.Context, email domain.Email, typ domain.OtpType, orgID string, now time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{
		"email":      email.String(),
		"type":       string(typ),
		"org_id":     orgID,
		"superseded": false,
		"used":       false,
		"expires_at": bson.M{"$gt": now},
	}
	update := bson.M{"$set": bson.M{"superseded": true, "updated_at": now}}

	res, err := r.col.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// DeleteExpired removes OTPs past their deadline. Zero deletions is normal.
func (r *OtpRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lte": now}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteUsedBefore removes used OTPs last touched before cutoff.
func (r *OtpRepository) DeleteUsedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteMany(ctx, bson.M{"used": true, "updated_at": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// EnsureIndexes creates the lookup index for the (email, type, org) tuple.
func (r *OtpRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "org_id", Value: 1},
			{Key: "email", Value: 1},
			{Key: "type", Value: 1},
			{Key: "created_at", Value: -1},
		}},
		{Keys: bson.D{{Key: "expires_at", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

func (r *OtpRepository) findLatest(ctx context.Context, filter bson.M) (*domain.Otp, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})

	var otp domain.Otp
	if err := r.col.FindOne(ctx, filter, opts).Decode(&otp); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrOtpNotFound
		}
		return nil, err
	}
	return &otp, nil
}
