package users

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/aswaq/aswaq-backend/internal/models"
)

// Duplicate-key outcomes surfaced by Create. Concurrent signups with the same
// email/username race on the unique indexes; the losing insert maps to one of
// these.
var (
	ErrEmailTaken    = errors.New("email already taken")
	ErrUsernameTaken = errors.New("username already taken")
)

// Repository defines persistence operations for users. Lookup methods return
// (nil, nil) when no document matches.
type Repository interface {
	Create(ctx context.Context, u *models.User) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByProviderID(ctx context.Context, field, providerID string) (*models.User, error)
	FindByVerificationToken(ctx context.Context, token string, now time.Time) (*models.User, error)
	FindByResetToken(ctx context.Context, token string, now time.Time) (*models.User, error)
	MarkVerified(ctx context.Context, id primitive.ObjectID) error
	SetVerificationToken(ctx context.Context, id primitive.ObjectID, token string, expiry time.Time) error
	SetResetToken(ctx context.Context, id primitive.ObjectID, token string, expiry time.Time) error
	ResetPassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error
	LinkProvider(ctx context.Context, id primitive.ObjectID, field, providerID string) error
	TouchLastLogin(ctx context.Context, id primitive.ObjectID) error
}

// MongoRepository implements Repository using a Mongo collection
type MongoRepository struct {
	col *mongo.Collection
}

func NewMongoRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

// EnsureIndexes creates the unique indexes on email and username. Signup
// relies on these to resolve concurrent duplicate signups.
func EnsureIndexes(ctx context.Context, col *mongo.Collection) error {
	_, err := col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	return err
}

func (r *MongoRepository) Create(ctx context.Context, u *models.User) (*models.User, error) {
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	res, err := r.col.InsertOne(ctx, u)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// the index name in the server error tells us which field lost the race
			if strings.Contains(err.Error(), "username") {
				return nil, ErrUsernameTaken
			}
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		u.ID = oid
	}
	return u, nil
}

func (r *MongoRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	if err := r.col.FindOne(ctx, filter).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *MongoRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *MongoRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *MongoRepository) FindByProviderID(ctx context.Context, field, providerID string) (*models.User, error) {
	return r.findOne(ctx, bson.M{field: providerID})
}

func (r *MongoRepository) FindByVerificationToken(ctx context.Context, token string, now time.Time) (*models.User, error) {
	return r.findOne(ctx, bson.M{
		"verificationToken":       token,
		"verificationTokenExpiry": bson.M{"$gt": now},
	})
}

func (r *MongoRepository) FindByResetToken(ctx context.Context, token string, now time.Time) (*models.User, error) {
	return r.findOne(ctx, bson.M{
		"resetToken":       token,
		"resetTokenExpiry": bson.M{"$gt": now},
	})
}

func (r *MongoRepository) update(ctx context.Context, id primitive.ObjectID, upd bson.M) error {
	set, ok := upd["$set"].(bson.M)
	if !ok {
		set = bson.M{}
		upd["$set"] = set
	}
	set["updatedAt"] = time.Now().UTC()
	_, err := r.col.UpdateByID(ctx, id, upd)
	return err
}

func (r *MongoRepository) MarkVerified(ctx context.Context, id primitive.ObjectID) error {
	return r.update(ctx, id, bson.M{
		"$set":   bson.M{"isVerified": true},
		"$unset": bson.M{"verificationToken": "", "verificationTokenExpiry": ""},
	})
}

func (r *MongoRepository) SetVerificationToken(ctx context.Context, id primitive.ObjectID, token string, expiry time.Time) error {
	return r.update(ctx, id, bson.M{
		"$set": bson.M{"verificationToken": token, "verificationTokenExpiry": expiry},
	})
}

func (r *MongoRepository) SetResetToken(ctx context.Context, id primitive.ObjectID, token string, expiry time.Time) error {
	return r.update(ctx, id, bson.M{
		"$set": bson.M{"resetToken": token, "resetTokenExpiry": expiry},
	})
}

func (r *MongoRepository) ResetPassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error {
	return r.update(ctx, id, bson.M{
		"$set":   bson.M{"passwordHash": passwordHash},
		"$unset": bson.M{"resetToken": "", "resetTokenExpiry": ""},
	})
}

func (r *MongoRepository) LinkProvider(ctx context.Context, id primitive.ObjectID, field, providerID string) error {
	return r.update(ctx, id, bson.M{"$set": bson.M{field: providerID}})
}

func (r *MongoRepository) TouchLastLogin(ctx context.Context, id primitive.ObjectID) error {
	return r.update(ctx, id, bson.M{"$set": bson.M{"lastLogin": time.Now().UTC()}})
}
