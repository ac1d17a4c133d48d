package repository

import (
	"context"
	"errors"
	"time"

	"formpilot/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// ErrInsufficientBalance is returned by DeductCredits when the balance is too low
var ErrInsufficientBalance = errors.New("insufficient credit balance")

// UserRepo handles MongoDB operations for accounts
type UserRepo interface {
	Create(ctx context.Context, user *model.User) error
	GetByUserID(ctx context.Context, userID string) (*model.User, error)
	List(ctx context.Context) ([]*model.User, error)
	Update(ctx context.Context, user *model.User) error
	DeductCredits(ctx context.Context, userID string, count int) (*model.User, error)
	AddCredits(ctx context.Context, userID string, delta int) (*model.User, error)
}

type userRepo struct {
	collection *mongo.Collection
	logger     *zap.Logger
}

// NewUserRepo creates a new user repository with indexes
func NewUserRepo(db *mongo.Database, logger *zap.Logger) UserRepo {
	repo := &userRepo{
		collection: db.Collection("users"),
		logger:     logger.Named("user_repo"),
	}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *userRepo) ensureIndexes(ctx context.Context) {
	opts := options.Index().SetUnique(true)
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}},
		Options: opts,
	})
	if err != nil {
		r.logger.Warn("failed to create index", zap.String("collection", r.collection.Name()), zap.Error(err))
	}
}

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, user)
	return err
}

func (r *userRepo) GetByUserID(ctx context.Context, userID string) (*model.User, error) {
	var user model.User
	err := r.collection.FindOne(ctx, bson.M{"userId": userID}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) List(ctx context.Context) ([]*model.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []*model.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Update stores the profile fields. Credit balances are only changed through
// DeductCredits and AddCredits so a concurrent run deduction is never overwritten.
func (r *userRepo) Update(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now()
	update := bson.M{"$set": bson.M{
		"name":         user.Name,
		"email":        user.Email,
		"contact":      user.Contact,
		"passwordHash": user.PasswordHash,
		"role":         user.Role,
		"status":       user.Status,
		"plan":         user.Plan,
		"updatedAt":    user.UpdatedAt,
	}}
	res, err := r.collection.UpdateOne(ctx, bson.M{"userId": user.UserID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// DeductCredits moves count credits from remaining to availed in one atomic
// update that only matches while the balance covers it.
func (r *userRepo) DeductCredits(ctx context.Context, userID string, count int) (*model.User, error) {
	filter := bson.M{
		"userId":           userID,
		"creditsRemaining": bson.M{"$gte": count},
	}
	update := bson.M{
		"$inc": bson.M{"creditsRemaining": -count, "creditsAvailed": count},
		"$set": bson.M{"updatedAt": time.Now()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var user model.User
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&user)
	if err == mongo.ErrNoDocuments {
		existing, getErr := r.GetByUserID(ctx, userID)
		if getErr != nil {
			return nil, getErr
		}
		if existing == nil {
			return nil, nil
		}
		return nil, ErrInsufficientBalance
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// AddCredits changes the remaining balance by delta in place, never below zero.
// Returns nil, nil for an unknown user.
func (r *userRepo) AddCredits(ctx context.Context, userID string, delta int) (*model.User, error) {
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"creditsRemaining": bson.M{"$max": bson.A{0, bson.M{"$add": bson.A{"$creditsRemaining", delta}}}},
			"updatedAt":        time.Now(),
		}}},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var user model.User
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"userId": userID}, update, opts).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
