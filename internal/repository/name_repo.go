package repository

import (
	"context"

	"formpilot/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// NameRepo handles MongoDB operations for the first-name lists
type NameRepo interface {
	Lists(ctx context.Context) (model.NameLists, error)
	InsertMany(ctx context.Context, entries []model.NameEntry) (int, error)
	Count(ctx context.Context) (int64, error)
}

type nameRepo struct {
	collection *mongo.Collection
}

// NewNameRepo creates a new name repository
func NewNameRepo(db *mongo.Database) NameRepo {
	return &nameRepo{
		collection: db.Collection("names"),
	}
}

func (r *nameRepo) Lists(ctx context.Context) (model.NameLists, error) {
	var lists model.NameLists
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return lists, err
	}
	defer cursor.Close(ctx)

	var entries []model.NameEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return lists, err
	}
	for _, e := range entries {
		switch e.Gender {
		case model.GenderMale:
			lists.Male = append(lists.Male, e.Name)
		case model.GenderFemale:
			lists.Female = append(lists.Female, e.Name)
		}
	}
	return lists, nil
}

// InsertMany upserts entries by (name, gender) and reports how many were new
func (r *nameRepo) InsertMany(ctx context.Context, entries []model.NameEntry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}

	models := make([]mongo.WriteModel, len(entries))
	for i, e := range entries {
		filter := bson.M{"name": e.Name, "gender": e.Gender}
		models[i] = mongo.NewUpdateOneModel().
			SetFilter(filter).
			SetUpdate(bson.M{"$setOnInsert": e}).
			SetUpsert(true)
	}
	res, err := r.collection.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return 0, err
	}
	return int(res.UpsertedCount), nil
}

func (r *nameRepo) Count(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{})
}
