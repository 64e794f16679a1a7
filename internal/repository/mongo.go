package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"gorm.io/datatypes"

	"whiteboard-backend/internal/model"
)

// CollectionName MongoDB 컬렉션 이름
const CollectionName = "whiteboards"

// mongoWhiteboard is the stored document; canvasData is kept as a JSON string.
// Boards saved before the UUID switch carry an ObjectId _id, which decodes
// into ID as its hex form.
type mongoWhiteboard struct {
	ID         string    `bson:"_id"`
	Name       string    `bson:"name"`
	CanvasData string    `bson:"canvasData"`
	Thumbnail  string    `bson:"thumbnail,omitempty"`
	CreatedAt  time.Time `bson:"createdAt"`
	UpdatedAt  time.Time `bson:"updatedAt"`
}

func (d *mongoWhiteboard) toModel() *model.Whiteboard {
	return &model.Whiteboard{
		ID:         d.ID,
		Name:       d.Name,
		CanvasData: datatypes.JSON(d.CanvasData),
		Thumbnail:  d.Thumbnail,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}

// MongoRepository MongoDB 저장소
type MongoRepository struct {
	client *mongo.Client
	coll   *mongo.Collection
	now    func() time.Time
}

// NewMongoRepository MongoRepository 생성
func NewMongoRepository(client *mongo.Client, database string) *MongoRepository {
	return &MongoRepository{
		client: client,
		coll:   client.Database(database).Collection(CollectionName),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// EnsureIndexes updatedAt 정렬용 인덱스 생성
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "updatedAt", Value: -1}},
	})
	return err
}

func (r *MongoRepository) Create(ctx context.Context, w *model.Whiteboard) error {
	prepareCreate(w, r.now())
	doc := mongoWhiteboard{
		ID:         w.ID,
		Name:       w.Name,
		CanvasData: string(w.CanvasData),
		Thumbnail:  w.Thumbnail,
		CreatedAt:  w.CreatedAt,
		UpdatedAt:  w.UpdatedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("create whiteboard: %w", err)
	}
	return nil
}

// idFilter UUID 또는 기존 ObjectId(hex) 형식의 _id 조건
func idFilter(id string) (bson.M, bool) {
	if validID(id) {
		return bson.M{"_id": id}, true
	}
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return bson.M{"_id": oid}, true
	}
	return nil, false
}

func (r *MongoRepository) FindByID(ctx context.Context, id string) (*model.Whiteboard, error) {
	filter, ok := idFilter(id)
	if !ok {
		return nil, ErrNotFound
	}
	var doc mongoWhiteboard
	err := r.coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find whiteboard: %w", err)
	}
	return doc.toModel(), nil
}

func (r *MongoRepository) List(ctx context.Context, offset, limit int) ([]model.Whiteboard, error) {
	opts := options.Find().
		SetProjection(bson.M{"name": 1, "thumbnail": 1, "createdAt": 1, "updatedAt": 1}).
		SetSort(bson.D{{Key: "updatedAt", Value: -1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(clampOffset(offset))).
		SetLimit(int64(clampLimit(limit)))

	cur, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list whiteboards: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoWhiteboard
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list whiteboards: %w", err)
	}
	out := make([]model.Whiteboard, 0, len(docs))
	for i := range docs {
		out = append(out, *docs[i].toModel())
	}
	return out, nil
}

func (r *MongoRepository) Update(ctx context.Context, id string, patch model.WhiteboardPatch) (*model.Whiteboard, error) {
	filter, ok := idFilter(id)
	if !ok {
		return nil, ErrNotFound
	}
	existing, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	set := bson.M{
		"name":       patch.Name,
		"canvasData": string(patch.CanvasData),
		"updatedAt":  refreshedAt(existing.CreatedAt, r.now()),
	}
	if patch.Thumbnail != nil {
		set["thumbnail"] = *patch.Thumbnail
	}

	var doc mongoWhiteboard
	err = r.coll.FindOneAndUpdate(ctx, filter, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update whiteboard: %w", err)
	}
	return doc.toModel(), nil
}

func (r *MongoRepository) Delete(ctx context.Context, id string) error {
	filter, ok := idFilter(id)
	if !ok {
		return ErrNotFound
	}
	res, err := r.coll.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("delete whiteboard: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("count whiteboards: %w", err)
	}
	return n, nil
}

func (r *MongoRepository) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("failed to ping mongodb: %w", err)
	}
	return nil
}
