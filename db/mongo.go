package db

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"time"

	"recipehub/globals"
	"recipehub/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var _ Store = (*MongoStore)(nil)

type MongoStore struct {
	Client           *mongo.Client
	RecipeCollection *mongo.Collection
	UserCollection   *mongo.Collection
	now              func() time.Time
}

// Connect dials MongoDB and verifies the connection with a ping.
func Connect(ctx context.Context, uri, dbName string) (*MongoStore, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	return NewMongoStore(client, dbName), nil
}

func NewMongoStore(client *mongo.Client, dbName string) *MongoStore {
	database := client.Database(dbName)
	return &MongoStore{
		Client:           client,
		RecipeCollection: database.Collection(globals.RecipesCollection),
		UserCollection:   database.Collection(globals.UsersCollection),
		now:              time.Now,
	}
}

func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.UserCollection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}
	_, err = s.RecipeCollection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "tags", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "rating", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("create recipe indexes: %w", err)
	}
	return nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.Client.Ping(ctx, nil)
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.Client.Disconnect(ctx)
}

// recipeQuery translates a filter into a find query.
func recipeQuery(f models.RecipeFilter) bson.M {
	query := bson.M{}
	if len(f.Tags) > 0 {
		query["tags"] = bson.M{"$all": f.Tags}
	}
	if f.Difficulty != "" {
		query["difficulty"] = f.Difficulty
	}
	if f.MaxTime != nil {
		query["cookingTime"] = bson.M{"$lte": *f.MaxTime}
	}
	if f.MinRating != nil {
		query["rating"] = bson.M{"$gte": *f.MinRating}
	}
	if f.Search != "" {
		query["title"] = bson.M{"$regex": regexp.QuoteMeta(f.Search), "$options": "i"}
	}
	if !f.Owner.IsZero() {
		query["user"] = f.Owner
	}
	return query
}

func recipeSort(order models.SortOrder) bson.D {
	switch order {
	case models.SortRating:
		return bson.D{{Key: "rating", Value: -1}, {Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}
	case models.SortTime:
		return bson.D{{Key: "cookingTime", Value: 1}, {Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}
	default:
		return bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}
	}
}

func (s *MongoStore) ListRecipes(ctx context.Context, f models.RecipeFilter) ([]models.CommunityRecipe, error) {
	opts := options.Find().SetSort(recipeSort(f.Sort))
	if f.Skip > 0 {
		opts.SetSkip(f.Skip)
	}
	if f.Limit > 0 {
		opts.SetLimit(f.Limit)
	}

	cursor, err := s.RecipeCollection.Find(ctx, recipeQuery(f), opts)
	if err != nil {
		return nil, fmt.Errorf("find recipes: %w", err)
	}
	defer cursor.Close(ctx)

	recipes := []models.CommunityRecipe{}
	if err := cursor.All(ctx, &recipes); err != nil {
		return nil, fmt.Errorf("decode recipes: %w", err)
	}
	return recipes, nil
}

func (s *MongoStore) GetRecipe(ctx context.Context, id primitive.ObjectID) (*models.CommunityRecipe, error) {
	var recipe models.CommunityRecipe
	err := s.RecipeCollection.FindOne(ctx, bson.M{"_id": id}).Decode(&recipe)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find recipe %s: %w", id.Hex(), err)
	}
	return &recipe, nil
}

func (s *MongoStore) GetRecipes(ctx context.Context, ids []primitive.ObjectID) ([]models.CommunityRecipe, error) {
	if len(ids) == 0 {
		return []models.CommunityRecipe{}, nil
	}
	cursor, err := s.RecipeCollection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("find recipes by id: %w", err)
	}
	defer cursor.Close(ctx)

	var found []models.CommunityRecipe
	if err := cursor.All(ctx, &found); err != nil {
		return nil, fmt.Errorf("decode recipes: %w", err)
	}
	byID := make(map[primitive.ObjectID]models.CommunityRecipe, len(found))
	for _, r := range found {
		byID[r.ID] = r
	}

	recipes := make([]models.CommunityRecipe, 0, len(ids))
	for _, id := range ids {
		if r, ok := byID[id]; ok {
			recipes = append(recipes, r)
		}
	}
	return recipes, nil
}

func (s *MongoStore) CreateRecipe(ctx context.Context, r *models.CommunityRecipe) error {
	now := s.now().UTC()
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	r.CreatedAt = now
	r.UpdatedAt = now
	r.ApplyDefaults()

	if _, err := s.RecipeCollection.InsertOne(ctx, r); err != nil {
		return fmt.Errorf("insert recipe: %w", err)
	}
	return nil
}

func updateDoc(upd models.RecipeUpdate, now time.Time) bson.M {
	set := bson.M{"updatedAt": now}
	if upd.Title != nil {
		set["title"] = *upd.Title
	}
	if upd.Ingredients != nil {
		set["ingredients"] = upd.Ingredients
	}
	if upd.Instructions != nil {
		set["instructions"] = upd.Instructions
	}
	if upd.CookingTime != nil {
		set["cookingTime"] = *upd.CookingTime
	}
	if upd.Servings != nil {
		set["servings"] = *upd.Servings
	}
	if upd.Difficulty != nil {
		set["difficulty"] = *upd.Difficulty
	}
	if upd.Tags != nil {
		set["tags"] = upd.Tags
	}
	if upd.Image != nil {
		set["image"] = *upd.Image
	}
	if upd.Thumbnail != nil {
		set["thumbnail"] = *upd.Thumbnail
	}
	return bson.M{"$set": set}
}

// ownerMiss resolves why an owner-scoped write matched nothing.
func (s *MongoStore) ownerMiss(ctx context.Context, id primitive.ObjectID) error {
	n, err := s.RecipeCollection.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("count recipe %s: %w", id.Hex(), err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return ErrForbidden
}

func (s *MongoStore) UpdateRecipe(ctx context.Context, id, owner primitive.ObjectID, upd models.RecipeUpdate) (*models.CommunityRecipe, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var recipe models.CommunityRecipe
	err := s.RecipeCollection.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "user": owner},
		updateDoc(upd, s.now().UTC()),
		opts,
	).Decode(&recipe)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, s.ownerMiss(ctx, id)
	}
	if err != nil {
		return nil, fmt.Errorf("update recipe %s: %w", id.Hex(), err)
	}
	return &recipe, nil
}

func (s *MongoStore) DeleteRecipe(ctx context.Context, id, owner primitive.ObjectID) (*models.CommunityRecipe, error) {
	var recipe models.CommunityRecipe
	err := s.RecipeCollection.FindOneAndDelete(ctx, bson.M{"_id": id, "user": owner}).Decode(&recipe)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, s.ownerMiss(ctx, id)
	}
	if err != nil {
		return nil, fmt.Errorf("delete recipe %s: %w", id.Hex(), err)
	}
	return &recipe, nil
}

// AddReview appends the review only when the user has not reviewed the recipe
// yet, and recomputes the rating from the stored reviews in the same update.
func (s *MongoStore) AddReview(ctx context.Context, id primitive.ObjectID, rv models.Review) (*models.CommunityRecipe, error) {
	now := s.now().UTC()
	if rv.ID.IsZero() {
		rv.ID = primitive.NewObjectID()
	}
	if rv.CreatedAt.IsZero() {
		rv.CreatedAt = now
	}

	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "reviews", Value: bson.D{{Key: "$concatArrays", Value: bson.A{
				bson.D{{Key: "$ifNull", Value: bson.A{"$reviews", bson.A{}}}},
				bson.D{{Key: "$literal", Value: bson.A{rv}}},
			}}}},
			{Key: "updatedAt", Value: now},
		}}},
		{{Key: "$set", Value: bson.D{
			{Key: "rating", Value: bson.D{{Key: "$avg", Value: "$reviews.rating"}}},
		}}},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var recipe models.CommunityRecipe
	err := s.RecipeCollection.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "reviews.user": bson.M{"$ne": rv.User}},
		pipeline,
		opts,
	).Decode(&recipe)
	if errors.Is(err, mongo.ErrNoDocuments) {
		n, cerr := s.RecipeCollection.CountDocuments(ctx, bson.M{"_id": id})
		if cerr != nil {
			return nil, fmt.Errorf("count recipe %s: %w", id.Hex(), cerr)
		}
		if n == 0 {
			return nil, ErrNotFound
		}
		return nil, ErrAlreadyReviewed
	}
	if err != nil {
		return nil, fmt.Errorf("add review to %s: %w", id.Hex(), err)
	}
	return &recipe, nil
}

func (s *MongoStore) RecipeTags(ctx context.Context) ([]string, error) {
	values, err := s.RecipeCollection.Distinct(ctx, "tags", bson.M{})
	if err != nil {
		return nil, fmt.Errorf("distinct tags: %w", err)
	}
	tags := make([]string, 0, len(values))
	for _, v := range values {
		if t, ok := v.(string); ok && t != "" {
			tags = append(tags, t)
		}
	}
	sort.Strings(tags)
	return tags, nil
}

func (s *MongoStore) CreateUser(ctx context.Context, u *models.User) error {
	now := s.now().UTC()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	u.Email = models.NormalizeEmail(u.Email)
	if u.SavedRecipes == nil {
		u.SavedRecipes = []primitive.ObjectID{}
	}
	u.CreatedAt = now
	u.UpdatedAt = now

	_, err := s.UserCollection.InsertOne(ctx, u)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *MongoStore) findUser(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	err := s.UserCollection.FindOne(ctx, filter).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}

func (s *MongoStore) FindUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.findUser(ctx, bson.M{"_id": id})
}

func (s *MongoStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findUser(ctx, bson.M{"email": models.NormalizeEmail(email)})
}

func (s *MongoStore) UserExists(ctx context.Context, email, username string) (bool, error) {
	n, err := s.UserCollection.CountDocuments(ctx, bson.M{"$or": []bson.M{
		{"email": models.NormalizeEmail(email)},
		{"username": username},
	}})
	if err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	return n > 0, nil
}

func (s *MongoStore) SaveRecipe(ctx context.Context, userID, recipeID primitive.ObjectID) ([]primitive.ObjectID, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var user models.User
	err := s.UserCollection.FindOneAndUpdate(ctx,
		bson.M{"_id": userID, "savedRecipes": bson.M{"$ne": recipeID}},
		bson.M{
			"$push": bson.M{"savedRecipes": recipeID},
			"$set":  bson.M{"updatedAt": s.now().UTC()},
		},
		opts,
	).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if _, ferr := s.FindUserByID(ctx, userID); ferr != nil {
			return nil, ferr
		}
		return nil, ErrAlreadySaved
	}
	if err != nil {
		return nil, fmt.Errorf("save recipe: %w", err)
	}
	return user.SavedRecipes, nil
}

func (s *MongoStore) RemoveRecipe(ctx context.Context, userID, recipeID primitive.ObjectID) ([]primitive.ObjectID, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var user models.User
	err := s.UserCollection.FindOneAndUpdate(ctx,
		bson.M{"_id": userID, "savedRecipes": recipeID},
		bson.M{
			"$pull": bson.M{"savedRecipes": recipeID},
			"$set":  bson.M{"updatedAt": s.now().UTC()},
		},
		opts,
	).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if _, ferr := s.FindUserByID(ctx, userID); ferr != nil {
			return nil, ferr
		}
		return nil, ErrNotSaved
	}
	if err != nil {
		return nil, fmt.Errorf("remove recipe: %w", err)
	}
	if user.SavedRecipes == nil {
		user.SavedRecipes = []primitive.ObjectID{}
	}
	return user.SavedRecipes, nil
}
