package catalog

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/aswaq/aswaq-backend/internal/models"
)

// ErrNotFound is returned when a referenced catalog document does not exist.
var ErrNotFound = errors.New("not found")

// Store persists the product/category/order side of the shop. It backs the
// CRUD surface that sits behind the auth layer.
type Store struct {
	products   *mongo.Collection
	categories *mongo.Collection
	orders     *mongo.Collection
}

func NewStore(db *mongo.Database) *Store {
	return &Store{
		products:   db.Collection("products"),
		categories: db.Collection("categories"),
		orders:     db.Collection("orders"),
	}
}

// ListProducts returns a page of products, optionally filtered by category.
func (s *Store) ListProducts(ctx context.Context, category string, page, limit int64) ([]models.Product, error) {
	filter := bson.M{}
	if category != "" {
		oid, err := primitive.ObjectIDFromHex(category)
		if err != nil {
			return nil, ErrNotFound
		}
		filter["category"] = oid
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if page < 1 {
		page = 1
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)
	cur, err := s.products.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Product
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	var p models.Product
	if err := s.products.FindOne(ctx, bson.M{"_id": oid}).Decode(&p); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *Store) CreateProduct(ctx context.Context, p *models.Product) (*models.Product, error) {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	res, err := s.products.InsertOne(ctx, p)
	if err != nil {
		return nil, err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		p.ID = oid
	}
	return p, nil
}

func (s *Store) UpdateProduct(ctx context.Context, id string, set bson.M) (*models.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var p models.Product
	if err := s.products.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&p); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	res, err := s.products.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	cur, err := s.categories.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Category
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) CreateCategory(ctx context.Context, c *models.Category) (*models.Category, error) {
	res, err := s.categories.InsertOne(ctx, c)
	if err != nil {
		return nil, err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		c.ID = oid
	}
	return c, nil
}

func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	res, err := s.categories.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateOrder prices each line from the current catalog and computes the
// total server-side; client-sent prices are ignored.
func (s *Store) CreateOrder(ctx context.Context, userID primitive.ObjectID, items []models.OrderItem, addr models.ShippingAddress, paymentMethod string) (*models.Order, error) {
	var total float64
	for i := range items {
		var p models.Product
		if err := s.products.FindOne(ctx, bson.M{"_id": items[i].Product}).Decode(&p); err != nil {
			if err == mongo.ErrNoDocuments {
				return nil, ErrNotFound
			}
			return nil, err
		}
		items[i].Price = p.Price
		total += p.Price * float64(items[i].Quantity)
	}
	o := &models.Order{
		User:            userID,
		Products:        items,
		TotalAmount:     total,
		Status:          models.OrderPending,
		ShippingAddress: addr,
		PaymentMethod:   paymentMethod,
		PaymentStatus:   "pending",
		OrderDate:       time.Now().UTC(),
	}
	res, err := s.orders.InsertOne(ctx, o)
	if err != nil {
		return nil, err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		o.ID = oid
	}
	return o, nil
}

func (s *Store) ListOrdersByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	cur, err := s.orders.Find(ctx, bson.M{"user": userID}, options.Find().SetSort(bson.D{{Key: "orderDate", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Order
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) UpdateOrderStatus(ctx context.Context, id, status string) (*models.Order, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var o models.Order
	err = s.orders.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"status": status}}, opts).Decode(&o)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}
