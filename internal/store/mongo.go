package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront_back_end/internal/models"
)

// Mongo implémente Store sur une base MongoDB. Le client est partagé par
// toutes les requêtes ; le pool de connexions du driver fait le reste.
type Mongo struct {
	client       *mongo.Client
	db           *mongo.Database
	transactions bool
}

// NewMongo construit le store. transactions=false désactive l'enveloppe
// transactionnelle de RecordPayment (mongod standalone sans replica set).
func NewMongo(client *mongo.Client, database string, transactions bool) *Mongo {
	return &Mongo{
		client:       client,
		db:           client.Database(database),
		transactions: transactions,
	}
}

func (m *Mongo) products() *mongo.Collection { return m.db.Collection(ProductsCollection) }
func (m *Mongo) carts() *mongo.Collection    { return m.db.Collection(CartsCollection) }
func (m *Mongo) payments() *mongo.Collection { return m.db.Collection(PaymentsCollection) }
func (m *Mongo) users() *mongo.Collection    { return m.db.Collection(UsersCollection) }

// EnsureIndexes crée les index utilisés par les requêtes des handlers.
func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	_, err := m.payments().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "checkoutToken", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"checkoutToken": bson.M{"$exists": true}}),
		},
		{Keys: bson.D{{Key: "uid", Value: 1}}},
		{Keys: bson.D{{Key: "transactionId", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("index payments: %w", err)
	}
	if _, err := m.carts().Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "uid", Value: 1}}}); err != nil {
		return fmt.Errorf("index carts: %w", err)
	}
	// Pas d'unicité sur l'email : plusieurs inscriptions créent plusieurs documents.
	if _, err := m.users().Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "email", Value: 1}}}); err != nil {
		return fmt.Errorf("index users: %w", err)
	}
	if _, err := m.products().Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "brand", Value: 1}}}); err != nil {
		return fmt.Errorf("index products: %w", err)
	}
	return nil
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter interface{}, opts ...*options.FindOptions) ([]T, error) {
	cursor, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	out := []T{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func insertResult(res *mongo.InsertOneResult) InsertResult {
	return InsertResult{Acknowledged: true, InsertedID: res.InsertedID}
}

func updateResult(res *mongo.UpdateResult) UpdateResult {
	return UpdateResult{
		Acknowledged:  true,
		MatchedCount:  res.MatchedCount,
		ModifiedCount: res.ModifiedCount,
		UpsertedCount: res.UpsertedCount,
		UpsertedID:    res.UpsertedID,
	}
}

// --- Produits ---

func (m *Mongo) InsertProduct(ctx context.Context, p *models.Product) (InsertResult, error) {
	res, err := m.products().InsertOne(ctx, p)
	if err != nil {
		return InsertResult{}, fmt.Errorf("insertion produit: %w", err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		p.ID = id
	}
	return insertResult(res), nil
}

func (m *Mongo) ListProducts(ctx context.Context) ([]models.Product, error) {
	return findAll[models.Product](ctx, m.products(), bson.M{})
}

func (m *Mongo) ProductsByBrand(ctx context.Context, brand string) ([]models.Product, error) {
	return findAll[models.Product](ctx, m.products(), bson.M{"brand": brand})
}

func (m *Mongo) ProductsByID(ctx context.Context, id primitive.ObjectID) ([]models.Product, error) {
	return findAll[models.Product](ctx, m.products(), bson.M{"_id": id})
}

// UpsertProduct écrase tous les champs du produit ; un identifiant inconnu
// crée un nouveau document au lieu de renvoyer « introuvable ».
func (m *Mongo) UpsertProduct(ctx context.Context, id primitive.ObjectID, p *models.Product) (UpdateResult, error) {
	p.ID = primitive.NilObjectID
	res, err := m.products().UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": p},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return UpdateResult{}, fmt.Errorf("mise à jour produit: %w", err)
	}
	p.ID = id
	return updateResult(res), nil
}

func (m *Mongo) SearchProducts(ctx context.Context, query string) ([]models.Product, error) {
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}
	filter := bson.M{
		"$or": []bson.M{
			{"name": pattern},
			{"brand": pattern},
			{"category": pattern},
			{"description": pattern},
		},
	}
	return findAll[models.Product](ctx, m.products(), filter)
}

func (m *Mongo) SetProductPhoto(ctx context.Context, id primitive.ObjectID, url string) (UpdateResult, error) {
	res, err := m.products().UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"photo": url}})
	if err != nil {
		return UpdateResult{}, fmt.Errorf("mise à jour photo: %w", err)
	}
	return updateResult(res), nil
}

// --- Panier ---

func (m *Mongo) ListCartItems(ctx context.Context, uid string) ([]models.CartItem, error) {
	filter := bson.M{}
	if uid != "" {
		filter["uid"] = uid
	}
	return findAll[models.CartItem](ctx, m.carts(), filter)
}

func (m *Mongo) InsertCartItem(ctx context.Context, item *models.CartItem) (InsertResult, error) {
	res, err := m.carts().InsertOne(ctx, item)
	if err != nil {
		return InsertResult{}, fmt.Errorf("insertion panier: %w", err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		item.ID = id
	}
	return insertResult(res), nil
}

func (m *Mongo) DeleteCartItem(ctx context.Context, id primitive.ObjectID, uid string) (DeleteResult, error) {
	res, err := m.carts().DeleteOne(ctx, bson.M{"_id": id, "uid": uid})
	if err != nil {
		return DeleteResult{}, fmt.Errorf("suppression panier: %w", err)
	}
	return DeleteResult{Acknowledged: true, DeletedCount: res.DeletedCount}, nil
}

// --- Paiements ---

// RecordPayment insère le paiement puis supprime les lignes de panier qu'il
// règle. Les deux écritures partagent une transaction quand elles sont
// activées ; un checkoutToken déjà vu rejoue le règlement existant.
func (m *Mongo) RecordPayment(ctx context.Context, p *models.Payment) (Settlement, error) {
	cartIDs, err := p.CartObjectIDs()
	if err != nil {
		return Settlement{}, fmt.Errorf("%w: %v", ErrInvalidID, err)
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if p.Status == "" {
		p.Status = models.PaymentStatusPending
	}

	settle := func(sc context.Context) (Settlement, error) {
		if p.CheckoutToken != "" {
			if s, found, err := m.replay(sc, p.CheckoutToken); err != nil || found {
				return s, err
			}
		}
		ins, err := m.payments().InsertOne(sc, p)
		if err != nil {
			return Settlement{}, err
		}
		del, err := m.carts().DeleteMany(sc, bson.M{"_id": bson.M{"$in": cartIDs}})
		if err != nil {
			return Settlement{}, err
		}
		if id, ok := ins.InsertedID.(primitive.ObjectID); ok {
			p.ID = id
		}
		return Settlement{
			Payment: insertResult(ins),
			Carts:   DeleteResult{Acknowledged: true, DeletedCount: del.DeletedCount},
		}, nil
	}

	var s Settlement
	if m.transactions {
		s, err = m.settleInTransaction(ctx, settle)
	} else {
		s, err = settle(ctx)
	}
	if err != nil {
		// Deux requêtes concurrentes avec le même token : l'index unique tranche.
		if p.CheckoutToken != "" && mongo.IsDuplicateKeyError(err) {
			if s, found, rerr := m.replay(ctx, p.CheckoutToken); rerr == nil && found {
				return s, nil
			}
		}
		return Settlement{}, fmt.Errorf("enregistrement paiement: %w", err)
	}
	return s, nil
}

func (m *Mongo) settleInTransaction(ctx context.Context, settle func(context.Context) (Settlement, error)) (Settlement, error) {
	session, err := m.client.StartSession()
	if err != nil {
		return Settlement{}, err
	}
	defer session.EndSession(ctx)

	out, err := session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return settle(sc)
	})
	if err != nil {
		return Settlement{}, err
	}
	return out.(Settlement), nil
}

func (m *Mongo) replay(ctx context.Context, token string) (Settlement, bool, error) {
	var existing models.Payment
	err := m.payments().FindOne(ctx, bson.M{"checkoutToken": token}).Decode(&existing)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Settlement{}, false, nil
	}
	if err != nil {
		return Settlement{}, false, err
	}
	log.Printf("🔁 Paiement déjà enregistré pour le token %s, on rejoue", token)
	return Settlement{
		Payment:  InsertResult{Acknowledged: true, InsertedID: existing.ID},
		Carts:    DeleteResult{Acknowledged: true},
		Replayed: true,
	}, true, nil
}

func (m *Mongo) ListPayments(ctx context.Context, uid string) ([]models.Payment, error) {
	filter := bson.M{}
	if uid != "" {
		filter["uid"] = uid
	}
	return findAll[models.Payment](ctx, m.payments(), filter,
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
}

func (m *Mongo) SetPaymentStatus(ctx context.Context, transactionID, status string) (UpdateResult, error) {
	res, err := m.payments().UpdateMany(ctx,
		bson.M{"transactionId": transactionID},
		bson.M{"$set": bson.M{"status": status}},
	)
	if err != nil {
		return UpdateResult{}, fmt.Errorf("statut paiement: %w", err)
	}
	return updateResult(res), nil
}

// --- Utilisateurs ---

func (m *Mongo) InsertUser(ctx context.Context, u *models.User) (InsertResult, error) {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	res, err := m.users().InsertOne(ctx, u)
	if err != nil {
		return InsertResult{}, fmt.Errorf("insertion utilisateur: %w", err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		u.ID = id
	}
	return insertResult(res), nil
}

func (m *Mongo) ListUsers(ctx context.Context) ([]models.User, error) {
	return findAll[models.User](ctx, m.users(), bson.M{})
}

func (m *Mongo) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := m.users().FindOne(ctx, bson.M{"email": email}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("recherche utilisateur: %w", err)
	}
	return &u, nil
}

func (m *Mongo) Ping(ctx context.Context) error {
	return m.client.Database("admin").RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err()
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
