package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront_back_end/internal/models"
)

// Memory est un Store en mémoire avec la même sémantique que Mongo.
// Utilisé par les tests et en développement (STORE_DRIVER=memory).
type Memory struct {
	mu       sync.RWMutex
	products []models.Product
	carts    []models.CartItem
	payments []models.Payment
	users    []models.User
}

func NewMemory() *Memory {
	return &Memory{}
}

func ack(id primitive.ObjectID) InsertResult {
	return InsertResult{Acknowledged: true, InsertedID: id}
}

func (m *Memory) InsertProduct(_ context.Context, p *models.Product) (InsertResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	m.products = append(m.products, *p)
	return ack(p.ID), nil
}

func (m *Memory) filterProducts(keep func(models.Product) bool) []models.Product {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.Product{}
	for _, p := range m.products {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

func (m *Memory) ListProducts(_ context.Context) ([]models.Product, error) {
	return m.filterProducts(func(models.Product) bool { return true }), nil
}

func (m *Memory) ProductsByBrand(_ context.Context, brand string) ([]models.Product, error) {
	return m.filterProducts(func(p models.Product) bool { return p.Brand == brand }), nil
}

func (m *Memory) ProductsByID(_ context.Context, id primitive.ObjectID) ([]models.Product, error) {
	return m.filterProducts(func(p models.Product) bool { return p.ID == id }), nil
}

func (m *Memory) UpsertProduct(_ context.Context, id primitive.ObjectID, p *models.Product) (UpdateResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = id
	for i := range m.products {
		if m.products[i].ID != id {
			continue
		}
		modified := int64(0)
		if m.products[i] != *p {
			modified = 1
		}
		m.products[i] = *p
		return UpdateResult{Acknowledged: true, MatchedCount: 1, ModifiedCount: modified}, nil
	}
	m.products = append(m.products, *p)
	return UpdateResult{Acknowledged: true, UpsertedCount: 1, UpsertedID: id}, nil
}

func (m *Memory) SearchProducts(_ context.Context, query string) ([]models.Product, error) {
	q := strings.ToLower(query)
	return m.filterProducts(func(p models.Product) bool {
		for _, field := range []string{p.Name, p.Brand, p.Category, p.Description} {
			if strings.Contains(strings.ToLower(field), q) {
				return true
			}
		}
		return false
	}), nil
}

func (m *Memory) SetProductPhoto(_ context.Context, id primitive.ObjectID, url string) (UpdateResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.products {
		if m.products[i].ID == id {
			modified := int64(0)
			if m.products[i].Photo != url {
				modified = 1
			}
			m.products[i].Photo = url
			return UpdateResult{Acknowledged: true, MatchedCount: 1, ModifiedCount: modified}, nil
		}
	}
	return UpdateResult{Acknowledged: true}, nil
}

func (m *Memory) ListCartItems(_ context.Context, uid string) ([]models.CartItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.CartItem{}
	for _, item := range m.carts {
		if uid == "" || item.UID == uid {
			out = append(out, item)
		}
	}
	return out, nil
}

func (m *Memory) InsertCartItem(_ context.Context, item *models.CartItem) (InsertResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if item.ID.IsZero() {
		item.ID = primitive.NewObjectID()
	}
	m.carts = append(m.carts, *item)
	return ack(item.ID), nil
}

func (m *Memory) DeleteCartItem(_ context.Context, id primitive.ObjectID, uid string) (DeleteResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, item := range m.carts {
		if item.ID == id && item.UID == uid {
			m.carts = append(m.carts[:i], m.carts[i+1:]...)
			return DeleteResult{Acknowledged: true, DeletedCount: 1}, nil
		}
	}
	return DeleteResult{Acknowledged: true}, nil
}

// RecordPayment est atomique ici : le verrou couvre l'insertion et la suppression.
func (m *Memory) RecordPayment(_ context.Context, p *models.Payment) (Settlement, error) {
	ids, err := p.CartObjectIDs()
	if err != nil {
		return Settlement{}, ErrInvalidID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if p.CheckoutToken != "" {
		for _, existing := range m.payments {
			if existing.CheckoutToken == p.CheckoutToken {
				return Settlement{
					Payment:  ack(existing.ID),
					Carts:    DeleteResult{Acknowledged: true},
					Replayed: true,
				}, nil
			}
		}
	}

	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if p.Status == "" {
		p.Status = models.PaymentStatusPending
	}
	stored := *p
	stored.CartIDs = append([]string(nil), p.CartIDs...)
	m.payments = append(m.payments, stored)

	settled := make(map[primitive.ObjectID]struct{}, len(ids))
	for _, id := range ids {
		settled[id] = struct{}{}
	}
	kept := m.carts[:0]
	var deleted int64
	for _, item := range m.carts {
		if _, ok := settled[item.ID]; ok {
			deleted++
			continue
		}
		kept = append(kept, item)
	}
	m.carts = kept

	return Settlement{
		Payment: ack(p.ID),
		Carts:   DeleteResult{Acknowledged: true, DeletedCount: deleted},
	}, nil
}

func (m *Memory) ListPayments(_ context.Context, uid string) ([]models.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.Payment{}
	for _, p := range m.payments {
		if uid == "" || p.UID == uid {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) SetPaymentStatus(_ context.Context, transactionID, status string) (UpdateResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res := UpdateResult{Acknowledged: true}
	for i := range m.payments {
		if m.payments[i].TransactionID != transactionID {
			continue
		}
		res.MatchedCount++
		if m.payments[i].Status != status {
			m.payments[i].Status = status
			res.ModifiedCount++
		}
	}
	return res, nil
}

func (m *Memory) InsertUser(_ context.Context, u *models.User) (InsertResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	m.users = append(m.users, *u)
	return ack(u.ID), nil
}

func (m *Memory) ListUsers(_ context.Context) ([]models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.User{}, m.users...), nil
}

func (m *Memory) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			found := u
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) Ping(context.Context) error  { return nil }
func (m *Memory) Close(context.Context) error { return nil }
