// Package memory is an in-process implementation of the repository
// contracts, used by STORE_DRIVER=memory and by tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"orderpro/models"
	"orderpro/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store holds every collection behind one mutex, so each single-document
// operation is atomic as it is in MongoDB.
type Store struct {
	mu         sync.Mutex
	seq        int64
	customers  map[primitive.ObjectID]entry[models.Customer]
	products   map[primitive.ObjectID]entry[models.Product]
	orders     map[primitive.ObjectID]entry[models.Order]
	deliveries map[primitive.ObjectID]entry[models.Delivery]
}

type entry[T any] struct {
	seq int64
	doc T
}

func New() *Store {
	return &Store{
		customers:  map[primitive.ObjectID]entry[models.Customer]{},
		products:   map[primitive.ObjectID]entry[models.Product]{},
		orders:     map[primitive.ObjectID]entry[models.Order]{},
		deliveries: map[primitive.ObjectID]entry[models.Delivery]{},
	}
}

// Repositories exposes the store through the repository contracts.
func (s *Store) Repositories() *repository.Store {
	return &repository.Store{
		Customers:  (*customerRepo)(s),
		Products:   (*productRepo)(s),
		Orders:     (*orderRepo)(s),
		Deliveries: (*deliveryRepo)(s),
		Tx:         repository.NoTransaction{},
	}
}

func (s *Store) next() int64 {
	s.seq++
	return s.seq
}

func sorted[T any](m map[primitive.ObjectID]entry[T], less func(a, b entry[T]) bool) []T {
	entries := make([]entry[T], 0, len(m))
	for _, e := range m {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return less(entries[i], entries[j]) })
	out := make([]T, len(entries))
	for i, e := range entries {
		out[i] = e.doc
	}
	return out
}

func bySeq[T any](a, b entry[T]) bool { return a.seq < b.seq }

type customerRepo Store

func (r *customerRepo) FindByID(_ context.Context, id string) (*models.Customer, error) {
	oid, err := repository.ParseID(id)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.customers[oid]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := e.doc
	return &c, nil
}

func (r *customerRepo) FindByIDs(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[primitive.ObjectID]*models.Customer, len(ids))
	for _, id := range ids {
		if e, ok := r.customers[id]; ok {
			c := e.doc
			out[id] = &c
		}
	}
	return out, nil
}

func (r *customerRepo) FindByEmail(_ context.Context, email string) (*models.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.customers {
		if strings.EqualFold(e.doc.Email, email) {
			c := e.doc
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *customerRepo) FindAll(_ context.Context) ([]models.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return sorted(r.customers, bySeq[models.Customer]), nil
}

func (r *customerRepo) emailTaken(email string, except primitive.ObjectID) bool {
	for id, e := range r.customers {
		if id != except && strings.EqualFold(e.doc.Email, email) {
			return true
		}
	}
	return false
}

func (r *customerRepo) Create(_ context.Context, customer *models.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if customer.ID.IsZero() {
		customer.ID = primitive.NewObjectID()
	}
	if r.emailTaken(customer.Email, customer.ID) {
		return repository.ErrDuplicate
	}
	r.customers[customer.ID] = entry[models.Customer]{seq: (*Store)(r).next(), doc: *customer}
	return nil
}

func (r *customerRepo) Update(_ context.Context, customer *models.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.customers[customer.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if r.emailTaken(customer.Email, customer.ID) {
		return repository.ErrDuplicate
	}
	e.doc = *customer
	r.customers[customer.ID] = e
	return nil
}

func (r *customerRepo) Delete(_ context.Context, id string) error {
	oid, err := repository.ParseID(id)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.customers[oid]; !ok {
		return repository.ErrNotFound
	}
	delete(r.customers, oid)
	return nil
}

func (r *customerRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.customers)), nil
}

type productRepo Store

func (r *productRepo) FindByID(_ context.Context, id string) (*models.Product, error) {
	oid, err := repository.ParseID(id)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.products[oid]
	if !ok {
		return nil, repository.ErrNotFound
	}
	p := e.doc
	return &p, nil
}

func (r *productRepo) FindByIDs(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[primitive.ObjectID]*models.Product, len(ids))
	for _, id := range ids {
		if e, ok := r.products[id]; ok {
			p := e.doc
			out[id] = &p
		}
	}
	return out, nil
}

func (r *productRepo) FindAll(_ context.Context) ([]models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return sorted(r.products, bySeq[models.Product]), nil
}

func (r *productRepo) FindLowStock(_ context.Context, threshold, limit int) ([]models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := sorted(r.products, func(a, b entry[models.Product]) bool {
		if a.doc.CountInStock != b.doc.CountInStock {
			return a.doc.CountInStock < b.doc.CountInStock
		}
		return a.seq < b.seq
	})
	out := []models.Product{}
	for _, p := range all {
		if len(out) == limit {
			break
		}
		if p.CountInStock <= threshold {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *productRepo) Create(_ context.Context, product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if product.ID.IsZero() {
		product.ID = primitive.NewObjectID()
	}
	r.products[product.ID] = entry[models.Product]{seq: (*Store)(r).next(), doc: *product}
	return nil
}

func (r *productRepo) Patch(_ context.Context, id string, patch models.ProductPatch) (*models.Product, error) {
	oid, err := repository.ParseID(id)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.products[oid]
	if !ok {
		return nil, repository.ErrNotFound
	}
	patch.Apply(&e.doc)
	r.products[oid] = e
	p := e.doc
	return &p, nil
}

func (r *productRepo) Delete(_ context.Context, id string) error {
	oid, err := repository.ParseID(id)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[oid]; !ok {
		return repository.ErrNotFound
	}
	delete(r.products, oid)
	return nil
}

func (r *productRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.products)), nil
}

func (r *productRepo) DecrementStock(_ context.Context, id primitive.ObjectID, quantity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.products[id]
	if !ok {
		return repository.ErrNotFound
	}
	if e.doc.CountInStock < quantity {
		return repository.ErrInsufficientStock
	}
	e.doc.CountInStock -= quantity
	e.doc.UpdatedAt = time.Now().UTC()
	r.products[id] = e
	return nil
}

func (r *productRepo) IncrementStock(_ context.Context, id primitive.ObjectID, quantity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.products[id]
	if !ok {
		return repository.ErrNotFound
	}
	e.doc.CountInStock += quantity
	e.doc.UpdatedAt = time.Now().UTC()
	r.products[id] = e
	return nil
}

type orderRepo Store

func (r *orderRepo) FindByID(_ context.Context, id string) (*models.Order, error) {
	oid, err := repository.ParseID(id)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.orders[oid]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyOrder(e.doc), nil
}

func (r *orderRepo) FindByIDs(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[primitive.ObjectID]*models.Order, len(ids))
	for _, id := range ids {
		if e, ok := r.orders[id]; ok {
			out[id] = copyOrder(e.doc)
		}
	}
	return out, nil
}

func (r *orderRepo) FindAll(_ context.Context) ([]models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	orders := sorted(r.orders, func(a, b entry[models.Order]) bool {
		if !a.doc.OrderDate.Equal(b.doc.OrderDate) {
			return a.doc.OrderDate.After(b.doc.OrderDate)
		}
		return a.seq < b.seq
	})
	for i := range orders {
		orders[i] = *copyOrder(orders[i])
	}
	return orders, nil
}

func (r *orderRepo) Create(_ context.Context, order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	r.orders[order.ID] = entry[models.Order]{seq: (*Store)(r).next(), doc: *copyOrder(*order)}
	return nil
}

func (r *orderRepo) Update(_ context.Context, order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.orders[order.ID]
	if !ok {
		return repository.ErrNotFound
	}
	e.doc = *copyOrder(*order)
	r.orders[order.ID] = e
	return nil
}

func (r *orderRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.orders, id)
	return nil
}

func (r *orderRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.orders)), nil
}

func (r *orderRepo) SumTotals(_ context.Context) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var sum float64
	for _, e := range r.orders {
		sum += e.doc.Total
	}
	return models.RoundCents(sum), nil
}

func copyOrder(o models.Order) *models.Order {
	o.Items = append([]models.OrderItem(nil), o.Items...)
	return &o
}

type deliveryRepo Store

func (r *deliveryRepo) FindByID(_ context.Context, id string) (*models.Delivery, error) {
	oid, err := repository.ParseID(id)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.deliveries[oid]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyDelivery(e.doc), nil
}

func (r *deliveryRepo) FindByOrderID(_ context.Context, orderID primitive.ObjectID) (*models.Delivery, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d := r.byOrder(orderID); d != nil {
		return d, nil
	}
	return nil, repository.ErrNotFound
}

func (r *deliveryRepo) byOrder(orderID primitive.ObjectID) *models.Delivery {
	for _, e := range r.deliveries {
		if e.doc.Order == orderID {
			return copyDelivery(e.doc)
		}
	}
	return nil
}

func (r *deliveryRepo) FindAll(_ context.Context) ([]models.Delivery, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	deliveries := sorted(r.deliveries, bySeq[models.Delivery])
	for i := range deliveries {
		deliveries[i] = *copyDelivery(deliveries[i])
	}
	return deliveries, nil
}

func (r *deliveryRepo) CreateForOrder(_ context.Context, delivery *models.Delivery) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing := r.byOrder(delivery.Order); existing != nil {
		*delivery = *existing
		return nil
	}
	if delivery.ID.IsZero() {
		delivery.ID = primitive.NewObjectID()
	}
	r.deliveries[delivery.ID] = entry[models.Delivery]{seq: (*Store)(r).next(), doc: *copyDelivery(*delivery)}
	return nil
}

func (r *deliveryRepo) Update(_ context.Context, delivery *models.Delivery) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.deliveries[delivery.ID]
	if !ok {
		return repository.ErrNotFound
	}
	e.doc = *copyDelivery(*delivery)
	r.deliveries[delivery.ID] = e
	return nil
}

func (r *deliveryRepo) DeleteByOrderID(_ context.Context, orderID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, e := range r.deliveries {
		if e.doc.Order == orderID {
			delete(r.deliveries, id)
		}
	}
	return nil
}

func copyDelivery(d models.Delivery) *models.Delivery {
	if d.Date != nil {
		t := *d.Date
		d.Date = &t
	}
	return &d
}
