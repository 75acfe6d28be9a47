package repository

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"bazario/models"
)

// MemoryStore is an in-memory implementation of every repository, used by
// the test suite and local development. A single RWMutex emulates the
// store's serialization; MemoryTx takes the write lock for the duration of
// a transaction and marks the context so nested calls skip locking.
type MemoryStore struct {
	mu sync.RWMutex

	nextUserID    int64
	nextProductID int64
	nextOrderID   int64
	nextPaymentID int64
	nextReviewID  int64
	nextNotifID   int64
	nextProfileID int64
	nextOutboxID  int64

	users          map[int64]models.User
	products       map[int64]models.Product
	orders         map[int64]models.Order
	payments       map[int64]models.Payment
	reviews        map[int64]models.Review
	notifications  map[int64]models.Notification
	vendorProfiles map[int64]models.VendorProfile
	outbox         map[int64]OutboxRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextUserID:    1,
		nextProductID: 1,
		nextOrderID:   1,
		nextPaymentID: 1,
		nextReviewID:  1,
		nextNotifID:   1,
		nextProfileID: 1,
		nextOutboxID:  1,

		users:          make(map[int64]models.User),
		products:       make(map[int64]models.Product),
		orders:         make(map[int64]models.Order),
		payments:       make(map[int64]models.Payment),
		reviews:        make(map[int64]models.Review),
		notifications:  make(map[int64]models.Notification),
		vendorProfiles: make(map[int64]models.VendorProfile),
		outbox:         make(map[int64]OutboxRecord),
	}
}

type memTxKey struct{}

func inMemTx(ctx context.Context) bool {
	v, ok := ctx.Value(memTxKey{}).(bool)
	return ok && v
}

func (m *MemoryStore) rlock(ctx context.Context) {
	if !inMemTx(ctx) {
		m.mu.RLock()
	}
}

func (m *MemoryStore) runlock(ctx context.Context) {
	if !inMemTx(ctx) {
		m.mu.RUnlock()
	}
}

func (m *MemoryStore) wlock(ctx context.Context) {
	if !inMemTx(ctx) {
		m.mu.Lock()
	}
}

func (m *MemoryStore) wunlock(ctx context.Context) {
	if !inMemTx(ctx) {
		m.mu.Unlock()
	}
}

// MemoryTx emulates a transaction with the store write lock.
type MemoryTx struct {
	store *MemoryStore
}

func NewMemoryTx(store *MemoryStore) *MemoryTx {
	return &MemoryTx{store: store}
}

var _ TxManager = (*MemoryTx)(nil)

func (tx *MemoryTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if inMemTx(ctx) {
		return fn(ctx)
	}
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	return fn(context.WithValue(ctx, memTxKey{}, true))
}

// --- users ---

type MemoryUsers struct {
	store *MemoryStore
}

func NewMemoryUsers(store *MemoryStore) *MemoryUsers {
	return &MemoryUsers{store: store}
}

var _ UserRepository = (*MemoryUsers)(nil)

func (r *MemoryUsers) Create(ctx context.Context, u *models.User) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)
	for _, existing := range r.store.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return ErrDuplicateEmail
		}
	}
	u.ID = r.store.nextUserID
	r.store.nextUserID++
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	r.store.users[u.ID] = *u
	return nil
}

func (r *MemoryUsers) GetByID(ctx context.Context, id int64) (*models.User, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)
	u, ok := r.store.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := u
	return &cp, nil
}

func (r *MemoryUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)
	for _, u := range r.store.users {
		if strings.EqualFold(u.Email, email) {
			cp := u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryUsers) GetByVerificationToken(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)
	for _, u := range r.store.users {
		if u.VerificationToken == token {
			cp := u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryUsers) Update(ctx context.Context, u *models.User) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)
	if _, ok := r.store.users[u.ID]; !ok {
		return ErrNotFound
	}
	for id, existing := range r.store.users {
		if id != u.ID && strings.EqualFold(existing.Email, u.Email) {
			return ErrDuplicateEmail
		}
	}
	u.UpdatedAt = time.Now().UTC()
	r.store.users[u.ID] = *u
	return nil
}

func (r *MemoryUsers) List(ctx context.Context) ([]models.User, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)
	users := make([]models.User, 0, len(r.store.users))
	for _, u := range r.store.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

// Delete removes the account and its vendor profile. Orders and products
// keep their owner id and survive, as the schema allows.
func (r *MemoryUsers) Delete(ctx context.Context, id int64) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)
	if _, ok := r.store.users[id]; !ok {
		return ErrNotFound
	}
	delete(r.store.users, id)
	for pid, profile := range r.store.vendorProfiles {
		if profile.UserID == id {
			delete(r.store.vendorProfiles, pid)
		}
	}
	return nil
}

// --- vendor profiles ---

type MemoryVendorProfiles struct {
	store *MemoryStore
}

func NewMemoryVendorProfiles(store *MemoryStore) *MemoryVendorProfiles {
	return &MemoryVendorProfiles{store: store}
}

var _ VendorProfileRepository = (*MemoryVendorProfiles)(nil)

func (r *MemoryVendorProfiles) Create(ctx context.Context, v *models.VendorProfile) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)
	v.ID = r.store.nextProfileID
	r.store.nextProfileID++
	v.CreatedAt = time.Now().UTC()
	v.UpdatedAt = v.CreatedAt
	r.store.vendorProfiles[v.ID] = *v
	return nil
}

func (r *MemoryVendorProfiles) List(ctx context.Context) ([]models.VendorProfile, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)
	profiles := make([]models.VendorProfile, 0, len(r.store.vendorProfiles))
	for _, v := range r.store.vendorProfiles {
		profiles = append(profiles, v)
	}
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].ID < profiles[j].ID })
	return profiles, nil
}

// --- products ---

type MemoryProducts struct {
	store *MemoryStore
}

func NewMemoryProducts(store *MemoryStore) *MemoryProducts {
	return &MemoryProducts{store: store}
}

var _ ProductRepository = (*MemoryProducts)(nil)

func (r *MemoryProducts) Create(ctx context.Context, p *models.Product) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)
	p.ID = r.store.nextProductID
	r.store.nextProductID++
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt
	r.store.products[p.ID] = *p
	return nil
}

func (r *MemoryProducts) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)
	p, ok := r.store.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := p
	return &cp, nil
}

func (r *MemoryProducts) Update(ctx context.Context, p *models.Product) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)
	if _, ok := r.store.products[p.ID]; !ok {
		return ErrNotFound
	}
	p.UpdatedAt = time.Now().UTC()
	r.store.products[p.ID] = *p
	return nil
}

// Delete removes the product and its reviews. Order items keep their
// frozen snapshot of the product.
func (r *MemoryProducts) Delete(ctx context.Context, id int64) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)
	if _, ok := r.store.products[id]; !ok {
		return ErrNotFound
	}
	delete(r.store.products, id)
	for rid, review := range r.store.reviews {
		if review.ProductID == id {
			delete(r.store.reviews, rid)
		}
	}
	return nil
}

func (r *MemoryProducts) List(ctx context.Context, f ProductFilter) ([]models.Product, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)
	products := make([]models.Product, 0)
	for _, p := range r.store.products {
		if f.NameSubstring != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.NameSubstring)) {
			continue
		}
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if f.VendorID != 0 && p.VendorID != f.VendorID {
			continue
		}
		if f.MinPrice != nil && p.Price.LessThan(*f.MinPrice) {
			continue
		}
		if f.MaxPrice != nil && p.Price.GreaterThan(*f.MaxPrice) {
			continue
		}
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products, nil
}

func (r *MemoryProducts) AdjustStock(ctx context.Context, productID, delta int64) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)
	p, ok := r.store.products[productID]
	if !ok {
		return ErrNotFound
	}
	if p.Stock+delta < 0 {
		return ErrInsufficientStock
	}
	p.Stock += delta
	p.UpdatedAt = time.Now().UTC()
	r.store.products[productID] = p
	return nil
}

// --- orders ---

type MemoryOrders struct {
	store *MemoryStore
}

func NewMemoryOrders(store *MemoryStore) *MemoryOrders {
	return &MemoryOrders{store: store}
}

var _ OrderRepository = (*MemoryOrders)(nil)

func (r *MemoryOrders) Create(ctx context.Context, o *models.Order) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)
	o.ID = r.store.nextOrderID
	r.store.nextOrderID++
	o.CreatedAt = time.Now().UTC()
	o.UpdatedAt = o.CreatedAt
	r.store.orders[o.ID] = cloneOrder(*o)
	return nil
}

func (r *MemoryOrders) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)
	o, ok := r.store.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := cloneOrder(o)
	return &cp, nil
}

func (r *MemoryOrders) ListByCustomer(ctx context.Context, customerID int64) ([]models.Order, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)
	orders := make([]models.Order, 0)
	for _, o := range r.store.orders {
		if o.CustomerID == customerID {
			orders = append(orders, cloneOrder(o))
		}
	}
	sortOrders(orders)
	return orders, nil
}

func (r *MemoryOrders) ListAll(ctx context.Context) ([]models.OrderWithCustomer, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)
	orders := make([]models.OrderWithCustomer, 0, len(r.store.orders))
	for _, o := range r.store.orders {
		orders = append(orders, r.joinCustomer(o))
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID > orders[j].ID })
	return orders, nil
}

func (r *MemoryOrders) ListByProducts(ctx context.Context, productIDs []int64) ([]models.OrderWithCustomer, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}
	wanted := make(map[int64]bool, len(productIDs))
	for _, id := range productIDs {
		wanted[id] = true
	}
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)
	orders := make([]models.OrderWithCustomer, 0)
	for _, o := range r.store.orders {
		for _, it := range o.Items {
			if wanted[it.ProductID] {
				orders = append(orders, r.joinCustomer(o))
				break
			}
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID > orders[j].ID })
	return orders, nil
}

func (r *MemoryOrders) SetStatus(ctx context.Context, id int64, status models.OrderStatus, stockAdjusted bool) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)
	o, ok := r.store.orders[id]
	if !ok {
		return ErrNotFound
	}
	o.Status = status
	o.StockAdjusted = stockAdjusted
	o.UpdatedAt = time.Now().UTC()
	r.store.orders[id] = o
	return nil
}

// Delete removes the order, its items and its payment rows.
func (r *MemoryOrders) Delete(ctx context.Context, id int64) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)
	if _, ok := r.store.orders[id]; !ok {
		return ErrNotFound
	}
	delete(r.store.orders, id)
	for pid, p := range r.store.payments {
		if p.OrderID == id {
			delete(r.store.payments, pid)
		}
	}
	return nil
}

func (r *MemoryOrders) joinCustomer(o models.Order) models.OrderWithCustomer {
	owc := models.OrderWithCustomer{Order: cloneOrder(o)}
	if u, ok := r.store.users[o.CustomerID]; ok {
		owc.CustomerName = u.Name
		owc.CustomerEmail = u.Email
	}
	return owc
}

func cloneOrder(o models.Order) models.Order {
	items := make([]models.OrderItem, len(o.Items))
	copy(items, o.Items)
	o.Items = items
	return o
}

func sortOrders(orders []models.Order) {
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID > orders[j].ID })
}

// --- payments ---

type MemoryPayments struct {
	store *MemoryStore
}

func NewMemoryPayments(store *MemoryStore) *MemoryPayments {
	return &MemoryPayments{store: store}
}

var _ PaymentRepository = (*MemoryPayments)(nil)

func (r *MemoryPayments) Create(ctx context.Context, p *models.Payment) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)
	p.ID = r.store.nextPaymentID
	r.store.nextPaymentID++
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt
	r.store.payments[p.ID] = *p
	return nil
}

func (r *MemoryPayments) GetBySession(ctx context.Context, sessionID string) (*models.Payment, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)
	var latest *models.Payment
	for _, p := range r.store.payments {
		if p.SessionID == sessionID && (latest == nil || p.ID > latest.ID) {
			cp := p
			latest = &cp
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	return latest, nil
}

func (r *MemoryPayments) SetStatus(ctx context.Context, id int64, status models.PaymentStatus) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)
	p, ok := r.store.payments[id]
	if !ok {
		return ErrNotFound
	}
	p.Status = status
	p.UpdatedAt = time.Now().UTC()
	r.store.payments[id] = p
	return nil
}

func (r *MemoryPayments) ListByOrder(ctx context.Context, orderID int64) ([]models.Payment, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)
	payments := make([]models.Payment, 0)
	for _, p := range r.store.payments {
		if p.OrderID == orderID {
			payments = append(payments, p)
		}
	}
	sort.Slice(payments, func(i, j int) bool { return payments[i].ID < payments[j].ID })
	return payments, nil
}

// --- reviews ---

type MemoryReviews struct {
	store *MemoryStore
}

func NewMemoryReviews(store *MemoryStore) *MemoryReviews {
	return &MemoryReviews{store: store}
}

var _ ReviewRepository = (*MemoryReviews)(nil)

func (r *MemoryReviews) Create(ctx context.Context, review *models.Review) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)
	review.ID = r.store.nextReviewID
	r.store.nextReviewID++
	review.CreatedAt = time.Now().UTC()
	r.store.reviews[review.ID] = *review
	return nil
}

func (r *MemoryReviews) ListByProduct(ctx context.Context, productID int64) ([]models.Review, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)
	reviews := make([]models.Review, 0)
	for _, review := range r.store.reviews {
		if review.ProductID == productID {
			reviews = append(reviews, review)
		}
	}
	sort.Slice(reviews, func(i, j int) bool { return reviews[i].ID > reviews[j].ID })
	return reviews, nil
}

// --- notifications ---

type MemoryNotifications struct {
	store *MemoryStore
}

func NewMemoryNotifications(store *MemoryStore) *MemoryNotifications {
	return &MemoryNotifications{store: store}
}

var _ NotificationRepository = (*MemoryNotifications)(nil)

func (r *MemoryNotifications) Create(ctx context.Context, n *models.Notification) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)
	n.ID = r.store.nextNotifID
	r.store.nextNotifID++
	n.CreatedAt = time.Now().UTC()
	r.store.notifications[n.ID] = *n
	return nil
}

func (r *MemoryNotifications) ListByVendor(ctx context.Context, vendorID int64) ([]models.Notification, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)
	notifications := make([]models.Notification, 0)
	for _, n := range r.store.notifications {
		if n.VendorID == vendorID {
			notifications = append(notifications, n)
		}
	}
	sort.Slice(notifications, func(i, j int) bool { return notifications[i].ID > notifications[j].ID })
	return notifications, nil
}

func (r *MemoryNotifications) MarkRead(ctx context.Context, id, vendorID int64) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)
	n, ok := r.store.notifications[id]
	if !ok || n.VendorID != vendorID {
		return ErrNotFound
	}
	n.IsRead = true
	r.store.notifications[id] = n
	return nil
}

// --- outbox ---

type MemoryOutbox struct {
	store *MemoryStore
}

func NewMemoryOutbox(store *MemoryStore) *MemoryOutbox {
	return &MemoryOutbox{store: store}
}

var _ OutboxRepository = (*MemoryOutbox)(nil)

func (r *MemoryOutbox) Insert(ctx context.Context, kind models.EventKind, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "marshal outbox payload")
	}
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)
	rec := OutboxRecord{
		ID:        r.store.nextOutboxID,
		EventID:   uuid.NewString(),
		Kind:      string(kind),
		Payload:   data,
		CreatedAt: time.Now().UTC(),
	}
	r.store.nextOutboxID++
	r.store.outbox[rec.ID] = rec
	return nil
}

func (r *MemoryOutbox) FetchPending(ctx context.Context, limit int) ([]OutboxRecord, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)
	records := make([]OutboxRecord, 0)
	for _, rec := range r.store.outbox {
		if rec.SentAt == nil {
			records = append(records, rec)
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (r *MemoryOutbox) MarkSent(ctx context.Context, id int64) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)
	rec, ok := r.store.outbox[id]
	if !ok {
		return ErrNotFound
	}
	now := time.Now().UTC()
	rec.SentAt = &now
	r.store.outbox[id] = rec
	return nil
}
