package main

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MikeMC777/storefront/internal/basket"
	"github.com/MikeMC777/storefront/internal/catalog"
	"github.com/MikeMC777/storefront/internal/contact"
	"github.com/MikeMC777/storefront/internal/gateway"
	"github.com/MikeMC777/storefront/internal/notify"
	"github.com/MikeMC777/storefront/internal/order"
	"github.com/MikeMC777/storefront/internal/otp"
	"github.com/MikeMC777/storefront/internal/user"
	"github.com/MikeMC777/storefront/internal/wishlist"
)

//
// ---------- STUBS & FAKES ----------
//

// memUsers implements user.Repository in memory.
type memUsers struct {
	mu   sync.Mutex
	byID map[string]*user.User
}

func newMemUsers() *memUsers { return &memUsers{byID: map[string]*user.User{}} }

func (m *memUsers) Create(ctx context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.byID {
		if strings.EqualFold(x.Email, u.Email) || x.Username == u.Username {
			return user.ErrAlreadyExist
		}
	}
	u.IsActive = true
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	m.byID[u.ID] = &cp
	return nil
}

func (m *memUsers) GetByID(ctx context.Context, id string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, user.ErrNotFound
}

func (m *memUsers) List(ctx context.Context, limit, offset int) ([]user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []user.User{}
	for _, u := range m.byID {
		out = append(out, *u)
	}
	return out, nil
}

func (m *memUsers) SetActive(ctx context.Context, id string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return user.ErrNotFound
	}
	u.IsActive = active
	return nil
}

func (m *memUsers) update(id string, f func(u *user.User)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f(m.byID[id])
}

// memCatalog implements catalog.Repository; memBaskets reserves stock against it.
type memCatalog struct {
	mu         sync.Mutex
	products   map[string]*catalog.Product
	categories []catalog.Category
	media      []catalog.Media
}

func newMemCatalog() *memCatalog { return &memCatalog{products: map[string]*catalog.Product{}} }

func (m *memCatalog) Create(ctx context.Context, p *catalog.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	m.products[p.ID] = &cp
	return nil
}

func (m *memCatalog) GetByID(ctx context.Context, id string) (*catalog.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memCatalog) List(ctx context.Context, q catalog.Query) ([]catalog.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []catalog.Product{}
	for _, p := range m.products {
		if q.CategoryID == "" || p.CategoryID == q.CategoryID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if q.Offset >= len(out) {
		return []catalog.Product{}, nil
	}
	end := q.Offset + q.Limit
	if end > len(out) {
		end = len(out)
	}
	return out[q.Offset:end], nil
}

func (m *memCatalog) Update(ctx context.Context, id string, in catalog.UpdateProductRequest) (*catalog.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	if in.Name != "" {
		p.Name = in.Name
	}
	if in.Price != nil {
		p.Price = decimal.RequireFromString(*in.Price)
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
	if in.Available != nil {
		p.Available = *in.Available
	}
	cp := *p
	return &cp, nil
}

func (m *memCatalog) Delete(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return false, nil
	}
	delete(m.products, id)
	return true, nil
}

func (m *memCatalog) ListCategories(ctx context.Context) ([]catalog.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]catalog.Category{}, m.categories...), nil
}

func (m *memCatalog) CreateCategory(ctx context.Context, c *catalog.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.categories {
		if x.Slug == c.Slug {
			return catalog.ErrAlreadyExist
		}
	}
	m.categories = append(m.categories, *c)
	return nil
}

func (m *memCatalog) AddMedia(ctx context.Context, md *catalog.Media) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[md.ProductID]; !ok {
		return catalog.ErrNotFound
	}
	md.CreatedAt = time.Now().UTC()
	m.media = append(m.media, *md)
	return nil
}

func (m *memCatalog) DeleteMedia(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, md := range m.media {
		if md.ID == id {
			m.media = append(m.media[:i], m.media[i+1:]...)
			return nil
		}
	}
	return catalog.ErrMediaNotFound
}

func (m *memCatalog) ListMedia(ctx context.Context, productID string) ([]catalog.Media, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[productID]; !ok {
		return nil, catalog.ErrNotFound
	}
	out := []catalog.Media{}
	for _, md := range m.media {
		if md.ProductID == productID {
			out = append(out, md)
		}
	}
	return out, nil
}

func (m *memCatalog) stock(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.products[id].Stock
}

// memBaskets implements basket.Repository with the same reservation rules as the SQL one.
type memBaskets struct {
	mu    sync.Mutex
	cat   *memCatalog
	items map[string]*basket.Item // by line id
	owner map[string]string       // line id -> user id
	held  map[string]string       // line id -> pending order number
}

func newMemBaskets(cat *memCatalog) *memBaskets {
	return &memBaskets{cat: cat, items: map[string]*basket.Item{}, owner: map[string]string{}, held: map[string]string{}}
}

func (m *memBaskets) reserve(productID string, delta int) error {
	m.cat.mu.Lock()
	defer m.cat.mu.Unlock()
	p, ok := m.cat.products[productID]
	if !ok {
		return basket.ErrProductNotFound
	}
	if p.Stock-delta < 0 {
		return basket.ErrOutOfStock
	}
	p.Stock -= delta
	return nil
}

func (m *memBaskets) Add(ctx context.Context, userID, productID string) (*basket.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, it := range m.items {
		if m.owner[id] == userID && it.ProductID == productID && !it.IsOrderPlaced {
			if it.IsActive && m.held[id] != "" {
				return nil, basket.ErrItemHeld
			}
			if err := m.reserve(productID, 1); err != nil {
				return nil, err
			}
			if it.IsActive {
				it.Quantity++
			} else {
				it.Quantity, it.IsActive = 1, true
			}
			cp := *it
			return &cp, nil
		}
	}
	if err := m.reserve(productID, 1); err != nil {
		return nil, err
	}
	p := m.cat.products[productID]
	it := &basket.Item{ID: uuid.NewString(), BasketID: "b-" + userID, ProductID: productID, ProductName: p.Name, Quantity: 1, IsActive: true, UnitPrice: p.Price}
	m.items[it.ID] = it
	m.owner[it.ID] = userID
	cp := *it
	return &cp, nil
}

func (m *memBaskets) line(userID, itemID string) (*basket.Item, error) {
	it, ok := m.items[itemID]
	if !ok || m.owner[itemID] != userID || !it.Eligible() {
		return nil, basket.ErrItemNotFound
	}
	if m.held[itemID] != "" {
		return nil, basket.ErrItemHeld
	}
	return it, nil
}

func (m *memBaskets) Remove(ctx context.Context, userID, itemID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, err := m.line(userID, itemID)
	if err != nil {
		return err
	}
	if err := m.reserve(it.ProductID, -it.Quantity); err != nil {
		return err
	}
	it.IsActive = false
	return nil
}

func (m *memBaskets) SetQuantity(ctx context.Context, userID, itemID string, qty int) (*basket.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, err := m.line(userID, itemID)
	if err != nil {
		return nil, err
	}
	if err := m.reserve(it.ProductID, qty-it.Quantity); err != nil {
		return nil, err
	}
	it.Quantity = qty
	cp := *it
	return &cp, nil
}

func (m *memBaskets) View(ctx context.Context, userID string) (*basket.View, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []basket.Item
	for id, it := range m.items {
		if m.owner[id] == userID {
			items = append(items, *it)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ProductName < items[j].ProductName })
	return basket.NewView("b-"+userID, items), nil
}

// matches reports whether every linked line is still open at its snapshot quantity.
func (m *memBaskets) matches(items []order.Item) bool {
	for _, it := range items {
		if it.BasketItemID == "" {
			continue
		}
		line, ok := m.items[it.BasketItemID]
		if !ok || !line.Eligible() || line.Quantity != it.Quantity {
			return false
		}
	}
	return true
}

func (m *memBaskets) hold(number string, items []order.Item) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.matches(items) {
		return false
	}
	for _, it := range items {
		if it.BasketItemID != "" {
			m.held[it.BasketItemID] = number
		}
	}
	return true
}

func (m *memBaskets) release(number string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, n := range m.held {
		if n == number {
			delete(m.held, id)
		}
	}
}

// consume marks the linked lines placed, or reports false and changes nothing.
func (m *memBaskets) consume(number string, items []order.Item) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.matches(items) {
		return false
	}
	for _, it := range items {
		if line, ok := m.items[it.BasketItemID]; ok {
			line.IsOrderPlaced = true
			delete(m.held, it.BasketItemID)
		}
	}
	return true
}

// memLedger implements order.Repository; confirmation consumes the linked basket lines.
type memLedger struct {
	mu       sync.Mutex
	baskets  *memBaskets
	users    *memUsers
	orders   map[string]*order.Order // by number
	items    map[string][]order.Item // by order id
	payments map[string]*order.Payment
}

func newMemLedger(b *memBaskets, u *memUsers) *memLedger {
	return &memLedger{
		baskets:  b,
		users:    u,
		orders:   map[string]*order.Order{},
		items:    map[string][]order.Item{},
		payments: map[string]*order.Payment{},
	}
}

func (m *memLedger) CreatePending(ctx context.Context, o *order.Order, items []order.Item, p *order.Payment) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.baskets.hold(o.Number, items) {
		return nil, order.ErrReservationLost
	}
	var superseded []string
	for _, prev := range m.orders {
		if prev.UserID == o.UserID && prev.Status == order.StatusPending {
			m.cancel(prev)
			superseded = append(superseded, prev.Number)
		}
	}
	o.CreatedAt = time.Now().UTC()
	cp := *o
	m.orders[o.Number] = &cp
	m.items[o.ID] = append([]order.Item(nil), items...)
	pc := *p
	m.payments[o.ID] = &pc
	return superseded, nil
}

func (m *memLedger) cancel(o *order.Order) {
	o.Status = order.StatusCancelled
	m.payments[o.ID].Status = order.PaymentFailed
	m.baskets.release(o.Number)
}

func (m *memLedger) byGateway(id string) *order.Order {
	for _, o := range m.orders {
		if o.GatewayOrderID == id {
			return o
		}
	}
	return nil
}

func (m *memLedger) MarkPaid(ctx context.Context, gatewayOrderID, gatewayPaymentID string) (*order.Order, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o := m.byGateway(gatewayOrderID)
	switch {
	case o == nil:
		return nil, false, order.ErrNotFound
	case o.Status == order.StatusPaid:
		cp := *o
		return &cp, true, nil
	case o.Status != order.StatusPending:
		cp := *o
		return &cp, false, order.ErrConflict
	}
	if !m.baskets.consume(o.Number, m.items[o.ID]) {
		cp := *o
		return &cp, false, order.ErrReservationLost
	}
	o.Status = order.StatusPaid
	p := m.payments[o.ID]
	p.Status, p.GatewayPaymentID = order.PaymentPaid, gatewayPaymentID
	cp := *o
	return &cp, false, nil
}

func (m *memLedger) MarkFailed(ctx context.Context, userID, gatewayOrderID string) (*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o := m.byGateway(gatewayOrderID)
	if o == nil || o.UserID != userID {
		return nil, order.ErrNotFound
	}
	if o.Status != order.StatusPending {
		return nil, order.ErrConflict
	}
	m.cancel(o)
	cp := *o
	return &cp, nil
}

func (m *memLedger) GetByNumber(ctx context.Context, number string) (*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[number]
	if !ok {
		return nil, order.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *memLedger) GetItems(ctx context.Context, orderID string) ([]order.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]order.Item(nil), m.items[orderID]...), nil
}

func (m *memLedger) GetPayment(ctx context.Context, orderID string) (*order.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[orderID]
	if !ok {
		return nil, order.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memLedger) list(userID string) []order.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []order.Order{}
	for _, o := range m.orders {
		if userID == "" || o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out
}

func (m *memLedger) ListByUser(ctx context.Context, userID string, limit, offset int) ([]order.Order, error) {
	return m.list(userID), nil
}

func (m *memLedger) ListAll(ctx context.Context, limit, offset int) ([]order.Order, error) {
	return m.list(""), nil
}

func (m *memLedger) UpdateStatus(ctx context.Context, number string, to order.Status) (*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[number]
	if !ok {
		return nil, order.ErrNotFound
	}
	if !order.CanTransition(o.Status, to) {
		return nil, order.ErrInvalidTransition
	}
	if to == order.StatusCancelled {
		m.cancel(o)
	} else {
		o.Status = to
	}
	cp := *o
	return &cp, nil
}

func (m *memLedger) Ledger(ctx context.Context) ([]order.LedgerRow, error) {
	var rows []order.LedgerRow
	for _, o := range m.list("") {
		p, _ := m.GetPayment(ctx, o.ID)
		u, _ := m.users.GetByID(ctx, o.UserID)
		row := order.LedgerRow{Order: o, Payment: *p}
		if u != nil {
			row.Email = u.Email
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// memWishlist implements wishlist.Repository.
type memWishlist struct {
	mu    sync.Mutex
	cat   *memCatalog
	items map[string]wishlist.Item
	owner map[string]string
}

func newMemWishlist(cat *memCatalog) *memWishlist {
	return &memWishlist{cat: cat, items: map[string]wishlist.Item{}, owner: map[string]string{}}
}

func (m *memWishlist) Add(ctx context.Context, userID, productID string) (*wishlist.Item, bool, error) {
	p, err := m.cat.GetByID(ctx, productID)
	if err != nil {
		return nil, false, wishlist.ErrProductNotFound
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, it := range m.items {
		if m.owner[id] == userID && it.ProductID == productID {
			return &it, false, nil
		}
	}
	it := wishlist.Item{ID: uuid.NewString(), ProductID: productID, ProductName: p.Name, Price: p.Price.StringFixed(2), InStock: p.Stock > 0}
	m.items[it.ID] = it
	m.owner[it.ID] = userID
	return &it, true, nil
}

func (m *memWishlist) Remove(ctx context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok || m.owner[id] != userID {
		return wishlist.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *memWishlist) List(ctx context.Context, userID string) ([]wishlist.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []wishlist.Item{}
	for id, it := range m.items {
		if m.owner[id] == userID {
			out = append(out, it)
		}
	}
	return out, nil
}

// memCodes implements otp.Store and applies effects to memUsers.
type memCodes struct {
	mu    sync.Mutex
	users *memUsers
	codes []*otp.Code
}

func (m *memCodes) Insert(ctx context.Context, c *otp.Code) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.codes = append(m.codes, &cp)
	return nil
}

func (m *memCodes) FindUnused(ctx context.Context, userID string, purpose otp.Purpose, hash string) (*otp.Code, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.codes) - 1; i >= 0; i-- {
		c := m.codes[i]
		if c.UserID == userID && c.Purpose == purpose && c.CodeHash == hash && c.UsedAt == nil {
			cp := *c
			return &cp, nil
		}
	}
	return nil, otp.ErrNotFound
}

func (m *memCodes) Consume(ctx context.Context, c *otp.Code, usedAt time.Time, eff otp.Effect) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.codes {
		if x.ID != c.ID {
			continue
		}
		if x.UsedAt != nil {
			return otp.ErrAlreadyUsed
		}
		x.UsedAt = &usedAt
		m.users.update(eff.UserID, func(u *user.User) {
			if eff.PasswordHash != "" {
				u.PasswordHash = eff.PasswordHash
			}
			if eff.VerifyEmail {
				u.EmailVerified = true
			}
		})
		return nil
	}
	return otp.ErrNotFound
}

// stubGateway opens transactions locally and signs with a fixed secret.
type stubGateway struct{ secret string }

func (g stubGateway) OpenTransaction(ctx context.Context, amountMinor int64, currency, receipt string) (*gateway.Transaction, error) {
	return &gateway.Transaction{ID: "order_" + receipt, Entity: "order", Amount: amountMinor, Currency: currency, Receipt: receipt, Status: "created"}, nil
}

func (g stubGateway) VerifySignature(orderID, paymentID, sig string) bool {
	return gateway.Sign(g.secret, orderID, paymentID) == sig
}

func (g stubGateway) KeyID() string { return "rzp_test_key" }

var codeRe = regexp.MustCompile(`\b\d{6}\b`)

// captureMailer records every message sent.
type captureMailer struct {
	mu   sync.Mutex
	sent []notify.Message
}

func (m *captureMailer) Send(ctx context.Context, msg notify.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

// lastCode extracts the code from the most recent plain-text message.
func (m *captureMailer) lastCode() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return ""
	}
	return codeRe.FindString(m.sent[len(m.sent)-1].Text)
}

type countingNotifier struct {
	mu    sync.Mutex
	calls []notify.Confirmation
}

func (n *countingNotifier) OrderPaid(ctx context.Context, c notify.Confirmation) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, c)
	return nil
}

func (n *countingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.calls)
}

// memContact implements contact.Repository.
type memContact struct {
	mu   sync.Mutex
	msgs []contact.Message
}

func (m *memContact) Create(ctx context.Context, msg *contact.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg.CreatedAt = time.Now().UTC()
	m.msgs = append(m.msgs, *msg)
	return nil
}

func (m *memContact) List(ctx context.Context, limit, offset int) ([]contact.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]contact.Message{}, m.msgs...), nil
}

// memStatus implements statusCache with the same generation rule as redis.
type memStatus struct {
	mu  sync.Mutex
	m   map[string]string
	gen map[string]int64
}

func newMemStatus() *memStatus {
	return &memStatus{m: map[string]string{}, gen: map[string]int64{}}
}

func (s *memStatus) Get(ctx context.Context, number string) (string, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m[number]
	if !ok {
		return "", "", false
	}
	parts := strings.SplitN(v, "|", 3)
	if len(parts) != 3 || parts[0] != fmt.Sprint(s.gen[number]) {
		return "", "", false
	}
	return parts[1], parts[2], true
}

func (s *memStatus) Version(ctx context.Context, number string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen[number], nil
}

func (s *memStatus) Set(ctx context.Context, number string, version int64, userID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[number] = fmt.Sprintf("%d|%s|%s", version, userID, status)
	return nil
}

func (s *memStatus) Invalidate(ctx context.Context, number string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen[number]++
	delete(s.m, number)
	return nil
}
