package basket

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MikeMC777/storefront/internal/apperr"
)

// memRepo keeps products and lines in memory and applies the same reservation rules
// as the SQL implementation, so the service can be exercised without a database.
type memRepo struct {
	mu       sync.Mutex
	basketID string
	owner    string
	stock    map[string]int
	price    map[string]decimal.Decimal
	items    map[string]*Item
	held     map[string]bool
}

func newMemRepo(owner string) *memRepo {
	return &memRepo{
		basketID: uuid.NewString(),
		owner:    owner,
		stock:    map[string]int{},
		price:    map[string]decimal.Decimal{},
		items:    map[string]*Item{},
		held:     map[string]bool{},
	}
}

func (m *memRepo) reserve(productID string, delta int) error {
	if m.stock[productID]-delta < 0 {
		return ErrOutOfStock
	}
	m.stock[productID] -= delta
	return nil
}

func (m *memRepo) Add(ctx context.Context, userID, productID string) (*Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if userID != m.owner {
		return nil, ErrNoBasket
	}
	if _, ok := m.stock[productID]; !ok {
		return nil, ErrProductNotFound
	}
	if err := m.reserve(productID, 1); err != nil {
		return nil, err
	}
	for _, it := range m.items {
		if it.ProductID == productID && !it.IsOrderPlaced {
			if it.IsActive {
				it.Quantity++
			} else {
				it.Quantity, it.IsActive = 1, true
			}
			cp := *it
			return &cp, nil
		}
	}
	it := &Item{ID: uuid.NewString(), BasketID: m.basketID, ProductID: productID, Quantity: 1, IsActive: true, UnitPrice: m.price[productID]}
	m.items[it.ID] = it
	cp := *it
	return &cp, nil
}

func (m *memRepo) owned(userID, itemID string) (*Item, error) {
	it, ok := m.items[itemID]
	if !ok || userID != m.owner || !it.Eligible() {
		return nil, ErrItemNotFound
	}
	if m.held[itemID] {
		return nil, ErrItemHeld
	}
	return it, nil
}

func (m *memRepo) Remove(ctx context.Context, userID, itemID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, err := m.owned(userID, itemID)
	if err != nil {
		return err
	}
	it.IsActive = false
	return m.reserve(it.ProductID, -it.Quantity)
}

func (m *memRepo) SetQuantity(ctx context.Context, userID, itemID string, qty int) (*Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, err := m.owned(userID, itemID)
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

func (m *memRepo) View(ctx context.Context, userID string) (*View, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if userID != m.owner {
		return nil, ErrNoBasket
	}
	var items []Item
	for _, it := range m.items {
		items = append(items, *it)
	}
	return NewView(m.basketID, items), nil
}

func TestAddOutOfStockLeavesStock(t *testing.T) {
	uid, pid := uuid.NewString(), uuid.NewString()
	repo := newMemRepo(uid)
	repo.stock[pid] = 0
	svc := NewService(repo)

	_, err := svc.Add(context.Background(), uid, pid)
	if !apperr.HasCode(err, apperr.CodeOutOfStock) {
		t.Fatalf("want OutOfStock, got %v", err)
	}
	if repo.stock[pid] != 0 {
		t.Fatalf("stock changed to %d", repo.stock[pid])
	}
}

func TestAddRemoveRestoresFullQuantity(t *testing.T) {
	uid, pid := uuid.NewString(), uuid.NewString()
	repo := newMemRepo(uid)
	repo.stock[pid] = 5
	svc := NewService(repo)
	ctx := context.Background()

	it, err := svc.Add(ctx, uid, pid)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Add(ctx, uid, pid); err != nil {
		t.Fatal(err)
	}
	if repo.stock[pid] != 3 {
		t.Fatalf("stock=%d want 3", repo.stock[pid])
	}
	if err := svc.Remove(ctx, uid, it.ID); err != nil {
		t.Fatal(err)
	}
	if repo.stock[pid] != 5 {
		t.Fatalf("stock=%d want 5", repo.stock[pid])
	}

	// re-adding reactivates the removed line with quantity 1
	again, err := svc.Add(ctx, uid, pid)
	if err != nil {
		t.Fatal(err)
	}
	if again.ID != it.ID || again.Quantity != 1 {
		t.Fatalf("got %+v", again)
	}
}

func TestSetQuantityAdjustsStockByDelta(t *testing.T) {
	uid, pid := uuid.NewString(), uuid.NewString()
	repo := newMemRepo(uid)
	repo.stock[pid] = 4
	svc := NewService(repo)
	ctx := context.Background()

	it, _ := svc.Add(ctx, uid, pid)
	if _, err := svc.SetQuantity(ctx, uid, it.ID, 3); err != nil {
		t.Fatal(err)
	}
	if repo.stock[pid] != 1 {
		t.Fatalf("stock=%d want 1", repo.stock[pid])
	}
	if _, err := svc.SetQuantity(ctx, uid, it.ID, 9); !apperr.HasCode(err, apperr.CodeOutOfStock) {
		t.Fatalf("want OutOfStock, got %v", err)
	}
	if _, err := svc.SetQuantity(ctx, uid, it.ID, 1); err != nil {
		t.Fatal(err)
	}
	if repo.stock[pid] != 3 {
		t.Fatalf("stock=%d want 3", repo.stock[pid])
	}
	if _, err := svc.SetQuantity(ctx, uid, it.ID, 0); !apperr.HasCode(err, apperr.CodeValidation) {
		t.Fatalf("want ValidationError, got %v", err)
	}
}

func TestConcurrentAddsNeverOversell(t *testing.T) {
	uid, pid := uuid.NewString(), uuid.NewString()
	repo := newMemRepo(uid)
	repo.stock[pid] = 3
	svc := NewService(repo)

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Add(context.Background(), uid, pid); err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if ok != 3 || repo.stock[pid] != 0 {
		t.Fatalf("ok=%d stock=%d", ok, repo.stock[pid])
	}
}

func TestViewSumsEligibleLines(t *testing.T) {
	items := []Item{
		{ProductID: "a", Quantity: 2, IsActive: true, UnitPrice: decimal.NewFromInt(500)},
		{ProductID: "b", Quantity: 1, IsActive: true, UnitPrice: decimal.NewFromInt(300)},
		{ProductID: "c", Quantity: 4, IsActive: false, UnitPrice: decimal.NewFromInt(999)},
		{ProductID: "d", Quantity: 1, IsActive: true, IsOrderPlaced: true, UnitPrice: decimal.NewFromInt(999)},
	}
	v := NewView("b1", items)
	if !v.Total.Equal(decimal.NewFromInt(1300)) || len(v.Items) != 2 {
		t.Fatalf("total=%s items=%d", v.Total, len(v.Items))
	}
}

func TestUnknownUserHasNoBasket(t *testing.T) {
	svc := NewService(newMemRepo(uuid.NewString()))
	if _, err := svc.View(context.Background(), uuid.NewString()); !apperr.HasCode(err, apperr.CodeNoActiveBasket) {
		t.Fatalf("want NoActiveBasket, got %v", err)
	}
}

func TestMalformedIDsAreNotFound(t *testing.T) {
	uid := uuid.NewString()
	svc := NewService(newMemRepo(uid))
	ctx := context.Background()

	if _, err := svc.Add(ctx, uid, "not-a-uuid"); !apperr.HasCode(err, apperr.CodeProductNotFound) {
		t.Fatalf("want ProductNotFound, got %v", err)
	}
	if err := svc.Remove(ctx, uid, "42"); !apperr.HasCode(err, apperr.CodeItemNotFound) {
		t.Fatalf("want ItemNotFound, got %v", err)
	}
	if _, err := svc.SetQuantity(ctx, uid, "42", 2); !apperr.HasCode(err, apperr.CodeItemNotFound) {
		t.Fatalf("want ItemNotFound, got %v", err)
	}
}

func TestHeldLineCannotChange(t *testing.T) {
	uid, pid := uuid.NewString(), uuid.NewString()
	repo := newMemRepo(uid)
	repo.stock[pid] = 5
	svc := NewService(repo)
	ctx := context.Background()

	it, _ := svc.Add(ctx, uid, pid)
	repo.held[it.ID] = true

	if err := svc.Remove(ctx, uid, it.ID); !apperr.HasCode(err, apperr.CodeBasketLocked) {
		t.Fatalf("remove: want BasketLocked, got %v", err)
	}
	if _, err := svc.SetQuantity(ctx, uid, it.ID, 3); !apperr.HasCode(err, apperr.CodeBasketLocked) {
		t.Fatalf("set quantity: want BasketLocked, got %v", err)
	}
	if repo.stock[pid] != 4 {
		t.Fatalf("stock=%d want 4", repo.stock[pid])
	}
}
