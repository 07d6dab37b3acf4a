package client

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"comanda/pkg/status"
)

// Store holds the collection snapshots a UI renders from. Collections are
// only ever replaced wholesale by a refresh; mutations go through the API
// first and reload the affected collections after the server confirms them.
// A failed mutation leaves every snapshot untouched.
type Store struct {
	api *Client

	mu              sync.RWMutex
	products        []Product
	tables          []Table
	availableTables []Table
	orders          []Order
}

func NewStore(api *Client) *Store {
	return &Store{api: api}
}

// --- Snapshot accessors (copies, so callers can't mutate the cache) ---

func (s *Store) Products() []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Product(nil), s.products...)
}

func (s *Store) Tables() []Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Table(nil), s.tables...)
}

func (s *Store) AvailableTables() []Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Table(nil), s.availableTables...)
}

func (s *Store) Orders() []Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Order(nil), s.orders...)
}

// OpenOrders filters the order snapshot to open tabs, the only ones that
// still offer edit/close actions.
func (s *Store) OpenOrders() []Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var open []Order
	for _, o := range s.orders {
		if o.Status == status.Open {
			open = append(open, o)
		}
	}
	return open
}

// SelectableTables builds the table choices for an order form: the currently
// available tables, plus the edited order's own table, which the order
// already holds even when it is not independently available.
func (s *Store) SelectableTables(editing *Order) []Table {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := append([]Table(nil), s.availableTables...)
	if editing == nil {
		return out
	}
	for _, t := range out {
		if t.ID == editing.TableID {
			return out
		}
	}
	for _, t := range s.tables {
		if t.ID == editing.TableID {
			return append(out, t)
		}
	}
	// Table list may be stale; fall back to the order's embedded snapshot.
	return append(out, editing.Table)
}

// --- Refresh operations ---

func (s *Store) RefreshProducts(ctx context.Context) error {
	products, err := s.api.Products(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.products = products
	s.mu.Unlock()
	return nil
}

// RefreshTables reloads the full table list and the availability view in
// parallel, and swaps both in together.
func (s *Store) RefreshTables(ctx context.Context) error {
	var all, available []Table

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		all, err = s.api.Tables(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		available, err = s.api.AvailableTables(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	s.mu.Lock()
	s.tables = all
	s.availableTables = available
	s.mu.Unlock()
	return nil
}

func (s *Store) RefreshOrders(ctx context.Context) error {
	orders, err := s.api.Orders(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.orders = orders
	s.mu.Unlock()
	return nil
}

// RefreshAll joins the per-collection refreshes.
func (s *Store) RefreshAll(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.RefreshProducts(gctx) })
	g.Go(func() error { return s.RefreshTables(gctx) })
	g.Go(func() error { return s.RefreshOrders(gctx) })
	return g.Wait()
}

// refreshAfterOrderMutation reloads everything an order mutation can touch:
// the orders themselves, product stock and table availability.
func (s *Store) refreshAfterOrderMutation(ctx context.Context) error {
	return s.RefreshAll(ctx)
}

// --- Product mutations ---

func (s *Store) CreateProduct(ctx context.Context, in ProductInput) (*Product, error) {
	p, err := s.api.CreateProduct(ctx, in)
	if err != nil {
		return nil, err
	}
	return p, s.RefreshProducts(ctx)
}

func (s *Store) UpdateProduct(ctx context.Context, id uint, in ProductInput) (*Product, error) {
	p, err := s.api.UpdateProduct(ctx, id, in)
	if err != nil {
		return nil, err
	}
	return p, s.RefreshProducts(ctx)
}

func (s *Store) DeleteProduct(ctx context.Context, id uint) error {
	if err := s.api.DeleteProduct(ctx, id); err != nil {
		return err
	}
	return s.RefreshProducts(ctx)
}

// --- Table mutations ---

func (s *Store) CreateTable(ctx context.Context, in TableInput) (*Table, error) {
	t, err := s.api.CreateTable(ctx, in)
	if err != nil {
		return nil, err
	}
	return t, s.RefreshTables(ctx)
}

func (s *Store) UpdateTable(ctx context.Context, id uint, in TableInput) (*Table, error) {
	t, err := s.api.UpdateTable(ctx, id, in)
	if err != nil {
		return nil, err
	}
	return t, s.RefreshTables(ctx)
}

func (s *Store) DeleteTable(ctx context.Context, id uint) error {
	if err := s.api.DeleteTable(ctx, id); err != nil {
		return err
	}
	return s.RefreshTables(ctx)
}

// --- Order mutations ---

func (s *Store) CreateOrder(ctx context.Context, in OrderInput) (*Order, error) {
	o, err := s.api.CreateOrder(ctx, in)
	if err != nil {
		return nil, err
	}
	return o, s.refreshAfterOrderMutation(ctx)
}

func (s *Store) UpdateOrder(ctx context.Context, id uint, in OrderInput) (*Order, error) {
	o, err := s.api.UpdateOrder(ctx, id, in)
	if err != nil {
		return nil, err
	}
	return o, s.refreshAfterOrderMutation(ctx)
}

func (s *Store) CloseOrder(ctx context.Context, id uint) error {
	if err := s.api.CloseOrder(ctx, id); err != nil {
		return err
	}
	return s.refreshAfterOrderMutation(ctx)
}

func (s *Store) DeleteOrder(ctx context.Context, id uint) error {
	if err := s.api.DeleteOrder(ctx, id); err != nil {
		return err
	}
	return s.refreshAfterOrderMutation(ctx)
}

func (s *Store) AdvanceKitchenStatus(ctx context.Context, id uint, to status.Kitchen) (*Order, error) {
	o, err := s.api.AdvanceKitchenStatus(ctx, id, to)
	if err != nil {
		return nil, err
	}
	return o, s.RefreshOrders(ctx)
}
