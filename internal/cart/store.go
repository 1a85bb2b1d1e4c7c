package cart

import (
	"sync"

	"github.com/ariefcatur/go-storefront.git/internal/catalog"
	"github.com/shopspring/decimal"
)

// Line is one product and its quantity. Quantity is always > 0 inside a Cart.
type Line struct {
	Product  catalog.Product `json:"product"`
	Quantity int             `json:"quantity"`
}

// Subtotal is price × quantity, exact.
func (l Line) Subtotal() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is an immutable snapshot. Total is derived from Lines when the snapshot is
// taken and never stored on the store itself.
type Cart struct {
	Lines []Line          `json:"lines"`
	Total decimal.Decimal `json:"total"`
}

// TotalText renders the total for display, rounded to cents.
func (c Cart) TotalText() string {
	return c.Total.StringFixed(2)
}

// Count is the number of units across all lines.
func (c Cart) Count() int {
	n := 0
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

// Line returns the line for productID, if any.
func (c Cart) Line(productID int64) (Line, bool) {
	for _, l := range c.Lines {
		if l.Product.ID == productID {
			return l, true
		}
	}
	return Line{}, false
}

// Listener observes every new snapshot.
type Listener func(Cart)

type Option func(*Store)

// WithStockClamp caps a line's quantity at the product's stockQuantity. Products
// reporting zero stock are not clamped, since that would drop the add.
func WithStockClamp() Option {
	return func(s *Store) { s.clamp = true }
}

// Store keeps the line items for one client. Every intent is total: it always
// yields a well-formed cart.
type Store struct {
	dispatch  sync.Mutex
	mu        sync.Mutex
	lines     []Line
	clamp     bool
	listeners []Listener
}

func NewStore(opts ...Option) *Store {
	s := &Store{}
	for _, o := range opts {
		o(s)
	}
	return s
}

// OnChange registers l to run after each intent. Listeners must not dispatch
// intents to the same store.
func (s *Store) OnChange(l Listener) {
	s.mu.Lock()
	s.listeners = append(s.listeners, l)
	s.mu.Unlock()
}

func (s *Store) Snapshot() Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot(s.lines)
}

// AddItem merges quantity into the product's line, appending a line when the
// product is new to the cart. A merge keeps the line's product snapshot and caps
// against it; RefreshProduct is what updates a snapshot. Non-positive
// quantities are ignored.
func (s *Store) AddItem(p catalog.Product, quantity int) {
	if quantity <= 0 {
		return
	}
	s.apply(func(lines []Line) []Line {
		if i := indexOf(lines, p.ID); i >= 0 {
			lines[i].Quantity = s.capped(lines[i].Product, lines[i].Quantity+quantity)
			return lines
		}
		return append(lines, Line{Product: p, Quantity: s.capped(p, quantity)})
	})
}

// SetQuantity replaces the quantity of an existing line. A quantity of zero or
// less removes the line; an absent line is left absent.
func (s *Store) SetQuantity(productID int64, quantity int) {
	s.apply(func(lines []Line) []Line {
		i := indexOf(lines, productID)
		if i < 0 {
			return lines
		}
		if quantity <= 0 {
			return remove(lines, i)
		}
		lines[i].Quantity = s.capped(lines[i].Product, quantity)
		return lines
	})
}

func (s *Store) RemoveItem(productID int64) {
	s.apply(func(lines []Line) []Line {
		if i := indexOf(lines, productID); i >= 0 {
			return remove(lines, i)
		}
		return lines
	})
}

func (s *Store) Clear() {
	s.apply(func([]Line) []Line { return nil })
}

// Restore replaces the cart with previously persisted lines. Lines with a
// non-positive quantity are dropped and duplicate products are merged.
func (s *Store) Restore(saved []Line) {
	s.apply(func([]Line) []Line {
		var out []Line
		for _, l := range saved {
			if l.Quantity <= 0 {
				continue
			}
			if i := indexOf(out, l.Product.ID); i >= 0 {
				out[i].Quantity += l.Quantity
				continue
			}
			out = append(out, l)
		}
		return out
	})
}

// RefreshProduct swaps in a newer copy of a product for its line, keeping the
// quantity. An inactive product is removed from the cart.
func (s *Store) RefreshProduct(p catalog.Product) {
	s.apply(func(lines []Line) []Line {
		i := indexOf(lines, p.ID)
		if i < 0 {
			return lines
		}
		if !p.Active {
			return remove(lines, i)
		}
		lines[i].Product = p
		return lines
	})
}

func (s *Store) capped(p catalog.Product, quantity int) int {
	if s.clamp && p.StockQuantity > 0 && quantity > p.StockQuantity {
		return p.StockQuantity
	}
	return quantity
}

func (s *Store) apply(fn func([]Line) []Line) {
	s.dispatch.Lock()
	defer s.dispatch.Unlock()

	s.mu.Lock()
	s.lines = fn(s.lines)
	snap := snapshot(s.lines)
	listeners := s.listeners
	s.mu.Unlock()

	for _, l := range listeners {
		l(snap)
	}
}

func snapshot(lines []Line) Cart {
	out := Cart{Lines: make([]Line, len(lines)), Total: decimal.Zero}
	copy(out.Lines, lines)
	for _, l := range lines {
		out.Total = out.Total.Add(l.Subtotal())
	}
	return out
}

func indexOf(lines []Line, productID int64) int {
	for i, l := range lines {
		if l.Product.ID == productID {
			return i
		}
	}
	return -1
}

func remove(lines []Line, i int) []Line {
	return append(lines[:i], lines[i+1:]...)
}
