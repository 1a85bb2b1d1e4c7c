package cart

import (
	"math/rand"
	"testing"

	"github.com/ariefcatur/go-storefront.git/internal/catalog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func product(id int64, price string) catalog.Product {
	return catalog.Product{
		ID:            id,
		Name:          "product",
		Price:         decimal.RequireFromString(price),
		StockQuantity: 100,
		Active:        true,
	}
}

func TestStore_MergeOnRepeatedAdd(t *testing.T) {
	s := NewStore()
	p := product(1, "10.00")

	s.AddItem(p, 1)
	s.AddItem(p, 2)

	c := s.Snapshot()
	require.Len(t, c.Lines, 1)
	assert.Equal(t, 3, c.Lines[0].Quantity)
	assert.Equal(t, "30.00", c.TotalText())
	assert.Equal(t, 3, c.Count())
}

func TestStore_SetQuantityDownToZero(t *testing.T) {
	s := NewStore()
	s.AddItem(product(5, "19.99"), 2)

	s.SetQuantity(5, 1)
	assert.Equal(t, "19.99", s.Snapshot().TotalText())

	s.SetQuantity(5, 0)
	c := s.Snapshot()
	assert.Empty(t, c.Lines)
	assert.Equal(t, "0.00", c.TotalText())
}

func TestStore_SetQuantityNegativeRemoves(t *testing.T) {
	s := NewStore()
	s.AddItem(product(5, "1.00"), 2)
	s.SetQuantity(5, -3)

	assert.Empty(t, s.Snapshot().Lines)
}

func TestStore_SetQuantityOnAbsentLineIsNoop(t *testing.T) {
	s := NewStore()
	s.AddItem(product(1, "2.50"), 1)

	s.SetQuantity(42, 5)

	c := s.Snapshot()
	require.Len(t, c.Lines, 1)
	_, ok := c.Line(42)
	assert.False(t, ok)
}

func TestStore_RemoveAbsentIsIdempotent(t *testing.T) {
	s := NewStore()
	s.AddItem(product(1, "2.50"), 2)
	s.AddItem(product(2, "4.00"), 1)
	before := s.Snapshot()

	s.RemoveItem(99)
	s.RemoveItem(99)

	assert.Equal(t, before, s.Snapshot())
}

func TestStore_AddNonPositiveQuantityIsIgnored(t *testing.T) {
	s := NewStore()
	calls := 0
	s.OnChange(func(Cart) { calls++ })

	s.AddItem(product(1, "1.00"), 0)
	s.AddItem(product(1, "1.00"), -1)

	assert.Empty(t, s.Snapshot().Lines)
	assert.Zero(t, calls)
}

func TestStore_LinesKeepInsertionOrder(t *testing.T) {
	s := NewStore()
	s.AddItem(product(3, "1.00"), 1)
	s.AddItem(product(1, "1.00"), 1)
	s.AddItem(product(2, "1.00"), 1)
	s.AddItem(product(3, "1.00"), 1)
	s.RemoveItem(1)

	var ids []int64
	for _, l := range s.Snapshot().Lines {
		ids = append(ids, l.Product.ID)
	}
	assert.Equal(t, []int64{3, 2}, ids)
}

func TestStore_Clear(t *testing.T) {
	s := NewStore()
	s.AddItem(product(1, "3.10"), 4)
	s.Clear()

	c := s.Snapshot()
	assert.Empty(t, c.Lines)
	assert.True(t, c.Total.IsZero())
}

func TestStore_NoFloatDrift(t *testing.T) {
	s := NewStore()
	for i := int64(1); i <= 1000; i++ {
		s.AddItem(product(i, "0.10"), 1)
	}
	assert.Equal(t, "100.00", s.Snapshot().TotalText())
}

func TestStore_StockClamp(t *testing.T) {
	limited := product(1, "5.00")
	limited.StockQuantity = 3

	t.Run("off by default", func(t *testing.T) {
		s := NewStore()
		s.AddItem(limited, 5)
		assert.Equal(t, 5, s.Snapshot().Lines[0].Quantity)
	})

	t.Run("caps adds and sets", func(t *testing.T) {
		s := NewStore(WithStockClamp())
		s.AddItem(limited, 2)
		s.AddItem(limited, 2)
		assert.Equal(t, 3, s.Snapshot().Lines[0].Quantity)

		s.SetQuantity(1, 10)
		assert.Equal(t, 3, s.Snapshot().Lines[0].Quantity)
		assert.Equal(t, "15.00", s.Snapshot().TotalText())
	})

	t.Run("merge caps against the line's own snapshot", func(t *testing.T) {
		s := NewStore(WithStockClamp())
		s.AddItem(limited, 2)

		restocked := limited
		restocked.StockQuantity = 10
		s.AddItem(restocked, 5)

		l, ok := s.Snapshot().Line(1)
		require.True(t, ok)
		assert.Equal(t, 3, l.Quantity)
		assert.Equal(t, 3, l.Product.StockQuantity)

		s.RefreshProduct(restocked)
		s.AddItem(restocked, 5)
		l, _ = s.Snapshot().Line(1)
		assert.Equal(t, 8, l.Quantity)
	})

	t.Run("zero stock never drops the add", func(t *testing.T) {
		s := NewStore(WithStockClamp())
		soldOut := product(2, "1.00")
		soldOut.StockQuantity = 0
		s.AddItem(soldOut, 1)
		assert.Equal(t, 1, s.Snapshot().Lines[0].Quantity)
	})
}

func TestStore_SnapshotIsACopy(t *testing.T) {
	s := NewStore()
	s.AddItem(product(1, "1.00"), 1)

	c := s.Snapshot()
	c.Lines[0].Quantity = 50

	assert.Equal(t, 1, s.Snapshot().Lines[0].Quantity)
}

func TestStore_Restore(t *testing.T) {
	s := NewStore()
	s.AddItem(product(9, "9.00"), 1)

	s.Restore([]Line{
		{Product: product(1, "1.50"), Quantity: 2},
		{Product: product(2, "2.00"), Quantity: 0},
		{Product: product(1, "1.50"), Quantity: 1},
	})

	c := s.Snapshot()
	require.Len(t, c.Lines, 1)
	assert.Equal(t, int64(1), c.Lines[0].Product.ID)
	assert.Equal(t, 3, c.Lines[0].Quantity)
	assert.Equal(t, "4.50", c.TotalText())
}

func TestStore_RefreshProduct(t *testing.T) {
	s := NewStore()
	s.AddItem(product(1, "10.00"), 2)
	s.AddItem(product(2, "1.00"), 1)

	repriced := product(1, "12.50")
	s.RefreshProduct(repriced)
	assert.Equal(t, "26.00", s.Snapshot().TotalText())

	gone := product(2, "1.00")
	gone.Active = false
	s.RefreshProduct(gone)
	_, ok := s.Snapshot().Line(2)
	assert.False(t, ok)

	s.RefreshProduct(product(77, "3.00"))
	assert.Len(t, s.Snapshot().Lines, 1)
}

// Any sequence of intents leaves a total equal to the exact sum over the lines,
// with unique product ids and strictly positive quantities.
func TestStore_TotalMatchesLinesForRandomIntents(t *testing.T) {
	prices := []string{"0.01", "0.10", "0.33", "1.99", "19.99", "249.95"}
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 200; run++ {
		s := NewStore()
		for step := 0; step < 60; step++ {
			id := int64(rng.Intn(6))
			switch rng.Intn(3) {
			case 0:
				s.AddItem(product(id, prices[id]), rng.Intn(4)+1)
			case 1:
				s.SetQuantity(id, rng.Intn(6)-2)
			case 2:
				s.RemoveItem(id)
			}

			c := s.Snapshot()
			want := decimal.Zero
			seen := map[int64]bool{}
			for _, l := range c.Lines {
				require.Positive(t, l.Quantity)
				require.False(t, seen[l.Product.ID], "duplicate line for %d", l.Product.ID)
				seen[l.Product.ID] = true
				want = want.Add(l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
			}
			require.True(t, want.Equal(c.Total), "run %d step %d: total %s, want %s", run, step, c.Total, want)
		}
	}
}
