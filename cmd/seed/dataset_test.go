package main

import (
	"math"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateKeepsReferencesAndTotals(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	ds := generate(gofakeit.New(42), now, sizes{Products: 20, Customers: 30, Orders: 60})

	require.Len(t, ds.Categories, len(categorySeeds))
	require.Len(t, ds.Products, 20)
	require.Len(t, ds.Customers, 30)
	require.Len(t, ds.Orders, 60)

	emails := map[string]bool{}
	for _, c := range ds.Customers {
		assert.False(t, emails[c.Email], "duplicate email %s", c.Email)
		emails[c.Email] = true
	}

	for _, p := range ds.Products {
		assert.GreaterOrEqual(t, p.Rating, 1.0)
		assert.LessOrEqual(t, p.Rating, 5.0)
		assert.GreaterOrEqual(t, p.Price, 9.99)
		assert.True(t, p.CategoryID >= 1 && int(p.CategoryID) <= len(ds.Categories))
	}

	totals := map[int32]float64{}
	counts := map[int32]int{}
	for _, it := range ds.Items {
		totals[it.OrderID] += it.UnitPrice * float64(it.Quantity)
		counts[it.OrderID]++
		assert.True(t, it.Quantity >= 1 && it.Quantity <= 3)
	}

	earliest := now.AddDate(-2, 0, -1)
	for _, o := range ds.Orders {
		assert.True(t, counts[o.ID] >= 1 && counts[o.ID] <= 5, "order %d has %d items", o.ID, counts[o.ID])
		assert.InDelta(t, math.Round(totals[o.ID]*100)/100, o.TotalAmount, 0.001)
		assert.True(t, o.OrderDate.After(earliest) && !o.OrderDate.After(now))
		assert.Contains(t, orderStatuses, o.Status)
	}
}

func TestTriangularBounds(t *testing.T) {
	assert.InDelta(t, 1.0, triangular(0, 1, 5, 4), 1e-9)
	assert.InDelta(t, 4.0, triangular(0.75, 1, 5, 4), 1e-9)
	assert.InDelta(t, 5.0, triangular(1, 1, 5, 4), 1e-9)
}
