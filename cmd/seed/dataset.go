package main

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
)

type sizes struct {
	Products  int
	Customers int
	Orders    int
}

var defaultSizes = sizes{Products: 50, Customers: 100, Orders: 500}

var categorySeeds = [][2]string{
	{"Electronics", "Phones, laptops, and gadgets"},
	{"Clothing", "Fashion and apparel"},
	{"Home & Garden", "Furniture and home decor"},
	{"Sports", "Sports equipment and gear"},
	{"Books", "Physical and digital books"},
	{"Food & Beverages", "Grocery and drinks"},
	{"Health & Beauty", "Personal care products"},
	{"Toys & Games", "Entertainment for all ages"},
}

var orderStatuses = []string{"pending", "processing", "shipped", "delivered", "cancelled"}

type category struct {
	ID          int32
	Name        string
	Description string
}

type product struct {
	ID         int32
	Name       string
	CategoryID int32
	Price      float64
	Stock      int32
	Rating     float64
	CreatedAt  time.Time
}

type customer struct {
	ID        int32
	FirstName string
	LastName  string
	Email     string
	City      string
	Country   string
	CreatedAt time.Time
}

type order struct {
	ID          int32
	CustomerID  int32
	OrderDate   time.Time
	TotalAmount float64
	Status      string
}

type orderItem struct {
	ID        int32
	OrderID   int32
	ProductID int32
	Quantity  int32
	UnitPrice float64
}

type dataset struct {
	Categories []category
	Products   []product
	Customers  []customer
	Orders     []order
	Items      []orderItem
}

// generate builds the whole dataset in memory. Ids are assigned here so the
// rows can be bulk copied with their foreign keys intact.
func generate(f *gofakeit.Faker, now time.Time, n sizes) dataset {
	var ds dataset

	for i, seed := range categorySeeds {
		ds.Categories = append(ds.Categories, category{ID: int32(i + 1), Name: seed[0], Description: seed[1]})
	}

	for i := 0; i < n.Products; i++ {
		ds.Products = append(ds.Products, product{
			ID:         int32(i + 1),
			Name:       f.ProductName(),
			CategoryID: ds.Categories[f.IntRange(0, len(ds.Categories)-1)].ID,
			Price:      round2(f.Float64Range(9.99, 999.99)),
			Stock:      int32(f.IntRange(0, 500)),
			Rating:     math.Round(triangular(f.Float64(), 1.0, 5.0, 4.0)*10) / 10,
			CreatedAt:  now,
		})
	}

	seen := make(map[string]bool, n.Customers)
	for i := 0; i < n.Customers; i++ {
		first, last := f.FirstName(), f.LastName()
		email := strings.ToLower(fmt.Sprintf("%s.%s@%s", first, last, f.DomainName()))
		for seen[email] {
			email = strings.ToLower(fmt.Sprintf("%s.%s%d@%s", first, last, f.IntRange(1, 9999), f.DomainName()))
		}
		seen[email] = true

		ds.Customers = append(ds.Customers, customer{
			ID:        int32(i + 1),
			FirstName: first,
			LastName:  last,
			Email:     email,
			City:      f.City(),
			Country:   f.Country(),
			CreatedAt: now,
		})
	}

	// Orders spread over the last two years, 1-5 items each.
	start := now.AddDate(-2, 0, 0)
	itemID := int32(0)
	for i := 0; i < n.Orders; i++ {
		o := order{
			ID:         int32(i + 1),
			CustomerID: ds.Customers[f.IntRange(0, len(ds.Customers)-1)].ID,
			OrderDate:  truncateDay(f.DateRange(start, now)),
			Status:     orderStatuses[f.IntRange(0, len(orderStatuses)-1)],
		}

		total := 0.0
		for j := f.IntRange(1, 5); j > 0; j-- {
			p := ds.Products[f.IntRange(0, len(ds.Products)-1)]
			qty := int32(f.IntRange(1, 3))
			itemID++
			ds.Items = append(ds.Items, orderItem{
				ID:        itemID,
				OrderID:   o.ID,
				ProductID: p.ID,
				Quantity:  qty,
				UnitPrice: p.Price,
			})
			total += p.Price * float64(qty)
		}
		o.TotalAmount = round2(total)
		ds.Orders = append(ds.Orders, o)
	}

	return ds
}

// triangular maps u in [0,1) onto a triangular distribution.
func triangular(u, low, high, mode float64) float64 {
	c := (mode - low) / (high - low)
	if u < c {
		return low + math.Sqrt(u*(high-low)*(mode-low))
	}
	return high - math.Sqrt((1-u)*(high-low)*(high-mode))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
