package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"insightai-be/internal/config"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/fatih/color"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var schemaSQL = []string{
	`DROP TABLE IF EXISTS order_items CASCADE`,
	`DROP TABLE IF EXISTS orders CASCADE`,
	`DROP TABLE IF EXISTS products CASCADE`,
	`DROP TABLE IF EXISTS categories CASCADE`,
	`DROP TABLE IF EXISTS customers CASCADE`,
	`CREATE TABLE categories (
		id SERIAL PRIMARY KEY,
		name VARCHAR(100) NOT NULL,
		description TEXT
	)`,
	`CREATE TABLE products (
		id SERIAL PRIMARY KEY,
		name VARCHAR(200) NOT NULL,
		category_id INTEGER REFERENCES categories(id),
		price DECIMAL(10, 2) NOT NULL,
		stock_quantity INTEGER DEFAULT 0,
		rating DECIMAL(2, 1) DEFAULT 3.0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE customers (
		id SERIAL PRIMARY KEY,
		first_name VARCHAR(100) NOT NULL,
		last_name VARCHAR(100) NOT NULL,
		email VARCHAR(200) UNIQUE NOT NULL,
		city VARCHAR(100),
		country VARCHAR(100),
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE orders (
		id SERIAL PRIMARY KEY,
		customer_id INTEGER REFERENCES customers(id),
		order_date DATE NOT NULL,
		total_amount DECIMAL(10, 2),
		status VARCHAR(50) DEFAULT 'pending'
	)`,
	`CREATE TABLE order_items (
		id SERIAL PRIMARY KEY,
		order_id INTEGER REFERENCES orders(id),
		product_id INTEGER REFERENCES products(id),
		quantity INTEGER NOT NULL,
		unit_price DECIMAL(10, 2) NOT NULL
	)`,
}

func main() {
	products := flag.Int("products", defaultSizes.Products, "number of products")
	customers := flag.Int("customers", defaultSizes.Customers, "number of customers")
	orders := flag.Int("orders", defaultSizes.Orders, "number of orders")
	seed := flag.Uint64("seed", 0, "random seed, 0 picks one")
	flag.Parse()

	cfg := config.Load()
	ctx := context.Background()

	color.Cyan("🚀 InsightAI Sample Data Generator")

	pool, err := pgxpool.New(ctx, cfg.Database.Connection)
	if err != nil {
		log.Fatalf("Error: failed to connect to Postgres: %v", err)
	}
	defer pool.Close()

	ds := generate(gofakeit.New(*seed), time.Now().UTC(), sizes{Products: *products, Customers: *customers, Orders: *orders})

	if err := load(ctx, pool, ds); err != nil {
		color.Red("❌ Error: %v", err)
		os.Exit(1)
	}

	color.Green("✅ All sample data generated successfully!")
	fmt.Println("\nSample questions you can now ask:")
	for _, q := range []string{
		"Show me total sales by category",
		"What are the top 10 customers by revenue?",
		"Display monthly orders trend",
		"How many products are in each category?",
		"Compare average product ratings by category",
		"Show products with rating above 4",
	} {
		fmt.Printf("  • %s\n", q)
	}
}

// load recreates the tables and bulk copies the dataset in one transaction.
func load(ctx context.Context, pool *pgxpool.Pool, ds dataset) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, stmt := range schemaSQL {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema: %w", err)
		}
	}
	color.Green("✅ Tables created successfully!")

	copies := []struct {
		table   string
		columns []string
		rows    [][]any
	}{
		{"categories", []string{"id", "name", "description"}, categoryRows(ds.Categories)},
		{"products", []string{"id", "name", "category_id", "price", "stock_quantity", "rating", "created_at"}, productRows(ds.Products)},
		{"customers", []string{"id", "first_name", "last_name", "email", "city", "country", "created_at"}, customerRows(ds.Customers)},
		{"orders", []string{"id", "customer_id", "order_date", "total_amount", "status"}, orderRows(ds.Orders)},
		{"order_items", []string{"id", "order_id", "product_id", "quantity", "unit_price"}, itemRows(ds.Items)},
	}

	for _, c := range copies {
		n, err := tx.CopyFrom(ctx, pgx.Identifier{c.table}, c.columns, pgx.CopyFromRows(c.rows))
		if err != nil {
			return fmt.Errorf("copy %s: %w", c.table, err)
		}
		// Explicit ids leave the SERIAL sequence behind.
		if _, err := tx.Exec(ctx, fmt.Sprintf(`SELECT setval(pg_get_serial_sequence('%s', 'id'), GREATEST((SELECT MAX(id) FROM %s), 1))`, c.table, c.table)); err != nil {
			return fmt.Errorf("sequence %s: %w", c.table, err)
		}
		color.Green("✅ Generated %d %s", n, c.table)
	}

	return tx.Commit(ctx)
}

func categoryRows(in []category) [][]any {
	rows := make([][]any, 0, len(in))
	for _, c := range in {
		rows = append(rows, []any{c.ID, c.Name, c.Description})
	}
	return rows
}

func productRows(in []product) [][]any {
	rows := make([][]any, 0, len(in))
	for _, p := range in {
		rows = append(rows, []any{p.ID, p.Name, p.CategoryID, p.Price, p.Stock, p.Rating, p.CreatedAt})
	}
	return rows
}

func customerRows(in []customer) [][]any {
	rows := make([][]any, 0, len(in))
	for _, c := range in {
		rows = append(rows, []any{c.ID, c.FirstName, c.LastName, c.Email, c.City, c.Country, c.CreatedAt})
	}
	return rows
}

func orderRows(in []order) [][]any {
	rows := make([][]any, 0, len(in))
	for _, o := range in {
		rows = append(rows, []any{o.ID, o.CustomerID, o.OrderDate, o.TotalAmount, o.Status})
	}
	return rows
}

func itemRows(in []orderItem) [][]any {
	rows := make([][]any, 0, len(in))
	for _, it := range in {
		rows = append(rows, []any{it.ID, it.OrderID, it.ProductID, it.Quantity, it.UnitPrice})
	}
	return rows
}
