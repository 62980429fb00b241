// Command seeder populates the catalog with a demo product set so the
// storefront can be exercised locally.
package main

import (
	"context"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

type product struct {
	Name        string
	Slug        string
	Description string
	Price       string
	OfferPrice  *string
	Stock       int
	Available   bool
	Options     []string
}

type option struct {
	Group     string
	Name      string
	Price     string
	IsDefault bool
}

func str(s string) *string { return &s }

var options = []option{
	{Group: "size", Name: "Regular", Price: "0", IsDefault: true},
	{Group: "size", Name: "Large", Price: "2.50"},
	{Group: "side", Name: "Fries", Price: "3.14"},
	{Group: "side", Name: "Salad", Price: "4.25"},
	{Group: "topping", Name: "Extra cheese", Price: "1.80"},
	{Group: "topping", Name: "Truffle shavings", Price: "12.31"},
}

var products = []product{
	{
		Name: "Margherita Pizza", Slug: "margherita-pizza",
		Description: "Tomato, mozzarella, basil.",
		Price:       "10.00", OfferPrice: str("5.00"), Stock: 120, Available: true,
		Options: []string{"Regular", "Large", "Extra cheese", "Truffle shavings"},
	},
	{
		Name: "Classic Burger", Slug: "classic-burger",
		Description: "Beef patty with house sauce.",
		Price:       "8.50", Stock: 80, Available: true,
		Options: []string{"Regular", "Large", "Fries", "Salad", "Extra cheese"},
	},
	{
		Name: "Caesar Wrap", Slug: "caesar-wrap",
		Description: "Grilled chicken, romaine, parmesan.",
		Price:       "7.25", OfferPrice: str("6.40"), Stock: 45, Available: true,
		Options: []string{"Fries", "Salad"},
	},
	{
		Name: "Lemonade", Slug: "lemonade",
		Description: "Fresh squeezed, lightly sweetened.",
		Price:       "0.34", OfferPrice: str("0.12"), Stock: 1000, Available: true,
	},
	{
		Name: "Seasonal Special", Slug: "seasonal-special",
		Description: "Returns next season.",
		Price:       "15.00", Stock: 10, Available: false,
	},
	{
		Name: "Sold Out Pie", Slug: "sold-out-pie",
		Description: "Back when the oven cools down.",
		Price:       "9.00", Stock: 0, Available: true,
	},
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Failed to ping DB: %v", err)
	}

	optionIDs := seedOptions(ctx, pool)
	seedProducts(ctx, pool, optionIDs)

	log.Println("Seeding completed successfully!")
}

func seedOptions(ctx context.Context, pool *pgxpool.Pool) map[string]int64 {
	log.Println("Seeding options...")
	ids := make(map[string]int64, len(options))
	for _, o := range options {
		var id int64
		err := pool.QueryRow(ctx, `
			INSERT INTO product_options (group_name, name, price, is_default)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (group_name, name) DO UPDATE
				SET price = EXCLUDED.price, is_default = EXCLUDED.is_default
			RETURNING id`,
			o.Group, o.Name, o.Price, o.IsDefault,
		).Scan(&id)
		if err != nil {
			log.Fatalf("Failed to seed option %q: %v", o.Name, err)
		}
		ids[o.Name] = id
	}
	return ids
}

func seedProducts(ctx context.Context, pool *pgxpool.Pool, optionIDs map[string]int64) {
	log.Println("Seeding products...")
	for _, p := range products {
		var id int64
		err := pool.QueryRow(ctx, `
			INSERT INTO products (name, slug, description, price, offer_price, stock, available)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (slug) DO UPDATE
				SET name = EXCLUDED.name,
				    description = EXCLUDED.description,
				    price = EXCLUDED.price,
				    offer_price = EXCLUDED.offer_price,
				    stock = EXCLUDED.stock,
				    available = EXCLUDED.available,
				    updated_at = now()
			RETURNING id`,
			p.Name, p.Slug, p.Description, p.Price, p.OfferPrice, p.Stock, p.Available,
		).Scan(&id)
		if err != nil {
			log.Fatalf("Failed to seed product %q: %v", p.Name, err)
		}

		for _, optionName := range p.Options {
			optionID, ok := optionIDs[optionName]
			if !ok {
				log.Fatalf("Unknown option %q on product %q", optionName, p.Name)
			}
			if _, err := pool.Exec(ctx, `
				INSERT INTO product_option_membership (product_id, option_id)
				VALUES ($1, $2)
				ON CONFLICT DO NOTHING`,
				id, optionID,
			); err != nil {
				log.Fatalf("Failed to attach option %q to %q: %v", optionName, p.Name, err)
			}
		}
	}
}
