// Command seed populates a storefront database with a deterministic demo
// catalog: categories, handmade gift products, coupons and blog posts.
// Re-running it updates rows in place.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/migrations"
	pkgconfig "github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/config"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/database"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/logger"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/slug"
)

type seedConfig struct {
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"storefront"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"storefront_secret"`
	PostgresDB   string `env:"STOREFRONT_DB_NAME" envDefault:"storefront_db"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`
	Products     int    `env:"SEED_PRODUCTS" envDefault:"200"`
	RandomSeed   uint64 `env:"SEED_RANDOM" envDefault:"42"`
}

const batchSize = 100

// Rows get stable IDs so re-runs upsert instead of duplicating.
var seedNamespace = uuid.MustParse("6f1f2b8e-0c55-4f7e-9a53-3c1d2b7a9e10")

func stableID(kind, key string) uuid.UUID {
	return uuid.NewSHA1(seedNamespace, []byte(kind+":"+key))
}

type categoryDef struct {
	Name        string
	Description string
	Items       []string
}

var categories = []categoryDef{
	{"Personalised Gifts", "Made to order with a name, date or message.", []string{"Name Plaque", "Photo Frame", "Keepsake Box", "Engraved Pen"}},
	{"Home Décor", "Small pieces that make a house feel lived in.", []string{"Wall Hanging", "Table Runner", "Candle Holder", "Dreamcatcher"}},
	{"Jewellery", "Delicate handcrafted pieces.", []string{"Locket", "Bracelet", "Earrings", "Anklet"}},
	{"Hampers", "Curated boxes for every occasion.", []string{"Gift Hamper", "Chocolate Box", "Tea Set", "Festive Basket"}},
	{"Stationery", "Paper goods and journals.", []string{"Journal", "Greeting Card", "Bookmark", "Planner"}},
}

var (
	adjectives = []string{"Hand-Painted", "Rustic", "Vintage", "Pastel", "Embroidered", "Floral", "Minimal", "Golden", "Boho", "Crème"}
	materials  = []string{"Wooden", "Resin", "Brass", "Cotton", "Ceramic", "Jute", "Silver", "Glass"}
)

type productRow struct {
	ID             uuid.UUID
	CategoryID     uuid.UUID
	Name           string
	Slug           string
	Description    string
	Price          int64
	CompareAtPrice *int64
	Images         []string
	Stock          int
	IsFeatured     bool
	IsCustomizable bool
}

func generateProducts(rng *rand.Rand, n int) []productRow {
	products := make([]productRow, 0, n)
	seen := make(map[string]struct{}, n)
	for i := 0; len(products) < n && i < n*10; i++ {
		cat := categories[rng.IntN(len(categories))]
		name := fmt.Sprintf("%s %s %s",
			adjectives[rng.IntN(len(adjectives))],
			materials[rng.IntN(len(materials))],
			cat.Items[rng.IntN(len(cat.Items))],
		)
		s := slug.Generate(name)
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}

		// Whole rupees, stored in paise.
		price := int64(199+rng.IntN(4800)) * 100
		p := productRow{
			ID:             stableID("product", s),
			CategoryID:     stableID("category", slug.Generate(cat.Name)),
			Name:           name,
			Slug:           s,
			Description:    fmt.Sprintf("A %s, handmade in small batches. %s", name, cat.Description),
			Price:          price,
			Images:         []string{fmt.Sprintf("https://cdn.example.com/products/%s/1.jpg", s)},
			Stock:          rng.IntN(40),
			IsFeatured:     rng.IntN(10) == 0,
			IsCustomizable: cat.Name == "Personalised Gifts" || rng.IntN(4) == 0,
		}
		if rng.IntN(5) == 0 {
			compare := price + price/5
			p.CompareAtPrice = &compare
		}
		products = append(products, p)
	}
	return products
}

func main() {
	var cfg seedConfig
	if err := pkgconfig.Load(&cfg); err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log := logger.New("storefront-seed", cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg seedConfig, log *slog.Logger) error {
	pool, err := database.NewPostgresPool(ctx, &database.PostgresConfig{
		Host:     cfg.PostgresHost,
		Port:     cfg.PostgresPort,
		User:     cfg.PostgresUser,
		Password: cfg.PostgresPass,
		DBName:   cfg.PostgresDB,
		SSLMode:  cfg.PostgresSSL,
		MaxConns: 4,
	}, log)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool, migrations.FS, log); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	// Categories
	batch := &pgx.Batch{}
	for i, c := range categories {
		s := slug.Generate(c.Name)
		batch.Queue(`INSERT INTO categories (id, name, slug, description, sort_order)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name, description = EXCLUDED.description, sort_order = EXCLUDED.sort_order`,
			stableID("category", s), c.Name, s, c.Description, i)
	}
	if err := pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("seed categories: %w", err)
	}
	log.Info("categories seeded", slog.Int("count", len(categories)))

	// Products
	rng := rand.New(rand.NewPCG(cfg.RandomSeed, cfg.RandomSeed))
	products := generateProducts(rng, cfg.Products)
	for start := 0; start < len(products); start += batchSize {
		end := min(start+batchSize, len(products))
		batch := &pgx.Batch{}
		for _, p := range products[start:end] {
			batch.Queue(`INSERT INTO products
				(id, category_id, name, slug, description, price, compare_at_price, images, stock, is_featured, is_customizable)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
				ON CONFLICT (slug) DO UPDATE SET
					price = EXCLUDED.price, compare_at_price = EXCLUDED.compare_at_price,
					stock = EXCLUDED.stock, is_featured = EXCLUDED.is_featured, updated_at = NOW()`,
				p.ID, p.CategoryID, p.Name, p.Slug, p.Description, p.Price, p.CompareAtPrice,
				p.Images, p.Stock, p.IsFeatured, p.IsCustomizable)
		}
		if err := pool.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("seed products %d-%d: %w", start, end, err)
		}
	}
	log.Info("products seeded", slog.Int("count", len(products)))

	// Coupons
	now := time.Now().UTC()
	batch = &pgx.Batch{}
	batch.Queue(`INSERT INTO coupons (code, description, type, value, min_order_amount, max_discount, per_user_limit, starts_at)
		VALUES ('WELCOME10', '10% off your first order', 'percentage', 1000, 50000, 50000, 1, $1)
		ON CONFLICT (code) DO NOTHING`, now)
	batch.Queue(`INSERT INTO coupons (code, description, type, value, min_order_amount, usage_limit, starts_at, ends_at)
		VALUES ('FESTIVE250', 'Flat ₹250 off festive orders', 'fixed_amount', 25000, 150000, 500, $1, $2)
		ON CONFLICT (code) DO NOTHING`, now, now.AddDate(0, 2, 0))
	if err := pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("seed coupons: %w", err)
	}

	// Blog
	posts := []struct {
		Title, Excerpt string
		Tags           []string
	}{
		{"How We Press Our Flowers", "From garden to frame in six weeks.", []string{"behind-the-scenes", "flowers"}},
		{"Gift Guide: Diwali", "Hampers and diyas for everyone on your list.", []string{"gift-guide", "festive"}},
		{"Caring for Brass Jewellery", "Keep the shine without harsh polish.", []string{"care"}},
	}
	batch = &pgx.Batch{}
	for i, p := range posts {
		s := slug.Generate(p.Title)
		batch.Queue(`INSERT INTO blog_posts (id, title, slug, excerpt, body, author, tags, published_at)
			VALUES ($1, $2, $3, $4, $4, 'The Studio', $5, $6)
			ON CONFLICT (slug) DO NOTHING`,
			stableID("post", s), p.Title, s, p.Excerpt, p.Tags, now.AddDate(0, 0, -7*(i+1)))
	}
	if err := pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("seed blog posts: %w", err)
	}
	log.Info("seed complete", slog.Int("posts", len(posts)))
	return nil
}
