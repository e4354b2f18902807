package memory

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/product"
)

const imageParams = "?ixlib=rb-4.0.3&ixid=M3wxMjA3fDB8MHxwaG90by1wYWdlfHx8fGVufDB8fHx8fA%3D%3D&auto=format&fit=crop&w=1000&q=80"

func unsplash(photo string) string {
	return "https://images.unsplash.com/" + photo + imageParams
}

// SeedProducts returns the storefront's launch catalog.
func SeedProducts() []product.Product {
	return []product.Product{
		{
			ID:          1,
			Name:        "Premium Wireless Headphones",
			Description: "Experience crystal-clear audio with our premium wireless headphones. Featuring noise cancellation, 30-hour battery life, and ergonomic design for all-day comfort.",
			Price:       decimal.RequireFromString("299.99"),
			Image:       unsplash("photo-1505740420928-5e560c06d30e"),
			Category:    "Electronics",
		},
		{
			ID:          2,
			Name:        "Smart Watch Series X",
			Description: "Stay connected with our latest smartwatch. Track your fitness, receive notifications, and more with a beautiful OLED display and 5-day battery life.",
			Price:       decimal.RequireFromString("249.99"),
			Image:       unsplash("photo-1523275335684-37898b6baf30"),
			Category:    "Electronics",
		},
		{
			ID:          3,
			Name:        "Gourmet Coffee Set",
			Description: "Start your day right with our premium coffee set. Includes artisanal beans from around the world and a handcrafted ceramic pour-over set.",
			Price:       decimal.RequireFromString("89.99"),
			Image:       unsplash("photo-1514432324607-a09d9b4aefdd"),
			Category:    "Food",
		},
		{
			ID:          4,
			Name:        "Designer Minimalist Lamp",
			Description: "Add elegance to any room with our minimalist designer lamp. Features adjustable brightness, wireless charging pad, and premium materials.",
			Price:       decimal.RequireFromString("129.99"),
			Image:       unsplash("photo-1507394650679-e325fc1ee83e"),
			Category:    "Home",
		},
		{
			ID:          5,
			Name:        "Premium Yoga Mat",
			Description: "Elevate your practice with our eco-friendly, non-slip yoga mat. Perfect for all types of yoga and fitness routines.",
			Price:       decimal.RequireFromString("79.99"),
			Image:       unsplash("photo-1592432678016-e910b452f9a2"),
			Category:    "Fitness",
		},
		{
			ID:          6,
			Name:        "Artisanal Chocolate Box",
			Description: "Indulge in our handcrafted chocolate selection. Each piece is made with organic, fair-trade ingredients and unique flavor combinations.",
			Price:       decimal.RequireFromString("49.99"),
			Image:       unsplash("photo-1526081347589-7fa3cb16a4b7"),
			Category:    "Food",
		},
		{
			ID:          7,
			Name:        "Modern Desk Organizer",
			Description: "Keep your workspace tidy with our sleek, modern desk organizer. Features compartments for all your essentials and wireless charging pad.",
			Price:       decimal.RequireFromString("59.99"),
			Image:       unsplash("photo-1513519245088-0e12902e35ca"),
			Category:    "Home",
		},
		{
			ID:          8,
			Name:        "Premium Water Bottle",
			Description: "Stay hydrated in style with our insulated water bottle. Keeps drinks cold for 24 hours or hot for 12 hours.",
			Price:       decimal.RequireFromString("34.99"),
			Image:       unsplash("photo-1602143407151-7111542de6e8"),
			Category:    "Fitness",
		},
	}
}

// SeedCategories returns the categories of the launch catalog.
func SeedCategories() []product.Category {
	return []product.Category{
		{ID: 1, Name: "Electronics", Image: unsplash("photo-1498049794561-7780e7231661")},
		{ID: 2, Name: "Food", Image: unsplash("photo-1546548970-71785318a17b")},
		{ID: 3, Name: "Home", Image: unsplash("photo-1484101403633-562f891dc89a")},
		{ID: 4, Name: "Fitness", Image: unsplash("photo-1571019614242-c5c5dee9f50b")},
	}
}
