package catalog

import (
	"time"

	contractx "github.com/shopstream/discovery-agent/agent/contract"
)

var seedTime = time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)

// SeedProducts is the demo catalog used when no database is configured.
func SeedProducts() []contractx.Product {
	return []contractx.Product{
		{
			ID:            "prod_001",
			Name:          "Wireless Noise-Cancelling Headphones",
			Description:   "Over-ear headphones with active noise cancellation and 30h battery",
			Price:         199.99,
			Category:      contractx.CategoryElectronics,
			ImageURL:      "https://img.shopstream.dev/prod_001.jpg",
			InStock:       true,
			StockQuantity: 42,
			Rating:        4.6,
			ReviewsCount:  1284,
			CreatedAt:     seedTime,
		},
		{
			ID:            "prod_002",
			Name:          "Ultralight Laptop 14",
			Description:   "14-inch laptop, 16GB RAM, 512GB SSD, all-day battery",
			Price:         1099.00,
			Category:      contractx.CategoryElectronics,
			ImageURL:      "https://img.shopstream.dev/prod_002.jpg",
			InStock:       true,
			StockQuantity: 15,
			Rating:        4.4,
			ReviewsCount:  530,
			CreatedAt:     seedTime,
		},
		{
			ID:            "prod_003",
			Name:          "Mechanical Keyboard",
			Description:   "Tenkeyless mechanical keyboard with hot-swappable switches",
			Price:         89.50,
			Category:      contractx.CategoryElectronics,
			ImageURL:      "https://img.shopstream.dev/prod_003.jpg",
			InStock:       true,
			StockQuantity: 77,
			Rating:        4.7,
			ReviewsCount:  2109,
			CreatedAt:     seedTime,
		},
		{
			ID:            "prod_004",
			Name:          "Wireless Mouse",
			Description:   "Ergonomic wireless mouse with adjustable DPI",
			Price:         34.99,
			Category:      contractx.CategoryElectronics,
			ImageURL:      "https://img.shopstream.dev/prod_004.jpg",
			InStock:       true,
			StockQuantity: 120,
			Rating:        4.3,
			ReviewsCount:  860,
			CreatedAt:     seedTime,
		},
		{
			ID:            "prod_005",
			Name:          "Smart Watch Series 5",
			Description:   "Fitness tracking smart watch with heart-rate monitor",
			Price:         249.00,
			Category:      contractx.CategoryElectronics,
			ImageURL:      "https://img.shopstream.dev/prod_005.jpg",
			InStock:       false,
			StockQuantity: 0,
			Rating:        4.1,
			ReviewsCount:  403,
			CreatedAt:     seedTime,
		},
		{
			ID:            "prod_006",
			Name:          "Merino Wool Sweater",
			Description:   "Midweight merino crewneck sweater",
			Price:         79.00,
			Category:      contractx.CategoryClothing,
			ImageURL:      "https://img.shopstream.dev/prod_006.jpg",
			InStock:       true,
			StockQuantity: 58,
			Rating:        4.5,
			ReviewsCount:  312,
			CreatedAt:     seedTime,
		},
		{
			ID:            "prod_007",
			Name:          "Running Shoes Trail X",
			Description:   "Cushioned trail running shoes with rock plate",
			Price:         129.95,
			Category:      contractx.CategorySports,
			ImageURL:      "https://img.shopstream.dev/prod_007.jpg",
			InStock:       true,
			StockQuantity: 34,
			Rating:        4.6,
			ReviewsCount:  976,
			CreatedAt:     seedTime,
		},
		{
			ID:            "prod_008",
			Name:          "Yoga Mat Pro",
			Description:   "6mm non-slip yoga mat with carry strap",
			Price:         45.00,
			Category:      contractx.CategorySports,
			ImageURL:      "https://img.shopstream.dev/prod_008.jpg",
			InStock:       true,
			StockQuantity: 90,
			Rating:        4.4,
			ReviewsCount:  654,
			CreatedAt:     seedTime,
		},
		{
			ID:            "prod_009",
			Name:          "Cast Iron Skillet",
			Description:   "12-inch pre-seasoned cast iron skillet",
			Price:         39.99,
			Category:      contractx.CategoryHome,
			ImageURL:      "https://img.shopstream.dev/prod_009.jpg",
			InStock:       true,
			StockQuantity: 63,
			Rating:        4.8,
			ReviewsCount:  3321,
			CreatedAt:     seedTime,
		},
		{
			ID:            "prod_010",
			Name:          "French Press Coffee Maker",
			Description:   "1L borosilicate glass french press",
			Price:         29.50,
			Category:      contractx.CategoryHome,
			ImageURL:      "https://img.shopstream.dev/prod_010.jpg",
			InStock:       true,
			StockQuantity: 48,
			Rating:        4.5,
			ReviewsCount:  1190,
			CreatedAt:     seedTime,
		},
		{
			ID:            "prod_011",
			Name:          "The Art of Systems Thinking",
			Description:   "Paperback on feedback loops and system design",
			Price:         18.99,
			Category:      contractx.CategoryBooks,
			ImageURL:      "https://img.shopstream.dev/prod_011.jpg",
			InStock:       true,
			StockQuantity: 200,
			Rating:        4.2,
			ReviewsCount:  148,
			CreatedAt:     seedTime,
		},
		{
			ID:            "prod_012",
			Name:          "Sourdough Baking Handbook",
			Description:   "Illustrated guide to naturally leavened bread",
			Price:         24.00,
			Category:      contractx.CategoryBooks,
			ImageURL:      "https://img.shopstream.dev/prod_012.jpg",
			InStock:       true,
			StockQuantity: 85,
			Rating:        4.7,
			ReviewsCount:  522,
			CreatedAt:     seedTime,
		},
		{
			ID:            "prod_013",
			Name:          "Vitamin C Face Serum",
			Description:   "Brightening serum with 15% vitamin C",
			Price:         27.90,
			Category:      contractx.CategoryBeauty,
			ImageURL:      "https://img.shopstream.dev/prod_013.jpg",
			InStock:       true,
			StockQuantity: 140,
			Rating:        4.3,
			ReviewsCount:  789,
			CreatedAt:     seedTime,
		},
		{
			ID:            "prod_014",
			Name:          "Bamboo Hairbrush",
			Description:   "Detangling brush with bamboo bristles",
			Price:         14.50,
			Category:      contractx.CategoryBeauty,
			ImageURL:      "https://img.shopstream.dev/prod_014.jpg",
			InStock:       true,
			StockQuantity: 310,
			Rating:        4.0,
			ReviewsCount:  233,
			CreatedAt:     seedTime,
		},
		{
			ID:            "prod_015",
			Name:          "Denim Jacket Classic",
			Description:   "Mid-wash denim jacket, unisex fit",
			Price:         64.99,
			Category:      contractx.CategoryClothing,
			ImageURL:      "https://img.shopstream.dev/prod_015.jpg",
			InStock:       true,
			StockQuantity: 26,
			Rating:        4.4,
			ReviewsCount:  418,
			CreatedAt:     seedTime,
		},
		{
			ID:            "prod_016",
			Name:          "Travel Umbrella",
			Description:   "Compact windproof umbrella",
			Price:         19.99,
			Category:      contractx.CategoryOther,
			ImageURL:      "https://img.shopstream.dev/prod_016.jpg",
			InStock:       true,
			StockQuantity: 175,
			Rating:        3.9,
			ReviewsCount:  301,
			CreatedAt:     seedTime,
		},
	}
}
