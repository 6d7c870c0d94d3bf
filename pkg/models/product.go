package models

import (
	"fmt"
	"math"
	"strconv"
)

type Category string

const (
	CategoryRockets        Category = "Rockets"
	CategoryGroundSpinners Category = "Ground Spinners"
	CategoryFountains      Category = "Fountains"
	CategoryCrackers       Category = "Crackers"
	CategorySparklers      Category = "Sparklers"
	CategoryRomanCandles   Category = "Roman Candles"
	CategoryWheels         Category = "Wheels"
	CategoryBombs          Category = "Bombs"
	CategoryChakras        Category = "Chakras"
	CategoryFlowerPots     Category = "Flower Pots"
	CategorySmokeBombs     Category = "Smoke Bombs"
	CategoryOther          Category = "Other"
)

// Categories lists the filterable categories in display order.
var Categories = []Category{
	CategoryRockets,
	CategoryGroundSpinners,
	CategoryFountains,
	CategoryCrackers,
	CategorySparklers,
	CategoryRomanCandles,
	CategoryWheels,
	CategoryBombs,
	CategoryChakras,
	CategoryFlowerPots,
	CategorySmokeBombs,
	CategoryOther,
}

func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown product category %q", s)
}

// Product is owned by the backend; the storefront never mutates it.
type Product struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	TamilName     string  `json:"tamil_name"`
	ProductCode   string  `json:"product_code"`
	Category      string  `json:"category"`
	Brand         *string `json:"brand"`
	Unit          *string `json:"unit"`
	SalesRate     string  `json:"sales_rate"`
	CurrentStock  int     `json:"current_stock"`
	GSTRate       string  `json:"gst_rate"`
	Discount      string  `json:"discount"`
	Description   string  `json:"description"`
	OriginalPrice string  `json:"original_price"`
	Price         string  `json:"price"`
	Status        string  `json:"status"`
	Image         *string `json:"image"`
	YouTube       *string `json:"youtube,omitempty"`
}

func (p Product) InStock() bool {
	return p.CurrentStock > 0
}

// DiscountPercent is the badge value shown on a product card. Unparseable
// or zero original prices yield 0.
func (p Product) DiscountPercent() int {
	original, err := strconv.ParseFloat(p.OriginalPrice, 64)
	if err != nil || original <= 0 {
		return 0
	}
	price, err := strconv.ParseFloat(p.Price, 64)
	if err != nil {
		return 0
	}
	return int(math.Round((original - price) / original * 100))
}

type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

type ProductPage struct {
	Items      []Product  `json:"items"`
	Pagination Pagination `json:"pagination"`
}
