package mockbackend

import "github.com/jogardn/fireworks-storefront/pkg/models"

func strPtr(s string) *string { return &s }

// SeedProducts is the demo catalog served by the mock backend.
func SeedProducts() []models.Product {
	return []models.Product{
		{ID: 1, Name: "Sky Rocket", ProductCode: "RK-01", Category: string(models.CategoryRockets), OriginalPrice: "120.00", Price: "100.00", CurrentStock: 40, Status: "active", Unit: strPtr("box"), Image: strPtr("/uploads/rocket.jpg")},
		{ID: 2, Name: "Whistling Rocket", ProductCode: "RK-02", Category: string(models.CategoryRockets), OriginalPrice: "250.00", Price: "180.00", CurrentStock: 12, Status: "active", Unit: strPtr("box")},
		{ID: 3, Name: "Flower Pot Big", ProductCode: "FP-01", Category: string(models.CategoryFlowerPots), OriginalPrice: "50.00", Price: "50.00", CurrentStock: 100, Status: "active", Unit: strPtr("box")},
		{ID: 4, Name: "7cm Sparklers", ProductCode: "SP-07", Category: string(models.CategorySparklers), OriginalPrice: "80.00", Price: "60.00", CurrentStock: 200, Status: "active", Unit: strPtr("pkt")},
		{ID: 5, Name: "Ground Chakkar Big", ProductCode: "CH-01", Category: string(models.CategoryChakras), OriginalPrice: "140.00", Price: "98.00", CurrentStock: 3, Status: "active", Unit: strPtr("box"), YouTube: strPtr("https://youtu.be/example")},
		{ID: 6, Name: "Atom Bomb", ProductCode: "BM-01", Category: string(models.CategoryBombs), OriginalPrice: "90.00", Price: "72.00", CurrentStock: 0, Status: "active", Unit: strPtr("box")},
		{ID: 7, Name: "Colour Smoke", ProductCode: "SM-01", Category: string(models.CategorySmokeBombs), OriginalPrice: "60.00", Price: "45.00", CurrentStock: 25, Status: "active"},
		{ID: 8, Name: "Old Stock Fountain", ProductCode: "FT-09", Category: string(models.CategoryFountains), OriginalPrice: "70.00", Price: "35.00", CurrentStock: 5, Status: "inactive"},
	}
}

func SeedStates() []models.State {
	return []models.State{
		{ID: 1, State: "Tamil Nadu", Status: "active"},
		{ID: 2, State: "Kerala", Status: "active"},
	}
}

func SeedCities() []models.City {
	return []models.City{
		{ID: 1, City: "Sivakasi", State: "Tamil Nadu", DeliveryCharge: "0.00", Status: "active"},
		{ID: 2, City: "Chennai", State: "Tamil Nadu", DeliveryCharge: "150.00", Status: "active"},
		{ID: 3, City: "Kochi", State: "Kerala", DeliveryCharge: "250.00", Status: "active"},
	}
}

func SeedPaymentDetails() models.PaymentDetails {
	return models.PaymentDetails{
		AccountName:       "Kargil Crackers",
		AccountNumber:     "000111222333",
		IFSCCode:          "CNRB0005685",
		BankName:          "Canara Bank",
		UPIID:             "kargil@upi",
		QRCodeImage:       "/uploads/qr.png",
		MinimumOrderValue: "2500.00",
		PriceListPDF:      "/uploads/pricelist.pdf",
	}
}
