package models

type TrackedCustomer struct {
	Name    string `json:"name"`
	Mobile  string `json:"mobile"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Pincode string `json:"pincode"`
}

type TrackedItem struct {
	Total       float64 `json:"total"`
	Quantity    int     `json:"quantity"`
	ProductID   int64   `json:"productId"`
	UnitPrice   string  `json:"unitPrice"`
	ProductName string  `json:"productName"`
}

type TrackedOrder struct {
	OrderNumber    string          `json:"orderNumber"`
	OrderDate      string          `json:"orderDate"`
	Status         string          `json:"status"`
	PaymentStatus  string          `json:"paymentStatus"`
	PaymentMethod  string          `json:"paymentMethod"`
	Subtotal       string          `json:"subtotal"`
	Discount       string          `json:"discount"`
	DeliveryCharge string          `json:"deliveryCharge"`
	NetTotal       string          `json:"netTotal"`
	DeliveryDate   string          `json:"deliveryDate,omitempty"`
	Notes          string          `json:"notes,omitempty"`
	Customer       TrackedCustomer `json:"customer"`
	Items          []TrackedItem   `json:"items"`
	LastUpdated    string          `json:"lastUpdated"`
}

type OrderSummary struct {
	TotalOrders     int    `json:"totalOrders"`
	TotalAmount     string `json:"totalAmount"`
	PendingOrders   int    `json:"pendingOrders"`
	CompletedOrders int    `json:"completedOrders"`
	OtherOrders     int    `json:"otherOrders"`
}

// MobileTracking is the customer summary returned by a lookup by mobile.
type MobileTracking struct {
	Customer TrackedCustomer `json:"customer"`
	Summary  OrderSummary    `json:"summary"`
	Orders   []TrackedOrder  `json:"orders"`
}
