package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusDelivered OrderStatus = "delivered"
)

type CartItem struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

type CustomerDetails struct {
	Name     string `json:"name"`
	Address1 string `json:"address1"`
	Address2 string `json:"address2"`
	Landmark string `json:"landmark"`
	Mobile   string `json:"mobile"`
	WhatsApp string `json:"whatsapp"`
	City     string `json:"city"`
	State    string `json:"state"`
	Pincode  string `json:"pincode"`
	Email    string `json:"email,omitempty"`
}

// Order is the storefront's record of a placed order. Amounts are exact;
// rounding happens only when rendered.
type Order struct {
	ID        string          `json:"id"`
	Items     []CartItem      `json:"items"`
	Customer  CustomerDetails `json:"customer"`
	Total     decimal.Decimal `json:"total"`
	Discount  decimal.Decimal `json:"discount"`
	NetAmount decimal.Decimal `json:"netAmount"`
	OrderDate time.Time       `json:"orderDate"`
	Status    OrderStatus     `json:"status"`
}

// OrderItem is one line of a create-order request.
type OrderItem struct {
	ProductID     int64   `json:"productId"`
	ProductName   string  `json:"productName"`
	Quantity      int     `json:"quantity"`
	Rate          string  `json:"rate"`
	OriginalPrice string  `json:"originalPrice"`
	Discount      string  `json:"discount"`
	Total         float64 `json:"total"`
}

type CreateOrderRequest struct {
	CustomerName     string      `json:"customerName"`
	CustomerMobile   string      `json:"customerMobile"`
	CustomerAddress  string      `json:"customerAddress"`
	CustomerLocation string      `json:"customerLocation"`
	CustomerState    string      `json:"customerState"`
	CustomerCity     string      `json:"customerCity"`
	CustomerPincode  string      `json:"customerPincode"`
	CustomerLandmark string      `json:"customerLandmark"`
	CustomerWhatsapp string      `json:"customerWhatsapp"`
	CustomerEmail    string      `json:"customerEmail,omitempty"`
	Items            []OrderItem `json:"items"`
	PaymentMethod    string      `json:"paymentMethod"`
}

type CreateOrderResult struct {
	OrderNumber string `json:"order_number"`
}

type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}
