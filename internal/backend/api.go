package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/jogardn/fireworks-storefront/pkg/models"
	"github.com/sirupsen/logrus"
)

type ProductQuery struct {
	Status   string
	Limit    int
	Page     int
	Category models.Category
}

func (q ProductQuery) values() url.Values {
	v := url.Values{}
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Category != "" {
		v.Set("category", string(q.Category))
	}
	return v
}

func (c *Client) Products(ctx context.Context, q ProductQuery) (*models.ProductPage, error) {
	env, err := c.get(ctx, GroupCatalog, "/api/public/products", q.values(), c.productTimeout)
	if err != nil {
		return nil, err
	}
	page, err := decodeProductPage(env.Data)
	if err != nil {
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{
		"category": q.Category,
		"count":    len(page.Items),
		"wrapped":  env.Wrapped,
	}).Info("Retrieved products from backend")
	return page, nil
}

// decodeProductPage accepts {items, pagination} or a bare product array.
func decodeProductPage(raw json.RawMessage) (*models.ProductPage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []models.Product
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		return &models.ProductPage{Items: items}, nil
	}

	var page struct {
		Items      *[]models.Product  `json:"items"`
		Pagination models.Pagination `json:"pagination"`
	}
	if err := decodeInto(raw, &page); err != nil {
		return nil, err
	}
	if page.Items == nil {
		return nil, fmt.Errorf("%w: Invalid API response structure", ErrMalformedResponse)
	}
	return &models.ProductPage{Items: *page.Items, Pagination: page.Pagination}, nil
}

func (c *Client) ProductByID(ctx context.Context, id int64) (*models.Product, error) {
	env, err := c.get(ctx, GroupCatalog, "/api/public/products/"+strconv.FormatInt(id, 10), nil, 0)
	if err != nil {
		return nil, err
	}
	var product models.Product
	if err := decodeInto(env.Data, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (c *Client) PaymentDetails(ctx context.Context) (*models.PaymentDetails, error) {
	env, err := c.get(ctx, GroupPayment, "/api/public/payment-details", nil, 0)
	if err != nil {
		return nil, err
	}
	var details models.PaymentDetails
	if err := decodeInto(env.Data, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

func (c *Client) States(ctx context.Context) ([]models.State, error) {
	env, err := c.get(ctx, GroupLocations, "/api/public/states", url.Values{"status": {"active"}}, 0)
	if err != nil {
		return nil, err
	}
	var states []models.State
	if err := decodeInto(env.Data, &states); err != nil {
		return nil, err
	}
	return states, nil
}

func (c *Client) Cities(ctx context.Context, state string) ([]models.City, error) {
	query := url.Values{"state": {state}, "status": {"active"}}
	env, err := c.get(ctx, GroupLocations, "/api/public/cities", query, 0)
	if err != nil {
		return nil, err
	}
	var cities []models.City
	if err := decodeInto(env.Data, &cities); err != nil {
		return nil, err
	}
	return cities, nil
}

func (c *Client) SubmitContact(ctx context.Context, req models.ContactRequest) error {
	if _, err := c.post(ctx, GroupContact, "/api/public/contact", req); err != nil {
		return err
	}
	c.logger.WithField("mobile", req.Mobile).Info("Contact message forwarded to backend")
	return nil
}

// CreateOrder posts an order. The returned order number may be empty when
// the backend acknowledges without one.
func (c *Client) CreateOrder(ctx context.Context, req models.CreateOrderRequest) (*models.CreateOrderResult, error) {
	c.logger.WithFields(logrus.Fields{
		"customer_mobile": req.CustomerMobile,
		"items_count":     len(req.Items),
	}).Info("Sending order to backend")

	env, err := c.post(ctx, GroupOrders, "/api/public/orders", req)
	if err != nil {
		return nil, err
	}

	var result models.CreateOrderResult
	if hasData(env.Data) {
		if err := json.Unmarshal(env.Data, &result); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
	}

	c.logger.WithField("order_number", result.OrderNumber).Info("Order created in backend")
	return &result, nil
}

func (c *Client) TrackOrder(ctx context.Context, orderNumber string) (*models.TrackedOrder, error) {
	env, err := c.get(ctx, GroupTracking, "/api/public/orders/track/"+url.PathEscape(orderNumber), nil, 0)
	if err != nil {
		return nil, err
	}
	var order models.TrackedOrder
	if err := decodeInto(env.Data, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *Client) TrackMobile(ctx context.Context, mobile string) (*models.MobileTracking, error) {
	env, err := c.get(ctx, GroupTracking, "/api/public/orders/track/mobile/"+url.PathEscape(mobile), nil, 0)
	if err != nil {
		return nil, err
	}
	var tracking models.MobileTracking
	if err := decodeInto(env.Data, &tracking); err != nil {
		return nil, err
	}
	return &tracking, nil
}

// Ping issues the cheapest catalog request to check reachability.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Products(ctx, ProductQuery{Status: "active", Limit: 1})
	return err
}
