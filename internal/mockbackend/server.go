// Package mockbackend is an in-memory stand-in for the retailer's public
// API, used for local development and tests.
package mockbackend

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/jogardn/fireworks-storefront/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var mobilePattern = regexp.MustCompile(`^[6-9]\d{9}$`)

type storedOrder struct {
	request models.CreateOrderRequest
	tracked models.TrackedOrder
}

type Server struct {
	mutex    sync.RWMutex
	products []models.Product
	states   []models.State
	cities   []models.City
	payment  *models.PaymentDetails
	orders   map[string]*storedOrder
	contacts []models.ContactRequest
	counter  int

	// flat makes data responses skip the {success,data} envelope.
	flat atomic.Bool
	// omitOrderNumber acknowledges orders without an order number.
	omitOrderNumber atomic.Bool
	productDelay    func(category string) time.Duration
	requests        map[string]int

	logger *logrus.Logger
}

func New(logger *logrus.Logger) *Server {
	payment := SeedPaymentDetails()
	return &Server{
		products: SeedProducts(),
		states:   SeedStates(),
		cities:   SeedCities(),
		payment:  &payment,
		orders:   make(map[string]*storedOrder),
		counter:  1000,
		requests: make(map[string]int),
		logger:   logger,
	}
}

func (s *Server) SetFlat(flat bool) {
	s.flat.Store(flat)
}

func (s *Server) SetOmitOrderNumber(omit bool) {
	s.omitOrderNumber.Store(omit)
}

// SetPaymentDetails replaces the payment configuration; nil makes the
// endpoint fail with a 500.
func (s *Server) SetPaymentDetails(details *models.PaymentDetails) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.payment = details
}

func (s *Server) SetProducts(products []models.Product) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.products = products
}

// SetProductDelay slows product listing per requested category.
func (s *Server) SetProductDelay(delay func(category string) time.Duration) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.productDelay = delay
}

func (s *Server) Contacts() []models.ContactRequest {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	out := make([]models.ContactRequest, len(s.contacts))
	copy(out, s.contacts)
	return out
}

func (s *Server) OrderRequest(orderNumber string) (models.CreateOrderRequest, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	o, ok := s.orders[orderNumber]
	if !ok {
		return models.CreateOrderRequest{}, false
	}
	return o.request, true
}

// Requests counts calls per route template.
func (s *Server) Requests(route string) int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.requests[route]
}

func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/health", s.healthCheck).Methods("GET")
	api := router.PathPrefix("/api/public").Subrouter()
	api.HandleFunc("/products", s.listProducts).Methods("GET")
	api.HandleFunc("/products/{id:[0-9]+}", s.getProduct).Methods("GET")
	api.HandleFunc("/payment-details", s.paymentDetails).Methods("GET")
	api.HandleFunc("/states", s.listStates).Methods("GET")
	api.HandleFunc("/cities", s.listCities).Methods("GET")
	api.HandleFunc("/contact", s.createContact).Methods("POST")
	api.HandleFunc("/orders", s.createOrder).Methods("POST")
	api.HandleFunc("/orders/track/mobile/{mobile}", s.trackMobile).Methods("GET")
	api.HandleFunc("/orders/track/{orderNumber}", s.trackOrder).Methods("GET")
	router.Use(s.countRequests)
	return router
}

func (s *Server) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				s.mutex.Lock()
				s.requests[tpl]++
				s.mutex.Unlock()
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "backend-mock",
	})
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	category := q.Get("category")
	status := q.Get("status")
	limit, _ := strconv.Atoi(q.Get("limit"))
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}

	s.mutex.RLock()
	delay := s.productDelay
	var matched []models.Product
	for _, p := range s.products {
		if category != "" && p.Category != category {
			continue
		}
		if status != "" && p.Status != status {
			continue
		}
		matched = append(matched, p)
	}
	s.mutex.RUnlock()

	if delay != nil {
		select {
		case <-time.After(delay(category)):
		case <-r.Context().Done():
			return
		}
	}

	total := len(matched)
	if limit <= 0 {
		limit = 12
	}
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	items := matched[start:end]
	if items == nil {
		items = []models.Product{}
	}
	totalPages := (total + limit - 1) / limit

	s.logger.WithFields(logrus.Fields{
		"category": category,
		"count":    len(items),
	}).Info("Listing products")

	s.respondWithData(w, http.StatusOK, models.ProductPage{
		Items: items,
		Pagination: models.Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
			HasPrev:    page > 1,
		},
	})
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)

	s.mutex.RLock()
	defer s.mutex.RUnlock()
	for _, p := range s.products {
		if p.ID == id {
			s.respondWithData(w, http.StatusOK, p)
			return
		}
	}
	respondWithError(w, http.StatusNotFound, "Product not found")
}

func (s *Server) paymentDetails(w http.ResponseWriter, r *http.Request) {
	s.mutex.RLock()
	details := s.payment
	s.mutex.RUnlock()

	if details == nil {
		respondWithError(w, http.StatusInternalServerError, "Payment details not configured")
		return
	}
	s.respondWithData(w, http.StatusOK, details)
}

func (s *Server) listStates(w http.ResponseWriter, r *http.Request) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	s.respondWithData(w, http.StatusOK, s.states)
}

func (s *Server) listCities(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")

	s.mutex.RLock()
	defer s.mutex.RUnlock()
	cities := []models.City{}
	for _, c := range s.cities {
		if state == "" || c.State == state {
			cities = append(cities, c)
		}
	}
	s.respondWithData(w, http.StatusOK, cities)
}

func (s *Server) createContact(w http.ResponseWriter, r *http.Request) {
	var req models.ContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" || req.Mobile == "" || req.Message == "" {
		respondWithError(w, http.StatusBadRequest, "Name, mobile and message are required")
		return
	}

	s.mutex.Lock()
	s.contacts = append(s.contacts, req)
	s.mutex.Unlock()

	respondWithJSON(w, http.StatusCreated, models.Response{Success: true, Message: "Message received"})
}

func (s *Server) createOrder(w http.ResponseWriter, r *http.Request) {
	var req models.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.logger.WithError(err).Error("Failed to decode order")
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Items) == 0 {
		respondWithError(w, http.StatusBadRequest, "Order must contain at least one item")
		return
	}
	if !mobilePattern.MatchString(req.CustomerMobile) {
		respondWithJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"error":   map[string]string{"message": "Invalid customer mobile number"},
		})
		return
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	subtotal, net := decimal.Zero, decimal.Zero
	tracked := make([]models.TrackedItem, 0, len(req.Items))
	for _, item := range req.Items {
		product := s.findProductLocked(item.ProductID)
		if product == nil {
			respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Product %d not found", item.ProductID))
			return
		}
		if item.Quantity > product.CurrentStock {
			respondWithError(w, http.StatusConflict, fmt.Sprintf("Insufficient stock for %s", product.Name))
			return
		}
		rate, _ := decimal.NewFromString(item.Rate)
		original, _ := decimal.NewFromString(item.OriginalPrice)
		qty := decimal.NewFromInt(int64(item.Quantity))
		subtotal = subtotal.Add(original.Mul(qty))
		net = net.Add(rate.Mul(qty))
		tracked = append(tracked, models.TrackedItem{
			Total:       item.Total,
			Quantity:    item.Quantity,
			ProductID:   item.ProductID,
			UnitPrice:   item.Rate,
			ProductName: item.ProductName,
		})
	}
	for _, item := range req.Items {
		s.findProductLocked(item.ProductID).CurrentStock -= item.Quantity
	}

	s.counter++
	orderNumber := fmt.Sprintf("KC%d", s.counter)
	now := time.Now().UTC().Format(time.RFC3339)
	s.orders[orderNumber] = &storedOrder{
		request: req,
		tracked: models.TrackedOrder{
			OrderNumber:    orderNumber,
			OrderDate:      now,
			Status:         string(models.OrderStatusPending),
			PaymentStatus:  "pending",
			PaymentMethod:  req.PaymentMethod,
			Subtotal:       subtotal.StringFixed(2),
			Discount:       subtotal.Sub(net).StringFixed(2),
			DeliveryCharge: "0.00",
			NetTotal:       net.StringFixed(2),
			Customer: models.TrackedCustomer{
				Name:    req.CustomerName,
				Mobile:  req.CustomerMobile,
				Email:   req.CustomerEmail,
				Address: req.CustomerAddress,
				City:    req.CustomerCity,
				State:   req.CustomerState,
				Pincode: req.CustomerPincode,
			},
			Items:       tracked,
			LastUpdated: now,
		},
	}

	s.logger.WithFields(logrus.Fields{
		"order_number": orderNumber,
		"items_count":  len(req.Items),
		"net_total":    net.StringFixed(2),
	}).Info("Order stored")

	data := map[string]interface{}{"order_number": orderNumber}
	if s.omitOrderNumber.Load() {
		data = map[string]interface{}{}
	}
	respondWithJSON(w, http.StatusCreated, models.Response{
		Success: true,
		Message: "Order created successfully",
		Data:    data,
	})
}

func (s *Server) findProductLocked(id int64) *models.Product {
	for i := range s.products {
		if s.products[i].ID == id {
			return &s.products[i]
		}
	}
	return nil
}

func (s *Server) trackOrder(w http.ResponseWriter, r *http.Request) {
	orderNumber := strings.TrimSpace(mux.Vars(r)["orderNumber"])

	s.mutex.RLock()
	defer s.mutex.RUnlock()
	o, ok := s.orders[orderNumber]
	if !ok {
		respondWithError(w, http.StatusNotFound, fmt.Sprintf("Order %s not found", orderNumber))
		return
	}
	s.respondWithData(w, http.StatusOK, o.tracked)
}

func (s *Server) trackMobile(w http.ResponseWriter, r *http.Request) {
	mobile := mux.Vars(r)["mobile"]

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var result models.MobileTracking
	total := decimal.Zero
	for _, o := range s.orders {
		if o.request.CustomerMobile != mobile {
			continue
		}
		result.Customer = o.tracked.Customer
		result.Orders = append(result.Orders, o.tracked)
		net, _ := decimal.NewFromString(o.tracked.NetTotal)
		total = total.Add(net)
		switch o.tracked.Status {
		case string(models.OrderStatusPending):
			result.Summary.PendingOrders++
		case string(models.OrderStatusDelivered):
			result.Summary.CompletedOrders++
		default:
			result.Summary.OtherOrders++
		}
	}
	if len(result.Orders) == 0 {
		respondWithError(w, http.StatusNotFound, "No orders found for this mobile number")
		return
	}
	result.Summary.TotalOrders = len(result.Orders)
	result.Summary.TotalAmount = total.StringFixed(2)
	s.respondWithData(w, http.StatusOK, result)
}

func (s *Server) respondWithData(w http.ResponseWriter, code int, data interface{}) {
	if s.flat.Load() {
		respondWithJSON(w, code, data)
		return
	}
	respondWithJSON(w, code, models.Response{Success: true, Data: data})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, models.Response{
		Success: false,
		Message: message,
	})
}
