package checkout

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/jogardn/fireworks-storefront/internal/pricing"
	"github.com/jogardn/fireworks-storefront/pkg/models"
)

var (
	mobilePattern  = regexp.MustCompile(`^[6-9]\d{9}$`)
	pincodePattern = regexp.MustCompile(`^\d{6}$`)
)

// FieldErrors maps a customer form field to its validation message.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	fields := make([]string, 0, len(fe))
	for field := range fe {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+fe[field])
	}
	return "invalid customer details: " + strings.Join(parts, "; ")
}

// Validate returns nil when details can be submitted.
func Validate(d models.CustomerDetails) FieldErrors {
	errs := FieldErrors{}
	if strings.TrimSpace(d.Name) == "" {
		errs["name"] = "Name is required"
	}
	if strings.TrimSpace(d.Address1) == "" {
		errs["address1"] = "Address is required"
	}
	switch {
	case strings.TrimSpace(d.Mobile) == "":
		errs["mobile"] = "Mobile number is required"
	case !mobilePattern.MatchString(d.Mobile):
		errs["mobile"] = "Please enter a valid 10-digit mobile number"
	}
	switch {
	case strings.TrimSpace(d.Pincode) == "":
		errs["pincode"] = "Pincode is required"
	case !pincodePattern.MatchString(d.Pincode):
		errs["pincode"] = "Please enter a valid 6-digit pincode"
	}
	if strings.TrimSpace(d.State) == "" {
		errs["state"] = "State is required"
	}
	if strings.TrimSpace(d.City) == "" {
		errs["city"] = "City is required"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Locations lists the states and cities orders can be delivered to.
type Locations interface {
	States(ctx context.Context) ([]models.State, error)
	Cities(ctx context.Context, state string) ([]models.City, error)
}

// ValidateLocation checks state and city against the backend's lookups.
// A failed lookup is returned as an error and leaves the choice to the
// backend's own order validation.
func ValidateLocation(ctx context.Context, locations Locations, d models.CustomerDetails) (FieldErrors, error) {
	states, err := locations.States(ctx)
	if err != nil {
		return nil, err
	}
	state, ok := matchState(states, d.State)
	if !ok {
		return FieldErrors{"state": "State is required", "city": "City is required"}, nil
	}

	cities, err := locations.Cities(ctx, state)
	if err != nil {
		return nil, err
	}
	for _, c := range cities {
		if strings.EqualFold(c.City, strings.TrimSpace(d.City)) {
			return nil, nil
		}
	}
	return FieldErrors{"city": "City is required"}, nil
}

func matchState(states []models.State, name string) (string, bool) {
	name = strings.TrimSpace(name)
	for _, s := range states {
		if strings.EqualFold(s.State, name) {
			return s.State, true
		}
	}
	return "", false
}

// BuildOrderRequest maps the form and cart onto the backend's create-order
// payload.
func BuildOrderRequest(d models.CustomerDetails, items []models.CartItem) (models.CreateOrderRequest, error) {
	lines, err := pricing.Lines(items)
	if err != nil {
		return models.CreateOrderRequest{}, err
	}

	address := d.Address1
	if d.Address2 != "" {
		address += ", " + d.Address2
	}
	location := d.Landmark
	if location == "" {
		location = d.City
	}

	req := models.CreateOrderRequest{
		CustomerName:     d.Name,
		CustomerMobile:   d.Mobile,
		CustomerAddress:  address,
		CustomerLocation: location,
		CustomerState:    d.State,
		CustomerCity:     d.City,
		CustomerPincode:  d.Pincode,
		CustomerLandmark: d.Landmark,
		CustomerWhatsapp: d.WhatsApp,
		Items:            lines,
		PaymentMethod:    "cash",
	}
	if strings.TrimSpace(d.Email) != "" {
		req.CustomerEmail = d.Email
	}
	return req, nil
}
