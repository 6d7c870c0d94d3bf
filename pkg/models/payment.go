package models

type PaymentDetails struct {
	AccountName       string `json:"accountName"`
	AccountNumber     string `json:"accountNumber"`
	IFSCCode          string `json:"ifscCode"`
	BankName          string `json:"bankName"`
	UPIID             string `json:"upiId"`
	QRCodeImage       string `json:"qrCodeImage,omitempty"`
	MinimumOrderValue string `json:"minimumOrderValue,omitempty"`
	PriceListPDF      string `json:"priceListPdf,omitempty"`
}

// DefaultPaymentDetails is shown when the backend cannot be reached.
func DefaultPaymentDetails() PaymentDetails {
	return PaymentDetails{
		AccountName:   "S.Dhamodhara kannan",
		AccountNumber: "5685101002509",
		IFSCCode:      "CNRB0005685",
		BankName:      "CNRB0005685",
	}
}

type State struct {
	ID     int64  `json:"id"`
	State  string `json:"state"`
	Status string `json:"status"`
}

type City struct {
	ID             int64  `json:"id"`
	City           string `json:"city"`
	State          string `json:"state"`
	DeliveryCharge string `json:"delivery_charge"`
	Status         string `json:"status"`
}

type ContactRequest struct {
	Name             string `json:"name"`
	Mobile           string `json:"mobile"`
	Message          string `json:"message"`
	PreferredContact string `json:"preferredContact"`
	Email            string `json:"email,omitempty"`
	Subject          string `json:"subject,omitempty"`
}
