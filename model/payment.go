package model

type CreatePaymentInput struct {
	BookingId uint   `json:"bookingId" validate:"required,gt=0"`
	Method    string `json:"method" validate:"required,oneof=VNPAY PAYPAL"`
}

// PayPalReturnQuery is the query PayPal appends to return_url after approval.
type PayPalReturnQuery struct {
	BookingId uint   `query:"bookingId" validate:"required,gt=0"`
	Token     string `query:"token" validate:"required"`
}

type PaymentResponse struct {
	PaymentUrl string `json:"paymentUrl"`
	Method     string `json:"method"`
	BookingId  uint   `json:"bookingId"`
}

type IPNResponse struct {
	RspCode string `json:"RspCode"`
	Message string `json:"Message"`
}
