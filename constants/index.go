package constants

// Roles
const (
	ROLE_ADMIN    = "ADMIN"
	ROLE_CUSTOMER = "CUSTOMER"
)

var ROLE = []string{ROLE_ADMIN, ROLE_CUSTOMER}

// Booking status
const (
	BOOKING_PENDING   = "PENDING"
	BOOKING_CONFIRMED = "CONFIRMED"
	BOOKING_CANCELLED = "CANCELLED"
)

var BOOKING_STATUS = []string{BOOKING_PENDING, BOOKING_CONFIRMED, BOOKING_CANCELLED}

// Booking item kinds
const (
	ITEM_TICKET  = "TICKET"
	ITEM_PRODUCT = "PRODUCT"
)

// Payment methods
const (
	METHOD_VNPAY  = "VNPAY"
	METHOD_PAYPAL = "PAYPAL"
)

// Gateway names used in logs
const (
	GATEWAY_VNPAY  = "vnpay"
	GATEWAY_PAYPAL = "paypal"
)

// Redirect status for the ticket page
const (
	REDIRECT_SUCCESS = "success"
	REDIRECT_FAILED  = "failed"
)
