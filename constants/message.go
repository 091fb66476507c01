package constants

const (
	ERROR_INPUT                = "Invalid input"
	ERROR_INTERNAL_ERROR       = "Internal server error"
	ERROR_PARSE_DATA_TO_LOCALS = "Cannot read request data"
	DATA_INPUT_IS_NOT_NUMBER   = "Input must be a number"
	NOT_ADMIN                  = "Admin permission required"
	NOT_OWNER                  = "You do not own this booking"
	UNAUTHORIZED               = "Please log in"
	INVALID_CREDENTIALS        = "Wrong email or password"

	BOOKING_NOT_FOUND     = "Booking not found"
	BOOKING_NOT_PENDING   = "Booking is no longer waiting for payment"
	CUSTOMER_NOT_FOUND    = "Customer not found"
	PAYMENT_URL_ERROR     = "Cannot create payment URL"
	MISSING_PAYPAL_PARAMS = "bookingId and token are required"

	// Messages carried on the failure view
	MESSAGE_INVALID_SIGNATURE = "Invalid payment signature"
	MESSAGE_CAPTURE_FAILED    = "capture failed"
	MESSAGE_SERVER_ERROR      = "server error"
	MESSAGE_PAYMENT_CANCELLED = "payment cancelled"
	MESSAGE_UNEXPECTED_ERROR  = "An unexpected error occurred while processing the payment"
)
