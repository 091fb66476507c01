package payment

var vnpayResponseMessages = map[string]string{
	"00": "Payment successful",
	"07": "Money deducted but the transaction is under fraud review",
	"09": "Card or account is not registered for internet banking",
	"10": "Card or account verification failed more than 3 times",
	"11": "Payment window expired",
	"12": "Card or account is locked",
	"13": "Wrong OTP",
	"24": "Payment cancelled by customer",
	"51": "Insufficient balance",
	"65": "Daily transaction limit exceeded",
	"75": "Bank is under maintenance",
	"79": "Wrong payment password too many times",
	"99": "Payment failed",
}

// VNPayMessage translates a vnp_ResponseCode into a short reason.
func VNPayMessage(code string) string {
	if msg, ok := vnpayResponseMessages[code]; ok {
		return msg
	}
	return vnpayResponseMessages["99"]
}
