package payment

import (
	"cinema_ticketing/config"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	vnpSecureHash     = "vnp_SecureHash"
	vnpSecureHashType = "vnp_SecureHashType"

	VNPaySuccessCode = "00"
)

// VNPay signs outgoing payment URLs and verifies the query string VNPay sends
// back on the return URL and the IPN.
type VNPay struct {
	Config config.VNPay
	now    func() time.Time
}

func NewVNPay(cfg config.VNPay) *VNPay {
	return &VNPay{Config: cfg, now: time.Now}
}

type VNPayPaymentRequest struct {
	Amount    int64 // VND
	OrderInfo string
	TxnRef    string
	IPAddr    string
}

// VerifyResult is the outcome of checking a VNPay callback. Amount is already
// scaled back from VNPay's x100 integer form.
type VerifyResult struct {
	Valid      bool
	ResultCode string
	TxnRef     string
	Amount     int64
}

func (r VerifyResult) Succeeded() bool {
	return r.Valid && r.ResultCode == VNPaySuccessCode
}

// BuildPaymentURL returns the VNPay checkout URL for a booking.
func (v *VNPay) BuildPaymentURL(req VNPayPaymentRequest) string {
	now := v.now()
	params := url.Values{}
	params.Set("vnp_Version", "2.1.0")
	params.Set("vnp_Command", "pay")
	params.Set("vnp_TmnCode", v.Config.TmnCode)
	params.Set("vnp_Amount", strconv.FormatInt(req.Amount*100, 10)) // VND * 100
	params.Set("vnp_CreateDate", now.Format("20060102150405"))
	params.Set("vnp_CurrCode", "VND")
	params.Set("vnp_IpAddr", req.IPAddr)
	params.Set("vnp_Locale", "vn")
	params.Set("vnp_OrderInfo", req.OrderInfo)
	params.Set("vnp_OrderType", "other")
	params.Set("vnp_ReturnUrl", v.Config.ReturnURL)
	params.Set("vnp_TxnRef", req.TxnRef)
	params.Set("vnp_ExpireDate", now.Add(15*time.Minute).Format("20060102150405"))

	query := canonicalQuery(params)
	return v.Config.BaseURL + "?" + query + "&" + vnpSecureHash + "=" + v.sign(query)
}

// Verify checks the HMAC-SHA512 signature of a callback. It never fails with
// an error: anything malformed is reported as invalid.
func (v *VNPay) Verify(query url.Values) VerifyResult {
	received := strings.ToLower(strings.TrimSpace(query.Get(vnpSecureHash)))
	if received == "" || v.Config.HashSecret == "" {
		return VerifyResult{}
	}

	expected := v.sign(canonicalQuery(query))
	if !hmac.Equal([]byte(received), []byte(expected)) {
		return VerifyResult{ResultCode: query.Get("vnp_ResponseCode")}
	}

	result := VerifyResult{
		Valid:      true,
		ResultCode: query.Get("vnp_ResponseCode"),
		TxnRef:     query.Get("vnp_TxnRef"),
	}
	if raw := query.Get("vnp_Amount"); raw != "" {
		amount, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || amount < 0 {
			return VerifyResult{ResultCode: result.ResultCode}
		}
		result.Amount = amount / 100
	}
	return result
}

// Sign sets vnp_SecureHash on query the way VNPay signs its callbacks.
func (v *VNPay) Sign(query url.Values) {
	query.Del(vnpSecureHash)
	query.Set(vnpSecureHash, v.sign(canonicalQuery(query)))
}

func (v *VNPay) sign(data string) string {
	h := hmac.New(sha512.New, []byte(v.Config.HashSecret))
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}

// canonicalQuery builds the signing string: every non-empty parameter except
// the hash fields, sorted by key and query-escaped.
func canonicalQuery(query url.Values) string {
	keys := make([]string, 0, len(query))
	for k := range query {
		if k == vnpSecureHash || k == vnpSecureHashType {
			continue
		}
		if query.Get(k) == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(query.Get(k)))
	}
	return b.String()
}
