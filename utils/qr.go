package utils

import (
	"bytes"
	"encoding/base64"
	"image/png"

	"github.com/skip2/go-qrcode"
)

const ticketQRSize = 400

// TicketQRDataURL encodes a booking's public code as a PNG QR code, ready to
// drop into an <img src>.
func TicketQRDataURL(publicCode string) (string, error) {
	qr, err := qrcode.New(publicCode, qrcode.Medium)
	if err != nil {
		return "", err
	}

	buf := new(bytes.Buffer)
	if err := png.Encode(buf, qr.Image(ticketQRSize)); err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
