package utils

import (
	"bytes"
	"cinema_ticketing/config"
	"html/template"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

var bookingCancelledTmpl = template.Must(template.New("booking_cancelled").Parse(`<p>Xin chào {{.CustomerName}},</p>
<p>Đơn hàng <b>#{{.BookingCode}}</b> ({{printf "%.0f" .TotalAmount}} VND) đã bị huỷ vì chưa được thanh toán trong thời gian giữ chỗ.</p>
<p>Bạn có thể đặt lại vé tại <a href="{{.DetailLink}}">{{.DetailLink}}</a>.</p>`))

// BookingCancelledData dữ liệu cho template email
type BookingCancelledData struct {
	BookingCode  string
	CustomerName string
	TotalAmount  float64
	DetailLink   string
}

type Mailer struct {
	cfg  config.SMTP
	log  *zap.Logger
	send func(*gomail.Message) error
}

func NewMailer(cfg config.SMTP, log *zap.Logger) *Mailer {
	if log == nil {
		log = zap.NewNop()
	}
	m := &Mailer{cfg: cfg, log: log}
	m.send = func(msg *gomail.Message) error {
		d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
		return d.DialAndSend(msg)
	}
	return m
}

// Enabled reports whether an SMTP host is configured.
func (m *Mailer) Enabled() bool {
	return m != nil && m.cfg.Host != ""
}

func (m *Mailer) SendBookingCancelled(to string, data BookingCancelledData) error {
	if !m.Enabled() || to == "" {
		return nil
	}

	var body bytes.Buffer
	if err := bookingCancelledTmpl.Execute(&body, data); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Đơn hàng #"+data.BookingCode+" đã bị huỷ")
	msg.SetBody("text/html", body.String())

	if err := m.send(msg); err != nil {
		m.log.Warn("send cancellation email failed", zap.String("to", to), zap.String("booking", data.BookingCode), zap.Error(err))
		return err
	}
	return nil
}
