package utils

import (
	"bytes"
	"embed"
	"html/template"
	"io"
	"log/slog"

	"gopkg.in/gomail.v2"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type EmailItem struct {
	Name     string
	Quantity int
	Total    string
}

// OrderEmailData feeds the confirmation template.
type OrderEmailData struct {
	CustomerName     string
	OrderNumber      string
	FulfillmentLabel string
	Date             string
	Window           string
	Address          string
	Items            []EmailItem
	Subtotal         string
	Discount         string
	DeliveryFee      string
	Tip              string
	Tax              string
	Total            string
	TrackingLink     string
	QRCodeCID        string
}

type StatusEmailData struct {
	CustomerName string
	OrderNumber  string
	StatusLabel  string
	Ready        bool
	IsPickup     bool
	Notes        string
	TrackingLink string
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type SMTPMailer struct {
	cfg    SMTPConfig
	dialer *gomail.Dialer
	log    *slog.Logger
}

func NewSMTPMailer(cfg SMTPConfig, log *slog.Logger) *SMTPMailer {
	return &SMTPMailer{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		log:    log.With("component", "mailer"),
	}
}

// SendOrderConfirmation sends the confirmation email in the background.
// A QR code for the order is embedded inline.
func (m *SMTPMailer) SendOrderConfirmation(to string, data OrderEmailData) {
	go func() {
		qr, err := OrderQRCode(data)
		if err != nil {
			m.log.Error("generate qr code", "order", data.OrderNumber, "err", err)
			return
		}
		data.QRCodeCID = "order-qr.png"

		msg, err := m.render("order_confirmation.html", data)
		if err != nil {
			m.log.Error("render confirmation email", "order", data.OrderNumber, "err", err)
			return
		}
		msg.SetHeader("To", to)
		msg.SetHeader("Subject", "Order confirmed #"+data.OrderNumber)
		msg.Embed(data.QRCodeCID, gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(qr)
			return err
		}))
		m.send(msg, data.OrderNumber)
	}()
}

// SendStatusUpdate sends a status-change (or ready) notification in the background.
func (m *SMTPMailer) SendStatusUpdate(to string, data StatusEmailData) {
	go func() {
		msg, err := m.render("order_status.html", data)
		if err != nil {
			m.log.Error("render status email", "order", data.OrderNumber, "err", err)
			return
		}
		subject := "Order #" + data.OrderNumber + " is " + data.StatusLabel
		if data.Ready {
			subject = "Your order #" + data.OrderNumber + " is ready"
		}
		msg.SetHeader("To", to)
		msg.SetHeader("Subject", subject)
		m.send(msg, data.OrderNumber)
	}()
}

func (m *SMTPMailer) render(name string, data any) (*gomail.Message, error) {
	var body bytes.Buffer
	if err := templates.ExecuteTemplate(&body, name, data); err != nil {
		return nil, err
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetBody("text/html", body.String())
	return msg, nil
}

func (m *SMTPMailer) send(msg *gomail.Message, orderNumber string) {
	if m.cfg.Host == "" {
		m.log.Warn("smtp not configured, email skipped", "order", orderNumber)
		return
	}
	if err := m.dialer.DialAndSend(msg); err != nil {
		m.log.Error("send email", "order", orderNumber, "err", err)
	}
}
