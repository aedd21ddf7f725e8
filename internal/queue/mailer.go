package queue

import (
	"bytes"
	"fmt"
	"html/template"

	"gopkg.in/gomail.v2"

	"github.com/iliyamo/hotel-booking/internal/model"
)

// Mailer sends the confirmation email for a booking.
type Mailer interface {
	SendBookingConfirmation(ev BookingConfirmedEvent) error
}

// SMTPConfig is the outgoing mail server used for confirmations.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer delivers confirmation emails through an SMTP relay.
type SMTPMailer struct {
	cfg    SMTPConfig
	dialer *gomail.Dialer
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &SMTPMailer{cfg: cfg, dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)}
}

var confirmationTmpl = template.Must(template.New("confirmation").Parse(`<p>Hello {{.CustomerName}},</p>
<p>Your booking <strong>#{{.BookingID}}</strong> is confirmed.</p>
<table>
<tr><td>Room</td><td>{{.RoomNumber}} ({{.RoomType}})</td></tr>
<tr><td>Check-in</td><td>{{.CheckIn}}</td></tr>
<tr><td>Check-out</td><td>{{.CheckOut}}</td></tr>
<tr><td>Nights</td><td>{{.Nights}}</td></tr>
<tr><td>Paid</td><td>{{.Amount}}</td></tr>
</table>`))

// BuildConfirmation renders the confirmation message for ev.
func (m *SMTPMailer) BuildConfirmation(ev BookingConfirmedEvent) (*gomail.Message, error) {
	var body bytes.Buffer
	data := struct {
		BookingConfirmedEvent
		Amount string
	}{ev, model.FormatCents(ev.AmountCents)}
	if err := confirmationTmpl.Execute(&body, data); err != nil {
		return nil, fmt.Errorf("render confirmation: %w", err)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", ev.CustomerEmail)
	msg.SetHeader("Subject", fmt.Sprintf("Booking #%d confirmed", ev.BookingID))
	msg.SetBody("text/html", body.String())
	return msg, nil
}

func (m *SMTPMailer) SendBookingConfirmation(ev BookingConfirmedEvent) error {
	if ev.CustomerEmail == "" {
		return fmt.Errorf("booking %d has no customer email", ev.BookingID)
	}
	msg, err := m.BuildConfirmation(ev)
	if err != nil {
		return err
	}
	return m.dialer.DialAndSend(msg)
}
