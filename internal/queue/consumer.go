package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// Consumer listens to the booking.confirmed queue, appends every event to
// <logDir>/booking.log and sends the confirmation email.
type Consumer struct {
	url    string
	logDir string
	mailer Mailer // nil disables email
	log    zerolog.Logger
}

func NewConsumer(url, logDir string, mailer Mailer, log zerolog.Logger) *Consumer {
	if logDir == "" {
		logDir = "logs"
	}
	return &Consumer{url: url, logDir: logDir, mailer: mailer, log: log.With().Str("component", "booking-consumer").Logger()}
}

// Run keeps a consumer attached to the broker until ctx is cancelled,
// reconnecting with exponential backoff (capped at 30s).  It returns nil
// once ctx is done.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return nil
		}
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.Warn().Err(err).Dur("retry_in", backoff).Msg("failed to dial broker")
			if !sleep(ctx, backoff) {
				return nil
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return nil
		}
		c.log.Warn().Err(err).Msg("consume loop ended; reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return nil
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.log.Warn().Err(err).Msg("set QoS failed")
	}
	if _, err := ch.QueueDeclare(BookingConfirmedQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(BookingConfirmedQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.handleMessage(d.Body); err != nil {
				c.log.Error().Err(err).Msg("handle message failed")
				_ = d.Nack(false, false) // do not requeue to avoid tight loops
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *Consumer) handleMessage(body []byte) error {
	var ev BookingConfirmedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if err := c.appendLog(ev); err != nil {
		return err
	}
	if c.mailer != nil {
		// A failed email does not poison the message; the log line is written.
		if err := c.mailer.SendBookingConfirmation(ev); err != nil {
			c.log.Error().Err(err).Uint64("booking_id", ev.BookingID).Msg("send confirmation email failed")
		}
	}
	return nil
}

func (c *Consumer) appendLog(ev BookingConfirmedEvent) error {
	if err := os.MkdirAll(c.logDir, 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(c.logDir, "booking.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	line := fmt.Sprintf("[%s] Booking confirmed | booking_id=%d | user_id=%d | customer=%q | room=%q | type=%q | stay=%s..%s | nights=%d | total=%d cents | ref=%s\n",
		ev.ConfirmedAt, ev.BookingID, ev.UserID, ev.CustomerName, ev.RoomNumber, ev.RoomType,
		ev.CheckIn, ev.CheckOut, ev.Nights, ev.AmountCents, ev.GatewayRef)
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}
