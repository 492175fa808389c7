package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/freegle/iznik-api/logger"
	"github.com/freegle/iznik-api/trace"
)

// DefaultPublishTimeout bounds one publish when the caller's context has no deadline.
const DefaultPublishTimeout = 5 * time.Second

// Publisher is the part of an AMQP channel the sink uses.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Event is the JSON body of a published report.
type Event struct {
	Message   string    `json:"message"`
	App       string    `json:"app"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// AMQPOptions configures where reports are published.
type AMQPOptions struct {
	Exchange   string
	RoutingKey string
	App        string
	Timeout    time.Duration
}

// AMQPSink publishes each report as a persistent JSON message.
type AMQPSink struct {
	publisher Publisher
	opts      AMQPOptions
	log       logger.Logger
	closer    func() error
	now       func() time.Time
}

// NewAMQPSink creates a sink publishing through p.
func NewAMQPSink(p Publisher, opts AMQPOptions, log logger.Logger) *AMQPSink {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultPublishTimeout
	}
	if log == nil {
		log = logger.Nop()
	}
	return &AMQPSink{
		publisher: p,
		opts:      opts,
		log:       log,
		closer:    func() error { return nil },
		now:       time.Now,
	}
}

type amqpConnection interface {
	Channel() (*amqp.Channel, error)
	Close() error
}

// dialAMQP is replaced in tests.
var dialAMQP = func(addr string) (amqpConnection, error) {
	conn, err := amqp.Dial(addr)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// DialAMQP connects to the broker at brokerURL and returns a sink owning the
// connection. Close releases it.
func DialAMQP(brokerURL string, opts AMQPOptions, log logger.Logger) (*AMQPSink, error) {
	conn, err := dialAMQP(brokerURL)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", redactAMQPURL(brokerURL), err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel on %s: %w", redactAMQPURL(brokerURL), err)
	}

	sink := NewAMQPSink(ch, opts, log)
	sink.closer = func() error {
		return errors.Join(ch.Close(), conn.Close())
	}
	sink.log.Info().
		Str("broker", redactAMQPURL(brokerURL)).
		Str("exchange", opts.Exchange).
		Str("routing_key", opts.RoutingKey).
		Msg("Publishing API error reports over AMQP")
	return sink, nil
}

// Report publishes message as a JSON Event.
func (s *AMQPSink) Report(ctx context.Context, message string) error {
	requestID, _ := trace.RequestIDFromContext(ctx)
	event := Event{
		Message:   message,
		App:       s.opts.App,
		RequestID: requestID,
		Timestamp: s.now().UTC(),
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	// the call may have been cancelled; the report should still go out
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.Timeout)
	defer cancel()

	err = s.publisher.PublishWithContext(pubCtx, s.opts.Exchange, s.opts.RoutingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    event.Timestamp,
		AppId:        s.opts.App,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish report to %q/%q: %w", s.opts.Exchange, s.opts.RoutingKey, err)
	}
	return nil
}

// Close releases the broker connection when the sink owns one.
func (s *AMQPSink) Close() error {
	return s.closer()
}

const redactedAMQPPlaceholder = "amqp://****:****@<host>:<port>/<vhost>"

// redactAMQPURL keeps the user name and location of a broker URL and masks
// the password.
func redactAMQPURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "amqp" && u.Scheme != "amqps") || u.Host == "" {
		return redactedAMQPPlaceholder
	}

	userInfo := "****:****"
	if u.User != nil && u.User.Username() != "" {
		userInfo = u.User.Username() + ":****"
	}

	var b strings.Builder
	b.WriteString(u.Scheme)
	b.WriteString("://")
	b.WriteString(userInfo)
	b.WriteString("@")
	b.WriteString(u.Host)
	b.WriteString(u.EscapedPath())
	if u.RawQuery != "" {
		b.WriteString("?")
		b.WriteString(u.RawQuery)
	}
	return b.String()
}
