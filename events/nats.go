package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	broker "github.com/nats-io/nats.go"
	"github.com/ruteri/trustedcert-registry/interfaces"
)

const (
	// DefaultSubjectPrefix is used when no prefix is configured.
	DefaultSubjectPrefix = "trustedcert"

	// Unlimited reconnects, the publisher never gives up on the broker.
	maxReconnects = -1
)

var ErrEmptySubjectPrefix = errors.New("empty subject prefix")

var _ interfaces.EventPublisher = (*NATSPublisher)(nil)

// natsConn is the subset of *nats.Conn used by the publisher.
type natsConn interface {
	PublishMsg(msg *broker.Msg) error
	Drain() error
}

// NATSPublisher publishes registry events to NATS.
type NATSPublisher struct {
	conn   natsConn
	prefix string
	log    *slog.Logger
}

// NewNATSPublisher connects to the NATS server at url.
func NewNATSPublisher(url, prefix string, log *slog.Logger) (*NATSPublisher, error) {
	conn, err := broker.Connect(url,
		broker.Name("trustedcert-registry"),
		broker.MaxReconnects(maxReconnects),
		broker.DisconnectErrHandler(func(_ *broker.Conn, err error) {
			if err != nil {
				log.Warn("Disconnected from NATS", "err", err)
			}
		}),
		broker.ReconnectHandler(func(c *broker.Conn) {
			log.Info("Reconnected to NATS", slog.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("could not connect to NATS: %w", err)
	}

	return newNATSPublisher(conn, prefix, log)
}

func newNATSPublisher(conn natsConn, prefix string, log *slog.Logger) (*NATSPublisher, error) {
	if prefix == "" {
		return nil, ErrEmptySubjectPrefix
	}
	return &NATSPublisher{conn: conn, prefix: prefix, log: log}, nil
}

// Subject returns the subject an event of type t is published to.
func (p *NATSPublisher) Subject(t interfaces.EventType) string {
	return fmt.Sprintf("%s.%s", p.prefix, t)
}

func (p *NATSPublisher) Publish(ctx context.Context, e interfaces.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}

	msg := broker.NewMsg(p.Subject(e.Type))
	msg.Data = data
	msg.Header.Set(broker.MsgIdHdr, strconv.FormatUint(e.Seq, 10))

	if err := p.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("could not publish event %d: %w", e.Seq, err)
	}

	p.log.Debug("Published event",
		slog.String("subject", msg.Subject),
		slog.Uint64("seq", e.Seq))
	return nil
}

// Close flushes pending messages and closes the connection.
func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}
