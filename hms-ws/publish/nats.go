package publish

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// NATSPublisher writes events to NATS subjects prefix.<topic>.
type NATSPublisher struct {
	conn   *nats.Conn
	prefix string
}

func NewNATS(conn *nats.Conn, prefix string) *NATSPublisher {
	return &NATSPublisher{conn: conn, prefix: prefix}
}

// ConnectNATS dials url with reconnects enabled.
func ConnectNATS(url, name string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to nats at %v: %w", url, err)
	}
	return conn, nil
}

func (p *NATSPublisher) Subject(topic string) string {
	if p.prefix == "" {
		return topic
	}
	return p.prefix + "." + topic
}

func (p *NATSPublisher) Send(_ context.Context, topic string, payload interface{}) error {
	data, err := marshalEnvelope(topic, payload)
	if err != nil {
		return err
	}
	if err := p.conn.Publish(p.Subject(topic), data); err != nil {
		return fmt.Errorf("publishing to nats subject %v: %w", p.Subject(topic), err)
	}
	return nil
}
