package pub

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
)

type natsPub struct{ conn *nats.Conn }

// NewNATS publishes to the subject given as target.
func NewNATS(conn *nats.Conn) *natsPub { return &natsPub{conn: conn} }

func (n *natsPub) PublishRaw(ctx context.Context, subject string, payload []byte) error {
	msg := nats.NewMsg(subject)
	msg.Header.Set("content-type", "application/json")
	msg.Data = payload
	if err := n.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("nats publish %s: %w", subject, err)
	}
	// Hooks are short-lived; make sure the message left before the process exits.
	if err := n.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}
	return nil
}

func (n *natsPub) Close() {
	n.conn.Close()
}
