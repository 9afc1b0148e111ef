package delta

import (
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
)

// DefaultNATSSubject is the subject delta notifications are published on.
const DefaultNATSSubject = "mu.delta"

// MessageHandler feeds delta notifications received over NATS into c.
// Malformed messages are logged and dropped.
func MessageHandler(c *Coalescer) nats.MsgHandler {
	return func(msg *nats.Msg) {
		changesets, err := ParseChangesets(msg.Data)
		if err != nil {
			slog.Warn("dropping malformed delta message", "subject", msg.Subject, "error", err)
			return
		}
		c.Notify(changesets)
	}
}

// SubscribeNATS connects to url and subscribes c to subject. Closing the
// returned connection ends the subscription.
func SubscribeNATS(url, subject string, c *Coalescer) (*nats.Conn, error) {
	nc, err := nats.Connect(url, nats.Name("yggdrasil"))
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	if _, err := nc.Subscribe(subject, MessageHandler(c)); err != nil {
		nc.Close()
		return nil, fmt.Errorf("subscribe to %s: %w", subject, err)
	}
	slog.Info("listening for delta messages", "url", url, "subject", subject)
	return nc, nil
}
