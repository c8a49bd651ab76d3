package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

const (
	clientName = "streameconomy"

	// consumerQueue spreads collaborator events across service replicas
	consumerQueue = "streameconomy-workers"

	streamMaxAge          = 72 * time.Hour
	streamDuplicateWindow = 2 * time.Minute
)

var errNotConnected = errors.New("not connected to NATS JetStream")

// NATSClient owns the JetStream connection used for economy events and
// collaborator subscriptions
type NATSClient struct {
	servers       string
	nc            *nats.Conn
	js            nats.JetStreamContext
	subscriptions map[string]*nats.Subscription
	mu            sync.RWMutex

	reconnectWait time.Duration
	maxReconnects int
	maxDeliver    int
	ackWait       time.Duration
	nakBackoff    []time.Duration
}

// NewNATSClient creates a client for a comma separated server list
func NewNATSClient(servers string) *NATSClient {
	return &NATSClient{
		servers:       servers,
		subscriptions: make(map[string]*nats.Subscription),
		reconnectWait: 2 * time.Second,
		maxReconnects: -1,
		maxDeliver:    5,
		ackWait:       30 * time.Second,
		nakBackoff:    []time.Duration{time.Second, 5 * time.Second, 15 * time.Second, 30 * time.Second},
	}
}

// Connect dials the servers and opens a JetStream context. Reconnects are
// unbounded once connected.
func (c *NATSClient) Connect(ctx context.Context) error {
	opts := []nats.Option{
		nats.Name(clientName),
		nats.MaxReconnects(c.maxReconnects),
		nats.ReconnectWait(c.reconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.WithError(err).Warn("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.WithField("server", nc.ConnectedUrl()).Info("NATS reconnected")
		}),
		nats.ErrorHandler(func(_ *nats.Conn, sub *nats.Subscription, err error) {
			entry := log.WithError(err)
			if sub != nil {
				entry = entry.WithField("subject", sub.Subject)
			}
			entry.Error("NATS async error")
		}),
	}
	if deadline, ok := ctx.Deadline(); ok {
		opts = append(opts, nats.Timeout(time.Until(deadline)))
	}

	nc, err := nats.Connect(c.servers, opts...)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}

	c.mu.Lock()
	c.nc = nc
	c.js = js
	c.mu.Unlock()

	log.WithField("server", nc.ConnectedUrl()).Info("Connected to NATS with JetStream")
	return nil
}

func (c *NATSClient) jetStream() (nats.JetStreamContext, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.js == nil {
		return nil, errNotConnected
	}
	return c.js, nil
}

// Subscribe joins the shared durable consumer for subject. A handler error
// naks the message with a growing delay until maxDeliver is reached.
func (c *NATSClient) Subscribe(subject string, handler func([]byte) error) error {
	js, err := c.jetStream()
	if err != nil {
		return err
	}

	sub, err := js.QueueSubscribe(subject, consumerQueue,
		func(msg *nats.Msg) {
			c.dispatch(subject, msg, handler)
		},
		nats.Durable(durableName(subject)),
		nats.ManualAck(),
		nats.AckExplicit(),
		nats.MaxDeliver(c.maxDeliver),
		nats.AckWait(c.ackWait),
	)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}

	c.mu.Lock()
	c.subscriptions[subject] = sub
	c.mu.Unlock()

	log.WithFields(log.Fields{
		"subject": subject,
		"queue":   consumerQueue,
	}).Info("Subscribed to NATS subject")
	return nil
}

func (c *NATSClient) dispatch(subject string, msg *nats.Msg, handler func([]byte) error) {
	if err := handler(msg.Data); err != nil {
		delay := c.redeliveryDelay(msg)
		log.WithError(err).WithFields(log.Fields{
			"subject": subject,
			"retryIn": delay,
		}).Warn("Message handling failed, scheduling redelivery")

		if nakErr := msg.NakWithDelay(delay); nakErr != nil {
			log.WithError(nakErr).Error("Failed to NAK message")
		}
		return
	}

	if ackErr := msg.Ack(); ackErr != nil {
		log.WithError(ackErr).Error("Failed to ACK message")
	}
}

// redeliveryDelay picks the backoff step for the message's delivery count
func (c *NATSClient) redeliveryDelay(msg *nats.Msg) time.Duration {
	step := 0
	if meta, err := msg.Metadata(); err == nil && meta.NumDelivered > 0 {
		step = int(meta.NumDelivered) - 1
	}
	if step >= len(c.nakBackoff) {
		step = len(c.nakBackoff) - 1
	}
	return c.nakBackoff[step]
}

// durableName derives a consumer name that JetStream accepts from a subject
func durableName(subject string) string {
	replacer := strings.NewReplacer(".", "_", "*", "any", ">", "all")
	return clientName + "-" + replacer.Replace(subject)
}

// Close drains subscriptions and closes the connection
func (c *NATSClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for subject, sub := range c.subscriptions {
		if err := sub.Unsubscribe(); err != nil {
			log.WithError(err).WithField("subject", subject).Warn("Failed to unsubscribe")
		}
	}
	c.subscriptions = make(map[string]*nats.Subscription)

	if c.nc != nil {
		c.nc.Close()
		c.nc = nil
		c.js = nil
		log.Info("NATS connection closed")
	}
	return nil
}

// Ping reports whether the connection is currently usable
func (c *NATSClient) Ping(ctx context.Context) error {
	c.mu.RLock()
	nc := c.nc
	c.mu.RUnlock()

	if nc == nil || !nc.IsConnected() {
		return errNotConnected
	}
	if err := nc.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("failed to flush NATS connection: %w", err)
	}
	return nil
}

// EnsureStream creates the stream, or widens an existing one to cover subjects
func (c *NATSClient) EnsureStream(streamName, description string, subjects []string) error {
	js, err := c.jetStream()
	if err != nil {
		return err
	}

	info, err := js.StreamInfo(streamName)
	if err == nil {
		missing := missingSubjects(info.Config.Subjects, subjects)
		if len(missing) == 0 {
			log.WithField("stream", streamName).Debug("JetStream stream up to date")
			return nil
		}

		updated := info.Config
		updated.Subjects = append(slices.Clone(updated.Subjects), missing...)
		if _, err := js.UpdateStream(&updated); err != nil {
			return fmt.Errorf("failed to add subjects to stream %s: %w", streamName, err)
		}
		log.WithFields(log.Fields{
			"stream":   streamName,
			"subjects": missing,
		}).Info("Added subjects to JetStream stream")
		return nil
	}
	if !errors.Is(err, nats.ErrStreamNotFound) {
		return fmt.Errorf("failed to look up stream %s: %w", streamName, err)
	}

	if _, err := js.AddStream(&nats.StreamConfig{
		Name:        streamName,
		Description: description,
		Subjects:    subjects,
		Retention:   nats.LimitsPolicy,
		MaxAge:      streamMaxAge,
		Duplicates:  streamDuplicateWindow,
		Storage:     nats.FileStorage,
		Replicas:    1,
	}); err != nil {
		return fmt.Errorf("failed to create stream %s: %w", streamName, err)
	}

	log.WithFields(log.Fields{
		"stream":   streamName,
		"subjects": subjects,
	}).Info("Created JetStream stream")
	return nil
}

func missingSubjects(existing, wanted []string) []string {
	var missing []string
	for _, subject := range wanted {
		if !slices.Contains(existing, subject) {
			missing = append(missing, subject)
		}
	}
	return missing
}

// Publish stores data on subject. msgID lets JetStream drop a retried publish.
func (c *NATSClient) Publish(ctx context.Context, subject, msgID string, data []byte) error {
	js, err := c.jetStream()
	if err != nil {
		return err
	}

	opts := []nats.PubOpt{nats.Context(ctx)}
	if msgID != "" {
		opts = append(opts, nats.MsgId(msgID))
	}

	ack, err := js.Publish(subject, data, opts...)
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}

	log.WithFields(log.Fields{
		"subject":   subject,
		"sequence":  ack.Sequence,
		"duplicate": ack.Duplicate,
	}).Debug("Published message to NATS")
	return nil
}
