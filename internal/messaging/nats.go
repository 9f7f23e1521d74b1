package messaging

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"github.com/marceleta/crypto-monitor/pkg/config"
	"github.com/marceleta/crypto-monitor/pkg/models"
)

const (
	backfillSubject = "backfill.requests"
	backfillQueue   = "backfill-workers"
)

// NATSClient handles NATS messaging operations
type NATSClient struct {
	conn   *nats.Conn
	js     nats.JetStreamContext
	logger *logrus.Entry
	cfg    *config.NATSConfig

	subs   map[string]*nats.Subscription
	subsMu sync.RWMutex
}

// NewNATSClient creates a new NATS client
func NewNATSClient(cfg *config.NATSConfig, logger *logrus.Logger) (*NATSClient, error) {
	opts := []nats.Option{
		nats.MaxReconnects(cfg.MaxReconnect),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.WithError(err).Warn("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected")
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	nc := &NATSClient{
		conn:   conn,
		js:     js,
		logger: logger.WithField("component", "nats"),
		cfg:    cfg,
		subs:   make(map[string]*nats.Subscription),
	}

	if err := nc.initializeStreams(); err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to initialize streams: %w", err)
	}

	return nc, nil
}

// Close closes the NATS connection
func (nc *NATSClient) Close() error {
	nc.subsMu.Lock()
	for _, sub := range nc.subs {
		sub.Unsubscribe()
	}
	nc.subs = make(map[string]*nats.Subscription)
	nc.subsMu.Unlock()

	nc.conn.Close()
	return nil
}

// IsConnected checks if NATS is connected
func (nc *NATSClient) IsConnected() bool {
	return nc.conn.IsConnected()
}

// Drain flushes pending messages before shutdown
func (nc *NATSClient) Drain() error {
	return nc.conn.Drain()
}

// initializeStreams creates JetStream streams
func (nc *NATSClient) initializeStreams() error {
	// Backfill requests survive restarts; delivery is at-least-once
	_, err := nc.js.AddStream(&nats.StreamConfig{
		Name:     "BACKFILL",
		Subjects: []string{"backfill.>"},
		Storage:  nats.FileStorage,
		MaxAge:   7 * 24 * time.Hour,
		MaxMsgs:  100000,
		Replicas: 1,
	})
	if err != nil && err != nats.ErrStreamNameAlreadyInUse {
		return fmt.Errorf("failed to create BACKFILL stream: %w", err)
	}

	return nil
}

// PublishBackfillRequest enqueues a backfill task for a newly created lot.
// Fire-and-forget: the caller's transaction never blocks on external I/O.
func (nc *NATSClient) PublishBackfillRequest(req *models.BackfillRequest) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal backfill request: %w", err)
	}

	if _, err := nc.js.Publish(backfillSubject, data); err != nil {
		return fmt.Errorf("failed to publish backfill request: %w", err)
	}

	nc.logger.WithFields(logrus.Fields{
		"asset_id": req.AssetID,
		"token_id": req.TokenID,
	}).Debug("Backfill request enqueued")

	return nil
}

// SubscribeBackfillRequests consumes backfill tasks as part of a worker
// queue group, so concurrent worker processes share the load
func (nc *NATSClient) SubscribeBackfillRequests(handler func(*models.BackfillRequest)) error {
	sub, err := nc.conn.QueueSubscribe(backfillSubject, backfillQueue, func(msg *nats.Msg) {
		req := &models.BackfillRequest{}
		if err := json.Unmarshal(msg.Data, req); err != nil {
			nc.logger.WithError(err).Error("Failed to unmarshal backfill request")
			return
		}
		handler(req)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to backfill requests: %w", err)
	}

	nc.subsMu.Lock()
	nc.subs[backfillSubject] = sub
	nc.subsMu.Unlock()

	return nil
}

// Unsubscribe removes the subscription for a subject
func (nc *NATSClient) Unsubscribe(subject string) error {
	nc.subsMu.Lock()
	defer nc.subsMu.Unlock()

	if sub, ok := nc.subs[subject]; ok {
		delete(nc.subs, subject)
		return sub.Unsubscribe()
	}
	return nil
}
