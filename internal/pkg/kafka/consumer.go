package kafka

import (
	"context"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Handler processes one message value. Errors are logged, the message is
// not redelivered.
type Handler func(ctx context.Context, value []byte) error

type Consumer struct {
	reader  *kafka.Reader
	workers int
}

func NewConsumer(cfg Config) *Consumer {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          cfg.topic(),
		GroupID:        cfg.GroupID,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		CommitInterval: time.Second,
		StartOffset:    kafka.FirstOffset,
	})
	return &Consumer{reader: reader, workers: workers}
}

// Run reads until ctx is cancelled. Messages are handled concurrently, at
// most Workers at a time; Run waits for running handlers before returning.
func (c *Consumer) Run(ctx context.Context, handle Handler) error {
	logrus.WithField("topic", c.reader.Config().Topic).Info("consumer started")

	var g errgroup.Group
	g.SetLimit(c.workers)
	defer g.Wait()

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			logrus.WithError(err).Error("error reading message from kafka")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}

		logrus.WithFields(logrus.Fields{
			"partition": msg.Partition,
			"offset":    msg.Offset,
		}).Debug("received message")

		value := msg.Value
		g.Go(func() error {
			if err := handle(ctx, value); err != nil {
				logrus.WithError(err).WithField("offset", msg.Offset).Error("message handling failed")
			}
			return nil
		})
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
