package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

const DefaultTopic = "image-processing"

type Config struct {
	Brokers []string
	Topic   string
	GroupID string
	Enabled bool
	// Workers bounds concurrently running tasks on the consumer side.
	Workers int
}

func (c Config) topic() string {
	if c.Topic == "" {
		return DefaultTopic
	}
	return c.Topic
}

type Producer interface {
	SendMessage(ctx context.Context, key string, message interface{}) error
	Close() error
}

type kafkaProducer struct {
	writer *kafka.Writer
}

// NewProducer connects to the first broker and makes sure the topic exists.
// When Kafka is disabled or unreachable a logging mock is returned.
func NewProducer(cfg Config) Producer {
	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		logrus.Info("kafka disabled, using mock producer")
		return &mockProducer{}
	}

	topic := cfg.topic()
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}

	logrus.WithField("brokers", cfg.Brokers).Info("kafka producer configured")

	// Проверяем подключение и создаем топик
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := kafka.DialContext(ctx, "tcp", cfg.Brokers[0])
	if err != nil {
		logrus.WithError(err).Warn("kafka connection failed, using mock producer instead")
		return &mockProducer{}
	}
	defer conn.Close()

	// Создаем топик если не существует
	err = conn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	})
	if err != nil {
		logrus.WithError(err).Debug("could not create topic (might already exist)")
	} else {
		logrus.WithField("topic", topic).Info("created topic")
	}

	return &kafkaProducer{writer: writer}
}

func (p *kafkaProducer) SendMessage(ctx context.Context, key string, message interface{}) error {
	messageBytes, err := json.Marshal(message)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: messageBytes,
		Time:  time.Now(),
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		logrus.WithError(err).Error("failed to write message to kafka")
		return err
	}

	logrus.WithFields(logrus.Fields{"topic": p.writer.Topic, "key": key}).Debug("message sent")
	return nil
}

func (p *kafkaProducer) Close() error {
	return p.writer.Close()
}

// Mock producer для работы без Kafka
type mockProducer struct{}

// IsMock reports whether p only logs messages instead of publishing them.
func IsMock(p Producer) bool {
	_, ok := p.(*mockProducer)
	return ok
}

func (m *mockProducer) SendMessage(_ context.Context, key string, message interface{}) error {
	logrus.WithField("key", key).Infof("MOCK: message %+v", message)
	return nil
}

func (m *mockProducer) Close() error {
	return nil
}
