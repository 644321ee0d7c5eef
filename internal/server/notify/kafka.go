package notify

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl/plain"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConfig describes the milestone topic. Username enables SASL/PLAIN over TLS.
type KafkaConfig struct {
	Broker       string
	Topic        string
	Username     string
	Password     string
	WriteTimeout time.Duration
}

// KafkaNotifier publishes events keyed by lock id so events of one lock stay
// ordered within a partition.
type KafkaNotifier struct {
	writer messageWriter
	now    func() time.Time
}

func NewKafkaNotifier(c KafkaConfig) *KafkaNotifier {
	w := &kafka.Writer{
		Addr:         kafka.TCP(c.Broker),
		Topic:        c.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		WriteTimeout: c.WriteTimeout,
	}
	if c.Username != "" {
		w.Transport = &kafka.Transport{
			SASL: plain.Mechanism{Username: c.Username, Password: c.Password},
			TLS:  &tls.Config{MinVersion: tls.VersionTLS12},
		}
	}
	return &KafkaNotifier{writer: w, now: time.Now}
}

func (k *KafkaNotifier) NotifyMilestone(ctx context.Context, event MilestoneEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal milestone event: %w", err)
	}

	err = k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatInt(event.LockID, 10)),
		Value: value,
		Time:  k.now(),
	})
	if err != nil {
		return fmt.Errorf("kafka publish: %w", err)
	}
	return nil
}

// Close flushes and closes the writer.
func (k *KafkaNotifier) Close() error {
	return k.writer.Close()
}
