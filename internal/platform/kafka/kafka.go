// Package kafka builds writers and readers for the commerce event topics.
package kafka

import (
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// DefaultOrderTopic carries order lifecycle events.
const DefaultOrderTopic = "aims.orders"

// NewWriter returns a writer for topic, or nil when no brokers are configured.
func NewWriter(brokers []string, topic string) *kafka.Writer {
	brokers = ParseBrokers(strings.Join(brokers, ","))
	if len(brokers) == 0 {
		return nil
	}
	if strings.TrimSpace(topic) == "" {
		topic = DefaultOrderTopic
	}
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  3,
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  10 * time.Second,
	}
}

// NewReader returns a consumer-group reader for topic.
func NewReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: time.Second,
		StartOffset:    kafka.FirstOffset,
	})
}

// ParseBrokers splits a comma separated broker list, dropping blanks.
func ParseBrokers(raw string) []string {
	var brokers []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			brokers = append(brokers, part)
		}
	}
	return brokers
}
