package config

import "github.com/segmentio/kafka-go"

// NewKafkaWriter returns a writer for the decision topic, or nil when no
// brokers are configured.
func NewKafkaWriter(cfg KafkaConfig) *kafka.Writer {
	if len(cfg.Brokers) == 0 {
		return nil
	}
	return &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.LeastBytes{}, // Balancer for selecting partition
		AllowAutoTopicCreation: true,
	}
}

// NewKafkaReader returns a consumer-group reader for the decision topic, or
// nil unless both brokers and a group id are configured.
func NewKafkaReader(cfg KafkaConfig) *kafka.Reader {
	if len(cfg.Brokers) == 0 || cfg.GroupID == "" {
		return nil
	}
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})
}
