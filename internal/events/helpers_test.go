package events

import "udyam/internal/platform/config"

func kafkaConfig(brokers []string) config.KafkaConfig {
	return config.KafkaConfig{Brokers: brokers, Topic: "udyam.submissions.test"}
}
