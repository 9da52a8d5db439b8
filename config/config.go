package config

import "os"

type Config struct {
	DatabaseDSN         string
	MigrationDir        string
	KafkaHost           string
	OrderCreatedTopic   string
	DeliveryStatusTopic string
	HTTPAddr            string
}

var DefaultConfig = Config{
	DatabaseDSN:         "root:1@tcp(localhost:3306)/el_shadai?parseTime=true",
	MigrationDir:        "migration",
	KafkaHost:           "localhost:29092",
	OrderCreatedTopic:   "ORDER_CREATED_TOPIC",
	DeliveryStatusTopic: "DELIVERY_STATUS_TOPIC",
	HTTPAddr:            ":8080",
}

// Load returns DefaultConfig with environment overrides applied.
func Load() Config {
	conf := DefaultConfig
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		conf.DatabaseDSN = v
	}
	if v := os.Getenv("KAFKA_HOST"); v != "" {
		conf.KafkaHost = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		conf.HTTPAddr = v
	}
	return conf
}
