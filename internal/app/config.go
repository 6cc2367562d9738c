package app

import "os"

// Config описывает минимальные настройки запуска приложения.
type Config struct {
	// MetricsAddr — адрес HTTP-сервера метрик и health-проверок.
	MetricsAddr string
	// KafkaBrokers — список брокеров через запятую; пусто — без Kafka.
	KafkaBrokers string
	// DatabaseURL — DSN PostgreSQL для снапшотов; пусто — in-memory хранилище.
	DatabaseURL string
	// SessionID — внешний идентификатор сессии; пусто — сгенерировать.
	SessionID string
}

// DefaultConfig возвращает базовые настройки.
func DefaultConfig() Config {
	return Config{
		MetricsAddr: ":9090",
	}
}

// FromEnv формирует конфигурацию, позволяя переопределить настройки
// через переменные окружения.
func FromEnv() Config {
	cfg := DefaultConfig()
	if v := os.Getenv("STOREFRONT_METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.KafkaBrokers = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("STOREFRONT_SESSION_ID"); v != "" {
		cfg.SessionID = v
	}
	return cfg
}
