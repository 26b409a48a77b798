package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func unsetAll() {
	for _, k := range []string{
		"SERVER_HOST", "SERVER_PORT", "DB_DRIVER", "DB_DSN", "REDIS_ADDR",
		"KAFKA_BROKERS", "KAFKA_TOPIC", "KAFKA_GROUP_ID", "SESSION_SECRET", "SESSION_TTL", "MODEL_PATH", "STATS_CACHE_TTL",
	} {
		os.Unsetenv(k)
	}
}

func TestLoad_EnvDefaults(t *testing.T) {
	unsetAll()
	t.Setenv("SESSION_SECRET", "s3cr3t")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 || cfg.Database.Driver != "sqlite3" || cfg.Database.DSN == "" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Session.TTL != 24*time.Hour || cfg.Session.CookieName == "" {
		t.Fatalf("unexpected session defaults: %+v", cfg.Session)
	}
	if cfg.Kafka.Topic != "loan-decisions" || len(cfg.Kafka.Brokers) != 0 {
		t.Fatalf("unexpected kafka defaults: %+v", cfg.Kafka)
	}
	if cfg.StatsCacheTTL != 5*time.Minute {
		t.Fatalf("unexpected stats cache ttl: %s", cfg.StatsCacheTTL)
	}
}

func TestLoad_RequiresSessionSecret(t *testing.T) {
	unsetAll()
	t.Setenv("SESSION_SECRET", "")
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error when SESSION_SECRET is empty")
	}
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	unsetAll()
	t.Setenv("SESSION_SECRET", "x")
	t.Setenv("DB_DRIVER", "postgres")
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for unsupported driver")
	}
}

func TestLoad_FileWithEnvOverride(t *testing.T) {
	unsetAll()
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
server:
  port: 9090
database:
  driver: mysql
  dsn: "root:@tcp(127.0.0.1:3306)/loan_db"
session:
  secret: from-file
kafka:
  brokers: ["localhost:9092"]
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("SERVER_PORT", "7070")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load(%s): %v", path, err)
	}
	if cfg.Server.Port != 7070 {
		t.Fatalf("env should override file port, got %d", cfg.Server.Port)
	}
	if cfg.Database.Driver != "mysql" || cfg.Session.Secret != "from-file" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if len(cfg.Kafka.Brokers) != 1 || cfg.Kafka.Brokers[0] != "localhost:9092" {
		t.Fatalf("brokers not read: %v", cfg.Kafka.Brokers)
	}
	if cfg.Model.Path == "" {
		t.Fatalf("default model path should fill the gap")
	}
}

func TestConfig_StringMasksSecret(t *testing.T) {
	cfg := &Config{Session: SessionConfig{Secret: "top-secret"}}
	s := cfg.String()
	if strings.Contains(s, "top-secret") {
		t.Fatalf("secret leaked: %s", s)
	}
	if !strings.Contains(s, "memory") {
		t.Fatalf("empty redis addr should read as memory: %s", s)
	}
}

func TestNewKafkaWriter(t *testing.T) {
	if w := NewKafkaWriter(KafkaConfig{Topic: "t"}); w != nil {
		t.Fatalf("expected nil writer without brokers")
	}
	w := NewKafkaWriter(KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "loan-decisions"})
	if w == nil || w.Topic != "loan-decisions" {
		t.Fatalf("unexpected writer: %+v", w)
	}
}

func TestNewKafkaReader(t *testing.T) {
	if r := NewKafkaReader(KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "t"}); r != nil {
		t.Fatalf("expected nil reader without a group id")
	}
	r := NewKafkaReader(KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "loan-decisions", GroupID: "loan-web"})
	if r == nil {
		t.Fatalf("expected reader")
	}
	defer r.Close()
	if got := r.Config(); got.GroupID != "loan-web" || got.Topic != "loan-decisions" {
		t.Fatalf("unexpected reader config: %+v", got)
	}
}
