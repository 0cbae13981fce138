package config

import (
	"reflect"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("CODE_TTL", "")
	cfg := Load()
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("HTTPAddr=%q", cfg.HTTPAddr)
	}
	if cfg.CodeTTL != 10*time.Minute {
		t.Fatalf("CodeTTL=%s", cfg.CodeTTL)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("SMTP_PORT", "2525")
	t.Setenv("GATEWAY_TIMEOUT", "3s")
	t.Setenv("SMTP_TIMEOUT", "garbage")

	cfg := Load()
	if !reflect.DeepEqual(cfg.KafkaBrokers, []string{"k1:9092", "k2:9092"}) {
		t.Fatalf("brokers=%v", cfg.KafkaBrokers)
	}
	if cfg.SMTPPort != 2525 {
		t.Fatalf("SMTPPort=%d", cfg.SMTPPort)
	}
	if cfg.GatewayTimeout != 3*time.Second {
		t.Fatalf("GatewayTimeout=%s", cfg.GatewayTimeout)
	}
	if cfg.SMTPTimeout != 10*time.Second {
		t.Fatalf("SMTPTimeout=%s, want default", cfg.SMTPTimeout)
	}
}

func TestValidateRequiresGatewaySecret(t *testing.T) {
	t.Setenv("GATEWAY_KEY_ID", "rzp_test_key")
	t.Setenv("GATEWAY_KEY_SECRET", "")
	if err := Load().Validate(); err == nil {
		t.Fatal("empty gateway secret accepted")
	}
	t.Setenv("GATEWAY_KEY_SECRET", "shh")
	if err := Load().Validate(); err != nil {
		t.Fatal(err)
	}
}
