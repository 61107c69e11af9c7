package observability

import (
	"context"
	"testing"

	"github.com/riskibarqy/gift-exchange/internal/config"
	"github.com/riskibarqy/gift-exchange/internal/platform/logging"
)

func TestInitUptrace_Disabled(t *testing.T) {
	cfg := config.Config{
		UptraceEnabled: false,
		ServiceName:    "gift-exchange-api",
		ServiceVersion: "dev",
		AppEnv:         config.EnvDev,
	}

	shutdown, err := InitUptrace(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("init uptrace: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown uptrace: %v", err)
	}
}

func TestUptraceDisabledReason(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Config
		want string
	}{
		{name: "flag off", cfg: config.Config{UptraceDSN: "https://token@api.uptrace.dev"}, want: "UPTRACE_ENABLED=false"},
		{name: "blank dsn", cfg: config.Config{UptraceEnabled: true, UptraceDSN: "  "}, want: "UPTRACE_DSN empty"},
		{name: "enabled", cfg: config.Config{UptraceEnabled: true, UptraceDSN: "https://token@api.uptrace.dev"}, want: ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := uptraceDisabledReason(tc.cfg); got != tc.want {
				t.Fatalf("uptraceDisabledReason() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestValidateUptraceDSN(t *testing.T) {
	tests := []struct {
		dsn     string
		wantErr bool
	}{
		{dsn: "https://project-token@api.uptrace.dev?grpc=4317"},
		{dsn: "http://project-token@localhost:14318"},
		{dsn: "api.uptrace.dev", wantErr: true},
		{dsn: "grpc://project-token@api.uptrace.dev", wantErr: true},
		{dsn: "https://api.uptrace.dev", wantErr: true},
		{dsn: "https://project-token@", wantErr: true},
	}

	for _, tc := range tests {
		err := validateUptraceDSN(tc.dsn)
		if tc.wantErr && err == nil {
			t.Fatalf("validateUptraceDSN(%q) expected error", tc.dsn)
		}
		if !tc.wantErr && err != nil {
			t.Fatalf("validateUptraceDSN(%q) unexpected error: %v", tc.dsn, err)
		}
	}
}

func TestInitUptrace_RejectsMalformedDSN(t *testing.T) {
	cfg := config.Config{UptraceEnabled: true, UptraceDSN: "api.uptrace.dev", ServiceName: "gift-exchange-api"}
	if _, err := InitUptrace(cfg, logging.NewNop()); err == nil {
		t.Fatalf("expected malformed DSN to fail before the exporter starts")
	}
}

func TestUptraceResourceAttributes(t *testing.T) {
	attrs := uptraceResourceAttributes(config.Config{
		StorageDriver: "postgres",
		RegistryMode:  "remote",
		CacheEnabled:  true,
		QStashEnabled: true,
	})

	got := make(map[string]string, len(attrs))
	for _, kv := range attrs {
		got[string(kv.Key)] = kv.Value.Emit()
	}
	want := map[string]string{
		"gift_exchange.storage_driver":       "postgres",
		"gift_exchange.registry_mode":        "remote",
		"gift_exchange.cache_enabled":        "true",
		"gift_exchange.completion_scheduler": "true",
	}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("attribute %s = %q, want %q", k, got[k], v)
		}
	}
}

func TestStartPprofServer_Disabled(t *testing.T) {
	srv, err := StartPprofServer(config.Config{PprofEnabled: false}, logging.NewNop())
	if err != nil {
		t.Fatalf("start pprof: %v", err)
	}
	if srv != nil {
		t.Fatalf("expected no server when pprof is disabled")
	}
	if err := StopPprofServer(srv, logging.NewNop(), 0); err != nil {
		t.Fatalf("stop nil pprof server: %v", err)
	}
}

func TestInitPyroscope_Disabled(t *testing.T) {
	stop, err := InitPyroscope(config.Config{PyroscopeEnabled: false}, logging.NewNop())
	if err != nil {
		t.Fatalf("init pyroscope: %v", err)
	}
	if err := stop(); err != nil {
		t.Fatalf("stop pyroscope: %v", err)
	}
}
