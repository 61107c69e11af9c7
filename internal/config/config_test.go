package config

import (
	"testing"
	"time"
)

func setDevEnv(t *testing.T) {
	t.Helper()
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("STORAGE_DRIVER", "")
	t.Setenv("REGISTRY_MODE", "")
	t.Setenv("QSTASH_ENABLED", "")
}

func TestLoad_AppEnvValidation(t *testing.T) {
	t.Setenv("APP_ENV", "invalid")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid APP_ENV")
	}
}

func TestLoad_DevDefaults(t *testing.T) {
	setDevEnv(t)
	t.Setenv("COMPLETION_WORKERS", "")
	t.Setenv("SEED_DEMO_PARTICIPANTS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.StorageDriver != StorageMemory {
		t.Fatalf("expected memory storage in dev, got %q", cfg.StorageDriver)
	}
	if cfg.RegistryMode != RegistryLocal {
		t.Fatalf("expected local registry by default, got %q", cfg.RegistryMode)
	}
	if cfg.CompletionWorkers != 4 {
		t.Fatalf("unexpected default completion workers: %d", cfg.CompletionWorkers)
	}
	if !cfg.SeedDemoParticipants {
		t.Fatalf("expected demo participants to be seeded in dev")
	}
	if cfg.ReadTimeout != 10*time.Second || cfg.WriteTimeout != 15*time.Second {
		t.Fatalf("unexpected timeouts: read=%s write=%s", cfg.ReadTimeout, cfg.WriteTimeout)
	}
}

func TestLoad_ProdRequiresDatabaseAndOrganizerKey(t *testing.T) {
	t.Setenv("APP_ENV", EnvProd)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("STORAGE_DRIVER", "")
	t.Setenv("REGISTRY_MODE", "")

	t.Run("missing db url", func(t *testing.T) {
		t.Setenv("DB_URL", "")
		t.Setenv("ORGANIZER_KEY", "key")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error when postgres storage has no DB_URL")
		}
	})

	t.Run("missing organizer key", func(t *testing.T) {
		t.Setenv("DB_URL", "postgres://localhost:5432/gift_exchange?sslmode=disable")
		t.Setenv("ORGANIZER_KEY", "")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error when ORGANIZER_KEY is empty outside dev")
		}
	})

	t.Run("complete", func(t *testing.T) {
		t.Setenv("DB_URL", "postgres://localhost:5432/gift_exchange?sslmode=disable")
		t.Setenv("ORGANIZER_KEY", "key")
		t.Setenv("SEED_DEMO_PARTICIPANTS", "")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.StorageDriver != StoragePostgres {
			t.Fatalf("expected postgres storage in prod, got %q", cfg.StorageDriver)
		}
		if cfg.SeedDemoParticipants {
			t.Fatalf("expected no demo seed outside dev")
		}
	})
}

func TestLoad_StorageDriverValidation(t *testing.T) {
	setDevEnv(t)
	t.Setenv("STORAGE_DRIVER", "mysql")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for unknown STORAGE_DRIVER")
	}
}

func TestLoad_RemoteRegistry(t *testing.T) {
	setDevEnv(t)
	t.Setenv("REGISTRY_MODE", RegistryRemote)

	t.Run("requires base url", func(t *testing.T) {
		t.Setenv("REGISTRY_BASE_URL", "")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error when remote registry has no base url")
		}
	})

	t.Run("parses tuning", func(t *testing.T) {
		t.Setenv("REGISTRY_BASE_URL", "https://people.example.com")
		t.Setenv("REGISTRY_BATCH_SIZE", "25")
		t.Setenv("REGISTRY_TIMEOUT", "2s")
		t.Setenv("REGISTRY_CIRCUIT_FAILURE_COUNT", "3")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.RegistryBatchSize != 25 || cfg.RegistryTimeout != 2*time.Second || cfg.RegistryCircuitFailureCount != 3 {
			t.Fatalf("unexpected registry config: %+v", cfg)
		}
		if !cfg.RegistryCircuitEnabled {
			t.Fatalf("expected registry circuit breaker enabled by default")
		}
	})

	t.Run("rejects zero batch size", func(t *testing.T) {
		t.Setenv("REGISTRY_BASE_URL", "https://people.example.com")
		t.Setenv("REGISTRY_BATCH_SIZE", "0")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for REGISTRY_BATCH_SIZE=0")
		}
	})
}

func TestLoad_CompletionWorkersBounds(t *testing.T) {
	setDevEnv(t)

	for _, raw := range []string{"0", "33", "many"} {
		t.Setenv("COMPLETION_WORKERS", raw)
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for COMPLETION_WORKERS=%s", raw)
		}
	}
}

func TestLoad_UptraceRequiresDSNWhenEnabled(t *testing.T) {
	setDevEnv(t)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when UPTRACE_ENABLED=true without UPTRACE_DSN")
	}
}

func TestLoad_UptraceDSNFromOTLPHeaders(t *testing.T) {
	setDevEnv(t)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", `uptrace-dsn="https://token@api.uptrace.dev/1"`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.UptraceDSN != "https://token@api.uptrace.dev/1" {
		t.Fatalf("unexpected uptrace dsn: %q", cfg.UptraceDSN)
	}
}

func TestLoad_PprofDefaultsAddrWhenEnabled(t *testing.T) {
	setDevEnv(t)
	t.Setenv("PPROF_ENABLED", "true")
	t.Setenv("PPROF_ADDR", "  ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.PprofAddr != ":6060" {
		t.Fatalf("expected default pprof addr :6060, got %q", cfg.PprofAddr)
	}
}

func TestLoad_PyroscopeRequiresServerAddressWhenEnabled(t *testing.T) {
	setDevEnv(t)
	t.Setenv("PYROSCOPE_ENABLED", "true")
	t.Setenv("PYROSCOPE_SERVER_ADDRESS", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when PYROSCOPE_ENABLED=true without PYROSCOPE_SERVER_ADDRESS")
	}
}

func TestLoad_PyroscopeAppNameDefaultsToServiceName(t *testing.T) {
	setDevEnv(t)
	t.Setenv("APP_SERVICE_NAME", "gift-exchange-api-test")
	t.Setenv("PYROSCOPE_ENABLED", "true")
	t.Setenv("PYROSCOPE_SERVER_ADDRESS", "http://localhost:4040")
	t.Setenv("PYROSCOPE_APP_NAME", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.PyroscopeAppName != "gift-exchange-api-test" {
		t.Fatalf("unexpected pyroscope app name: %q", cfg.PyroscopeAppName)
	}
}

func TestLoad_CORSOriginsDefaultAndParsing(t *testing.T) {
	setDevEnv(t)

	t.Run("default wildcard", func(t *testing.T) {
		t.Setenv("CORS_ALLOWED_ORIGINS", "")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
			t.Fatalf("unexpected default CORS origins: %+v", cfg.CORSAllowedOrigins)
		}
	})

	t.Run("comma separated parsing", func(t *testing.T) {
		t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example.com, http://localhost:5173 ")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if len(cfg.CORSAllowedOrigins) != 2 {
			t.Fatalf("unexpected CORS origins length: %d", len(cfg.CORSAllowedOrigins))
		}
		if cfg.CORSAllowedOrigins[1] != "http://localhost:5173" {
			t.Fatalf("unexpected second CORS origin: %s", cfg.CORSAllowedOrigins[1])
		}
	})
}

func TestLoad_CacheConfigParsing(t *testing.T) {
	setDevEnv(t)

	t.Run("defaults", func(t *testing.T) {
		t.Setenv("CACHE_ENABLED", "")
		t.Setenv("CACHE_TTL", "")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if !cfg.CacheEnabled {
			t.Fatalf("expected cache enabled by default")
		}
		if cfg.CacheTTL != 60*time.Second {
			t.Fatalf("unexpected default cache ttl: %s", cfg.CacheTTL)
		}
	})

	t.Run("invalid ttl", func(t *testing.T) {
		t.Setenv("CACHE_TTL", "bad")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for invalid CACHE_TTL")
		}
	})

	t.Run("invalid prepared binary flag", func(t *testing.T) {
		t.Setenv("CACHE_TTL", "")
		t.Setenv("DB_DISABLE_PREPARED_BINARY_RESULT", "not-bool")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for invalid DB_DISABLE_PREPARED_BINARY_RESULT")
		}
	})
}

func TestLoad_QStashRequiresTokenTargetAndJobToken(t *testing.T) {
	setDevEnv(t)
	t.Setenv("QSTASH_ENABLED", "true")
	t.Setenv("QSTASH_TOKEN", "")
	t.Setenv("QSTASH_TARGET_BASE_URL", "https://gifts.example.com")
	t.Setenv("INTERNAL_JOB_TOKEN", "job-token")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when QSTASH_TOKEN is missing")
	}

	t.Setenv("QSTASH_TOKEN", "qstash-token")
	t.Setenv("INTERNAL_JOB_TOKEN", "")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error when INTERNAL_JOB_TOKEN is missing")
	}

	t.Setenv("INTERNAL_JOB_TOKEN", "job-token")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.QStashBaseURL != "https://qstash.upstash.io" {
		t.Fatalf("unexpected default QStash base url: %s", cfg.QStashBaseURL)
	}
	if cfg.QStashRetries != 3 {
		t.Fatalf("unexpected default retries: %d", cfg.QStashRetries)
	}
}
