package observability

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/riskibarqy/gift-exchange/internal/config"
	"github.com/riskibarqy/gift-exchange/internal/platform/logging"
	"github.com/uptrace/uptrace-go/uptrace"
	"go.opentelemetry.io/otel/attribute"
)

// InitUptrace installs the Uptrace trace and log pipelines. Spans carry the
// storage and registry wiring so a slow draw can be told apart by backend.
// The returned func flushes and detaches the log mirror.
func InitUptrace(cfg config.Config, logger *logging.Logger) (func(context.Context) error, error) {
	if logger == nil {
		logger = logging.Default()
	}

	if reason := uptraceDisabledReason(cfg); reason != "" {
		logging.SetMirror(nil)
		logger.Info("uptrace disabled", "reason", reason)
		return func(context.Context) error { return nil }, nil
	}
	if err := validateUptraceDSN(cfg.UptraceDSN); err != nil {
		return nil, err
	}

	uptrace.ConfigureOpentelemetry(
		uptrace.WithDSN(strings.TrimSpace(cfg.UptraceDSN)),
		uptrace.WithServiceName(cfg.ServiceName),
		uptrace.WithServiceVersion(cfg.ServiceVersion),
		uptrace.WithDeploymentEnvironment(cfg.AppEnv),
		uptrace.WithResourceAttributes(uptraceResourceAttributes(cfg)...),
		uptrace.WithLoggingEnabled(cfg.UptraceLogsEnabled),
	)

	var mirror logging.MirrorFunc
	if cfg.UptraceLogsEnabled {
		mirror = newUptraceLogMirror(cfg.ServiceVersion)
	}
	logging.SetMirror(mirror)

	logger.Info("uptrace enabled",
		"service_name", cfg.ServiceName,
		"environment", cfg.AppEnv,
		"storage_driver", cfg.StorageDriver,
		"registry_mode", cfg.RegistryMode,
		"logs_enabled", cfg.UptraceLogsEnabled,
	)

	return func(ctx context.Context) error {
		logging.SetMirror(nil)
		return uptrace.Shutdown(ctx)
	}, nil
}

func uptraceDisabledReason(cfg config.Config) string {
	switch {
	case !cfg.UptraceEnabled:
		return "UPTRACE_ENABLED=false"
	case strings.TrimSpace(cfg.UptraceDSN) == "":
		return "UPTRACE_DSN empty"
	default:
		return ""
	}
}

// validateUptraceDSN rejects DSNs the exporter would only fail on later, in
// the background. The project token travels as the URL user.
func validateUptraceDSN(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("parse UPTRACE_DSN: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("UPTRACE_DSN must use http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("UPTRACE_DSN host is required")
	}
	if u.User == nil || u.User.Username() == "" {
		return fmt.Errorf("UPTRACE_DSN project token is required")
	}
	return nil
}

func uptraceResourceAttributes(cfg config.Config) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("gift_exchange.storage_driver", cfg.StorageDriver),
		attribute.String("gift_exchange.registry_mode", cfg.RegistryMode),
		attribute.Bool("gift_exchange.cache_enabled", cfg.CacheEnabled),
		attribute.Bool("gift_exchange.completion_scheduler", cfg.QStashEnabled),
	}
}
