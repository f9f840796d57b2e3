// Package telemetry provides observability instrumentation for RouteNet.
//
// It integrates structured logging (zerolog), distributed tracing
// (OpenTelemetry), and Prometheus metrics into a unified system for
// monitoring routing decisions and discovery traffic.
//
// Initialize telemetry at application startup:
//
//	cfg := telemetry.DefaultConfig()
//	cfg.ServiceVersion = "1.0.0"
//
//	tel, err := telemetry.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tel.Shutdown(context.Background())
//
// Components receive child loggers and share the metrics collector:
//
//	logger := tel.Logger.NewComponentLogger("discovery")
//	logger.WithCapability("web scraping").Info("Cache miss, fetching")
//
// The metrics collector is nil-safe: a nil *Metrics (or one created with
// metrics disabled) turns every Record/Observe call into a no-op, so
// components can be constructed without telemetry in tests.
package telemetry
