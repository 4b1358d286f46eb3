package block

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/blockmind/engine/internal/config"
	"github.com/blockmind/engine/pkg/logging"
	"github.com/blockmind/engine/pkg/tracing"
	"github.com/blockmind/engine/sanitize"
	"github.com/blockmind/engine/stats"
)

// Runtime is the process-wide wiring a host builds once from a config.Config
// and then uses to mint every BlockCore it constructs, the same role the
// teacher's core.NewFramework plays for a component built from core.Config:
// one place that turns typed configuration into the concrete Stats/Logger/
// Tracer/Sanitizer a block actually runs against.
type Runtime struct {
	cfg       *config.Config
	Stats     stats.Store
	Logger    logging.Logger
	Tracer    *tracing.Provider
	Sanitizer sanitize.Sanitizer
}

// NewRuntime builds a Runtime from cfg: a JSONL-journaled Stats Store when
// StatsJournalPath is set, an in-memory one otherwise; a zap-backed Logger at
// cfg.LogLevel/LogFormat; and an OTel Provider using cfg.TracingExporter when
// cfg.TracingEnabled (a no-op Provider otherwise, so callers never need to
// branch on whether tracing is on). serviceName tags the tracer's resource.
func NewRuntime(cfg *config.Config, serviceName string) (*Runtime, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	format := logging.FormatJSON
	if cfg.LogFormat == "text" {
		format = logging.FormatText
	}
	logger, err := logging.NewZapLogger(cfg.LogLevel, format)
	if err != nil {
		return nil, fmt.Errorf("block: build logger: %w", err)
	}

	var store stats.Store
	prior := stats.DefaultPrior()
	if cfg.StatsJournalPath != "" {
		store, err = stats.NewJSONStore(cfg.StatsJournalPath, cfg.StatsMaxRecords, cfg.StatsMaxFileBytes, prior, logger)
		if err != nil {
			return nil, fmt.Errorf("block: build stats journal: %w", err)
		}
	} else {
		store = stats.NewInMemoryStore(prior)
	}

	exporter := tracing.ExporterNone
	if cfg.TracingEnabled {
		exporter = tracing.Exporter(cfg.TracingExporter)
	}
	tracer, err := tracing.NewProvider(serviceName, exporter)
	if err != nil {
		return nil, fmt.Errorf("block: build tracer: %w", err)
	}

	if cfg.PrometheusEnabled {
		store = stats.NewPrometheusRecorder(store, prometheus.DefaultRegisterer)
	}

	sanitizer := sanitize.Sanitizer{
		MaxStringLen:  cfg.SanitizerMaxStringLen,
		MaxCollection: cfg.SanitizerMaxCollectionSize,
		MaxDepth:      cfg.SanitizerMaxDepth,
	}

	return &Runtime{cfg: cfg, Stats: store, Logger: logger, Tracer: tracer, Sanitizer: sanitizer}, nil
}

// DefaultMaxSteps is the composite step ceiling a host should pass to
// SetGraph, sourced from cfg.DefaultMaxSteps rather than the package's
// built-in defaultMaxSteps constant.
func (r *Runtime) DefaultMaxSteps() int {
	return r.cfg.DefaultMaxSteps
}

// DefaultRetryPolicyStack is the recovery stack a host installs via
// SetPolicyStackFunc for blocks that have no error-kind-specific override: a
// bounded retry sized from cfg.DefaultRetryMaxAttempts/DefaultRetryDelay,
// then bubble. The recovery loop still gates RetryPolicy against the child's
// own side-effect class, so installing this for a non-idempotent block is
// safe --- it degrades to unsafe_to_retry rather than actually retrying.
func (r *Runtime) DefaultRetryPolicyStack(ErrorKind) []RecoveryPolicy {
	return []RecoveryPolicy{
		RetryPolicy{MaxAttempts: r.cfg.DefaultRetryMaxAttempts, Delay: r.cfg.DefaultRetryDelay},
		BubblePolicy{},
	}
}

// NewBlockCore mints a BlockCore wired with this Runtime's Stats, Logger,
// Tracer, and Sanitizer, and the config-driven default policy stack. Callers
// that need a block-specific stack (the LLM Primitive's schema_error
// handling, for instance) call SetPolicyStackFunc afterward to override it.
func (r *Runtime) NewBlockCore(name, blockType string, sideEffectClass SideEffectClass) *BlockCore {
	b := NewBlockCore(name, blockType, sideEffectClass)
	b.Stats = r.Stats
	b.Logger = r.Logger
	b.Tracer = r.Tracer
	b.Sanitizer = r.Sanitizer
	b.SetPolicyStackFunc(r.DefaultRetryPolicyStack)
	return b
}
