// Copyright © 2022-2025 Obol Labs Inc. Licensed under the terms of a Business Source License 1.1

package cmd

import (
	"context"
	"strings"

	"github.com/spf13/pflag"

	"github.com/obolnetwork/picarlo/app"
	"github.com/obolnetwork/picarlo/app/featureset"
	"github.com/obolnetwork/picarlo/app/log"
	"github.com/obolnetwork/picarlo/app/tracer"
)

func bindLogFlags(flags *pflag.FlagSet, config *log.Config) {
	flags.StringVar(&config.Format, "log-format", "console", "Log format; console, logfmt or json")
	flags.StringVar(&config.Level, "log-level", "info", "Log level; debug, info, warn or error")
	flags.StringVar(&config.Color, "log-color", "auto", "Log color; auto, force, disable.")
	flags.StringVar(&config.OutputPath, "log-output-path", "", "Path in which to write on-disk logs.")
}

func bindFeatureFlags(flags *pflag.FlagSet, config *featureset.Config) {
	flags.StringSliceVar(&config.Enabled, "feature-set-enable", nil, "Comma-separated list of features to enable, overriding the default minimum feature set.")
	flags.StringSliceVar(&config.Disabled, "feature-set-disable", nil, "Comma-separated list of features to disable, overriding the default minimum feature set.")
	flags.StringVar(&config.MinStatus, "feature-set", "stable", "Minimum feature set to enable by default: alpha, beta, or stable. Warning: modify at own risk.")
}

func bindTracingFlags(flags *pflag.FlagSet, config *app.TracingConfig) {
	flags.StringVar(&config.OTLPAddr, "otlp-address", "", "Listening address for OTLP gRPC tracing backend.")
	flags.StringVar(&config.OTLPServiceName, "otlp-service-name", "picarlo", "Service name used for OTLP gRPC tracing.")
}

// initAmbient initialises the global logger, feature set and tracer.
// It returns a function flushing pending spans.
func initAmbient(ctx context.Context, logConf log.Config, featConf featureset.Config, traceConf app.TracingConfig) (func(context.Context) error, error) {
	if err := log.InitLogger(logConf); err != nil {
		return nil, err
	}

	if err := featureset.Init(ctx, featConf); err != nil {
		return nil, err
	}

	return tracer.Init(
		tracer.WithOTLPOrNoop(strings.TrimSpace(traceConf.OTLPAddr)),
		tracer.WithServiceName(traceConf.OTLPServiceName),
	)
}
