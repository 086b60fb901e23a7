// Copyright © 2022-2025 Obol Labs Inc. Licensed under the terms of a Business Source License 1.1

// Package cmd implements the picarlo command-line interface.
package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	_ "go.uber.org/automaxprocs" // Automatically sets GOMAXPROCS to match Linux container CPU quota.

	"github.com/obolnetwork/picarlo/app/errors"
	"github.com/obolnetwork/picarlo/app/z"
)

const (
	// The name of our config file, without the file extension because
	// viper supports many different config file languages.
	defaultConfigFilename = "picarlo"

	// The environment variable prefix of all environment variables bound to our command line flags.
	envPrefix = "picarlo"
)

// New returns a new root cobra command that handles our command line tool.
func New() *cobra.Command {
	return newRootCmd(
		newVersionCmd(runVersionCmd),
		newEstimateCmd(runEstimate),
		newBenchCmd(runBench),
		newServeCmd(runServe),
	)
}

func newRootCmd(cmds ...*cobra.Command) *cobra.Command {
	root := &cobra.Command{
		Use:   "picarlo",
		Short: "Picarlo - Monte Carlo π estimation",
		Long:  `Picarlo estimates π by random sampling of the unit square, serially or over parallel workers, and benchmarks the speedup of parallel execution.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initializeConfig(cmd)
		},
		SilenceUsage: true,
	}

	root.AddCommand(cmds...)

	return root
}

// initializeConfig sets up the general viper config and binds the cobra flags to the viper flags.
func initializeConfig(cmd *cobra.Command) error {
	v := viper.New()

	v.SetConfigName(defaultConfigFilename)
	v.AddConfigPath(".")

	// Attempt to read the config file, gracefully ignoring errors
	// caused by a config file not being found. Return an error
	// if we cannot parse the config file.
	if err := v.ReadInConfig(); err != nil {
		// It's okay if there isn't a config file
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return errors.Wrap(err, "read config")
		}
	}

	v.SetEnvPrefix(envPrefix)
	// Environment variables can't have dashes in them, so bind them to their equivalent
	// keys with underscores.
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	// Bind the current command's flags to viper
	return bindFlags(cmd.Flags(), v)
}

// bindFlags binds each cobra flag to its associated viper configuration (config file and environment variable).
func bindFlags(flags *pflag.FlagSet, v *viper.Viper) error {
	var lastErr error

	flags.VisitAll(func(f *pflag.Flag) {
		// Cobra provided flags take priority
		if f.Changed {
			return
		}

		// Define all the viper flag names to check
		viperNames := []string{
			f.Name,
			strings.ReplaceAll(f.Name, "_", "."), // TOML uses "." to indicate hierarchy, while we use "_" in this example.
		}

		for _, name := range viperNames {
			if !v.IsSet(name) {
				continue
			}

			val := v.Get(name)
			if slice, ok := val.([]any); ok {
				var strs []string
				for _, s := range slice {
					strs = append(strs, fmt.Sprint(s))
				}
				val = strings.Join(strs, ",")
			}

			if err := flags.Set(f.Name, fmt.Sprint(val)); err != nil {
				lastErr = errors.Wrap(err, "set flag from config", z.Str("flag", f.Name))
			}

			break
		}
	})

	return lastErr
}
