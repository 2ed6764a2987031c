// Package main provides the covsubmit CLI application.
package main

import (
	"io"

	"github.com/spf13/cobra"

	cerrors "github.com/cicd-ai-toolkit/covsubmit/pkg/errors"
	"github.com/cicd-ai-toolkit/covsubmit/pkg/config"
	"github.com/cicd-ai-toolkit/covsubmit/pkg/observability"
	"github.com/cicd-ai-toolkit/covsubmit/pkg/version"
)

// globalFlags holds the persistent flags shared by every command.
type globalFlags struct {
	config    string
	logLevel  string
	logFormat string
	verbose   bool
	noColor   bool
}

// app carries the output streams and global flags to the commands.
type app struct {
	stdout io.Writer
	stderr io.Writer
	flags  globalFlags
}

// newRootCmd builds the command tree.
func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	rootCmd := &cobra.Command{
		Use:   "covsubmit",
		Short: "Submit coverage reports to Coveralls",
		Long: `covsubmit reads one or more coverage reports and submits each of them
through the coveralls uploader. The build step succeeds only when every
report was accepted.`,
		Version:       version.FullString(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return cerrors.ConfigError("invalid flags", err)
	})

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&a.flags.config, "config", "c", "", "config file (default is ./"+config.ProjectConfigFile+")")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&a.flags.logFormat, "log-format", "", "log format: text, json")
	pf.BoolVarP(&a.flags.verbose, "verbose", "v", false, "verbose output (same as --log-level debug)")
	pf.BoolVar(&a.flags.noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(
		newSubmitCmd(a),
		newTargetsCmd(a),
		newCheckCmd(a),
		newConfigCmd(a),
		newVersionCmd(a),
	)
	return rootCmd
}

// loadConfig loads configuration and applies the global flags.
func (a *app) loadConfig() (*config.Config, error) {
	loader := config.NewLoader()
	if a.flags.config != "" {
		loader = loader.WithConfigFile(a.flags.config)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, cerrors.ConfigError("failed to load configuration", err)
	}

	if a.flags.logLevel != "" {
		cfg.Global.LogLevel = a.flags.logLevel
	}
	if a.flags.verbose {
		cfg.Global.LogLevel = "debug"
	}
	if a.flags.logFormat != "" {
		cfg.Global.LogFormat = a.flags.logFormat
	}
	return cfg, nil
}

// validate runs the config validator.
func (a *app) validate(cfg *config.Config) error {
	if err := config.NewValidator().Validate(cfg); err != nil {
		return cerrors.ValidationError("invalid configuration", err)
	}
	return nil
}

func (a *app) logger(cfg *config.Config) observability.Logger {
	return observability.NewLoggerWithOptions(observability.LogOptions{
		Level:  cfg.Global.LogLevel,
		Format: cfg.Global.LogFormat,
		Output: a.stderr,
	})
}
