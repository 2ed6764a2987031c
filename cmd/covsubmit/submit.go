// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/cicd-ai-toolkit/covsubmit/pkg/ciinfo"
	"github.com/cicd-ai-toolkit/covsubmit/pkg/config"
	cerrors "github.com/cicd-ai-toolkit/covsubmit/pkg/errors"
	"github.com/cicd-ai-toolkit/covsubmit/pkg/observability"
	"github.com/cicd-ai-toolkit/covsubmit/pkg/output"
	"github.com/cicd-ai-toolkit/covsubmit/pkg/security"
	"github.com/cicd-ai-toolkit/covsubmit/pkg/source"
	"github.com/cicd-ai-toolkit/covsubmit/pkg/submit"
	"github.com/cicd-ai-toolkit/covsubmit/pkg/uploader"
	"github.com/cicd-ai-toolkit/covsubmit/pkg/version"
)

// submitFlags holds the flags for the submit command
type submitFlags struct {
	target      string
	root        string
	format      string
	quiet       bool
	binary      string
	timeout     time.Duration
	concurrency int
	dryRun      bool
	archiveDir  string
	parallel    bool
	flagName    string
	metricsFile string
}

func newSubmitCmd(a *app) *cobra.Command {
	var opts submitFlags

	cmd := &cobra.Command{
		Use:     "submit [files or patterns...]",
		Aliases: []string{"run"},
		Short:   "Submit coverage reports",
		Long: `Submit every given coverage report to Coveralls.

Reports are submitted concurrently, one uploader process each. The command
fails when any report could not be read or was rejected, and when there is
nothing to submit. Arguments may be glob patterns such as coverage/**/*.info.`,
		Example: `  covsubmit submit coverage/lcov.info
  covsubmit submit 'coverage/**/lcov.info' --concurrency 4
  covsubmit submit --target unit --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			applySubmitFlags(cmd, &opts, cfg)
			if err := a.validate(cfg); err != nil {
				return err
			}
			return a.runSubmit(cmd.Context(), cfg, &opts, args)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.target, "target", "t", "", "submit the reports of a named target from the config file")
	f.StringVar(&opts.root, "root", "", "directory relative report paths are resolved against (default: working directory)")
	f.StringVarP(&opts.format, "output", "o", output.FormatText, "summary format: text, json, yaml")
	f.BoolVarP(&opts.quiet, "quiet", "q", false, "only print the summary")
	f.StringVar(&opts.binary, "binary", "", "uploader helper binary")
	f.DurationVar(&opts.timeout, "timeout", 0, "per-report uploader timeout")
	f.IntVar(&opts.concurrency, "concurrency", 0, "maximum concurrent uploads (0 = unbounded)")
	f.BoolVar(&opts.dryRun, "dry-run", false, "archive reports locally instead of uploading")
	f.StringVar(&opts.archiveDir, "archive-dir", "", "directory for --dry-run archives")
	f.BoolVar(&opts.parallel, "parallel", false, "mark the build as parallel for Coveralls")
	f.StringVar(&opts.flagName, "flag-name", "", "Coveralls flag name for this job")
	f.StringVar(&opts.metricsFile, "metrics-file", "", "write prometheus metrics to this textfile")

	return cmd
}

// applySubmitFlags overrides config values with flags the user set.
func applySubmitFlags(cmd *cobra.Command, opts *submitFlags, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("binary") {
		cfg.Upload.Binary = opts.binary
	}
	if f.Changed("timeout") {
		cfg.Upload.Timeout = opts.timeout
	}
	if f.Changed("concurrency") {
		cfg.Upload.Concurrency = opts.concurrency
	}
	if f.Changed("dry-run") {
		cfg.Upload.DryRun = opts.dryRun
	}
	if f.Changed("archive-dir") {
		cfg.Upload.ArchiveDir = opts.archiveDir
	}
	if f.Changed("parallel") {
		cfg.Upload.Parallel = opts.parallel
	}
	if f.Changed("flag-name") {
		cfg.Upload.FlagName = opts.flagName
	}
	if f.Changed("metrics-file") {
		cfg.Observability.MetricsFile = opts.metricsFile
	}
}

func (a *app) runSubmit(ctx context.Context, cfg *config.Config, opts *submitFlags, args []string) error {
	formatter, err := output.NewFormatter(opts.format)
	if err != nil {
		return cerrors.ConfigError("invalid --output", err)
	}

	log := a.logger(cfg)

	patterns, flagName, err := resolvePatterns(cfg, opts.target, args)
	if err != nil {
		return err
	}
	paths, err := source.Expand(opts.root, patterns)
	if err != nil {
		return cerrors.ConfigError("failed to expand inputs", err)
	}

	tracer, shutdownTracing, err := observability.SetupTracing(ctx, observability.TraceConfig{
		Enabled:     cfg.Observability.Tracing.Enabled,
		ServiceName: cfg.Observability.Tracing.ServiceName,
		Endpoint:    cfg.Observability.Tracing.Endpoint,
		Insecure:    cfg.Observability.Tracing.Insecure,
		SampleRatio: cfg.Observability.Tracing.SampleRatio,
	}, log)
	if err != nil {
		return cerrors.ConfigError("failed to set up tracing", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			log.Warn("trace flush failed", observability.Err(err))
		}
	}()

	metrics := observability.NewMetrics()
	defer func() {
		if err := metrics.WriteTextfile(cfg.Observability.MetricsFile); err != nil {
			log.Warn("failed to write metrics file",
				observability.String("path", cfg.Observability.MetricsFile), observability.Err(err))
		}
	}()

	token := ""
	if cfg.Upload.RepoTokenEnv != "" {
		token = os.Getenv(cfg.Upload.RepoTokenEnv)
	}
	redactor := security.NewRedactor(token)

	ci := ciinfo.Detect()
	log.Debug("starting submission",
		observability.String("version", version.UserAgent()),
		observability.String("ci", ci.String()),
		observability.Int("inputs", len(paths)),
	)

	up := a.newUploader(cfg, ci, token, flagName, redactor, log)
	src := source.NewFileSource(opts.root).WithMaxBytes(cfg.Upload.MaxBytes)
	submitter := submit.NewSubmitter(src, up, log)

	interactive := !opts.quiet && output.IsInteractive(os.Stderr) && a.stderr == os.Stderr
	progress := output.NewProgress(a.stderr, len(paths), interactive)

	agg := submit.New(
		submit.WithLogger(log),
		submit.WithMetrics(metrics),
		submit.WithTracer(tracer),
		submit.WithConcurrency(cfg.Upload.Concurrency),
		submit.WithObserver(progress.Observe),
	)
	res := agg.Run(ctx, submit.Requests(paths), submitter.Func())
	progress.Finish()

	if !opts.quiet {
		reporter := output.NewReporter(a.stderr, !a.flags.noColor && interactive, redactor.Redact)
		for _, o := range res.Outcomes {
			reporter.Outcome(o)
		}
		reporter.Result(res)
	}

	summary, err := formatter.Format(output.Summarize(opts.target, res, redactor.Redact))
	if err != nil {
		return fmt.Errorf("failed to render summary: %w", err)
	}
	fmt.Fprint(a.stdout, summary)

	return res.Err
}

// resolvePatterns picks the inputs from args or from the named target.
func resolvePatterns(cfg *config.Config, target string, args []string) ([]string, string, error) {
	if target == "" {
		return args, cfg.Upload.FlagName, nil
	}
	if len(args) > 0 {
		return nil, "", cerrors.ConfigError("--target cannot be combined with file arguments", nil)
	}
	t, ok := cfg.Target(target)
	if !ok {
		return nil, "", cerrors.ConfigError(fmt.Sprintf("unknown target %q", target), nil).
			WithContext("targets", cfg.TargetNames())
	}
	flagName := cfg.Upload.FlagName
	if t.FlagName != "" {
		flagName = t.FlagName
	}
	return t.Src, flagName, nil
}

func (a *app) newUploader(cfg *config.Config, ci *ciinfo.Info, token, flagName string,
	redactor *security.Redactor, log observability.Logger) uploader.Uploader {
	if cfg.Upload.DryRun {
		log.Info("dry run: archiving reports", observability.String("dir", cfg.Upload.ArchiveDir))
		return uploader.NewArchiveUploader(cfg.Upload.ArchiveDir, log)
	}
	env := ciinfo.HelperEnv(os.Environ(), ci, ciinfo.HelperOptions{
		RepoToken: token,
		Parallel:  cfg.Upload.Parallel,
		FlagName:  flagName,
	})
	return uploader.NewProcessUploader(uploader.ProcessOptions{
		Binary:   cfg.Upload.Binary,
		Args:     cfg.Upload.Args,
		Env:      env,
		Timeout:  cfg.Upload.Timeout,
		Redactor: redactor,
		Logger:   log,
	})
}
