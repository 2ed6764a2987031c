// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cicd-ai-toolkit/covsubmit/pkg/ciinfo"
	"github.com/cicd-ai-toolkit/covsubmit/pkg/config"
	"github.com/cicd-ai-toolkit/covsubmit/pkg/security"
	"github.com/cicd-ai-toolkit/covsubmit/pkg/uploader"
)

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check that submissions can run",
		Long: `Validate the configuration, resolve the uploader helper and show the
detected CI environment, without submitting anything.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			if err := a.validate(cfg); err != nil {
				return err
			}

			loader := config.NewLoader()
			if a.flags.config != "" {
				loader = loader.WithConfigFile(a.flags.config)
			}
			paths := loader.FindConfigPaths()
			if len(paths) == 0 {
				fmt.Fprintln(a.stdout, "config:  defaults")
			}
			for _, p := range paths {
				fmt.Fprintf(a.stdout, "config:  %s\n", p)
			}

			fmt.Fprintf(a.stdout, "ci:      %s\n", ciinfo.Detect())

			token := ""
			if cfg.Upload.RepoTokenEnv != "" {
				token = os.Getenv(cfg.Upload.RepoTokenEnv)
			}
			fmt.Fprintf(a.stdout, "token:   %s (%s)\n", security.Mask(token), cfg.Upload.RepoTokenEnv)

			if cfg.Upload.DryRun {
				fmt.Fprintf(a.stdout, "helper:  skipped (dry run, archiving to %s)\n", cfg.Upload.ArchiveDir)
				return nil
			}
			up := uploader.NewProcessUploader(uploader.ProcessOptions{Binary: cfg.Upload.Binary})
			path, err := up.Preflight()
			if err != nil {
				fmt.Fprintf(a.stdout, "helper:  %s not found\n", cfg.Upload.Binary)
				return err
			}
			fmt.Fprintf(a.stdout, "helper:  %s\n", path)
			return nil
		},
	}
}
