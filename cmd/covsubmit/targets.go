// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	cerrors "github.com/cicd-ai-toolkit/covsubmit/pkg/errors"
	"github.com/cicd-ai-toolkit/covsubmit/pkg/source"
)

func newTargetsCmd(a *app) *cobra.Command {
	var root string

	cmd := &cobra.Command{
		Use:   "targets",
		Short: "List named targets",
		Long:  `List the targets defined in the config file and the reports each one currently matches.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			if err := a.validate(cfg); err != nil {
				return err
			}

			names := cfg.TargetNames()
			if len(names) == 0 {
				fmt.Fprintln(a.stdout, "No targets configured.")
				return nil
			}

			for _, name := range names {
				t, _ := cfg.Target(name)
				paths, err := source.Expand(root, t.Src)
				if err != nil {
					return cerrors.ConfigError(fmt.Sprintf("target %s", name), err)
				}
				fmt.Fprintf(a.stdout, "%s (%d reports)\n", name, len(paths))
				fmt.Fprintf(a.stdout, "  src: %s\n", strings.Join(t.Src, ", "))
				if t.FlagName != "" {
					fmt.Fprintf(a.stdout, "  flag: %s\n", t.FlagName)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&root, "root", "", "directory patterns are resolved against")
	return cmd
}
