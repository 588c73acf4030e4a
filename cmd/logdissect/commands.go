package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"logdissect/internal/config"
)

type app struct {
	configPath string
	verbose    bool
	log        *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{log: zap.NewNop()}

	root := &cobra.Command{
		Use:   "logdissect",
		Short: "Dissect log lines into typed fields",
		Long: `logdissect plans a chain of dissectors from a YAML parser description
and applies it to every line read from stdin.

Only the dissectors needed for the requested fields are run.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config := zap.NewProductionConfig()
			if a.verbose {
				config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}

			log, err := config.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}

			a.log = log

			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.log.Sync()
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "logdissect.yaml", "Parser description")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(a.initCmd(), a.planCmd(), a.pathsCmd(), a.dissectorsCmd(), a.runCmd())

	return root
}

func (a *app) planCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Print the execution plan for the requested fields",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.buildParser(nil)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprint(out, p.Plan().String())

			diags := p.Diagnostics()
			for _, w := range diags.Warnings {
				fmt.Fprintf(out, "warning: %s\n", w.String())
			}

			for _, info := range diags.Infos {
				fmt.Fprintf(out, "info: %s\n", info.String())
			}

			return nil
		},
	}
}

func (a *app) pathsCmd() *cobra.Command {
	var depth int

	cmd := &cobra.Command{
		Use:   "paths",
		Short: "List every TYPE:path the configured dissectors can produce",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := a.loadConfig()
			if err != nil {
				return err
			}

			p, err := a.newParser(f, nil)
			if err != nil {
				return err
			}

			for _, path := range p.PossiblePaths(depth) {
				fmt.Fprintln(cmd.OutOrStdout(), path)
			}

			return nil
		},
	}

	cmd.Flags().IntVar(&depth, "depth", 5, "Maximum number of path segments")

	return cmd
}

func (a *app) dissectorsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dissectors",
		Short: "Describe the configured dissectors and what they emit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := a.loadConfig()
			if err != nil {
				return err
			}

			p, err := a.newParser(f, nil)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "root %s\n", p.RootType())

			for _, t := range p.Dissectors() {
				fmt.Fprintf(out, "%s (%s)\n", t.Name(), t.InputType())

				outputs, _ := p.Outputs(t.Name())
				for _, o := range outputs {
					fmt.Fprintf(out, "  %s:%s [%s]\n", o.Type, o.Name, o.Casts)
				}
			}

			fmt.Fprintf(out, "consumed types: %s\n", strings.Join(p.InputTypes(), ", "))

			return nil
		},
	}
}

func (a *app) initCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter parser description",
		Long: `Writes a parser description for Apache access logs holding a
mod_unique_id and a %t timestamp separated by '|' to the --config path.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				if _, err := os.Stat(a.configPath); err == nil {
					return fmt.Errorf("%s already exists, use --force to overwrite", a.configPath)
				} else if !errors.Is(err, fs.ErrNotExist) {
					return err
				}
			}

			if err := config.WriteFile(config.Starter(), a.configPath); err != nil {
				return err
			}

			a.log.Info("config written", zap.String("path", a.configPath))
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", a.configPath)

			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")

	return cmd
}
