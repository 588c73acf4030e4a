package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"logdissect/parser"
)

const maxLineSize = 1 << 20

type runStats struct {
	records int
	failed  int
}

func (a *app) runCmd() *cobra.Command {
	var (
		workers   int
		batchSize int
		metrics   bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Dissect the lines read from stdin",
		Long: `Reads one record per line from stdin and writes one JSON object per
record to stdout, keyed by TYPE:path. Records that cannot be dissected are
reported on stderr and skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				reg      prometheus.Registerer
				gatherer prometheus.Gatherer
			)

			if metrics {
				r := prometheus.NewRegistry()
				reg, gatherer = r, r
			}

			p, err := a.buildParser(reg)
			if err != nil {
				return err
			}

			var stats runStats

			err = a.dissect(cmd.Context(), p, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr(), workers, batchSize, &stats)

			a.log.Info("run finished",
				zap.Int("records", stats.records),
				zap.Int("failed", stats.failed))

			if gatherer != nil {
				if werr := writeMetrics(cmd.ErrOrStderr(), gatherer); werr != nil && err == nil {
					err = werr
				}
			}

			return err
		},
	}

	cmd.Flags().IntVar(&workers, "workers", 4, "Number of concurrent workers")
	cmd.Flags().IntVar(&batchSize, "batch", 1024, "Lines handed to the workers at once")
	cmd.Flags().BoolVar(&metrics, "metrics", false, "Write Prometheus metrics to stderr when done")

	return cmd
}

func (a *app) dissect(ctx context.Context, p *parser.Parser[*output], in io.Reader, out, errOut io.Writer, workers, batchSize int, stats *runStats) error {
	if batchSize < 1 {
		batchSize = 1
	}

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	enc := json.NewEncoder(out)
	batch := make([]string, 0, batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}

		results := make([]*output, len(batch))
		errs := make([]error, len(batch))

		err := p.ParseBatch(ctx, batch, workers, newOutput, func(i int, rec *output, err error) {
			results[i] = rec
			errs[i] = err
		})
		if err != nil {
			return err
		}

		for i := range batch {
			line := stats.records + i + 1

			if errs[i] != nil {
				stats.failed++
				fmt.Fprintf(errOut, "line %d: %v\n", line, errs[i])

				continue
			}

			if err := enc.Encode(results[i].values); err != nil {
				return fmt.Errorf("line %d: %w", line, err)
			}
		}

		stats.records += len(batch)
		batch = batch[:0]

		return nil
	}

	for scanner.Scan() {
		batch = append(batch, scanner.Text())

		if len(batch) == batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	return flush()
}

func writeMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}

	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}

	return nil
}
