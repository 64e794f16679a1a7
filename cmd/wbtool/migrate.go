package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"whiteboard-backend/internal/client"
	"whiteboard-backend/internal/model"
	"whiteboard-backend/internal/scene"
)

func migrateCmd() *cobra.Command {
	var opts migrateOptions

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Rewrite stored canvas documents in the current schema",
		Long: "Fetches every whiteboard, rewrites legacy canvasData in the current\n" +
			"schema and saves it back. Boards that would lose objects are skipped unless\n" +
			"--allow-loss is set.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			start := time.Now()
			color.New(color.FgGreen).Fprintln(cmd.OutOrStdout(), "Whiteboard migration started...")

			report, err := migrateBoards(cmd.Context(), c, opts, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(),
				"Migration finished (%v): %d rewritten, %d unchanged, %d skipped, %d failed.\n",
				time.Since(start).Round(time.Millisecond), report.Rewritten, report.Unchanged, report.Skipped, report.Failed)
			if report.Failed > 0 {
				return fmt.Errorf("%d whiteboards failed to migrate", report.Failed)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.Concurrency, "concurrency", 4, "boards migrated in parallel")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "report without saving")
	cmd.Flags().BoolVar(&opts.AllowLoss, "allow-loss", false, "save even when some objects cannot be rebuilt")
	return cmd
}

type migrateOptions struct {
	Concurrency int
	DryRun      bool
	AllowLoss   bool
}

type migrateReport struct {
	mu        sync.Mutex
	Rewritten int
	Unchanged int
	Skipped   int
	Failed    int
}

func (r *migrateReport) add(field *int) {
	r.mu.Lock()
	*field++
	r.mu.Unlock()
}

// migrateBoards canonicalizes every stored board. A failing board is counted
// and logged; it never stops the others.
func migrateBoards(ctx context.Context, c *client.Client, opts migrateOptions, out io.Writer) (*migrateReport, error) {
	list, err := listAll(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("list whiteboards: %w", err)
	}

	limit := opts.Concurrency
	if limit <= 0 {
		limit = 1
	}

	report := &migrateReport{}
	var logMu sync.Mutex
	warnf := func(format string, args ...any) {
		logMu.Lock()
		defer logMu.Unlock()
		color.New(color.FgYellow).Fprintf(out, format, args...)
	}

	var group errgroup.Group
	group.SetLimit(limit)
	for _, summary := range list {
		id := summary.ID
		group.Go(func() error {
			rec, err := c.Get(ctx, id)
			if err != nil {
				warnf("--WARN[%s]: fetch failed: %v\n", id, err)
				report.add(&report.Failed)
				return nil
			}

			canonical, res, err := scene.Canonicalize([]byte(rec.CanvasData))
			if err != nil {
				warnf("--WARN[%s]: %v\n", id, err)
				report.add(&report.Failed)
				return nil
			}
			if sameDocument(canonical, []byte(rec.CanvasData)) {
				report.add(&report.Unchanged)
				return nil
			}
			if res.Partial() && !opts.AllowLoss {
				warnf("--WARN[%s]: skipped, %s\n", id, res.Summary())
				report.add(&report.Skipped)
				return nil
			}
			if opts.DryRun {
				report.add(&report.Rewritten)
				return nil
			}

			if _, err := c.Update(ctx, id, rec.Name, string(canonical), nil); err != nil {
				warnf("--WARN[%s]: save failed: %v\n", id, err)
				report.add(&report.Failed)
				return nil
			}
			report.add(&report.Rewritten)
			return nil
		})
	}
	_ = group.Wait()

	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

// listAll pages through the whole store before anything is rewritten, since
// every save moves a board to the front of the updatedAt order.
func listAll(ctx context.Context, c *client.Client) ([]model.WhiteboardSummary, error) {
	seen := make(map[string]struct{})
	var all []model.WhiteboardSummary
	for offset := 0; ; {
		page, err := c.ListPage(ctx, offset)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			return all, nil
		}
		for _, s := range page {
			if _, dup := seen[s.ID]; dup {
				continue
			}
			seen[s.ID] = struct{}{}
			all = append(all, s)
		}
		offset += len(page)
	}
}

// sameDocument compares two JSON documents by value. Stores such as Postgres
// jsonb hand back reordered keys and different spacing.
func sameDocument(a, b []byte) bool {
	var va, vb any
	if json.Unmarshal(a, &va) != nil || json.Unmarshal(b, &vb) != nil {
		return false
	}
	return reflect.DeepEqual(va, vb)
}
