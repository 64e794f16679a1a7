package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"whiteboard-backend/internal/config"
	"whiteboard-backend/internal/database"
	"whiteboard-backend/internal/model"
	"whiteboard-backend/internal/repository"
	"whiteboard-backend/internal/scene"
)

func dbCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Inspect the configured document store directly (DB_DRIVER, DB_*, MONGODB_*)",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Ping the store and classify the canvas documents of recent boards",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			pool, err := database.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer pool.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			if err := pool.Ping(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Connected to %s store\n\n", pool.Driver())

			_, err = checkStore(ctx, pool.Repository(), cmd.OutOrStdout())
			return err
		},
	})
	return cmd
}

type storeStats struct {
	Total     int64
	Checked   int
	Canonical int
	Legacy    int
	Partial   int
	Broken    int
}

// checkStore classifies the canvasData of the most recent boards:
// canonical (accepted by the bulk loader), legacy (fully rebuilt by the
// decoder), partial (some objects lost) or broken (not JSON).
func checkStore(ctx context.Context, repo repository.WhiteboardRepository, out io.Writer) (*storeStats, error) {
	total, err := repo.Count(ctx)
	if err != nil {
		return nil, err
	}
	recent, err := repo.List(ctx, 0, model.ListLimit)
	if err != nil {
		return nil, err
	}

	stats := &storeStats{Total: total}
	fmt.Fprintf(out, "📊 Whiteboards: %d (checking %d most recent)\n", total, len(recent))
	for _, summary := range recent {
		stats.Checked++
		w, err := repo.FindByID(ctx, summary.ID)
		if err != nil {
			// 손상된 레코드는 조회 단계에서 실패할 수 있음
			stats.Broken++
			color.New(color.FgRed).Fprintf(out, "  - %s %q: %v\n", summary.ID, summary.Name, err)
			continue
		}

		if _, err := scene.ParseStrict(w.CanvasData); err == nil {
			stats.Canonical++
			continue
		}
		res, err := scene.Decode(w.CanvasData)
		if err != nil {
			stats.Broken++
			color.New(color.FgRed).Fprintf(out, "  - %s %q: %v\n", w.ID, w.Name, err)
			continue
		}
		if res.Partial() {
			stats.Partial++
			color.New(color.FgYellow).Fprintf(out, "  - %s %q: %s\n", w.ID, w.Name, res.Summary())
			continue
		}
		stats.Legacy++
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "📈 Canvas documents:")
	fmt.Fprintf(out, "  - canonical: %d\n", stats.Canonical)
	fmt.Fprintf(out, "  - legacy:    %d\n", stats.Legacy)
	fmt.Fprintf(out, "  - partial:   %d\n", stats.Partial)
	fmt.Fprintf(out, "  - broken:    %d\n", stats.Broken)
	if stats.Legacy+stats.Partial > 0 {
		color.New(color.FgYellow).Fprintln(out, "⚠️  Run `wbtool migrate` to rewrite legacy documents")
	}
	return stats, nil
}
