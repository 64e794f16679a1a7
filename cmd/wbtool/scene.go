package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"whiteboard-backend/internal/canvas"
	"whiteboard-backend/internal/config"
	"whiteboard-backend/internal/scene"
)

func renderCmd() *cobra.Command {
	var (
		output        string
		width, height int
		loadTimeout   time.Duration
		verbose       bool
	)

	cmd := &cobra.Command{
		Use:   "render [file.json]",
		Short: "Render a canvas document to PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			f, err := os.Create(output)
			if err != nil {
				return err
			}
			defer f.Close()

			rr, err := renderDocument(cmd.Context(), data, f, renderOptions{
				Width:       width,
				Height:      height,
				LoadTimeout: loadTimeout,
				Verbose:     verbose,
			})
			if err != nil {
				return err
			}
			printLoad(cmd.OutOrStdout(), rr.LoadResult)
			printIgnored(cmd.OutOrStdout(), rr.Ignored)
			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "wrote %s (%dx%d)\n", output, width, height)
			return nil
		},
	}

	// 기본값은 서버와 같은 SCENE_LOAD_TIMEOUT / THUMBNAIL_* 환경 변수를 따름
	sc := config.FromEnv().Scene
	cmd.Flags().StringVarP(&output, "output", "o", "scene.png", "output PNG path")
	cmd.Flags().IntVar(&width, "width", sc.ThumbnailWidth, "canvas width")
	cmd.Flags().IntVar(&height, "height", sc.ThumbnailHeight, "canvas height")
	cmd.Flags().DurationVar(&loadTimeout, "load-timeout", sc.LoadTimeout, "bulk load timeout")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log every loaded object")
	return cmd
}

type renderOptions struct {
	Width, Height int
	LoadTimeout   time.Duration
	Verbose       bool
}

type renderResult struct {
	*scene.LoadResult
	// Ignored counts unmodelled fields per key (manual path only).
	Ignored map[string]int
}

// renderDocument loads data through a scene manager on a raster surface and
// writes the rendered PNG to w.
func renderDocument(ctx context.Context, data []byte, w io.Writer, opts renderOptions) (*renderResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	surface, err := canvas.New(opts.Width, opts.Height)
	if err != nil {
		return nil, err
	}

	var counter scene.Counter
	mgr := scene.NewManager(
		scene.WithLoadTimeout(opts.LoadTimeout),
		scene.WithManagerObserver(scene.Multi{scene.LogObserver{Verbose: opts.Verbose}, &counter}),
	)
	defer mgr.Dispose()
	if err := mgr.Attach(surface); err != nil {
		_ = surface.Dispose()
		return nil, err
	}

	lr, err := mgr.Load(ctx, data)
	if err != nil {
		return nil, err
	}
	if err := surface.EncodePNG(w); err != nil {
		return nil, err
	}
	return &renderResult{LoadResult: lr, Ignored: counter.Unknown}, nil
}

func printIgnored(w io.Writer, ignored map[string]int) {
	if len(ignored) == 0 {
		return
	}
	keys := make([]string, 0, len(ignored))
	for k := range ignored {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s (%d)", k, ignored[k])
	}
	fmt.Fprintf(w, "  ignored fields: %s\n", strings.Join(parts, ", "))
}

func inspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [file.json]",
		Short: "Report how many objects of a canvas document can be rebuilt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			res, err := scene.Decode(data)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			counts := make(map[scene.Kind]int)
			for _, d := range res.Scene.Drawables {
				counts[d.Kind()]++
			}
			for k := scene.KindRectangle; k <= scene.KindFreehand; k++ {
				if n := counts[k]; n > 0 {
					fmt.Fprintf(out, "  %-10s %d\n", k, n)
				}
			}
			printLoad(out, &scene.LoadResult{Result: res, Path: scene.LoadPathManual})
			return nil
		},
	}
}

func normalizeCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "normalize [file.json]",
		Short: "Rewrite a canvas document in the current schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			out, res, err := scene.Canonicalize(data)
			if err != nil {
				return err
			}
			if res.Partial() {
				printLoad(cmd.ErrOrStderr(), &scene.LoadResult{Result: res, Path: scene.LoadPathManual})
			}
			if output == "" || output == "-" {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return err
			}
			return os.WriteFile(output, out, 0644)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output path (default stdout)")
	return cmd
}

func printLoad(w io.Writer, lr *scene.LoadResult) {
	line := fmt.Sprintf("%s (%s path)", lr.Summary(), lr.Path)
	if lr.Partial() {
		color.New(color.FgYellow).Fprintln(w, line)
	} else {
		color.New(color.FgGreen).Fprintln(w, line)
	}
	if lr.BulkErr != nil {
		fmt.Fprintf(w, "  bulk load skipped: %v\n", lr.BulkErr)
	}
	for _, warn := range lr.Warnings {
		color.New(color.FgYellow).Fprintf(w, "  - %v\n", warn)
	}
}
