package cmd

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cheggaaa/pb/v3"
	"github.com/urfave/cli/v2"

	"github.com/justapithecus/stratum/cli/render"
	"github.com/justapithecus/stratum/harvest"
	"github.com/justapithecus/stratum/iox"
	"github.com/justapithecus/stratum/types"
)

// DownloadCommand returns the download command: fetch archived snapshots for
// a set of replay URLs through the worker pool.
func DownloadCommand() *cli.Command {
	return &cli.Command{
		Name:      "download",
		Usage:     "Download archived snapshots for replay URLs",
		ArgsUsage: "[url ...]",
		Flags: append(HarvestFlags(),
			&cli.StringFlag{
				Name:    "input",
				Aliases: []string{"i"},
				Usage:   "File with one replay URL per line (blank lines and # comments skipped)",
			},
			&cli.IntFlag{
				Name:  "concurrency",
				Usage: "Worker pool size",
			},
			&cli.BoolFlag{
				Name:  "progress",
				Usage: "Show a progress bar",
			},
			&cli.StringFlag{
				Name:    "output-dir",
				Aliases: []string{"o"},
				Usage:   "Write fetched bodies into this directory",
			},
		),
		Action: downloadAction,
	}
}

func downloadAction(c *cli.Context) error {
	urls := c.Args().Slice()
	if path := c.String("input"); path != "" {
		fromFile, err := readURLFile(path)
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}
		urls = append(urls, fromFile...)
	}
	if len(urls) == 0 {
		return cli.Exit("download requires replay URLs as arguments or via --input", 1)
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	svc, err := buildServices(c, "")
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	opts := svc.downloadOptions()
	if v := c.Int("concurrency"); v > 0 {
		opts.Concurrency = v
	}

	var bar *pb.ProgressBar
	if c.Bool("progress") {
		bar = pb.New(len(urls))
		bar.SetWriter(os.Stderr)
		bar.Start()
		opts.OnProgress = func(completed, total int) {
			bar.SetCurrent(int64(completed))
		}
	}

	ctx, cancel := signalContext()
	defer cancel()

	report, results, err := svc.harvest.DownloadURLs(ctx, urls, opts)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return cli.Exit(fmt.Sprintf("download failed: %v", err), 1)
	}

	if dir := c.String("output-dir"); dir != "" {
		if err := writeBodies(dir, results); err != nil {
			return cli.Exit(err.Error(), 1)
		}
	}

	if err := r.Render(reportView(report)); err != nil {
		return err
	}
	if report.Succeeded == 0 {
		return cli.Exit("", 1)
	}
	return nil
}

// DownloadReport is the rendered outcome of a download batch.
type DownloadReport struct {
	BatchID   string `json:"batch_id" yaml:"batch_id"`
	Total     int    `json:"total" yaml:"total"`
	Succeeded int    `json:"succeeded" yaml:"succeeded"`
	Failed    int    `json:"failed" yaml:"failed"`
}

func reportView(report *harvest.BatchReport) DownloadReport {
	return DownloadReport{
		BatchID:   report.BatchID,
		Total:     report.Total,
		Succeeded: report.Succeeded,
		Failed:    report.Failed,
	}
}

// readURLFile loads one URL per line, skipping blanks and # comments.
func readURLFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read URL file: %w", err)
	}
	defer iox.DiscardClose(f)

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("cannot read URL file: %w", err)
	}
	return urls, nil
}

// writeBodies dumps each successful result into dir by task ordinal. Failed
// slots are skipped so ordinals in filenames still match input order.
func writeBodies(dir string, results []*types.FetchResult) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create output directory: %w", err)
	}
	for i, result := range results {
		if result == nil {
			continue
		}
		path := filepath.Join(dir, fmt.Sprintf("%04d.html", i))
		if err := os.WriteFile(path, result.Body, 0o644); err != nil {
			return fmt.Errorf("cannot write %s: %w", path, err)
		}
	}
	return nil
}
