package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/stratum/cli/render"
	"github.com/justapithecus/stratum/harvest"
)

// MetadataCommand returns the metadata command: query the index service for
// one URL and render the aggregated snapshot metadata.
func MetadataCommand() *cli.Command {
	return &cli.Command{
		Name:      "metadata",
		Usage:     "Retrieve snapshot metadata for a URL",
		ArgsUsage: "<url>",
		Flags: append(HarvestFlags(),
			&cli.StringFlag{
				Name:  "from",
				Usage: "Earliest capture timestamp (YYYYMMDDhhmmss, trailing digits optional)",
			},
			&cli.StringFlag{
				Name:  "to",
				Usage: "Latest capture timestamp (YYYYMMDDhhmmss, trailing digits optional)",
			},
			&cli.StringFlag{
				Name:  "collapse",
				Usage: "Snapshot density: timestamp:4 (yearly), timestamp:6 (monthly), timestamp:8 (daily), none",
			},
		),
		Action: metadataAction,
	}
}

func metadataAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("metadata requires exactly one <url> argument", 1)
	}
	target := c.Args().First()

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	svc, err := buildServices(c, target)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	ctx, cancel := signalContext()
	defer cancel()

	meta, err := svc.harvest.Metadata(ctx, target, harvest.MetadataOptions{
		From:     c.String("from"),
		To:       c.String("to"),
		Collapse: c.String("collapse"),
	})
	if err != nil {
		return cli.Exit(fmt.Sprintf("metadata retrieval failed: %v", err), 1)
	}

	return r.Render(meta)
}
