// Package cmd provides CLI commands for the stratum binary.
package cmd

import "github.com/urfave/cli/v2"

// Shared flags across commands.
var (
	// ConfigFlag points at a stratum.yaml config file.
	ConfigFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to stratum.yaml config file",
	}

	// FormatFlag selects output format: json, table, yaml.
	FormatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: json, table, yaml",
	}

	// EndpointFlag overrides the index service endpoint.
	EndpointFlag = &cli.StringFlag{
		Name:  "endpoint",
		Usage: "Index service endpoint URL",
	}

	// TokenFlag overrides the index auth token.
	TokenFlag = &cli.StringFlag{
		Name:  "token",
		Usage: "Index service auth token",
	}

	// EngineFlag selects the fetch engine.
	EngineFlag = &cli.StringFlag{
		Name:  "engine",
		Usage: "Fetch engine: http or renderer",
	}

	// RendererPathFlag points at the renderer binary.
	RendererPathFlag = &cli.StringFlag{
		Name:  "renderer-path",
		Usage: "Path to the renderer binary (engine=renderer)",
	}

	// ProxiesFlag points at a line-oriented proxy file.
	ProxiesFlag = &cli.StringFlag{
		Name:  "proxies",
		Usage: "Path to proxy file (host:port:user:pass per line)",
	}
)

// CommonFlags returns the flags every command accepts.
func CommonFlags() []cli.Flag {
	return []cli.Flag{
		ConfigFlag,
		FormatFlag,
	}
}

// HarvestFlags returns the service wiring flags shared by metadata and
// download.
func HarvestFlags() []cli.Flag {
	return append(CommonFlags(),
		EndpointFlag,
		TokenFlag,
		EngineFlag,
		RendererPathFlag,
		ProxiesFlag,
	)
}
