// Package cli contains the rigsfm command line application.
package cli

import (
	"io"

	"github.com/urfave/cli/v2"
)

const (
	flagConfig             = "config"
	flagDebug              = "debug"
	flagInput              = "input"
	flagOutput             = "output"
	flagReference          = "reference"
	flagPoseFile           = "pose-file"
	flagEstimateIntrinsics = "estimate-intrinsics"
	flagFormat             = "format"
	flagMatcher            = "matcher"
	flagBinary             = "colmap-binary"
	flagUseGPU             = "use-gpu"
	flagLogFile            = "log-file"
	flagLogLevel           = "log-level"

	formatTable = "table"
	formatJSON  = "json"
)

var scanFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    flagInput,
		Aliases: []string{"i"},
		Usage:   "`DIR` holding one subdirectory per capture session",
	},
	&cli.StringFlag{
		Name:  flagReference,
		Usage: "preferred reference camera (default Camera0)",
	},
	&cli.StringFlag{
		Name:  flagPoseFile,
		Usage: "pose document name inside each session (default cameras.json)",
	},
	&cli.BoolFlag{
		Name:  flagEstimateIntrinsics,
		Usage: "derive pinhole intrinsics from lens settings and image sizes",
	},
}

// NewApp returns a new app with the CLI API, Writer set to out, and ErrWriter
// set to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	return &cli.App{
		Name:            "rigsfm",
		Usage:           "rig-constrained structure from motion for multi-camera capture sessions",
		HideHelpCommand: true,
		Writer:          out,
		ErrWriter:       errOut,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "load configuration from `FILE`",
			},
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
			&cli.StringFlag{
				Name:  flagLogFile,
				Usage: "also write logs to `FILE`, rotated by size",
			},
			&cli.StringFlag{
				Name:  flagLogLevel,
				Usage: "log `LEVEL`: debug, info, warn or error",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "derive",
				Usage:     "scan sessions and print their rig descriptors without running the engine",
				UsageText: "rigsfm derive --input DIR [--format table|json]",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:  flagFormat,
						Value: formatTable,
						Usage: "output format: table or json (engine rig config)",
					},
				}, scanFlags...),
				Action: DeriveAction,
			},
			{
				Name:      "run",
				Usage:     "run feature extraction, rig application, matching and reconstruction",
				UsageText: "rigsfm run --input DIR --output DIR",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:    flagOutput,
						Aliases: []string{"o"},
						Usage:   "output `DIR` for the database, rig config and reconstructions",
					},
					&cli.StringFlag{
						Name:  flagMatcher,
						Usage: "feature matcher: exhaustive, sequential or vocab_tree",
					},
					&cli.StringFlag{
						Name:  flagBinary,
						Usage: "path to the colmap executable",
					},
					&cli.BoolFlag{
						Name:  flagUseGPU,
						Usage: "use the GPU for extraction and matching",
					},
				}, scanFlags...),
				Action: RunAction,
			},
			{
				Name:   "schema",
				Usage:  "print the JSON schema of the pose document",
				Action: SchemaAction,
			},
		},
	}
}
