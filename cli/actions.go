package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/docker/go-units"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"go.viam.com/rigsfm/config"
	"go.viam.com/rigsfm/logging"
	"go.viam.com/rigsfm/pipeline"
	"go.viam.com/rigsfm/posefile"
	"go.viam.com/rigsfm/rexec"
	"go.viam.com/rigsfm/rig"
	"go.viam.com/rigsfm/session"
	"go.viam.com/rigsfm/sfm/colmap"
)

// DeriveAction scans the input sessions and prints the derived rigs.
func DeriveAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if cfg.InputPath == "" {
		return errors.Errorf("--%s is required", flagInput)
	}
	logger, closeLogger, err := newLogger(c, cfg)
	if err != nil {
		return err
	}
	defer closeLogger()

	result, err := session.Scan(c.Context, cfg.InputPath, cfg.SessionOptions(), logger)
	if err != nil {
		return err
	}

	switch format := c.String(flagFormat); format {
	case formatJSON:
		return colmap.WriteRigConfigs(c.App.Writer, result.Descriptors)
	case formatTable:
		printf(c.App.Writer, "%s", descriptorTable(result.Descriptors))
		for _, desc := range result.Descriptors {
			if b, ok := desc.Baselines(); ok {
				printf(c.App.Writer, "%s: %d cameras, baseline min %.3f / mean %.3f / max %.3f (stddev %.3f)",
					desc.Session, len(desc.Cameras), b.Min, b.Mean, b.Max, b.StdDev)
			}
		}
		for _, name := range result.Sessions {
			if reason, ok := result.Skipped[name]; ok {
				warningf(c.App.Writer, "skipped %s: %v", name, reason)
			}
		}
		return nil
	default:
		return errors.Errorf("unknown format %q, expected %s or %s", format, formatTable, formatJSON)
	}
}

// RunAction runs the full pipeline.
func RunAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if err := cfg.Validate(""); err != nil {
		return err
	}
	logger, closeLogger, err := newLogger(c, cfg)
	if err != nil {
		return err
	}
	defer closeLogger()

	opts, err := cfg.EngineOptions()
	if err != nil {
		return err
	}
	engineLogger := logger.Sublogger("colmap")
	engine := colmap.NewEngine(opts, rexec.NewRunner(engineLogger), engineLogger)

	result, err := pipeline.Run(c.Context, cfg, engine, logger)
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.AppendHeader(table.Row{"#", "Path", "Summary"})
	for _, rec := range result.Reconstructions {
		t.AppendRow(table.Row{rec.ID, rec.Path, rec.Summary})
	}
	printf(c.App.Writer, "run %s: %d rigs, %d reconstructions in %s", result.RunID,
		len(result.Scan.Descriptors), len(result.Reconstructions),
		units.HumanDuration(result.Manifest.FinishedAt.Sub(result.Manifest.StartedAt)))
	if info, err := os.Stat(cfg.DatabasePath()); err == nil {
		printf(c.App.Writer, "database %s (%s)", cfg.DatabasePath(), units.HumanSize(float64(info.Size())))
	}
	printf(c.App.Writer, "%s", t.Render())
	if len(result.Reconstructions) == 0 {
		warningf(c.App.Writer, "no reconstruction was produced")
	}
	return nil
}

// SchemaAction prints the pose document schema.
func SchemaAction(c *cli.Context) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(posefile.Schema())
}

// loadConfig reads the --config file when given and applies command line overrides and defaults.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := &config.Config{}
	if path := c.String(flagConfig); path != "" {
		var err error
		if cfg, err = config.Read(path); err != nil {
			return nil, err
		}
	}
	config.Overrides{
		InputPath:          c.String(flagInput),
		OutputPath:         c.String(flagOutput),
		ReferenceCamera:    c.String(flagReference),
		PoseFileName:       c.String(flagPoseFile),
		Matcher:            c.String(flagMatcher),
		Binary:             c.String(flagBinary),
		LogFile:            c.String(flagLogFile),
		LogLevel:           c.String(flagLogLevel),
		EstimateIntrinsics: c.Bool(flagEstimateIntrinsics),
		UseGPU:             c.Bool(flagUseGPU),
		Debug:              c.Bool(flagDebug),
	}.Apply(cfg)
	cfg.ApplyDefaults()
	return cfg, nil
}

// newLogger logs to the app's error writer and, when configured, to a log file. The returned
// function flushes the logger and closes the file.
func newLogger(c *cli.Context, cfg *config.Config) (logging.Logger, func(), error) {
	level, err := cfg.Level()
	if err != nil {
		return nil, nil, err
	}
	logger := logging.NewBlankLogger("rigsfm")
	logger.SetLevel(level)
	logger.AddAppender(logging.NewWriterAppender(c.App.ErrWriter))
	if cfg.LogFile == "" {
		return logger, func() {}, nil
	}
	fileAppender := logging.NewFileAppender(cfg.LogFile)
	logger.AddAppender(fileAppender)
	return logger, func() {
		if err := multierr.Combine(logger.Sync(), fileAppender.Close()); err != nil {
			warningf(c.App.ErrWriter, "failed to close log file: %v", err)
		}
	}, nil
}

func descriptorTable(descs []*rig.Descriptor) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Session", "Camera", "Prefix", "Distance", "Rotation (deg)", "Quaternion (w,x,y,z)", "Translation"})
	for _, desc := range descs {
		for _, cam := range desc.Cameras {
			if cam.Reference {
				t.AppendRow(table.Row{desc.Session, cam.Name + " (ref)", cam.ImagePrefix, "", "", "", ""})
				continue
			}
			q := cam.CamFromRig.Quaternion()
			tr := cam.CamFromRig.Translation
			t.AppendRow(table.Row{
				desc.Session,
				cam.Name,
				cam.ImagePrefix,
				fmt.Sprintf("%.3f", cam.Distance),
				fmt.Sprintf("%.1f", cam.AngleDegrees),
				fmt.Sprintf("%.4f, %.4f, %.4f, %.4f", q.Real, q.Imag, q.Jmag, q.Kmag),
				fmt.Sprintf("%.3f, %.3f, %.3f", tr.X, tr.Y, tr.Z),
			})
		}
		for _, name := range desc.Excluded {
			t.AppendRow(table.Row{desc.Session, name + " (excluded)", "", "", "", "", ""})
		}
	}
	return t.Render()
}

// printf prints a message with no prefix.
func printf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	fmt.Fprintf(w, format+"\n", a...)
}

// warningf prints a message prefixed with a bold yellow "Warning: ".
func warningf(w io.Writer, format string, a ...interface{}) {
	if _, err := color.New(color.Bold, color.FgYellow).Fprint(w, "Warning: "); err != nil {
		return
	}
	printf(w, format, a...)
}
