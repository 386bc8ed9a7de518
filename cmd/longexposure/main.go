// Package main provides the CLI entry point for longexposure.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/longexposure/pkg/adapters/ffmpegbin"
	"github.com/user/longexposure/pkg/adapters/ffmpegdecoder"
	"github.com/user/longexposure/pkg/adapters/ffmpegencoder"
	"github.com/user/longexposure/pkg/adapters/filesink"
	"github.com/user/longexposure/pkg/adapters/logger"
	"github.com/user/longexposure/pkg/adapters/mp4probe"
	"github.com/user/longexposure/pkg/adapters/nullsink"
	"github.com/user/longexposure/pkg/adapters/osfilesystem"
	"github.com/user/longexposure/pkg/adapters/smartprobe"
	"github.com/user/longexposure/pkg/config"
	"github.com/user/longexposure/pkg/orchestrator"
	"github.com/user/longexposure/pkg/pipeline"
	"github.com/user/longexposure/pkg/ports"
	"github.com/user/longexposure/pkg/summarizer"
)

var version = "dev"

func main() {
	app := newApp(run)
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newApp builds the CLI. action receives the fully layered configuration.
func newApp(action func(cfg config.Config) error) *cli.App {
	return &cli.App{
		Name:      "longexposure",
		Usage:     l10n.T("Turn a video into a long-exposure trail video"),
		UsageText: "longexposure [options] INPUT OUTPUT",
		Description: l10n.T("Every output frame is the source frames so far laid over each other. " +
			"Press Ctrl+C once to stop early and keep a playable output."),
		Version:         version,
		HideHelpCommand: true,
		Flags:           flags(),
		Action: func(c *cli.Context) error {
			cfg, err := buildConfig(c)
			if err != nil {
				return err
			}
			return action(cfg)
		},
	}
}

func flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: l10n.T("YAML configuration file"), Category: l10n.T("Input and Output")},
		&cli.StringFlag{Name: "summary", Usage: l10n.T("Output execution summary to file (Markdown format)"), Category: l10n.T("Input and Output")},

		&cli.Float64Flag{Name: "fps", Aliases: []string{"r"}, Usage: l10n.T("Output frame rate (0 = source frame rate)"), Category: l10n.T("Encoding")},
		&cli.StringFlag{Name: "codec", Usage: l10n.T("Output video codec passed to ffmpeg"), Category: l10n.T("Encoding")},
		&cli.StringFlag{Name: "pixel-format", Usage: l10n.T("Output pixel format (empty = codec default)"), Category: l10n.T("Encoding")},
		&cli.DurationFlag{Name: "finalize-timeout", Usage: l10n.T("How long to wait for the encoder after a failure"), Category: l10n.T("Encoding")},
		&cli.BoolFlag{Name: "strict-frame-count", Usage: l10n.T("Fail when the source has fewer frames than reported"), Category: l10n.T("Encoding")},

		&cli.StringFlag{Name: "ffmpeg-path", Usage: l10n.T("Path to ffmpeg (falls back to FFMPEG_PATH, then PATH)"), Category: l10n.T("Collaborators")},
		&cli.StringFlag{Name: "ffprobe-path", Usage: l10n.T("Path to ffprobe (falls back to FFPROBE_PATH, then PATH)"), Category: l10n.T("Collaborators")},
		&cli.StringFlag{Name: "probe", Usage: l10n.T("Metadata probe (auto, ffprobe, mp4)"), Category: l10n.T("Collaborators")},

		&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: l10n.T("Enable debug output"), Category: l10n.T("Debug")},
		&cli.StringFlag{Name: "debug-dir", Usage: l10n.T("Directory for debug output"), Category: l10n.T("Debug")},
		&cli.BoolFlag{Name: "debug-plain", Usage: l10n.T("Save debug frames without the frame number label"), Category: l10n.T("Debug")},

		&cli.StringFlag{Name: "log-level", Aliases: []string{"l"}, Usage: l10n.T("Log level (debug, info, warn, error)"), Category: l10n.T("Logging")},
		&cli.StringFlag{Name: "log-format", Usage: l10n.T("Log format (text, json)"), Category: l10n.T("Logging")},
		&cli.BoolFlag{Name: "quiet", Aliases: []string{"Q"}, Usage: l10n.T("Suppress all log output"), Category: l10n.T("Logging")},
	}
}

// buildConfig layers defaults, the config file, flags and positional arguments.
func buildConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Defaults()
	if path := c.String("config"); path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	if c.IsSet("fps") {
		cfg.FPS = c.Float64("fps")
	}
	if c.IsSet("codec") {
		cfg.Codec = c.String("codec")
	}
	if c.IsSet("pixel-format") {
		cfg.PixelFormat = c.String("pixel-format")
	}
	if c.IsSet("finalize-timeout") {
		cfg.FinalizeTimeout = c.Duration("finalize-timeout")
	}
	if c.IsSet("strict-frame-count") {
		cfg.StrictFrameCount = c.Bool("strict-frame-count")
	}
	if c.IsSet("ffmpeg-path") {
		cfg.FFmpegPath = c.String("ffmpeg-path")
	}
	if c.IsSet("ffprobe-path") {
		cfg.FFprobePath = c.String("ffprobe-path")
	}
	if c.IsSet("probe") {
		cfg.Probe = c.String("probe")
	}
	if c.IsSet("debug") {
		cfg.Debug = c.Bool("debug")
	}
	if c.IsSet("debug-dir") {
		cfg.DebugDir = c.String("debug-dir")
	}
	if c.IsSet("debug-plain") {
		cfg.DebugPlain = c.Bool("debug-plain")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.Bool("quiet") {
		cfg.LogLevel = "quiet"
	}
	if c.IsSet("log-format") {
		cfg.LogFormat = c.String("log-format")
	}
	if c.IsSet("summary") {
		cfg.Summary = c.String("summary")
	}

	args := c.Args()
	if args.Len() > 2 {
		return cfg, fmt.Errorf("%s", l10n.T("Expected INPUT and OUTPUT arguments"))
	}
	if args.Len() > 0 {
		cfg.InputPath = args.Get(0)
	}
	if args.Len() > 1 {
		cfg.OutputPath = args.Get(1)
	}

	return cfg, cfg.Validate()
}

func newLogger(cfg config.Config) ports.Logger {
	level := ports.ParseLogLevel(cfg.LogLevel)
	switch {
	case level == ports.LevelQuiet:
		return logger.NewNoop()
	case cfg.LogFormat == "json":
		return logger.NewStructured(level)
	default:
		return logger.NewConsole(level)
	}
}

// run executes one long-exposure run. Cancellation is a success.
func run(cfg config.Config) error {
	log := newLogger(cfg)

	if cfg.FFmpegPath != "" {
		ffmpegbin.SetFFmpegPath(cfg.FFmpegPath)
	}
	if cfg.FFprobePath != "" {
		ffmpegbin.SetFFprobePath(cfg.FFprobePath)
	}

	fs := osfilesystem.New()
	if ok, err := fs.Exists(cfg.InputPath); err != nil || !ok {
		log.Error("Input file not found: %s", cfg.InputPath)
		return cli.Exit("", 1)
	}

	sink, err := newDebugSink(cfg, fs)
	if err != nil {
		return err
	}

	orch := orchestrator.New(
		smartprobe.New(cfg.ProbeMode(), log),
		ffmpegdecoder.New(log),
		ffmpegencoder.New(log),
		sink,
		log.WithComponent("driver"),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := &pipeline.StopFlag{}
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go watchSignals(ctx, sigCh, stop, cancel, log)

	log.Info("Press Ctrl+C to stop early and keep the frames so far")
	result, runErr := orch.Run(ctx, cfg.ToOrchestratorConfig(), stop)

	if cfg.Summary != "" {
		writeSummary(cfg, fs, result, runErr, log)
	}

	if runErr != nil {
		log.Error("Pipeline failed: %s", runErr)
		return cli.Exit("", 1)
	}
	return nil
}

func newDebugSink(cfg config.Config, fs ports.FileSystem) (ports.DebugSink, error) {
	if !cfg.Debug {
		return nullsink.New(), nil
	}
	if err := fs.MkdirAll(cfg.DebugDir); err != nil {
		return nil, fmt.Errorf("create debug directory: %w", err)
	}
	if cfg.DebugPlain {
		return filesink.NewPlain(cfg.DebugDir, fs), nil
	}
	return filesink.New(cfg.DebugDir, fs), nil
}

// watchSignals turns the first signal into a stop request. A second signal
// cancels ctx, which kills the collaborators.
func watchSignals(ctx context.Context, sigCh <-chan os.Signal, stop *pipeline.StopFlag, cancel context.CancelFunc, log ports.Logger) {
	select {
	case <-sigCh:
	case <-ctx.Done():
		return
	}
	stop.Request()
	log.Info("Interrupt given: saving output")

	select {
	case <-sigCh:
		log.Warn("Interrupted, shutting down...")
		cancel()
	case <-ctx.Done():
	}
}

func writeSummary(cfg config.Config, fs ports.FileSystem, result orchestrator.RunResult, runErr error, log ports.Logger) {
	builder := summarizer.NewBuilder().
		WithSource(cfg.InputPath, result.Metadata).
		WithSettings(summarizer.Settings{
			Codec:            cfg.Codec,
			PixelFormat:      cfg.PixelFormat,
			FPS:              cfg.FPS,
			Probe:            string(cfg.ProbeMode()),
			StrictFrameCount: cfg.StrictFrameCount,
		}).
		WithRun(result, runErr)

	if result.FramesWritten > 0 {
		size, err := fs.Size(cfg.OutputPath)
		if err != nil {
			log.Warn("Could not verify output: %s", err)
		}
		builder.WithOutput(cfg.OutputPath, size, verifyFrames(cfg.OutputPath, log))
	}

	formatter := summarizer.NewMarkdownFormatter(
		summarizer.WithTranslator(l10n.T),
		summarizer.WithVersion(version),
	)
	if err := summarizer.NewWriter(formatter, fs).Write(cfg.Summary, builder.Build()); err != nil {
		log.Error("Failed to write summary: %s", err)
		return
	}
	log.Info("Summary written to %s", cfg.Summary)
}

// verifyFrames counts the frames in an MP4/MOV output, or returns -1.
func verifyFrames(path string, log ports.Logger) int {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp4", ".mov", ".m4v":
	default:
		return -1
	}
	n, err := mp4probe.CountFrames(path)
	if err != nil {
		log.Warn("Could not verify output: %s", err)
		return -1
	}
	log.Info("Output contains %d frames", n)
	return n
}
