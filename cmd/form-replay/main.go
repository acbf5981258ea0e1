// Command form-replay drives a recorded keypoint stream through a pose
// session and reports per-frame metrics.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/banshee-data/form.report/internal/config"
	"github.com/banshee-data/form.report/internal/version"
)

var rootCmd = &cobra.Command{
	Use:     "form-replay",
	Short:   "form-replay - replay keypoint recordings through the form tracker",
	Version: version.String(),
}

var replayCmd = &cobra.Command{
	Use:   "replay <frames.jsonl>",
	Short: "Replay a JSON-lines keypoint recording and emit per-frame metrics",
	Args:  cobra.ExactArgs(1),
	RunE:  runReplay,
}

var validateConfigCmd = &cobra.Command{
	Use:   "validate-config <config.json>",
	Short: "Load and validate a session config file",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidateConfig,
}

var flags replayFlags

func init() {
	f := replayCmd.Flags()
	f.StringVarP(&flags.configPath, "config", "c", "", "Session config JSON (defaults apply when empty)")
	f.StringVar(&flags.exercise, "exercise", "", "Override exercise_type (pushup|squat|lunge|all)")
	f.StringVar(&flags.skillLevel, "skill", "", "Override skill_level")
	f.StringVar(&flags.smoothing, "smoothing", "", "Override smoothing_method")
	f.IntVar(&flags.windowSize, "window", 0, "Override window_size (0 keeps the config value)")
	f.StringVar(&flags.angleUnits, "angle-units", "", "Override angle_units for emitted joint angles (deg|rad)")
	f.BoolVar(&flags.includeKeypoints, "keypoints", false, "Include smoothed keypoints in the metrics output")
	f.BoolVarP(&flags.quiet, "quiet", "q", false, "Do not write per-frame metrics to stdout")
	f.StringVar(&flags.recordDir, "record", "", "Write metrics.parquet and header.json to this directory")
	f.StringVar(&flags.plotDir, "plots", "", "Write PNG traces and session.html to this directory")
	f.StringVar(&flags.dbPath, "db", "", "Store the session summary and rep events in this SQLite file")
	f.BoolVarP(&flags.verbose, "verbose", "v", false, "Log session diagnostics to stderr")
	f.BoolVar(&flags.trace, "trace", false, "Log per-frame telemetry to stderr")

	rootCmd.AddCommand(replayCmd, validateConfigCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runValidateConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadSessionConfig(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (exercise=%s smoothing=%s window=%d)\n",
		args[0], cfg.GetExerciseType(), cfg.GetSmoothingMethod(), cfg.GetWindowSize())
	return nil
}
