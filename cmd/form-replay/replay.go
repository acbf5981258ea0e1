package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/banshee-data/form.report/internal/config"
	"github.com/banshee-data/form.report/internal/db"
	"github.com/banshee-data/form.report/internal/pose/l2smoothing"
	"github.com/banshee-data/form.report/internal/pose/l3kinematics"
	"github.com/banshee-data/form.report/internal/pose/monitor"
	"github.com/banshee-data/form.report/internal/pose/pipeline"
	"github.com/banshee-data/form.report/internal/pose/recorder"
)

type replayFlags struct {
	configPath       string
	exercise         string
	skillLevel       string
	smoothing        string
	windowSize       int
	angleUnits       string
	includeKeypoints bool
	quiet            bool
	recordDir        string
	plotDir          string
	dbPath           string
	verbose          bool
	trace            bool
}

// replaySummary is what a replay reports once the stream ends.
type replaySummary struct {
	SessionID  string
	Frames     int
	PoseFrames int
	RepCount   int
	Reps       []db.RepEvent
}

func runReplay(cmd *cobra.Command, args []string) error {
	in, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open frames: %w", err)
	}
	defer in.Close()

	sum, err := replay(flags, args[0], in, cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "session %s: %d frames (%d with pose), %d reps\n",
		sum.SessionID, sum.Frames, sum.PoseFrames, sum.RepCount)
	return nil
}

// loadConfig resolves the session config: file first, then flag overrides.
func loadConfig(f replayFlags) (*config.SessionConfig, error) {
	cfg := config.EmptySessionConfig()
	if f.configPath != "" {
		var err error
		if cfg, err = config.LoadSessionConfig(f.configPath); err != nil {
			return nil, err
		}
	}
	if f.exercise != "" {
		cfg.ExerciseType = &f.exercise
	}
	if f.skillLevel != "" {
		cfg.SkillLevel = &f.skillLevel
	}
	if f.smoothing != "" {
		cfg.SmoothingMethod = &f.smoothing
	}
	if f.windowSize != 0 {
		cfg.WindowSize = &f.windowSize
	}
	if f.angleUnits != "" {
		cfg.AngleUnits = &f.angleUnits
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// replay runs every frame of in through one session and fans the
// metrics out to the enabled sinks.
func replay(f replayFlags, source string, in io.Reader, stdout, stderr io.Writer) (replaySummary, error) {
	var diag, trace io.Writer
	if f.verbose {
		diag = stderr
	}
	if f.trace {
		trace = stderr
	}
	pipeline.SetLogWriters(stderr, diag, trace)
	defer pipeline.SetLogWriters(nil, nil, nil)
	l2smoothing.SetDebugLogger(diag)
	defer l2smoothing.SetDebugLogger(nil)

	cfg, err := loadConfig(f)
	if err != nil {
		return replaySummary{}, err
	}
	opts := pipeline.SessionOptionsFromConfig(cfg)
	opts.IncludeKeypoints = f.includeKeypoints

	session, err := pipeline.NewSession(opts)
	if err != nil {
		return replaySummary{}, err
	}
	sum := replaySummary{SessionID: session.ID()}

	var rec *recorder.Recorder
	if f.recordDir != "" {
		if rec, err = recorder.NewRecorder(f.recordDir, session); err != nil {
			return sum, err
		}
		defer rec.Close()
	}

	var plotter *monitor.TracePlotter
	if f.plotDir != "" {
		plotter = monitor.NewTracePlotter(session.ID())
		if err := plotter.Start(f.plotDir); err != nil {
			return sum, err
		}
	}

	enc := json.NewEncoder(stdout)
	angleUnits := cfg.GetAngleUnits()
	reps := newRepTracker(session.ID())
	var startS, endS float64

	fr := newFrameReader(in)
	for {
		r, err := fr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return sum, err
		}
		if r.Exercise != "" || r.SkillLevel != "" {
			ex, skill := session.Exercise()
			if r.Exercise != "" {
				ex = l3kinematics.ExerciseType(r.Exercise)
			}
			if r.SkillLevel != "" {
				skill = r.SkillLevel
			}
			changed, err := session.UpdateExercise(ex, skill)
			if err != nil {
				return sum, fmt.Errorf("line %d: %w", fr.Line(), err)
			}
			if changed {
				reps.reset()
			}
		}
		frame, err := r.toFrame()
		if err != nil {
			return sum, fmt.Errorf("line %d: %w", fr.Line(), err)
		}

		m := session.ProcessFrame(frame)
		if sum.Frames == 0 {
			startS = m.Timestamp
		}
		endS = m.Timestamp
		sum.Frames++
		if m.PoseDetected {
			sum.PoseFrames++
		}
		reps.observe(session, m)

		if !f.quiet {
			if err := enc.Encode(newFrameOutput(m, angleUnits)); err != nil {
				return sum, fmt.Errorf("write metrics: %w", err)
			}
		}
		if rec != nil {
			if err := rec.Record(m); err != nil {
				return sum, err
			}
		}
		if plotter != nil {
			plotter.Sample(m)
		}
	}
	// Counted from the events so the total survives exercise switches,
	// which restart the session's own counter.
	sum.Reps = reps.events
	sum.RepCount = len(sum.Reps)

	if rec != nil {
		if err := rec.Close(); err != nil {
			return sum, err
		}
	}
	if plotter != nil {
		plotter.Stop()
		if _, err := plotter.GeneratePlots(); err != nil {
			return sum, fmt.Errorf("generate plots: %w", err)
		}
		if _, err := monitor.WriteHTML(f.plotDir, session.ID(), plotter.Samples()); err != nil {
			return sum, err
		}
	}
	if f.dbPath != "" && sum.Frames > 0 {
		if err := storeSession(f.dbPath, source, session, sum, startS, endS); err != nil {
			return sum, err
		}
	}
	return sum, nil
}

// repTracker turns rep-completion edges into RepEvents carrying the
// deepest tracked angle seen during the rep. Rep numbers run across the
// whole replay since exercise switches restart the session counter.
type repTracker struct {
	sessionID string
	minAngle  *float64
	events    []db.RepEvent
}

func newRepTracker(sessionID string) *repTracker {
	return &repTracker{sessionID: sessionID}
}

func (t *repTracker) reset() {
	t.minAngle = nil
}

func (t *repTracker) observe(s *pipeline.Session, m pipeline.Metrics) {
	ex, _ := s.Exercise()
	if deg, ok := m.TrackedAngle(ex); ok && (t.minAngle == nil || deg < *t.minAngle) {
		v := deg
		t.minAngle = &v
	}
	if !m.RepCompleted {
		return
	}
	t.events = append(t.events, db.RepEvent{
		SessionID:   t.sessionID,
		RepNumber:   len(t.events) + 1,
		CompletedS:  m.Timestamp,
		MinAngleDeg: t.minAngle,
	})
	t.minAngle = nil
}

func storeSession(path, source string, s *pipeline.Session, sum replaySummary, startS, endS float64) error {
	store, err := db.NewDB(path)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := s.Options()
	row := &db.Session{
		SessionID:       sum.SessionID,
		ExerciseType:    string(opts.Exercise),
		SkillLevel:      opts.SkillLevel,
		SmoothingMethod: string(opts.Smoothing.Method),
		WindowSize:      opts.Smoothing.WindowSize,
		Source:          source,
		TotalFrames:     sum.Frames,
		PoseFrames:      sum.PoseFrames,
		RepCount:        sum.RepCount,
		StartS:          &startS,
		EndS:            &endS,
	}
	if err := store.CreateSession(row); err != nil {
		return err
	}
	for i := range sum.Reps {
		if err := store.InsertRepEvent(&sum.Reps[i]); err != nil {
			return err
		}
	}
	return nil
}
