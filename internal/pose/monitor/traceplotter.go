package monitor

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/form.report/internal/pose/l4analysis"
	"github.com/banshee-data/form.report/internal/pose/pipeline"
)

// TraceSample is one frame's worth of plottable values.
type TraceSample struct {
	FrameIdx     int
	Timestamp    float64
	PoseDetected bool
	Angles       map[string]float64 // defined joint angles only
	ROMStatus    l4analysis.ROMStatus
	RepCount     int
	AverageSpeed float64
}

// TracePlotter records per-frame metrics over a session for plotting
// after a run.
type TracePlotter struct {
	mu        sync.Mutex
	enabled   bool
	outputDir string
	sessionID string

	samples  []TraceSample
	frameIdx int
}

// NewTracePlotter creates a plotter labelled with sessionID.
func NewTracePlotter(sessionID string) *TracePlotter {
	return &TracePlotter{sessionID: sessionID}
}

// Start enables recording into outputDir, creating it if needed.
func (tp *TracePlotter) Start(outputDir string) error {
	tp.mu.Lock()
	defer tp.mu.Unlock()

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	tp.outputDir = outputDir
	tp.enabled = true
	tp.frameIdx = 0
	tp.samples = nil
	return nil
}

// Stop disables sampling. Call GeneratePlots() to produce output files.
func (tp *TracePlotter) Stop() {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	tp.enabled = false
}

// IsEnabled returns true if the plotter is currently recording.
func (tp *TracePlotter) IsEnabled() bool {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	return tp.enabled
}

// Sample records one frame of metrics. Ignored while disabled.
func (tp *TracePlotter) Sample(m pipeline.Metrics) {
	tp.mu.Lock()
	defer tp.mu.Unlock()

	if !tp.enabled {
		return
	}
	tp.samples = append(tp.samples, SampleFromMetrics(tp.frameIdx, m))
	tp.frameIdx++
}

// SampleFromMetrics flattens m into a TraceSample.
func SampleFromMetrics(frameIdx int, m pipeline.Metrics) TraceSample {
	return TraceSample{
		FrameIdx:     frameIdx,
		Timestamp:    m.Timestamp,
		PoseDetected: m.PoseDetected,
		Angles:       m.JointAngles.Scalars(),
		ROMStatus:    m.ROMStatus,
		RepCount:     m.RepCount,
		AverageSpeed: m.AverageSpeed,
	}
}

// Samples returns a copy of the recorded samples.
func (tp *TracePlotter) Samples() []TraceSample {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	return append([]TraceSample(nil), tp.samples...)
}

// GetSampleCount returns the number of recorded frames.
func (tp *TracePlotter) GetSampleCount() int {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	return len(tp.samples)
}

// GetOutputDir returns the current output directory for plots.
func (tp *TracePlotter) GetOutputDir() string {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	return tp.outputDir
}

// romLevel maps a ROM bucket to a plottable depth, 0 at rest.
func romLevel(s l4analysis.ROMStatus) float64 {
	switch s {
	case l4analysis.ROMPartial:
		return 1
	case l4analysis.ROMDeep:
		return 2
	case l4analysis.ROMBottom:
		return 3
	default:
		return 0
	}
}

// GeneratePlots writes angles.png, rom.png and speed.png to the output
// directory. Returns the number of plots written.
func (tp *TracePlotter) GeneratePlots() (int, error) {
	tp.mu.Lock()
	defer tp.mu.Unlock()

	if tp.outputDir == "" {
		return 0, fmt.Errorf("no output directory configured")
	}
	if len(tp.samples) == 0 {
		return 0, nil
	}

	count := 0
	for _, gen := range []func() error{tp.generateAnglePlot, tp.generateROMPlot, tp.generateSpeedPlot} {
		if err := gen(); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func (tp *TracePlotter) newPlot(title, yLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Session %s - %s", shortID(tp.sessionID), title)
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = yLabel
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p
}

func (tp *TracePlotter) save(p *plot.Plot, name string) error {
	path := filepath.Join(tp.outputDir, name)
	if err := p.Save(14*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("save %s: %w", name, err)
	}
	return nil
}

func (tp *TracePlotter) generateAnglePlot() error {
	p := tp.newPlot("Joint Angles", "Angle (deg)")

	byJoint := make(map[string]plotter.XYs)
	for _, s := range tp.samples {
		for joint, deg := range s.Angles {
			byJoint[joint] = append(byJoint[joint], plotter.XY{X: s.Timestamp, Y: deg})
		}
	}
	joints := make([]string, 0, len(byJoint))
	for j := range byJoint {
		joints = append(joints, j)
	}
	sort.Strings(joints)

	colors := generateColors(len(joints))
	for i, joint := range joints {
		line, err := plotter.NewLine(byJoint[joint])
		if err != nil {
			return err
		}
		line.Color = colors[i]
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(joint, line)
	}
	return tp.save(p, "angles.png")
}

func (tp *TracePlotter) generateROMPlot() error {
	p := tp.newPlot("Range of Motion", "Depth / Reps")

	rom := make(plotter.XYs, 0, len(tp.samples))
	reps := make(plotter.XYs, 0, len(tp.samples))
	for _, s := range tp.samples {
		rom = append(rom, plotter.XY{X: s.Timestamp, Y: romLevel(s.ROMStatus)})
		reps = append(reps, plotter.XY{X: s.Timestamp, Y: float64(s.RepCount)})
	}

	romLine, err := plotter.NewLine(rom)
	if err != nil {
		return err
	}
	romLine.Color = color.RGBA{R: 0x1b, G: 0x5e, B: 0x20, A: 255}
	romLine.Width = vg.Points(1)
	p.Add(romLine)
	p.Legend.Add("rom depth", romLine)

	repLine, err := plotter.NewLine(reps)
	if err != nil {
		return err
	}
	repLine.Color = color.RGBA{R: 0xd3, G: 0x2f, B: 0x2f, A: 255}
	repLine.Width = vg.Points(1.5)
	p.Add(repLine)
	p.Legend.Add("rep count", repLine)

	return tp.save(p, "rom.png")
}

func (tp *TracePlotter) generateSpeedPlot() error {
	p := tp.newPlot("Average Speed", "Speed (units/s)")

	pts := make(plotter.XYs, 0, len(tp.samples))
	for _, s := range tp.samples {
		if s.PoseDetected {
			pts = append(pts, plotter.XY{X: s.Timestamp, Y: s.AverageSpeed})
		}
	}
	if len(pts) > 0 {
		line, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add("average speed", line)
	}
	return tp.save(p, "speed.png")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// generateColors creates a palette of distinct colors for joint lines
func generateColors(n int) []color.Color {
	if n <= 0 {
		return nil
	}

	colors := make([]color.Color, n)
	for i := 0; i < n; i++ {
		hue := float64(i) / float64(n)
		r, g, b := hslToRGB(hue, 0.7, 0.5)
		colors[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return colors
}

// hslToRGB converts HSL to RGB (0-255 range)
func hslToRGB(h, s, l float64) (r, g, b uint8) {
	var rf, gf, bf float64

	if s == 0 {
		rf, gf, bf = l, l, l
	} else {
		var q float64
		if l < 0.5 {
			q = l * (1 + s)
		} else {
			q = l + s - l*s
		}
		p := 2*l - q
		rf = hueToRGB(p, q, h+1.0/3.0)
		gf = hueToRGB(p, q, h)
		bf = hueToRGB(p, q, h-1.0/3.0)
	}

	return uint8(rf * 255), uint8(gf * 255), uint8(bf * 255)
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t += 1
	}
	if t > 1 {
		t -= 1
	}
	if t < 1.0/6.0 {
		return p + (q-p)*6*t
	}
	if t < 1.0/2.0 {
		return q
	}
	if t < 2.0/3.0 {
		return p + (q-p)*(2.0/3.0-t)*6
	}
	return p
}
