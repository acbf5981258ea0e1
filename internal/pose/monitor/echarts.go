package monitor

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// missing is the echarts placeholder for a gap in a line series.
const missing = "-"

// RenderHTML writes an interactive page with the joint-angle trace and
// the ROM/rep trace of a session.
func RenderHTML(w io.Writer, sessionID string, samples []TraceSample) error {
	x := make([]string, len(samples))
	for i, s := range samples {
		x[i] = fmt.Sprintf("%.3f", s.Timestamp)
	}

	page := components.NewPage()
	page.PageTitle = "Form Session " + shortID(sessionID)
	page.AddCharts(angleChart(sessionID, x, samples), romChart(x, samples))
	return page.Render(w)
}

// WriteHTML renders the session page to outputDir/session.html.
func WriteHTML(outputDir, sessionID string, samples []TraceSample) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}
	path := filepath.Join(outputDir, "session.html")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create html: %w", err)
	}
	defer f.Close()

	if err := RenderHTML(f, sessionID, samples); err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}
	return path, nil
}

func angleChart(sessionID string, x []string, samples []TraceSample) *charts.Line {
	joints := make(map[string]struct{})
	for _, s := range samples {
		for j := range s.Angles {
			joints[j] = struct{}{}
		}
	}
	names := make([]string, 0, len(joints))
	for j := range joints {
		names = append(names, j)
	}
	sort.Strings(names)

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{Title: "Joint Angles", Subtitle: fmt.Sprintf("session=%s frames=%d", sessionID, len(samples))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "t (s)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 180, Name: "deg"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
	)
	line.SetXAxis(x)
	for _, name := range names {
		data := make([]opts.LineData, len(samples))
		for i, s := range samples {
			if deg, ok := s.Angles[name]; ok {
				data[i] = opts.LineData{Value: deg}
			} else {
				data[i] = opts.LineData{Value: missing}
			}
		}
		line.AddSeries(name, data)
	}
	return line
}

func romChart(x []string, samples []TraceSample) *charts.Line {
	depth := make([]opts.LineData, len(samples))
	reps := make([]opts.LineData, len(samples))
	for i, s := range samples {
		depth[i] = opts.LineData{Value: romLevel(s.ROMStatus), Name: string(s.ROMStatus)}
		reps[i] = opts.LineData{Value: s.RepCount}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "320px"}),
		charts.WithTitleOpts(opts.Title{Title: "Range of Motion", Subtitle: "0 rest, 1 partial, 2 deep, 3 bottom"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	line.SetXAxis(x).
		AddSeries("rom depth", depth, charts.WithLineChartOpts(opts.LineChart{Step: "end"})).
		AddSeries("rep count", reps, charts.WithItemStyleOpts(opts.ItemStyle{Color: "#d32f2f"}))
	return line
}
