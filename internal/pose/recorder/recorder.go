// Package recorder writes per-frame session metrics to a Parquet file
// plus a JSON header, for offline analysis of replayed sessions.
package recorder

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/banshee-data/form.report/internal/pose/l3kinematics"
	"github.com/banshee-data/form.report/internal/pose/pipeline"
)

const (
	// MetricsFile is the Parquet file name inside a recording directory.
	MetricsFile = "metrics.parquet"
	// HeaderFile is the JSON header name inside a recording directory.
	HeaderFile = "header.json"
)

// Header describes a recording. Exercise and SkillLevel are the session's
// selection when the recording closed; RepCount counts every completed rep,
// including those before an exercise switch reset the session counter.
type Header struct {
	Version     string  `json:"version"`
	CreatedNs   int64   `json:"created_ns"`
	SessionID   string  `json:"session_id"`
	Exercise    string  `json:"exercise"`
	SkillLevel  string  `json:"skill_level"`
	TotalFrames uint64  `json:"total_frames"`
	PoseFrames  uint64  `json:"pose_frames"`
	RepCount    int     `json:"rep_count"`
	StartS      float64 `json:"start_s"`
	EndS        float64 `json:"end_s"`
}

// Row is one frame in the Parquet file. Undefined values are NaN.
type Row struct {
	TimestampS    float64 `parquet:"name=timestamp_s, type=DOUBLE"`
	PoseDetected  bool    `parquet:"name=pose_detected, type=BOOLEAN"`
	ROMStatus     string  `parquet:"name=rom_status, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	RepCount      int64   `parquet:"name=rep_count, type=INT64"`
	RepInProgress bool    `parquet:"name=rep_in_progress, type=BOOLEAN"`
	RepCompleted  bool    `parquet:"name=rep_completed, type=BOOLEAN"`
	LeftElbowDeg  float64 `parquet:"name=left_elbow_deg, type=DOUBLE"`
	RightElbowDeg float64 `parquet:"name=right_elbow_deg, type=DOUBLE"`
	LeftKneeDeg   float64 `parquet:"name=left_knee_deg, type=DOUBLE"`
	RightKneeDeg  float64 `parquet:"name=right_knee_deg, type=DOUBLE"`
	AverageSpeed  float64 `parquet:"name=average_speed, type=DOUBLE"`
	ComX          float64 `parquet:"name=com_x, type=DOUBLE"`
	ComY          float64 `parquet:"name=com_y, type=DOUBLE"`
	ComZ          float64 `parquet:"name=com_z, type=DOUBLE"`
	ElbowSymmetry float64 `parquet:"name=elbow_symmetry, type=DOUBLE"`
	KneeSymmetry  float64 `parquet:"name=knee_symmetry, type=DOUBLE"`
}

// RowFromMetrics flattens m into a Parquet row.
func RowFromMetrics(m pipeline.Metrics) Row {
	angle := func(j l3kinematics.Joint) float64 {
		if deg, ok := m.JointAngles.Defined(j); ok {
			return deg
		}
		return math.NaN()
	}
	score := func(pair string) float64 {
		if v, ok := m.AngleSymmetry[pair]; ok {
			return v
		}
		return math.NaN()
	}

	row := Row{
		TimestampS:    m.Timestamp,
		PoseDetected:  m.PoseDetected,
		ROMStatus:     string(m.ROMStatus),
		RepCount:      int64(m.RepCount),
		RepInProgress: m.RepInProgress,
		RepCompleted:  m.RepCompleted,
		LeftElbowDeg:  angle(l3kinematics.LeftElbow),
		RightElbowDeg: angle(l3kinematics.RightElbow),
		LeftKneeDeg:   angle(l3kinematics.LeftKnee),
		RightKneeDeg:  angle(l3kinematics.RightKnee),
		AverageSpeed:  m.AverageSpeed,
		ComX:          math.NaN(),
		ComY:          math.NaN(),
		ComZ:          math.NaN(),
		ElbowSymmetry: score("elbow"),
		KneeSymmetry:  score("knee"),
	}
	if m.CenterOfMass != nil {
		row.ComX, row.ComY, row.ComZ = m.CenterOfMass.X, m.CenterOfMass.Y, m.CenterOfMass.Z
	}
	return row
}

// Recorder streams Metrics into basePath/metrics.parquet.
type Recorder struct {
	basePath string
	session  *pipeline.Session
	header   Header

	fw source.ParquetFile
	pw *writer.ParquetWriter

	mu     sync.Mutex
	closed bool
	first  bool
}

// NewRecorder creates basePath and opens the Parquet writer. If basePath
// is empty, a timestamped directory is created in the system temp dir.
func NewRecorder(basePath string, s *pipeline.Session) (*Recorder, error) {
	if basePath == "" {
		basePath = filepath.Join(os.TempDir(), fmt.Sprintf("form_%s_%d", s.ID(), time.Now().Unix()))
	}
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create recording directory: %w", err)
	}

	fw, err := local.NewLocalFileWriter(filepath.Join(basePath, MetricsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to create parquet file: %w", err)
	}
	pw, err := writer.NewParquetWriter(fw, new(Row), 4)
	if err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("failed to create parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	exercise, skill := s.Exercise()
	return &Recorder{
		basePath: basePath,
		session:  s,
		fw:       fw,
		pw:       pw,
		first:    true,
		header: Header{
			Version:    "1.0",
			CreatedNs:  time.Now().UnixNano(),
			SessionID:  s.ID(),
			Exercise:   string(exercise),
			SkillLevel: skill,
		},
	}, nil
}

// Record appends one frame.
func (r *Recorder) Record(m pipeline.Metrics) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return fmt.Errorf("recorder is closed")
	}
	if err := r.pw.Write(RowFromMetrics(m)); err != nil {
		return fmt.Errorf("failed to write row: %w", err)
	}

	if r.first {
		r.header.StartS = m.Timestamp
		r.first = false
	}
	r.header.EndS = m.Timestamp
	r.header.TotalFrames++
	if m.PoseDetected {
		r.header.PoseFrames++
	}
	if m.RepCompleted {
		r.header.RepCount++
	}
	return nil
}

// Close flushes the Parquet footer and writes the header.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	exercise, skill := r.session.Exercise()
	r.header.Exercise = string(exercise)
	r.header.SkillLevel = skill

	if err := r.pw.WriteStop(); err != nil {
		_ = r.fw.Close()
		return fmt.Errorf("failed to finalise parquet: %w", err)
	}
	if err := r.fw.Close(); err != nil {
		return fmt.Errorf("failed to close parquet file: %w", err)
	}

	headerData, err := json.MarshalIndent(r.header, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}
	if err := os.WriteFile(filepath.Join(r.basePath, HeaderFile), headerData, 0644); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	return nil
}

// Path returns the recording directory.
func (r *Recorder) Path() string {
	return r.basePath
}

// FrameCount returns the number of frames recorded.
func (r *Recorder) FrameCount() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.header.TotalFrames
}

// ReadHeader loads the header of a closed recording.
func ReadHeader(basePath string) (Header, error) {
	var h Header
	data, err := os.ReadFile(filepath.Join(basePath, HeaderFile))
	if err != nil {
		return h, fmt.Errorf("failed to read header: %w", err)
	}
	if err := json.Unmarshal(data, &h); err != nil {
		return h, fmt.Errorf("failed to parse header: %w", err)
	}
	return h, nil
}

// ReadRows loads every row of a closed recording.
func ReadRows(basePath string) ([]Row, error) {
	fr, err := local.NewLocalFileReader(filepath.Join(basePath, MetricsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, new(Row), 4)
	if err != nil {
		return nil, fmt.Errorf("failed to create parquet reader: %w", err)
	}
	defer pr.ReadStop()

	rows := make([]Row, pr.GetNumRows())
	if err := pr.Read(&rows); err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	return rows, nil
}
