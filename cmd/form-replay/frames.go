package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/banshee-data/form.report/internal/pose/l1keypoints"
)

// maxLineBytes bounds one JSON-lines record.
const maxLineBytes = 1 << 20

// frameRecord is one line of a keypoint recording. Keypoints is null
// when the detector found no pose. Exercise and SkillLevel, when set,
// switch the session before the frame is processed.
type frameRecord struct {
	Timestamp  float64     `json:"timestamp"`
	Keypoints  [][]float64 `json:"keypoints"`
	Exercise   string      `json:"exercise,omitempty"`
	SkillLevel string      `json:"skill_level,omitempty"`
}

// toFrame converts a record into an immutable frame. Each keypoint is
// [x, y, z, visibility].
func (r frameRecord) toFrame() (l1keypoints.Frame, error) {
	ts := time.Duration(r.Timestamp * float64(time.Second))
	if r.Keypoints == nil {
		return l1keypoints.NewFrame(ts, nil)
	}
	kps := make([]l1keypoints.Keypoint, len(r.Keypoints))
	for i, v := range r.Keypoints {
		if len(v) != 4 {
			return l1keypoints.Frame{}, fmt.Errorf("keypoint %d: want [x,y,z,visibility], got %d values", i, len(v))
		}
		kps[i] = l1keypoints.Keypoint{X: v[0], Y: v[1], Z: v[2], Visibility: v[3]}
	}
	return l1keypoints.NewFrame(ts, kps)
}

// frameReader yields records from a JSON-lines stream, skipping blank
// lines and lines starting with '#'.
type frameReader struct {
	sc   *bufio.Scanner
	line int
}

func newFrameReader(r io.Reader) *frameReader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)
	return &frameReader{sc: sc}
}

// Next returns the next record, or io.EOF at the end of the stream.
func (fr *frameReader) Next() (frameRecord, error) {
	for fr.sc.Scan() {
		fr.line++
		text := strings.TrimSpace(fr.sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		var rec frameRecord
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			return frameRecord{}, fmt.Errorf("line %d: %w", fr.line, err)
		}
		return rec, nil
	}
	if err := fr.sc.Err(); err != nil {
		return frameRecord{}, fmt.Errorf("line %d: %w", fr.line+1, err)
	}
	return frameRecord{}, io.EOF
}

// Line returns the number of the last line read.
func (fr *frameReader) Line() int { return fr.line }
