package l1keypoints

import "fmt"

// Landmark is an index into the 33-entry body landmark enumeration.
// Indices follow the BlazePose convention and are never renumbered.
type Landmark int

const (
	Nose Landmark = iota
	LeftEyeInner
	LeftEye
	LeftEyeOuter
	RightEyeInner
	RightEye
	RightEyeOuter
	LeftEar
	RightEar
	MouthLeft
	MouthRight
	LeftShoulder
	RightShoulder
	LeftElbow
	RightElbow
	LeftWrist
	RightWrist
	LeftPinky
	RightPinky
	LeftIndex
	RightIndex
	LeftThumb
	RightThumb
	LeftHip
	RightHip
	LeftKnee
	RightKnee
	LeftAnkle
	RightAnkle
	LeftHeel
	RightHeel
	LeftFootIndex
	RightFootIndex

	// NumLandmarks is the fixed number of keypoints in every Frame.
	NumLandmarks = 33
)

var landmarkNames = [NumLandmarks]string{
	"nose",
	"left_eye_inner", "left_eye", "left_eye_outer",
	"right_eye_inner", "right_eye", "right_eye_outer",
	"left_ear", "right_ear",
	"mouth_left", "mouth_right",
	"left_shoulder", "right_shoulder",
	"left_elbow", "right_elbow",
	"left_wrist", "right_wrist",
	"left_pinky", "right_pinky",
	"left_index", "right_index",
	"left_thumb", "right_thumb",
	"left_hip", "right_hip",
	"left_knee", "right_knee",
	"left_ankle", "right_ankle",
	"left_heel", "right_heel",
	"left_foot_index", "right_foot_index",
}

// Valid reports whether l is inside the enumeration.
func (l Landmark) Valid() bool {
	return l >= 0 && l < NumLandmarks
}

// String returns the snake_case landmark name, e.g. "left_knee".
func (l Landmark) String() string {
	if !l.Valid() {
		return fmt.Sprintf("landmark(%d)", int(l))
	}
	return landmarkNames[l]
}

// LandmarkByName resolves a snake_case landmark name.
func LandmarkByName(name string) (Landmark, bool) {
	for i, n := range landmarkNames {
		if n == name {
			return Landmark(i), true
		}
	}
	return 0, false
}

// MarshalText encodes the landmark by name so landmark-keyed maps read
// as {"left_knee": ...} in JSON.
func (l Landmark) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("invalid landmark %d", int(l))
	}
	return []byte(landmarkNames[l]), nil
}

// UnmarshalText accepts a snake_case landmark name.
func (l *Landmark) UnmarshalText(b []byte) error {
	v, ok := LandmarkByName(string(b))
	if !ok {
		return fmt.Errorf("unknown landmark %q", b)
	}
	*l = v
	return nil
}
