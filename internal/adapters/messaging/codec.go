package messaging

import (
	"encoding/json"
	"fmt"
	"time"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/bft-labs/driveseq/internal/domain"
)

// Wire documents follow the JSON shape a rosbridge server produces for
// nav_msgs/Odometry, geometry_msgs/Twist and visualization_msgs/Marker.

type stamp struct {
	Sec     int64 `json:"sec"`
	Nanosec int64 `json:"nanosec"`
}

type header struct {
	FrameID string `json:"frame_id"`
	Stamp   stamp  `json:"stamp"`
}

type vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type quaternion struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

type poseMsg struct {
	Position    *vector3    `json:"position"`
	Orientation *quaternion `json:"orientation"`
}

type odometryMsg struct {
	Header header `json:"header"`
	Pose   struct {
		Pose poseMsg `json:"pose"`
	} `json:"pose"`
}

type twistMsg struct {
	Linear  vector3 `json:"linear"`
	Angular vector3 `json:"angular"`
}

type colorMsg struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
	A float64 `json:"a"`
}

type durationMsg struct {
	Sec     int64 `json:"sec"`
	Nanosec int64 `json:"nanosec"`
}

type markerMsg struct {
	Header   header      `json:"header"`
	NS       string      `json:"ns"`
	ID       int         `json:"id"`
	Type     int         `json:"type"`
	Action   int         `json:"action"`
	Scale    vector3     `json:"scale"`
	Color    colorMsg    `json:"color"`
	Points   []vector3   `json:"points"`
	Lifetime durationMsg `json:"lifetime"`
}

// markerActionAdd adds or modifies a marker.
const markerActionAdd = 0

func toStamp(t time.Time) stamp {
	return stamp{Sec: t.Unix(), Nanosec: int64(t.Nanosecond())}
}

// DecodeOdometry parses an odometry document into a pose update. Both the
// position and the orientation must be present; the tracker validates the
// values.
func DecodeOdometry(data []byte) (domain.PoseUpdate, error) {
	var msg odometryMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return domain.PoseUpdate{}, fmt.Errorf("decode odometry: %w", err)
	}
	p, q := msg.Pose.Pose.Position, msg.Pose.Pose.Orientation
	if p == nil || q == nil {
		return domain.PoseUpdate{}, fmt.Errorf("decode odometry: %w: pose.pose.position and orientation are required", domain.ErrMissingField)
	}

	u := domain.PoseUpdate{
		Position:    r3.Vec{X: p.X, Y: p.Y, Z: p.Z},
		Orientation: quat.Number{Real: q.W, Imag: q.X, Jmag: q.Y, Kmag: q.Z},
	}
	if s := msg.Header.Stamp; s.Sec != 0 || s.Nanosec != 0 {
		u.Stamp = time.Unix(s.Sec, s.Nanosec)
	}
	return u, nil
}

// EncodeOdometry renders a pose update as an odometry document in frame.
func EncodeOdometry(u domain.PoseUpdate, frame string) ([]byte, error) {
	var msg odometryMsg
	msg.Header = header{FrameID: frame, Stamp: toStamp(u.Stamp)}
	msg.Pose.Pose = poseMsg{
		Position:    &vector3{X: u.Position.X, Y: u.Position.Y, Z: u.Position.Z},
		Orientation: &quaternion{X: u.Orientation.Imag, Y: u.Orientation.Jmag, Z: u.Orientation.Kmag, W: u.Orientation.Real},
	}
	return json.Marshal(msg)
}

// EncodeTwist renders a velocity command for a planar base.
func EncodeTwist(cmd domain.VelocityCommand) ([]byte, error) {
	return json.Marshal(twistMsg{
		Linear:  vector3{X: cmd.LinearX},
		Angular: vector3{Z: cmd.AngularZ},
	})
}

// DecodeTwist parses a twist document, keeping the planar components.
func DecodeTwist(data []byte) (domain.VelocityCommand, error) {
	var msg twistMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return domain.VelocityCommand{}, fmt.Errorf("decode twist: %w", err)
	}
	return domain.VelocityCommand{LinearX: msg.Linear.X, AngularZ: msg.Angular.Z}, nil
}

// EncodeMarker renders a marker stamped with now. The marker never expires.
func EncodeMarker(m domain.Marker, now time.Time) ([]byte, error) {
	points := make([]vector3, len(m.Points))
	for i, p := range m.Points {
		points[i] = vector3{X: p.X, Y: p.Y, Z: p.Z}
	}
	return json.Marshal(markerMsg{
		Header: header{FrameID: m.Frame, Stamp: toStamp(now)},
		NS:     m.Namespace,
		ID:     m.ID,
		Type:   int(m.Kind),
		Action: markerActionAdd,
		Scale:  vector3{X: m.Width},
		Color:  colorMsg{R: m.Color.R, G: m.Color.G, B: m.Color.B, A: m.Color.A},
		Points: points,
	})
}
