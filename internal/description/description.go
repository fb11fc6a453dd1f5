// Package description loads the command and contour description a run is
// started with. JSON and YAML documents share one schema:
//
//	commands:
//	  - cmd: rotate
//	    data: {delta_angle: 90}
//	  - cmd: move
//	    data: {distance_m: 2.0}
//	contour:
//	  points:
//	    - {x: 0, y: 0, z: 0}
//
// Failures are reported before any actuation can happen.
package description

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"

	"github.com/bft-labs/driveseq/internal/domain"
)

// Format is the encoding of a description document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: unsupported description extension %q", domain.ErrMalformedDescription, filepath.Ext(path))
	}
}

type rawDescription struct {
	Commands *[]rawCommand `json:"commands" yaml:"commands"`
	Contour  *rawContour   `json:"contour" yaml:"contour"`
}

type rawCommand struct {
	Cmd  *string  `json:"cmd" yaml:"cmd"`
	Data *rawData `json:"data" yaml:"data"`
}

type rawData struct {
	DeltaAngle *float64 `json:"delta_angle" yaml:"delta_angle"`
	DistanceM  *float64 `json:"distance_m" yaml:"distance_m"`
}

type rawContour struct {
	Points *[]rawPoint `json:"points" yaml:"points"`
}

type rawPoint struct {
	X *float64 `json:"x" yaml:"x"`
	Y *float64 `json:"y" yaml:"y"`
	Z *float64 `json:"z" yaml:"z"`
}

// Parse decodes and validates a description.
//
// Unrecognized cmd tags are kept so the sequencer can reject them at
// dispatch. A contour object without a points list is ignored; an empty
// points list is malformed.
func Parse(data []byte, format Format) (domain.Description, error) {
	var raw rawDescription
	if err := decode(data, format, &raw); err != nil {
		return domain.Description{}, err
	}

	if raw.Commands == nil {
		return domain.Description{}, fmt.Errorf("%w: missing commands list", domain.ErrMalformedDescription)
	}

	desc := domain.Description{Commands: make([]domain.Command, 0, len(*raw.Commands))}
	for i, rc := range *raw.Commands {
		cmd, err := rc.command()
		if err != nil {
			return domain.Description{}, fmt.Errorf("commands[%d]: %w", i, err)
		}
		desc.Commands = append(desc.Commands, cmd)
	}

	if raw.Contour != nil && raw.Contour.Points != nil {
		contour, err := raw.Contour.contour()
		if err != nil {
			return domain.Description{}, fmt.Errorf("contour: %w", err)
		}
		desc.Contour = &contour
	}
	return desc, nil
}

func decode(data []byte, format Format, into *rawDescription) error {
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(into); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrMalformedDescription, err)
		}
		if _, err := dec.Token(); !errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: trailing data after document", domain.ErrMalformedDescription)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, into); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrMalformedDescription, err)
		}
	default:
		return fmt.Errorf("%w: unknown format %q", domain.ErrMalformedDescription, string(format))
	}
	return nil
}

func (rc rawCommand) command() (domain.Command, error) {
	if rc.Cmd == nil {
		return domain.Command{}, fmt.Errorf("%w: missing cmd", domain.ErrMalformedDescription)
	}
	kind := domain.CommandKind(*rc.Cmd)

	switch kind {
	case domain.KindRotate:
		if rc.Data == nil {
			return domain.Command{}, fmt.Errorf("%w: rotate needs data", domain.ErrMissingField)
		}
		v, err := number("data.delta_angle", rc.Data.DeltaAngle)
		if err != nil {
			return domain.Command{}, err
		}
		return domain.Rotate(v), nil
	case domain.KindMove:
		if rc.Data == nil {
			return domain.Command{}, fmt.Errorf("%w: move needs data", domain.ErrMissingField)
		}
		v, err := number("data.distance_m", rc.Data.DistanceM)
		if err != nil {
			return domain.Command{}, err
		}
		if v < 0 {
			return domain.Command{}, fmt.Errorf("%w: data.distance_m %v is negative", domain.ErrInvalidArgument, v)
		}
		return domain.Move(v), nil
	default:
		return domain.Command{Kind: kind}, nil
	}
}

func (rc rawContour) contour() (domain.Contour, error) {
	if len(*rc.Points) == 0 {
		return domain.Contour{}, fmt.Errorf("%w: contour needs at least one point", domain.ErrMalformedDescription)
	}

	points := make([]r3.Vec, 0, len(*rc.Points))
	for i, p := range *rc.Points {
		x, err := number(fmt.Sprintf("points[%d].x", i), p.X)
		if err != nil {
			return domain.Contour{}, err
		}
		y, err := number(fmt.Sprintf("points[%d].y", i), p.Y)
		if err != nil {
			return domain.Contour{}, err
		}
		z, err := number(fmt.Sprintf("points[%d].z", i), p.Z)
		if err != nil {
			return domain.Contour{}, err
		}
		points = append(points, r3.Vec{X: x, Y: y, Z: z})
	}
	return domain.Contour{Points: points}, nil
}

func number(field string, v *float64) (float64, error) {
	if v == nil {
		return 0, fmt.Errorf("%w: %s", domain.ErrMissingField, field)
	}
	if math.IsNaN(*v) || math.IsInf(*v, 0) {
		return 0, fmt.Errorf("%w: %s is not finite", domain.ErrMalformedDescription, field)
	}
	return *v, nil
}
