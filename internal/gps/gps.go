// Package gps derives a coordinate from the GPS telemetry that drones embed
// in their subtitle track, filling gaps marked "n/a" from neighbouring cues.
package gps

import (
	"errors"
	"fmt"
	"iter"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/seongjae6751/stream-module/internal/subtitle"
)

// Unavailable marks a missing value, either for a whole pair or one component.
const Unavailable = "n/a"

// ErrMalformedPayload is returned when a GPS component is neither a number nor "n/a".
var ErrMalformedPayload = errors.New("malformed GPS payload")

var payloadRegex = regexp.MustCompile(`GPS\s*\(([^)]+)\)`)

// Coordinate is a latitude/longitude pair where either side may be absent.
// The zero value means no coordinate.
type Coordinate struct {
	Lat    float64
	Lon    float64
	HasLat bool
	HasLon bool
}

// Valid reports whether both components are present.
func (c Coordinate) Valid() bool {
	return c.HasLat && c.HasLon
}

func (c Coordinate) String() string {
	return component(c.Lat, c.HasLat) + "," + component(c.Lon, c.HasLon)
}

func component(v float64, ok bool) string {
	if !ok {
		return Unavailable
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Options tunes the neighbour search.
type Options struct {
	// MaxDistance caps how many lines the backward and forward scans may
	// travel from the matched line. Zero scans the whole sequence.
	MaxDistance int
}

// Payload extracts the text between the parentheses of GPS(...) in line.
func Payload(line string) (string, bool) {
	m := payloadRegex.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Lookup locates the cue for seconds and derives its coordinate.
func Lookup(lines subtitle.Lines, seconds int, opts Options) (Coordinate, error) {
	index, found := subtitle.Locate(lines, seconds)
	return Interpolate(lines, index, found, opts)
}

// Interpolate derives the coordinate for the cue whose timecode matched at
// index. The payload is read from the line after the match. When it carries
// an "n/a" marker, the nearest fully populated payloads before and after the
// match are averaged, or used alone if only one side has one.
func Interpolate(lines subtitle.Lines, index int, found bool, opts Options) (Coordinate, error) {
	if !found {
		return Coordinate{}, nil
	}

	payload, ok := Payload(lines.At(index + 1))
	if !ok {
		return Coordinate{}, nil
	}

	if !strings.Contains(payload, Unavailable) {
		return parseComponents(payload)
	}

	lo, hi := 0, len(lines)
	if opts.MaxDistance > 0 {
		lo = max(0, index-opts.MaxDistance)
		hi = min(len(lines), index+opts.MaxDistance+1)
	}

	var before, after []string
	if index > lo {
		before = lines[lo:index]
	}
	if index+1 < hi {
		after = lines[index+1 : hi]
	}

	prevPayload, hasPrev := nearestPopulated(slices.Backward(before))
	nextPayload, hasNext := nearestPopulated(slices.All(after))

	switch {
	case hasPrev && hasNext:
		prevLat, prevLon, err := parsePair(prevPayload)
		if err != nil {
			return Coordinate{}, err
		}
		nextLat, nextLon, err := parsePair(nextPayload)
		if err != nil {
			return Coordinate{}, err
		}
		return Coordinate{
			Lat:    (prevLat + nextLat) / 2,
			Lon:    (prevLon + nextLon) / 2,
			HasLat: true,
			HasLon: true,
		}, nil
	case hasPrev:
		return pairCoordinate(prevPayload)
	case hasNext:
		return pairCoordinate(nextPayload)
	default:
		return Coordinate{}, nil
	}
}

// first payload in seq without an "n/a" marker
func nearestPopulated(seq iter.Seq2[int, string]) (string, bool) {
	for _, line := range seq {
		if p, ok := Payload(line); ok && !strings.Contains(p, Unavailable) {
			return p, true
		}
	}
	return "", false
}

func pairCoordinate(payload string) (Coordinate, error) {
	lat, lon, err := parsePair(payload)
	if err != nil {
		return Coordinate{}, err
	}
	return Coordinate{Lat: lat, Lon: lon, HasLat: true, HasLon: true}, nil
}

// first two comma-separated fields as floats; extra fields are ignored
func parsePair(payload string) (float64, float64, error) {
	fields := strings.Split(payload, ",")
	if len(fields) < 2 {
		return 0, 0, fmt.Errorf("%w: %q has fewer than two fields", ErrMalformedPayload, payload)
	}
	lat, err := parseFloat(fields[0], payload)
	if err != nil {
		return 0, 0, err
	}
	lon, err := parseFloat(fields[1], payload)
	if err != nil {
		return 0, 0, err
	}
	return lat, lon, nil
}

func parseComponents(payload string) (Coordinate, error) {
	fields := strings.Split(payload, ",")
	if len(fields) < 2 {
		return Coordinate{}, fmt.Errorf("%w: %q has fewer than two fields", ErrMalformedPayload, payload)
	}

	var c Coordinate
	var err error
	if strings.TrimSpace(fields[0]) != Unavailable {
		if c.Lat, err = parseFloat(fields[0], payload); err != nil {
			return Coordinate{}, err
		}
		c.HasLat = true
	}
	if strings.TrimSpace(fields[1]) != Unavailable {
		if c.Lon, err = parseFloat(fields[1], payload); err != nil {
			return Coordinate{}, err
		}
		c.HasLon = true
	}
	return c, nil
}

func parseFloat(field, payload string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q in %q", ErrMalformedPayload, strings.TrimSpace(field), payload)
	}
	return v, nil
}
