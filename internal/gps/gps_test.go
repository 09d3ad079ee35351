package gps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seongjae6751/stream-module/internal/subtitle"
)

// one cue per second: a start timecode followed by a telemetry line
func djiTrack(payloads ...string) subtitle.Lines {
	var lines subtitle.Lines
	for i, p := range payloads {
		lines = append(lines,
			subtitle.FormatTimecode(i)+",000",
			"F/2.8, SS 1000, ISO 100, EV 0, GPS ("+p+"), D 10m, H 20m",
		)
	}
	return lines
}

func TestLookup_PopulatedPayload(t *testing.T) {
	lines := subtitle.Lines{"00:00:40,000 --> 00:00:44,000", "GPS(37.5,127.0)", "00:00:44,000 --> 00:00:48,000", "GPS(1,2)"}

	c, err := Lookup(lines, 40, Options{})
	require.NoError(t, err)

	assert.True(t, c.Valid())
	assert.Equal(t, 37.5, c.Lat)
	assert.Equal(t, 127.0, c.Lon)
}

func TestLookup_FirstMatchOnly(t *testing.T) {
	lines := subtitle.Lines{"00:00:40,000 --> 00:00:44,000", "GPS(37.5,127.0)", "00:00:44,000 --> 00:00:48,000", "GPS(1,2)"}

	// 0:00:44 first appears on line 0 as the end of the first cue
	c, err := Lookup(lines, 44, Options{})
	require.NoError(t, err)
	assert.Equal(t, 37.5, c.Lat)
	assert.Equal(t, 127.0, c.Lon)
}

func TestLookup_ExtraFieldsIgnoredAndTrimmed(t *testing.T) {
	lines := subtitle.Lines{"0:00:05", "GPS ( 37.25 , 127.75 , 19 )"}

	c, err := Lookup(lines, 5, Options{})
	require.NoError(t, err)
	assert.Equal(t, Coordinate{Lat: 37.25, Lon: 127.75, HasLat: true, HasLon: true}, c)
}

func TestLookup_NotFound(t *testing.T) {
	c, err := Lookup(djiTrack("37.0,127.0", "37.1,127.1"), 3600, Options{})
	require.NoError(t, err)
	assert.Equal(t, Coordinate{}, c)
	assert.False(t, c.Valid())
}

func TestLookup_NegativeSeconds(t *testing.T) {
	c, err := Lookup(djiTrack("37.0,127.0"), -1, Options{})
	require.NoError(t, err)
	assert.Equal(t, Coordinate{}, c)
}

func TestLookup_NoPayloadAfterMatch(t *testing.T) {
	lines := subtitle.Lines{"0:00:07", "no telemetry here", "GPS(1,2)"}

	c, err := Lookup(lines, 7, Options{})
	require.NoError(t, err)
	assert.Equal(t, Coordinate{}, c)
}

func TestLookup_MatchOnLastLine(t *testing.T) {
	lines := subtitle.Lines{"GPS(1,2)", "0:00:07"}

	c, err := Lookup(lines, 7, Options{})
	require.NoError(t, err)
	assert.Equal(t, Coordinate{}, c)
}

func TestInterpolate_AveragesNeighbours(t *testing.T) {
	lines := subtitle.Lines{
		"GPS(37.0,127.0)",
		"cue text",
		"0:00:10",
		"GPS(n/a,n/a)",
		"cue text",
		"GPS(37.2,127.2)",
	}

	c, err := Lookup(lines, 10, Options{})
	require.NoError(t, err)
	require.True(t, c.Valid())
	assert.InDelta(t, 37.1, c.Lat, 1e-9)
	assert.InDelta(t, 127.1, c.Lon, 1e-9)
}

func TestInterpolate_NearestNeighboursWin(t *testing.T) {
	lines := djiTrack("10,10", "20,20", "n/a,n/a", "n/a,n/a", "40,40", "50,50")

	// second 2 is matched at line 4; its payload is n/a
	c, err := Lookup(lines, 2, Options{})
	require.NoError(t, err)
	assert.InDelta(t, 30.0, c.Lat, 1e-9)
	assert.InDelta(t, 30.0, c.Lon, 1e-9)
}

func TestInterpolate_PreviousOnly(t *testing.T) {
	lines := djiTrack("37.0,127.0", "n/a,n/a", "n/a,n/a")

	c, err := Lookup(lines, 1, Options{})
	require.NoError(t, err)
	assert.Equal(t, Coordinate{Lat: 37.0, Lon: 127.0, HasLat: true, HasLon: true}, c)
}

func TestInterpolate_NextOnly(t *testing.T) {
	lines := djiTrack("n/a,n/a", "n/a,n/a", "37.3,127.4")

	c, err := Lookup(lines, 0, Options{})
	require.NoError(t, err)
	assert.Equal(t, Coordinate{Lat: 37.3, Lon: 127.4, HasLat: true, HasLon: true}, c)
}

func TestInterpolate_NoNeighbours(t *testing.T) {
	lines := djiTrack("n/a,n/a", "n/a,n/a", "n/a,n/a")

	c, err := Lookup(lines, 1, Options{})
	require.NoError(t, err)
	assert.Equal(t, Coordinate{}, c)
}

func TestInterpolate_PartialMarkerUsesNeighbours(t *testing.T) {
	lines := djiTrack("10,20", "37.5,n/a", "30,40")

	c, err := Lookup(lines, 1, Options{})
	require.NoError(t, err)
	assert.InDelta(t, 20.0, c.Lat, 1e-9)
	assert.InDelta(t, 30.0, c.Lon, 1e-9)
}

func TestInterpolate_MaxDistance(t *testing.T) {
	lines := subtitle.Lines{
		"GPS(10,10)",
		"filler",
		"filler",
		"0:00:10",
		"GPS(n/a,n/a)",
		"GPS(30,30)",
	}

	c, err := Lookup(lines, 10, Options{MaxDistance: 2})
	require.NoError(t, err)
	assert.Equal(t, Coordinate{Lat: 30, Lon: 30, HasLat: true, HasLon: true}, c)

	c, err = Lookup(lines, 10, Options{MaxDistance: 3})
	require.NoError(t, err)
	assert.InDelta(t, 20.0, c.Lat, 1e-9)

	c, err = Lookup(lines, 10, Options{MaxDistance: 1})
	require.NoError(t, err)
	assert.Equal(t, Coordinate{}, c)
}

func TestInterpolate_NotFound(t *testing.T) {
	c, err := Interpolate(djiTrack("1,2"), 0, false, Options{})
	require.NoError(t, err)
	assert.Equal(t, Coordinate{}, c)
}

func TestInterpolate_MalformedPayload(t *testing.T) {
	tests := []struct {
		name  string
		lines subtitle.Lines
	}{
		{"non-numeric component", subtitle.Lines{"0:00:01", "GPS(north,127.0)"}},
		{"single field", subtitle.Lines{"0:00:01", "GPS(37.0)"}},
		{"malformed neighbour", subtitle.Lines{"GPS(abc,def)", "0:00:01", "GPS(n/a,n/a)"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Lookup(tt.lines, 1, Options{})
			require.ErrorIs(t, err, ErrMalformedPayload)
		})
	}
}

func TestPayload(t *testing.T) {
	p, ok := Payload("[iso : 100] GPS (31.2, 121.4, 22)")
	require.True(t, ok)
	assert.Equal(t, "31.2, 121.4, 22", p)

	_, ok = Payload("HOME(31.2,121.4)")
	assert.False(t, ok)
}

func TestCoordinateString(t *testing.T) {
	assert.Equal(t, "37.5,127", Coordinate{Lat: 37.5, Lon: 127, HasLat: true, HasLon: true}.String())
	assert.Equal(t, "n/a,127", Coordinate{Lon: 127, HasLon: true}.String())
	assert.Equal(t, "n/a,n/a", Coordinate{}.String())
}
