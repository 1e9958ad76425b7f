package trace

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadAll_BasicTrace(t *testing.T) {
	in := `
{"event":"alloc","id":"A","size":30}
{"event":"touch","id":"A","mu":0.9,"sigma":0.05}
{"event":"safe_window"}
{"event":"free","id":"A"}
`
	var kinds []Kind
	err := ReadAll(strings.NewReader(in), func(ev Event) error {
		kinds = append(kinds, ev.Kind)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []Kind{KindAlloc, KindTouch, KindSafeWindow, KindFree}, kinds)
}

func TestReadAll_UnknownEventIsNoop(t *testing.T) {
	in := `{"event":"something_else","id":"A"}
{"event":"alloc","id":"A","size":5}`
	count := 0
	err := ReadAll(strings.NewReader(in), func(ev Event) error {
		count++
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestReadAll_MalformedJSONFailsWithLineNumber(t *testing.T) {
	in := `{"event":"alloc","id":"A","size":5}
not json at all`
	err := ReadAll(strings.NewReader(in), func(ev Event) error { return nil })
	require.Error(t, err)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	require.Equal(t, 2, perr.Line)
}

func TestReadAll_AllocMissingSizeFails(t *testing.T) {
	err := ReadAll(strings.NewReader(`{"event":"alloc","id":"A"}`), func(ev Event) error { return nil })
	require.Error(t, err)
}

func TestReadAll_TouchWithoutForecastYieldsNoForecast(t *testing.T) {
	var got Event
	err := ReadAll(strings.NewReader(`{"event":"touch","id":"A"}`), func(ev Event) error {
		got = ev
		return nil
	})
	require.NoError(t, err)
	require.False(t, got.HasForecast())
}

func TestReadAll_TouchWithOnlySigmaYieldsNoForecast(t *testing.T) {
	var got Event
	err := ReadAll(strings.NewReader(`{"event":"touch","id":"A","sigma":0.1}`), func(ev Event) error {
		got = ev
		return nil
	})
	require.NoError(t, err)
	require.False(t, got.HasForecast())
}

func TestReadAll_SchemaWithinSupportedRange(t *testing.T) {
	err := ReadAll(strings.NewReader(`{"event":"alloc","id":"A","size":5,"schema":"1.0.0"}`), func(ev Event) error { return nil })
	require.NoError(t, err)
}

func TestReadAll_SchemaOutOfRangeFails(t *testing.T) {
	err := ReadAll(strings.NewReader(`{"event":"alloc","id":"A","size":5,"schema":"2.0.0"}`), func(ev Event) error { return nil })
	require.Error(t, err)
}

func TestReadAll_BlankLinesSkipped(t *testing.T) {
	in := "\n\n{\"event\":\"safe_window\"}\n\n"
	count := 0
	err := ReadAll(strings.NewReader(in), func(ev Event) error {
		count++
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, count)
}
