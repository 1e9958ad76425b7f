package viz

import (
	"bytes"
	"strings"
	"testing"

	"github.com/orizon-lang/hbmsim/internal/hbm"
	"github.com/orizon-lang/hbmsim/internal/sim"
	"github.com/stretchr/testify/require"
)

func TestRenderMap_FreeAndOccupied(t *testing.T) {
	a := hbm.New(10)
	require.True(t, a.Alloc("A", 5))
	out := RenderMap(a, 10)
	require.Equal(t, "AAAAA.....", out)
}

func TestRenderMap_DefaultWidthOnZero(t *testing.T) {
	a := hbm.New(10)
	out := RenderMap(a, 0)
	require.Equal(t, DefaultWidth, len(out))
}

func TestRenderMap_GlyphIsUppercaseFirstRune(t *testing.T) {
	a := hbm.New(4)
	require.True(t, a.Alloc("zebra", 4))
	out := RenderMap(a, 4)
	require.Equal(t, "ZZZZ", out)
}

func TestWriteReport_FieldOrder(t *testing.T) {
	a := hbm.New(100)
	require.True(t, a.Alloc("A", 30))

	var buf bytes.Buffer
	WriteReport(&buf, a, sim.Stats{Faults: 1, Migrations: 2, BytesMoved: 3, FallbackEpochs: 4}, false, 0)

	out := buf.String()
	order := []string{"Faults:", "Migrations:", "Bytes moved:", "Fallback epochs:", "Blocked actions:", "Fragmentation:"}
	last := -1
	for _, tag := range order {
		idx := strings.Index(out, tag)
		require.Greater(t, idx, last, "expected %q to appear after previous field", tag)
		last = idx
	}
}

func TestWriteReport_ShowMapAppendsTrailingLine(t *testing.T) {
	a := hbm.New(10)
	var buf bytes.Buffer
	WriteReport(&buf, a, sim.Stats{}, true, 10)
	require.Contains(t, buf.String(), "..........")
}
