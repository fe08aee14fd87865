package termbuf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentsFormattedRoundTrip(t *testing.T) {
	src := New(80, 24)
	src.Feed([]byte("hello world\r\n"))
	src.Feed([]byte("\x1b[1;31msecond line\x1b[0m"))

	snapshot := src.ContentsFormatted()

	dst := New(80, 24)
	dst.Feed(snapshot)

	require.Equal(t, src.ContentsFormatted(), dst.ContentsFormatted())
}

func TestLateJoinClearCollapsesHistory(t *testing.T) {
	src := New(80, 24)
	for i := 0; i < 200; i++ {
		src.Feed([]byte("filler output line\r\n"))
	}
	src.Feed([]byte("\x1b[2J\x1b[H")) // clear, as a real `clear` command would emit
	src.Feed([]byte("world\r\n"))

	dst := New(80, 24)
	dst.Feed(src.ContentsFormatted())

	assert.NotContains(t, string(dst.ContentsFormatted()), "filler")
}

func TestResizeChangesSize(t *testing.T) {
	b := New(80, 24)
	b.Resize(100, 40)
	cols, rows := b.Size()
	assert.Equal(t, 100, cols)
	assert.Equal(t, 40, rows)
}
