package iostream

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromBytesRoundTrips(t *testing.T) {
	src := FromBytes([]byte("abc"))
	data, err := io.ReadAll(src)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(data))
}

func TestToBufferCapturesWrites(t *testing.T) {
	sink, buf := ToBuffer()
	n, err := sink.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "hello", buf.String())
}

func TestNoSourceIsImmediatelyAtEOF(t *testing.T) {
	data, err := io.ReadAll(NoSource)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestNoSinkDiscardsWrites(t *testing.T) {
	n, err := NoSink.Write([]byte("ignored"))
	require.NoError(t, err)
	assert.Equal(t, len("ignored"), n)
}
