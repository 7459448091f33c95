package player

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFallbackWalksCandidates(t *testing.T) {
	f := NewFallback(DefaultResolver())
	f.Reset(Track{PrimarySource: "archive/item/file.mov"})

	assert.Equal(t, "archive/item/file.mov", f.Primary().URL)
	assert.Equal(t, "video/quicktime", f.Primary().Format)
	assert.Nil(t, f.Candidates(), "candidates are derived on first failure")
	assert.Equal(t, 4, f.Remaining())

	var tried []string
	for {
		c, ok := f.HandleFailure(ErrorDecode)
		if !ok {
			break
		}
		tried = append(tried, c.URL)
	}

	assert.Equal(t, []string{
		"archive/item/file.mp4",
		"archive/item/file.webm",
		"archive/item/file.ogv",
		"archive/item/file.ia.mp4",
	}, tried)
	assert.True(t, f.Exhausted())
	assert.Zero(t, f.Remaining())

	_, ok := f.HandleFailure(ErrorDecode)
	assert.False(t, ok, "exhaustion is terminal")
}

func TestFallbackRetry(t *testing.T) {
	f := NewFallback(DefaultResolver())
	f.Reset(Track{PrimarySource: "a/b.mp4"})
	for {
		if _, ok := f.HandleFailure(ErrorNetwork); !ok {
			break
		}
	}
	require.True(t, f.Exhausted())

	c := f.Retry()
	assert.Equal(t, "a/b.mp4", c.URL)
	assert.False(t, f.Exhausted())

	next, ok := f.HandleFailure(ErrorNetwork)
	require.True(t, ok)
	assert.Equal(t, "a/b.webm", next.URL, "retry restarts the walk after the primary")
}

func TestFallbackMetadataReady(t *testing.T) {
	f := NewFallback(DefaultResolver())
	f.Reset(Track{PrimarySource: "a/b.mp4"})

	assert.False(t, f.MetadataReady(), "a healthy primary is not a recovery")

	_, ok := f.HandleFailure(ErrorDecode)
	require.True(t, ok)
	assert.True(t, f.MetadataReady())
	assert.False(t, f.MetadataReady())

	// tried bookkeeping survives success
	next, ok := f.HandleFailure(ErrorDecode)
	require.True(t, ok)
	assert.Equal(t, "a/b.ogv", next.URL)

	f.Reset(Track{PrimarySource: "a/c.mp4"})
	assert.Nil(t, f.Candidates())
	assert.False(t, f.Exhausted())
}

func TestFallbackWithoutResolver(t *testing.T) {
	f := NewFallback(nil)
	f.Reset(Track{PrimarySource: "a/b.mp4"})

	_, ok := f.HandleFailure(ErrorUnknown)
	assert.False(t, ok)
	assert.True(t, f.Exhausted())
}
