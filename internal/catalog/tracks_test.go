package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(item *Item, opts TrackOptions) []string {
	tracks := TracksFromItemWith(item, opts)
	out := make([]string, len(tracks))
	for i, t := range tracks {
		out[i] = t.ID
	}
	return out
}

func TestTracksFromItemSelection(t *testing.T) {
	tests := []struct {
		name  string
		kind  MediaType
		files []File
		want  []string
	}{
		{
			name: "originals only",
			kind: MediaMovies,
			files: []File{
				{Name: "a.mp4", Source: "original"},
				{Name: "a.ia.mp4", Source: "derivative", Original: "a.mp4"},
				{Name: "a.ogv", Source: "derivative", Original: "a.mp4"},
				{Name: "a.srt", Source: "original"},
			},
			want: []string{"a.mp4"},
		},
		{
			name: "derivatives when no playable original",
			kind: MediaMovies,
			files: []File{
				{Name: "reel1.avi", Source: "original"},
				{Name: "reel2.avi", Source: "original"},
				{Name: "reel1.ogv", Source: "derivative", Original: "reel1.avi"},
				{Name: "reel1.mp4", Source: "derivative", Original: "reel1.avi"},
				{Name: "reel2.ogv", Source: "derivative", Original: "reel2.avi"},
			},
			want: []string{"reel1.mp4", "reel2.ogv"},
		},
		{
			name: "audio uses audio extensions",
			kind: MediaAudio,
			files: []File{
				{Name: "02 second.mp3", Source: "original", Track: "2"},
				{Name: "01 first.flac", Source: "original", Track: "1/2"},
				{Name: "cover.jpg", Source: "original"},
				{Name: "video.mp4", Source: "original"},
			},
			want: []string{"01 first.flac", "02 second.mp3"},
		},
		{
			name: "unnumbered sort last by name",
			kind: MediaAudio,
			files: []File{
				{Name: "b.mp3", Source: "original"},
				{Name: "z.mp3", Source: "original", Track: "1"},
				{Name: "a.mp3", Source: "original", Track: "bogus"},
			},
			want: []string{"z.mp3", "a.mp3", "b.mp3"},
		},
		{
			name:  "uppercase extension",
			kind:  MediaMovies,
			files: []File{{Name: "CLIP.MOV", Source: "original"}},
			want:  []string{"CLIP.MOV"},
		},
		{
			name:  "nothing playable",
			kind:  MediaMovies,
			files: []File{{Name: "notes.txt", Source: "original"}},
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := &Item{Identifier: "item", Files: tt.files}
			assert.Equal(t, tt.want, ids(item, TrackOptions{MediaType: tt.kind}))
		})
	}
}

func TestTracksFromItemFields(t *testing.T) {
	item := &Item{
		Identifier: "gd1977-05-08",
		Metadata:   ItemMetadata{Title: "Live at Barton Hall", Creator: "Grateful Dead"},
		Files: []File{
			{Name: "disc 1/Scarlet Begonias.mp3", Source: "original", Track: "3", Length: "11:27"},
			{Name: "disc 1/Minglewood.mp3", Source: "original", Track: "1", Length: "bogus", Title: "New Minglewood Blues", Artist: "GD"},
		},
	}

	tracks := TracksFromItem(item, MediaAudio)
	require.Len(t, tracks, 2)

	first := tracks[0]
	assert.Equal(t, "New Minglewood Blues", first.Title)
	assert.Equal(t, "GD", first.Artist)
	assert.Equal(t, 0.0, first.Duration, "malformed length defaults to unknown")
	assert.Equal(t, "Live at Barton Hall", first.Album)
	assert.Equal(t, "https://archive.org/services/img/gd1977-05-08", first.CoverArt)

	second := tracks[1]
	assert.Equal(t, "Scarlet Begonias", second.Title, "title falls back to the file name")
	assert.Equal(t, "Grateful Dead", second.Artist)
	assert.Equal(t, 687.0, second.Duration)
	assert.Equal(t, "https://archive.org/download/gd1977-05-08/disc%201/Scarlet%20Begonias.mp3", second.PrimarySource)
}

func TestTracksFromItemCustomExtensions(t *testing.T) {
	item := &Item{Identifier: "x", Files: []File{
		{Name: "a.mkv", Source: "original"},
		{Name: "b.mp4", Source: "original"},
	}}
	assert.Equal(t, []string{"a.mkv"}, ids(item, TrackOptions{VideoExtensions: []string{".MKV"}}))
	assert.Equal(t, []string{"a.mkv"}, ids(item, TrackOptions{VideoExtensions: []string{"mkv"}, BaseURL: "http://mirror/"}))
	assert.Equal(t, "http://mirror/download/x/a.mkv", TracksFromItemWith(item, TrackOptions{VideoExtensions: []string{"mkv"}, BaseURL: "http://mirror/"})[0].PrimarySource)
}

func TestTracksFromItemNil(t *testing.T) {
	assert.Nil(t, TracksFromItem(nil, MediaMovies))
	assert.Nil(t, TracksFromItem(&Item{}, MediaMovies))
}

func TestParseLength(t *testing.T) {
	tests := map[string]float64{
		"":         0,
		"754.32":   754.32,
		"12:34":    754,
		"1:02:03":  3723,
		"01:35:49": 5749,
		"-3":       0,
		"abc":      0,
		"1:xx":     0,
		"1:2:3:4":  0,
		" 42 ":     42,
		"NaN":      0,
	}
	for in, want := range tests {
		assert.InDelta(t, want, ParseLength(in), 1e-9, in)
	}
}

func TestDownloadURL(t *testing.T) {
	assert.Equal(t, "https://archive.org/download/id/a%23b.mp4", DownloadURL("https://archive.org/", "id", "a#b.mp4"))
	assert.Equal(t, "https://archive.org/download/id/dir/file%3F.mp4", DownloadURL("https://archive.org", "id", "dir/file?.mp4"))
}
