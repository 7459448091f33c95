package player

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func urls(cs []Candidate) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.URL)
	}
	return out
}

func TestDeriveCandidates(t *testing.T) {
	tests := []struct {
		name    string
		primary string
		want    []string
	}{
		{
			name:    "mp4 primary skips mp4",
			primary: "a/b/movie.mp4",
			want: []string{
				"a/b/movie.mp4",
				"a/b/movie.webm",
				"a/b/movie.ogv",
				"a/b/movie.mov",
				"a/b/movie.ia.mp4",
			},
		},
		{
			name:    "mov primary",
			primary: "archive/item/file.mov",
			want: []string{
				"archive/item/file.mov",
				"archive/item/file.mp4",
				"archive/item/file.webm",
				"archive/item/file.ogv",
				"archive/item/file.ia.mp4",
			},
		},
		{
			name:    "derivative primary keeps marker and adds no last resort",
			primary: "archive/item/file.ia.webm",
			want: []string{
				"archive/item/file.ia.webm",
				"archive/item/file.ia.mp4",
				"archive/item/file.ia.ogv",
				"archive/item/file.ia.mov",
			},
		},
		{
			name:    "marker inside a directory name does not count",
			primary: "download/trivia.iab/file.mov",
			want: []string{
				"download/trivia.iab/file.mov",
				"download/trivia.iab/file.mp4",
				"download/trivia.iab/file.webm",
				"download/trivia.iab/file.ogv",
				"download/trivia.iab/file.ia.mp4",
			},
		},
		{
			name:    "marker as a prefix of another name part does not count",
			primary: "item/clip.iab.mov",
			want: []string{
				"item/clip.iab.mov",
				"item/clip.iab.mp4",
				"item/clip.iab.webm",
				"item/clip.iab.ogv",
				"item/clip.iab.ia.mp4",
			},
		},
		{
			name:    "upper case extension is still excluded",
			primary: "x/CLIP.MP4",
			want: []string{
				"x/CLIP.MP4",
				"x/CLIP.webm",
				"x/CLIP.ogv",
				"x/CLIP.mov",
				"x/CLIP.ia.mp4",
			},
		},
		{
			name:    "url keeps host and query",
			primary: "https://archive.org/download/item/movie.avi?token=1",
			want: []string{
				"https://archive.org/download/item/movie.avi?token=1",
				"https://archive.org/download/item/movie.mp4?token=1",
				"https://archive.org/download/item/movie.webm?token=1",
				"https://archive.org/download/item/movie.ogv?token=1",
				"https://archive.org/download/item/movie.mov?token=1",
				"https://archive.org/download/item/movie.ia.mp4?token=1",
			},
		},
		{
			name:    "no extension yields primary only",
			primary: "archive/item/stream",
			want:    []string{"archive/item/stream"},
		},
		{
			name:    "dot file yields primary only",
			primary: "archive/item/.mp4",
			want:    []string{"archive/item/.mp4"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveCandidates(tt.primary)
			assert.Equal(t, tt.want, urls(got))
			assert.Equal(t, got, DeriveCandidates(tt.primary), "derivation must be deterministic")
		})
	}
}

func TestDeriveCandidatesFormats(t *testing.T) {
	got := DeriveCandidates("a/b/movie.mp4")
	assert.Equal(t, "video/mp4", got[0].Format)
	assert.Equal(t, "video/webm", got[1].Format)
	assert.Equal(t, "video/ogg", got[2].Format)
	assert.Equal(t, "video/quicktime", got[3].Format)
	assert.Equal(t, "video/mp4", got[4].Format)

	only := DeriveCandidates("a/b/stream")
	assert.Equal(t, GenericFormat, only[0].Format)
}

func TestResolverConfiguration(t *testing.T) {
	r := NewResolver([]string{".MP3", "ogg", "mp3", " "}, "")
	assert.Equal(t, []string{"mp3", "ogg"}, r.Extensions)
	assert.Equal(t, []string{"songs/a.flac", "songs/a.mp3", "songs/a.ogg"}, urls(r.DeriveCandidates("songs/a.flac")))

	var zero Resolver
	assert.Equal(t, []string{"songs/a.flac"}, urls(zero.DeriveCandidates("songs/a.flac")))
}

func TestClassifyFormat(t *testing.T) {
	tests := map[string]string{
		"mp4":   "video/mp4",
		".webm": "video/webm",
		"OGV":   "video/ogg",
		"mov":   "video/quicktime",
		"mp3":   "audio/mpeg",
		"flac":  "audio/flac",
		"m3u8":  "application/vnd.apple.mpegurl",
		"xyz":   GenericFormat,
		"":      GenericFormat,
	}
	for ext, want := range tests {
		assert.Equal(t, want, ClassifyFormat(ext), ext)
	}
}
