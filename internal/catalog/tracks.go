package catalog

import (
	"math"
	"net/url"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/justchokingaround/archivist/internal/player"
)

// AudioExtensions are the playable audio containers, in preference order
var AudioExtensions = []string{"mp3", "ogg", "flac", "m4a"}

// TrackOptions selects which files of an item become tracks
type TrackOptions struct {
	MediaType       MediaType
	VideoExtensions []string // preference order; defaults to player.DefaultExtensions
	AudioExtensions []string // preference order; defaults to AudioExtensions
	BaseURL         string   // download host; defaults to DefaultBaseURL
}

func (o TrackOptions) extensions() []string {
	if o.MediaType == MediaAudio {
		return lo.Ternary(len(o.AudioExtensions) > 0, o.AudioExtensions, AudioExtensions)
	}
	return lo.Ternary(len(o.VideoExtensions) > 0, o.VideoExtensions, player.DefaultExtensions)
}

// TracksFromItem turns the playable files of an item into an ordered
// playlist using the default extensions for kind
func TracksFromItem(item *Item, kind MediaType) []player.Track {
	return TracksFromItemWith(item, TrackOptions{MediaType: kind})
}

// TracksFromItemWith is TracksFromItem with explicit options.
//
// Only files with a playable extension qualify. Originals win: derivatives
// are used only when an item has no playable original, and then only one
// per source file. Malformed lengths and track numbers fall back to zero
// values and never drop a file.
func TracksFromItemWith(item *Item, opts TrackOptions) []player.Track {
	if item == nil || item.Identifier == "" {
		return nil
	}

	exts := lo.Map(opts.extensions(), func(e string, _ int) string { return strings.TrimPrefix(strings.ToLower(e), ".") })
	rank := make(map[string]int, len(exts))
	for i, e := range exts {
		if _, ok := rank[e]; !ok {
			rank[e] = i
		}
	}

	playable := lo.Filter(item.Files, func(f File, _ int) bool {
		_, ok := rank[fileExt(f.Name)]
		return ok && f.Name != ""
	})
	originals, derivatives := lo.FilterReject(playable, func(f File, _ int) bool { return !f.IsDerivative() })

	chosen := originals
	if len(chosen) == 0 {
		chosen = preferredDerivatives(derivatives, rank)
	}

	base := opts.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}

	entries := lo.Map(chosen, func(f File, _ int) trackEntry {
		return trackEntry{file: f, number: parseTrackNumber(string(f.Track))}
	})
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.number != b.number {
			return a.number < b.number
		}
		return a.file.Name < b.file.Name
	})

	album := item.Metadata.Title.String()
	creator := item.Metadata.Creator.String()
	cover := strings.TrimRight(base, "/") + "/services/img/" + url.PathEscape(item.Identifier)

	tracks := make([]player.Track, 0, len(entries))
	for _, e := range entries {
		f := e.file
		tracks = append(tracks, player.Track{
			ID:            f.Name,
			Title:         lo.CoalesceOrEmpty(f.Title.String(), fileTitle(f.Name)),
			Artist:        lo.CoalesceOrEmpty(f.Artist.String(), f.Creator.String(), creator),
			Album:         lo.CoalesceOrEmpty(f.Album.String(), album),
			PrimarySource: DownloadURL(base, item.Identifier, f.Name),
			Duration:      ParseLength(string(f.Length)),
			CoverArt:      cover,
		})
	}
	return tracks
}

type trackEntry struct {
	file   File
	number int
}

// preferredDerivatives keeps one derivative per source file, choosing the
// most preferred extension
func preferredDerivatives(files []File, rank map[string]int) []File {
	groups := lo.GroupBy(files, func(f File) string {
		return lo.CoalesceOrEmpty(f.Original.String(), f.Name)
	})
	out := make([]File, 0, len(groups))
	for _, group := range groups {
		out = append(out, lo.MinBy(group, func(a, b File) bool {
			ra, rb := rank[fileExt(a.Name)], rank[fileExt(b.Name)]
			if ra != rb {
				return ra < rb
			}
			return a.Name < b.Name
		}))
	}
	return out
}

// DownloadURL builds the download address of a file, escaping each path
// segment of the name
func DownloadURL(base, identifier, name string) string {
	segments := strings.Split(name, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.TrimRight(base, "/") + "/download/" + url.PathEscape(identifier) + "/" + strings.Join(segments, "/")
}

// ParseLength reads a file length given as seconds ("754.32") or as a
// clock ("12:34" or "1:02:03"). Unparseable values return zero.
func ParseLength(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	if !strings.Contains(s, ":") {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return 0
		}
		return v
	}

	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0
	}
	total := 0.0
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil || v < 0 {
			return 0
		}
		total = total*60 + v
	}
	return total
}

// parseTrackNumber reads "3" or "3/12"; files without a number sort last
func parseTrackNumber(s string) int {
	s, _, _ = strings.Cut(strings.TrimSpace(s), "/")
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return math.MaxInt
	}
	return n
}

func fileExt(name string) string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
}

func fileTitle(name string) string {
	base := path.Base(name)
	return strings.TrimSuffix(base, path.Ext(base))
}
