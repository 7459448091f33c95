package player

import (
	"net/url"
	"path"
	"strings"

	"github.com/samber/lo"
)

// DerivativeMarker tags the provider's re-encoded copies of a file
// ("movie.ia.mp4" next to "movie.mov").
const DerivativeMarker = ".ia"

// GenericFormat is the media type of anything ClassifyFormat does not know
const GenericFormat = "application/octet-stream"

// DefaultExtensions is the ordered container set tried for video sources
var DefaultExtensions = []string{"mp4", "webm", "ogv", "mov"}

var containerFormats = map[string]string{
	"mp4":  "video/mp4",
	"m4v":  "video/mp4",
	"webm": "video/webm",
	"ogv":  "video/ogg",
	"mov":  "video/quicktime",
	"mkv":  "video/x-matroska",
	"avi":  "video/x-msvideo",
	"mpeg": "video/mpeg",
	"mpg":  "video/mpeg",
	"mp3":  "audio/mpeg",
	"ogg":  "audio/ogg",
	"oga":  "audio/ogg",
	"opus": "audio/opus",
	"flac": "audio/flac",
	"wav":  "audio/wav",
	"m4a":  "audio/mp4",
	"m3u8": "application/vnd.apple.mpegurl",
}

// Candidate is one URL for a track's content plus its container format
type Candidate struct {
	URL    string `json:"url"`
	Format string `json:"format"`
}

// ClassifyFormat maps a file extension (with or without the leading dot)
// to a canonical media type.
func ClassifyFormat(ext string) string {
	if f, ok := containerFormats[strings.ToLower(strings.TrimPrefix(ext, "."))]; ok {
		return f
	}
	return GenericFormat
}

// Resolver derives fallback candidates from a primary source. The zero
// value generates no fallbacks.
type Resolver struct {
	// Extensions are tried in order after the primary
	Extensions []string
	// Marker is the derivative marker; empty disables the derivative fallback
	Marker string
}

// DefaultResolver returns the resolver for the provider's video conventions
func DefaultResolver() *Resolver {
	return NewResolver(DefaultExtensions, DerivativeMarker)
}

// NewResolver normalizes extensions (lowercase, no dot, no duplicates)
func NewResolver(extensions []string, marker string) *Resolver {
	exts := lo.Map(extensions, func(e string, _ int) string {
		return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(e), "."))
	})
	exts = lo.Uniq(lo.Compact(exts))
	return &Resolver{Extensions: exts, Marker: marker}
}

// DeriveCandidates uses the default resolver
func DeriveCandidates(primary string) []Candidate {
	return DefaultResolver().DeriveCandidates(primary)
}

// Classify returns the candidate for the source itself
func (r *Resolver) Classify(source string) Candidate {
	_, name, _ := splitSource(source)
	return Candidate{URL: source, Format: ClassifyFormat(path.Ext(name))}
}

// DeriveCandidates returns the primary followed by one candidate per
// configured extension other than the primary's own, in order. When the
// primary's path lacks the derivative marker an mp4 derivative is
// appended last. A source without an extension yields only itself.
func (r *Resolver) DeriveCandidates(primary string) []Candidate {
	dir, name, rebuild := splitSource(primary)
	first := Candidate{URL: primary, Format: ClassifyFormat(path.Ext(name))}

	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	if ext == "" || base == "" {
		return []Candidate{first}
	}
	current := strings.ToLower(strings.TrimPrefix(ext, "."))

	candidates := []Candidate{first}
	for _, e := range lo.Without(r.Extensions, current) {
		candidates = append(candidates, Candidate{
			URL:    rebuild(dir + base + "." + e),
			Format: ClassifyFormat(e),
		})
	}

	// the marker counts only as a dot-delimited part of the file name
	if r.Marker != "" && !strings.Contains(name, r.Marker+".") {
		candidates = append(candidates, Candidate{
			URL:    rebuild(dir + base + r.Marker + ".mp4"),
			Format: ClassifyFormat("mp4"),
		})
	}

	return candidates
}

// splitSource splits a source into its directory (with trailing slash),
// its file name and a function that puts a rewritten path back into the
// original URL, keeping scheme, host, query and fragment.
func splitSource(source string) (dir, name string, rebuild func(string) string) {
	rebuild = func(p string) string { return p }
	p := source

	if u, err := url.Parse(source); err == nil && (u.Scheme != "" || u.RawQuery != "" || u.Fragment != "") {
		p = u.Path
		rebuild = func(np string) string {
			clone := *u
			clone.Path = np
			clone.RawPath = ""
			return clone.String()
		}
	}

	if i := strings.LastIndex(p, "/"); i >= 0 {
		return p[:i+1], p[i+1:], rebuild
	}
	return "", p, rebuild
}
