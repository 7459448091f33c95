package catalog

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// MediaType is the library's top-level collection kind
type MediaType string

const (
	MediaMovies MediaType = "movies"
	MediaAudio  MediaType = "audio"
)

// ParseMediaType accepts the collection names used on the command line
func ParseMediaType(s string) (MediaType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "movies", "movie", "video":
		return MediaMovies, true
	case "audio", "music", "etree":
		return MediaAudio, true
	default:
		return "", false
	}
}

// Query is a full-text library search
type Query struct {
	Text      string
	MediaType MediaType // empty searches every collection
	Page      int       // 1-based
	Rows      int
}

// SearchResult is one search hit
type SearchResult struct {
	Identifier string `json:"identifier"`
	Title      Text   `json:"title"`
	MediaType  Text   `json:"mediatype"`
	Creator    Text   `json:"creator"`
	Year       Text   `json:"year"`
	Downloads  Number `json:"downloads"`
}

// SearchPage is one page of search results
type SearchPage struct {
	Total   int
	Page    int
	Results []SearchResult
}

// Item is the metadata of one library item
type Item struct {
	Identifier string       `json:"identifier"`
	Metadata   ItemMetadata `json:"metadata"`
	Files      []File       `json:"files"`
}

// ItemMetadata holds the descriptive fields of an item
type ItemMetadata struct {
	Identifier  Text `json:"identifier"`
	Title       Text `json:"title"`
	Creator     Text `json:"creator"`
	MediaType   Text `json:"mediatype"`
	Description Text `json:"description"`
	Date        Text `json:"date"`
}

// File is one file of an item
type File struct {
	Name     string `json:"name"`
	Source   Text   `json:"source"` // original, derivative, metadata
	Format   Text   `json:"format"`
	Original Text   `json:"original"`
	Title    Text   `json:"title"`
	Creator  Text   `json:"creator"`
	Artist   Text   `json:"artist"`
	Album    Text   `json:"album"`
	Track    Text   `json:"track"`
	Length   Text   `json:"length"`
	Size     Number `json:"size"`
}

// IsDerivative reports whether the library generated the file from another
func (f File) IsDerivative() bool {
	return strings.EqualFold(string(f.Source), "derivative")
}

// Text decodes a metadata field that may arrive as a string, a list of
// strings or a number. Lists are joined with "; ". Anything else decodes
// to the empty string.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)

	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*t = Text(strings.TrimSpace(s))
		return nil
	}

	var list []string
	if err := json.Unmarshal(b, &list); err == nil {
		parts := make([]string, 0, len(list))
		for _, p := range list {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		*t = Text(strings.Join(parts, "; "))
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*t = Text(n.String())
		return nil
	}

	*t = ""
	return nil
}

func (t Text) String() string {
	return string(t)
}

// Number decodes a count that may arrive as a number or a numeric string.
// Malformed values decode to zero.
type Number int64

func (n *Number) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		*n = 0
		return nil
	}

	switch v := raw.(type) {
	case float64:
		*n = Number(v)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			*n = 0
			return nil
		}
		*n = Number(f)
	default:
		*n = 0
	}
	return nil
}
