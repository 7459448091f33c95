package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const metadataJSON = `{
  "metadata": {
    "identifier": "night_of_the_living_dead",
    "title": "Night of the Living Dead",
    "creator": ["George A. Romero", "Image Ten"],
    "mediatype": "movies",
    "date": 1968
  },
  "files": [
    {"name": "night.avi", "source": "original", "format": "AVI", "length": "5749.00"},
    {"name": "night.mp4", "source": "original", "format": "MPEG4", "length": "01:35:49", "title": "Night"},
    {"name": "night.ia.mp4", "source": "derivative", "original": "night.avi"},
    {"name": "night_meta.xml", "source": "metadata"}
  ]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Options{BaseURL: server.URL, MaxRetries: 1, Timeout: 5 * time.Second})
}

func TestSearch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/advancedsearch.php", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "(night of the living dead) AND mediatype:(movies)", q.Get("q"))
		assert.Equal(t, "2", q.Get("page"))
		assert.Equal(t, "10", q.Get("rows"))
		assert.Equal(t, "json", q.Get("output"))
		assert.Contains(t, q["fl[]"], "identifier")
		_, _ = w.Write([]byte(`{"response":{"numFound":42,"start":10,"docs":[
			{"identifier":"night_of_the_living_dead","title":"Night of the Living Dead","mediatype":"movies","downloads":"1500","year":1968,"creator":["A","B"]},
			{"identifier":"untitled","downloads":3},
			{"title":"no identifier"}
		]}}`))
	})

	page, err := c.Search(context.Background(), Query{Text: "night of the living dead", MediaType: MediaMovies, Page: 2, Rows: 10})
	require.NoError(t, err)

	assert.Equal(t, 42, page.Total)
	assert.Equal(t, 2, page.Page)
	require.Len(t, page.Results, 2, "hits without identifier are dropped")

	first := page.Results[0]
	assert.Equal(t, Number(1500), first.Downloads)
	assert.Equal(t, Text("1968"), first.Year)
	assert.Equal(t, Text("A; B"), first.Creator)
	assert.Equal(t, Text("untitled"), page.Results[1].Title, "title defaults to the identifier")
}

func TestSearchRejectsEmptyQuery(t *testing.T) {
	c := NewClient(Options{})
	_, err := c.Search(context.Background(), Query{Text: "  "})
	assert.Error(t, err)
}

func TestItem(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/metadata/night_of_the_living_dead":
			_, _ = w.Write([]byte(metadataJSON))
		case "/metadata/empty":
			_, _ = w.Write([]byte(`{}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	ctx := context.Background()

	item, err := c.Item(ctx, "night_of_the_living_dead")
	require.NoError(t, err)
	assert.Equal(t, "night_of_the_living_dead", item.Identifier)
	assert.Equal(t, Text("George A. Romero; Image Ten"), item.Metadata.Creator)
	assert.Equal(t, Text("1968"), item.Metadata.Date)
	assert.Len(t, item.Files, 4)

	_, err = c.Item(ctx, "empty")
	assert.ErrorIs(t, err, ErrItemNotFound)

	_, err = c.Item(ctx, "missing")
	assert.ErrorIs(t, err, ErrItemNotFound)

	_, err = c.Item(ctx, "")
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestItemUsesCache(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(metadataJSON))
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "items.json")
	cache := NewItemCache(path, time.Hour)
	c := NewClient(Options{BaseURL: server.URL, Cache: cache})
	ctx := context.Background()

	_, err := c.Item(ctx, "night_of_the_living_dead")
	require.NoError(t, err)
	item, err := c.Item(ctx, "night_of_the_living_dead")
	require.NoError(t, err)

	assert.Equal(t, int32(1), hits.Load())
	assert.Equal(t, "Night of the Living Dead", item.Metadata.Title.String())

	// a second cache on the same file sees the stored item
	reopened := NewItemCache(path, time.Hour)
	assert.True(t, reopened.Get("night_of_the_living_dead").IsPresent())
	assert.True(t, reopened.Get("other").IsAbsent())
}

func TestClientTracks(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(metadataJSON))
	})

	item, tracks, err := c.Tracks(context.Background(), "night_of_the_living_dead", TrackOptions{})
	require.NoError(t, err)
	assert.Equal(t, "night_of_the_living_dead", item.Identifier)

	require.Len(t, tracks, 1, "only the playable original")
	tr := tracks[0]
	assert.Equal(t, "night.mp4", tr.ID)
	assert.Equal(t, "Night", tr.Title)
	assert.Equal(t, "George A. Romero; Image Ten", tr.Artist)
	assert.Equal(t, "Night of the Living Dead", tr.Album)
	assert.Equal(t, c.BaseURL()+"/download/night_of_the_living_dead/night.mp4", tr.PrimarySource)
	assert.Equal(t, 5749.0, tr.Duration)

	_, err = tr.Validate()
	assert.NoError(t, err)
}

func TestTextAndNumberDecoding(t *testing.T) {
	var v struct {
		A Text   `json:"a"`
		B Text   `json:"b"`
		C Text   `json:"c"`
		D Text   `json:"d"`
		E Number `json:"e"`
		F Number `json:"f"`
		G Number `json:"g"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":" x ","b":["p","","q"],"c":12.5,"d":{"nested":1},"e":"17","f":"lots","g":[1]}`), &v))

	assert.Equal(t, Text("x"), v.A)
	assert.Equal(t, Text("p; q"), v.B)
	assert.Equal(t, Text("12.5"), v.C)
	assert.Equal(t, Text(""), v.D)
	assert.Equal(t, Number(17), v.E)
	assert.Equal(t, Number(0), v.F)
	assert.Equal(t, Number(0), v.G)
}

func TestParseMediaType(t *testing.T) {
	tests := []struct {
		in   string
		want MediaType
		ok   bool
	}{
		{"movies", MediaMovies, true},
		{"Video", MediaMovies, true},
		{"audio", MediaAudio, true},
		{"etree", MediaAudio, true},
		{"texts", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseMediaType(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
	}
}
