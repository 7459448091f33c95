package catalog

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/metafates/gache"
	"github.com/samber/mo"
)

// itemFile is the on-disk layout of the item cache
type itemFile struct {
	Items map[string]*Item `json:"items"`
}

// ItemCache persists item metadata between runs. The whole file expires
// once its lifetime has passed.
type ItemCache struct {
	internal *gache.Cache[*itemFile]
	mu       sync.RWMutex
}

// NewItemCache opens a cache stored at path
func NewItemCache(path string, lifetime time.Duration) *ItemCache {
	return &ItemCache{
		internal: gache.New[*itemFile](&gache.Options{
			Path:       path,
			Lifetime:   lifetime,
			FileSystem: osFS{},
		}),
	}
}

// Get returns the cached item, if any
func (c *ItemCache) Get(identifier string) mo.Option[*Item] {
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, expired, err := c.internal.Get()
	if err != nil || expired || data == nil {
		return mo.None[*Item]()
	}
	if item, ok := data.Items[identifier]; ok && item != nil {
		return mo.Some(item)
	}
	return mo.None[*Item]()
}

// Set stores an item, starting a fresh file when the old one expired
func (c *ItemCache) Set(identifier string, item *Item) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, expired, err := c.internal.Get()
	if err != nil {
		return err
	}
	if expired || data == nil || data.Items == nil {
		data = &itemFile{Items: make(map[string]*Item)}
	}
	data.Items[identifier] = item
	return c.internal.Set(data)
}

// osFS backs gache with the real filesystem
type osFS struct{}

func (osFS) OpenFile(name string, flag int, perm os.FileMode) (io.ReadWriteCloser, error) {
	return os.OpenFile(name, flag, perm)
}

func (osFS) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}
