package pagefile

import (
	"container/list"
	"sync"

	"go.uber.org/zap"

	"github.com/kadedb/kadedb"
)

type cacheEntry struct {
	page     *Page
	dirty    bool
	pinCount int
	elem     *list.Element
}

// PageManager is the buffer-managed page cache (LRU buffer pool) in
// front of a FileManager: fetched pages are cached up to cacheSize,
// evicting the least-recently-used unpinned page when full. Page id
// reuse itself is owned entirely by the FileManager's on-disk free
// list (§4.L); the PageManager only ever caches pages, so it does not
// keep a second, parallel free-id list that could drift out of sync
// with the FileManager's.
type PageManager struct {
	mu        sync.Mutex
	fm        *FileManager
	cacheSize int
	cache     map[PageID]*cacheEntry
	lru       *list.List // front = most recently used
	log       *zap.SugaredLogger
}

// NewPageManager returns a PageManager fronting fm with room for
// cacheSize pages.
func NewPageManager(fm *FileManager, cacheSize int, log *zap.SugaredLogger) *PageManager {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &PageManager{
		fm:        fm,
		cacheSize: cacheSize,
		cache:     make(map[PageID]*cacheEntry),
		lru:       list.New(),
		log:       log,
	}
}

func (pm *PageManager) touch(entry *cacheEntry) {
	pm.lru.MoveToFront(entry.elem)
}

// FetchPage returns the page for id, from cache if present, else
// reading it from the FileManager and admitting it to the cache
// (evicting if necessary).
func (pm *PageManager) FetchPage(id PageID) (*Page, error) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if e, ok := pm.cache[id]; ok {
		pm.touch(e)
		return e.page, nil
	}

	p, err := pm.fm.ReadPage(id)
	if err != nil {
		return nil, err
	}
	if err := pm.admitLocked(id, p, false); err != nil {
		return nil, err
	}
	return p, nil
}

// NewPage allocates a fresh page via the FileManager (which itself
// consults its own free list before extending the file) and admits it
// to the cache.
func (pm *PageManager) NewPage(typ PageType) (*Page, error) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	p, err := pm.fm.AllocatePage(typ)
	if err != nil {
		return nil, err
	}
	if err := pm.admitLocked(p.ID(), p, true); err != nil {
		return nil, err
	}
	return p, nil
}

// admitLocked inserts page into the cache, evicting first if the
// cache is already at capacity. Caller holds pm.mu.
func (pm *PageManager) admitLocked(id PageID, page *Page, dirty bool) error {
	if len(pm.cache) >= pm.cacheSize {
		if err := pm.evictOneLocked(); err != nil {
			return err
		}
	}
	elem := pm.lru.PushFront(id)
	pm.cache[id] = &cacheEntry{page: page, dirty: dirty, elem: elem}
	return nil
}

// evictOneLocked walks the LRU list from the back, skipping pinned
// pages, and evicts the first unpinned one found.
func (pm *PageManager) evictOneLocked() error {
	for e := pm.lru.Back(); e != nil; e = e.Prev() {
		id := e.Value.(PageID)
		entry := pm.cache[id]
		if entry.pinCount > 0 {
			continue
		}
		if entry.dirty {
			if err := pm.fm.WritePage(entry.page); err != nil {
				return err
			}
		}
		pm.lru.Remove(e)
		delete(pm.cache, id)
		pm.log.Debugw("evicted page", "page", id, "wasDirty", entry.dirty)
		return nil
	}
	return kadedb.NewEngineError(kadedb.FailedPrecondition, "buffer pool full: no unpinned page available to evict")
}

// MarkDirty marks the cached page id as dirty, touching its LRU entry.
func (pm *PageManager) MarkDirty(id PageID) error {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	e, ok := pm.cache[id]
	if !ok {
		return kadedb.NewEngineError(kadedb.NotFound, "page %d is not cached", id)
	}
	e.dirty = true
	h := e.page.Header()
	h.setDirty(true)
	e.page.SetHeader(h)
	pm.touch(e)
	return nil
}

// Pin increments id's pin count, preventing it from being evicted.
func (pm *PageManager) Pin(id PageID) error {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	e, ok := pm.cache[id]
	if !ok {
		return kadedb.NewEngineError(kadedb.NotFound, "page %d is not cached", id)
	}
	e.pinCount++
	return nil
}

// Unpin decrements id's pin count, making it eligible for eviction
// again once it reaches zero.
func (pm *PageManager) Unpin(id PageID) error {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	e, ok := pm.cache[id]
	if !ok {
		return kadedb.NewEngineError(kadedb.NotFound, "page %d is not cached", id)
	}
	if e.pinCount > 0 {
		e.pinCount--
	}
	return nil
}

// WritePage writes the cached page id to disk if it is dirty or force
// is set, clearing the dirty flag on both the cache entry and the
// page's own header, and touches its LRU entry.
func (pm *PageManager) WritePage(id PageID, force bool) error {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	e, ok := pm.cache[id]
	if !ok {
		return kadedb.NewEngineError(kadedb.NotFound, "page %d is not cached", id)
	}
	if e.dirty || force {
		if err := pm.fm.WritePage(e.page); err != nil {
			return err
		}
		e.dirty = false
		h := e.page.Header()
		h.setDirty(false)
		e.page.SetHeader(h)
	}
	pm.touch(e)
	return nil
}

// FlushAll writes every dirty cached page to disk, then flushes the
// underlying FileManager.
func (pm *PageManager) FlushAll() error {
	pm.mu.Lock()
	ids := make([]PageID, 0, len(pm.cache))
	for id, e := range pm.cache {
		if e.dirty {
			ids = append(ids, id)
		}
	}
	pm.mu.Unlock()

	for _, id := range ids {
		if err := pm.WritePage(id, false); err != nil {
			return err
		}
	}
	pm.log.Debugw("flushed buffer pool", "dirtyPagesWritten", len(ids))
	return pm.fm.Flush()
}

// FreePage writes back id if cached and dirty, drops it from the
// cache, and returns it to the FileManager's free list.
func (pm *PageManager) FreePage(id PageID) error {
	pm.mu.Lock()
	if e, ok := pm.cache[id]; ok {
		if e.dirty {
			if err := pm.fm.WritePage(e.page); err != nil {
				pm.mu.Unlock()
				return err
			}
		}
		pm.lru.Remove(e.elem)
		delete(pm.cache, id)
	}
	pm.mu.Unlock()

	return pm.fm.FreePage(id)
}

// CacheSize reports how many pages are currently cached.
func (pm *PageManager) CacheSize() int {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	return len(pm.cache)
}
