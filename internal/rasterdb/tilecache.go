package rasterdb

/*
 Copyright 2019 - 2025 Crunchy Data Solutions, Inc.
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at
      http://www.apache.org/licenses/LICENSE-2.0
 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/mappingcore/geodb/internal/log"
)

type tileCacheKey struct {
	RasterID int64
	Zoom     int
	X, Y     int64
}

// decodedTileCache is a thread-safe LRU of decoded pixel buffers keyed by
// (rasterid, zoom, x, y), so repeated queries against a hot raster don't
// re-run codec.Decode on every tile every time.
type decodedTileCache struct {
	cache *lru.Cache[tileCacheKey, []byte]

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

// CacheStats mirrors the teacher's Stats shape for the decode cache.
type CacheStats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Size      int
}

func newDecodedTileCache(maxItems int) *decodedTileCache {
	tc := &decodedTileCache{}
	cache, err := lru.NewWithEvict(maxItems, tc.onEvict)
	if err != nil {
		// maxItems is always validated positive by the caller before this
		// constructor runs.
		panic(err)
	}
	tc.cache = cache
	return tc
}

func (tc *decodedTileCache) Get(key tileCacheKey) ([]byte, bool) {
	v, ok := tc.cache.Get(key)
	if ok {
		tc.hits.Add(1)
		return v, true
	}
	tc.misses.Add(1)
	return nil, false
}

func (tc *decodedTileCache) Put(key tileCacheKey, data []byte) {
	cp := make([]byte, len(data))
	copy(cp, data)
	tc.cache.Add(key, cp)
}

func (tc *decodedTileCache) onEvict(key tileCacheKey, value []byte) {
	tc.evictions.Add(1)
	log.L().Debugf("decoded tile cache evict: raster=%d zoom=%d x=%d y=%d", key.RasterID, key.Zoom, key.X, key.Y)
}

func (tc *decodedTileCache) Stats() CacheStats {
	return CacheStats{
		Hits:      tc.hits.Load(),
		Misses:    tc.misses.Load(),
		Evictions: tc.evictions.Load(),
		Size:      tc.cache.Len(),
	}
}
