package weather

import (
	"maps"
	"time"

	"github.com/sadopc/nexus/internal/store"
)

// CacheTTL is how long a fetched reading stays valid.
const CacheTTL = 10 * time.Minute

// CacheKey identifies one (location, units) pair in the cache map.
func CacheKey(location string, units store.Units) string {
	return location + "_" + string(units)
}

// fresh reports whether an entry stamped at ts is usable at now. An entry from
// the future, left by a clock stepping back, is not.
func fresh(ts int64, now time.Time) bool {
	age := now.UnixMilli() - ts
	return age >= 0 && age < CacheTTL.Milliseconds()
}

// Lookup returns the cached reading for location in units when it is younger
// than CacheTTL and was fetched in the same units.
func Lookup(cache store.WeatherCache, location string, units store.Units, now time.Time) (store.WeatherData, bool) {
	entry, ok := cache[CacheKey(location, units)]
	if !ok || entry.Units != units {
		return store.WeatherData{}, false
	}
	if !fresh(entry.Timestamp, now) {
		return store.WeatherData{}, false
	}
	return entry.Data, true
}

// Put returns a copy of cache with the entry for (location, units) replaced.
func Put(cache store.WeatherCache, location string, units store.Units, data store.WeatherData, now time.Time) store.WeatherCache {
	out := make(store.WeatherCache, len(cache)+1)
	maps.Copy(out, cache)
	out[CacheKey(location, units)] = store.WeatherCacheEntry{
		Data:      data,
		Timestamp: now.UnixMilli(),
		Units:     units,
	}
	return out
}

// Prune drops expired entries so the record does not grow without bound.
func Prune(cache store.WeatherCache, now time.Time) store.WeatherCache {
	out := make(store.WeatherCache, len(cache))
	for k, e := range cache {
		if fresh(e.Timestamp, now) {
			out[k] = e
		}
	}
	return out
}
