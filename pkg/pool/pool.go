// Package pool reuses the short-lived {"error"}/{"success"} message maps
// the WASM bridge marshals to JSON, avoiding one fresh allocation per
// message. The result maps of remember/recall/forget are not pooled.
package pool

import (
	"sync"
)

// MapPool pools map[string]interface{} for JSON output.
var MapPool = sync.Pool{
	New: func() interface{} {
		return make(map[string]interface{}, 8)
	},
}

// GetMap gets a map from pool.
func GetMap() map[string]interface{} {
	m := MapPool.Get().(map[string]interface{})
	for k := range m {
		delete(m, k)
	}
	return m
}

// PutMap returns a map to pool.
func PutMap(m map[string]interface{}) {
	MapPool.Put(m)
}
