package iocache

import (
	"sync"

	"github.com/huangsam/attrplot/internal/contract"
)

// CacheStoreManager holds the attribution cache and the run store.
type CacheStoreManager struct {
	sync.RWMutex // Protects the store pointers during initialization
	attributions contract.CacheStore
	runs         contract.RunStore
}

var _ contract.CacheManager = &CacheStoreManager{} // Compile-time check

// GetAttributionStore returns the attribution CacheStore, or nil when caching is off.
func (mgr *CacheStoreManager) GetAttributionStore() contract.CacheStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.attributions
}

// GetRunStore returns the RunStore, or nil when run tracking is off.
func (mgr *CacheStoreManager) GetRunStore() contract.RunStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.runs
}
