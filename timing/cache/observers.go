package cache

import (
	"github.com/sarchlab/dspsim/emu"
)

// FetchCache feeds program memory fetches into a cache.
type FetchCache struct {
	*Cache
}

var _ emu.FetchObserver = (*FetchCache)(nil)

// NewFetchCache creates a program memory cache.
func NewFetchCache(config Config) *FetchCache {
	return &FetchCache{Cache: New(config)}
}

// Fetch records an instruction fetch.
func (f *FetchCache) Fetch(pma uint16) {
	f.Read(pma)
}

// DataCache feeds data memory accesses into a cache.
type DataCache struct {
	*Cache
}

var _ emu.AccessObserver = (*DataCache)(nil)

// NewDataCache creates a data memory cache.
func NewDataCache(config Config) *DataCache {
	return &DataCache{Cache: New(config)}
}

// Access records a data memory read or write.
func (d *DataCache) Access(addr uint16, write bool) {
	if write {
		d.Write(addr)
		return
	}
	d.Read(addr)
}
