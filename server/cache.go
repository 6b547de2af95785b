package main

import (
	"encoding/json"
	"fmt"

	"github.com/quasilyte/gdata"
)

// DiskCache stores layouts in the per-user data directory
type DiskCache struct {
	m *gdata.Manager
}

// OpenDiskCache opens the app's local data store
func OpenDiskCache(appName string) (*DiskCache, error) {
	m, err := gdata.Open(gdata.Config{
		AppName: appName,
	})
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	return &DiskCache{m: m}, nil
}

func layoutKey(id string) string {
	return "layout_" + id
}

// Load returns the cached layout, or nil if none was saved
func (c *DiskCache) Load(id string) (*Layout, error) {
	data, err := c.m.LoadItem(layoutKey(id))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("parse cached layout: %w", err)
	}
	return &l, nil
}

// Save overwrites the cached layout
func (c *DiskCache) Save(id string, l *Layout) error {
	data, err := json.Marshal(l)
	if err != nil {
		return err
	}
	return c.m.SaveItem(layoutKey(id), data)
}
