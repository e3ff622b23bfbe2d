// Package localcache persists the {character_id: name} map used to
// pre-resolve party-member display names before the first PartyInfo packet
// of a new session (spec.md §6, SPEC_FULL.md §9 supplement 3). Encoded as
// a YAML list of {character_id, name} records sorted by character id,
// rewritten on every change, using the same YAML library the teacher uses
// for its own config files (gopkg.in/yaml.v3).
package localcache

import (
	"fmt"
	"log/slog"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Cache is an in-memory, disk-backed character_id -> name map.
type Cache struct {
	path  string
	names map[uint64]string
	log   *slog.Logger
}

// Load reads path into a Cache, starting empty when the file is absent
// (spec.md §7: filesystem failure is logged and continues).
func Load(path string, log *slog.Logger) *Cache {
	c := &Cache{path: path, names: make(map[uint64]string), log: log}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn("local players cache: read failed", "path", path, "err", err)
		}
		return c
	}

	var onDisk []entry
	if err := yaml.Unmarshal(data, &onDisk); err != nil {
		log.Warn("local players cache: parse failed", "path", path, "err", err)
		return c
	}
	for _, e := range onDisk {
		c.names[e.CharacterID] = e.Name
	}
	return c
}

// entry is one on-disk record. A slice of entries, rather than a YAML
// mapping, is used so the sorted-by-character-id order (spec.md §6)
// survives marshal/unmarshal: Go map iteration order is randomized, so a
// plain map would not stay sorted on disk across rewrites.
type entry struct {
	CharacterID uint64 `yaml:"character_id"`
	Name        string `yaml:"name"`
}

// Get returns the cached display name for characterID, if any.
func (c *Cache) Get(characterID uint64) (string, bool) {
	name, ok := c.names[characterID]
	return name, ok
}

// Snapshot returns a copy of the full cache, suitable for passing to
// entity.Tracker.PartyInfo's localPlayersCache parameter.
func (c *Cache) Snapshot() map[uint64]string {
	out := make(map[uint64]string, len(c.names))
	for id, name := range c.names {
		out[id] = name
	}
	return out
}

// Put records (or updates) a character's display name and rewrites the
// cache file immediately (spec.md §6: "it is rewritten on every change").
// A write failure is logged and does not affect the in-memory map
// (spec.md §7).
func (c *Cache) Put(characterID uint64, name string) {
	if existing, ok := c.names[characterID]; ok && existing == name {
		return
	}
	c.names[characterID] = name
	if err := c.flush(); err != nil {
		c.log.Warn("local players cache: write failed", "path", c.path, "err", err)
	}
}

// flush rewrites the cache file as a list of entries sorted by character
// id (spec.md §6: "a sorted map, encoded as human-readable structured
// text").
func (c *Cache) flush() error {
	ids := make([]uint64, 0, len(c.names))
	for id := range c.names {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	sorted := make([]entry, 0, len(ids))
	for _, id := range ids {
		sorted = append(sorted, entry{CharacterID: id, Name: c.names[id]})
	}

	data, err := yaml.Marshal(sorted)
	if err != nil {
		return fmt.Errorf("encoding local players cache: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0o644); err != nil {
		return fmt.Errorf("writing local players cache %s: %w", c.path, err)
	}
	return nil
}
