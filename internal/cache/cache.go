// Package cache stores prune results keyed by module content so unchanged
// modules are not re-analysed.
package cache

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/zeebo/blake3"
)

// Store is the byte-level cache interface shared by disk and memory caches.
type Store interface {
	Get(key string) ([]byte, bool)
	Set(key string, data []byte) error
}

// Disk keeps one JSON file per entry, sharded by the first byte of the
// hashed key.
type Disk struct {
	dir string
	ttl time.Duration
}

// Entry is the on-disk record. Key is kept so a hash collision reads as a miss.
type Entry struct {
	Key     string    `json:"key"`
	Created time.Time `json:"created"`
	Data    []byte    `json:"data"`
}

// NewDisk opens (creating if needed) a disk cache in dir. Entries older than
// ttlHours are treated as missing; zero keeps them forever.
func NewDisk(dir string, ttlHours int) (*Disk, error) {
	if dir == "" {
		return nil, errors.New("cache directory is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Disk{dir: dir, ttl: time.Duration(ttlHours) * time.Hour}, nil
}

// Dir returns the cache root.
func (d *Disk) Dir() string {
	return d.dir
}

// HashBytes computes a BLAKE3 hash of bytes and returns it as a hex string.
func HashBytes(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ModuleKey derives the cache key of a module from its path, its content and
// a fingerprint of the options it was pruned with.
func ModuleKey(path string, content []byte, fingerprint string) string {
	return path + "\x00" + HashBytes(content) + "\x00" + fingerprint
}

// Get implements Store. Expired or unreadable entries are misses.
func (d *Disk) Get(key string) ([]byte, bool) {
	path := d.entryPath(key)
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil || e.Key != key {
		return nil, false
	}
	if d.expired(e.Created) {
		_ = os.Remove(path)
		return nil, false
	}
	return e.Data, true
}

// Set implements Store. The entry is written to a temp file and renamed so
// concurrent readers never see a partial record.
func (d *Disk) Set(key string, data []byte) error {
	raw, err := json.Marshal(Entry{Key: key, Created: time.Now(), Data: data})
	if err != nil {
		return err
	}
	path := d.entryPath(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".entry-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (d *Disk) expired(created time.Time) bool {
	return d.ttl > 0 && time.Since(created) > d.ttl
}

func (d *Disk) entryPath(key string) string {
	name := HashBytes([]byte(key))
	return filepath.Join(d.dir, name[:2], name+".json")
}

// Stats describes the contents of a disk cache.
type Stats struct {
	Dir       string        `json:"dir"`
	Entries   int           `json:"entries"`
	Expired   int           `json:"expired"`
	TotalSize int64         `json:"total_size"`
	OldestAge time.Duration `json:"oldest_age"`
}

// Stats walks the cache and counts entries, including expired ones not yet
// purged.
func (d *Disk) Stats() (*Stats, error) {
	stats := &Stats{Dir: d.dir}
	var oldest time.Time
	err := d.walk(func(path string, info fs.FileInfo) error {
		stats.Entries++
		stats.TotalSize += info.Size()
		if d.expired(info.ModTime()) {
			stats.Expired++
		}
		if oldest.IsZero() || info.ModTime().Before(oldest) {
			oldest = info.ModTime()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !oldest.IsZero() {
		stats.OldestAge = time.Since(oldest)
	}
	return stats, nil
}

// Purge deletes entries. With all unset only expired entries go.
func (d *Disk) Purge(all bool) (int, error) {
	removed := 0
	err := d.walk(func(path string, info fs.FileInfo) error {
		if !all && !d.expired(info.ModTime()) {
			return nil
		}
		if err := os.Remove(path); err != nil {
			return err
		}
		removed++
		return nil
	})
	return removed, err
}

func (d *Disk) walk(fn func(path string, info fs.FileInfo) error) error {
	return filepath.WalkDir(d.dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if entry.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return err
		}
		return fn(path, info)
	})
}
