package cache

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/longevityfoodlab/citegate/internal/model"
)

func TestKey(t *testing.T) {
	key := Key("registry", "doi", "10.1001/jama.296.10.1255")

	if !strings.HasPrefix(key, "citegate:v1:") {
		t.Errorf("expected namespace prefix, got %q", key)
	}

	// Same parts, same key
	if key != Key("registry", "doi", "10.1001/jama.296.10.1255") {
		t.Error("expected deterministic keys")
	}

	// Different parts, different key
	if key == Key("registry", "pmid", "10.1001/jama.296.10.1255") {
		t.Error("expected scheme to change the key")
	}

	// Boundary ambiguity: moving a character across parts must change the key
	if Key("ab", "c") == Key("a", "bc") {
		t.Error("expected part boundaries to be significant")
	}

	// The hex digest keeps keys filesystem-safe whatever the DOI contains
	suffix := strings.TrimPrefix(key, "citegate:v1:")
	if len(suffix) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(suffix))
	}
	if strings.ContainsAny(suffix, "/\\: ") {
		t.Errorf("expected filesystem-safe key, got %q", suffix)
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		desc string
		cfg  model.CacheConfig
		want string // "nil", "memory", "layered"
	}{
		{"disabled", model.CacheConfig{Enabled: false}, "nil"},
		{"memory only", model.CacheConfig{Enabled: true, MemoryTTL: time.Minute}, "memory"},
		{"with disk dir", model.CacheConfig{Enabled: true, Dir: t.TempDir(), MemoryTTL: time.Minute, DiskTTL: time.Hour}, "layered"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			c := New(tt.cfg)
			switch tt.want {
			case "nil":
				if c != nil {
					t.Errorf("expected nil cache, got %T", c)
				}
			case "memory":
				if _, ok := c.(*MemoryCache); !ok {
					t.Errorf("expected *MemoryCache, got %T", c)
				}
			case "layered":
				if _, ok := c.(*LayeredCache); !ok {
					t.Errorf("expected *LayeredCache, got %T", c)
				}
			}
		})
	}
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	key := Key("registry", "pmid", "16968850")

	if _, found := c.Get(key); found {
		t.Error("expected miss on empty cache")
	}

	if err := c.Set(key, []byte("record"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	val, found := c.Get(key)
	if !found {
		t.Fatal("expected hit after Set")
	}
	if string(val) != "record" {
		t.Errorf("expected %q, got %q", "record", val)
	}

	if err := c.Delete(key); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, found := c.Get(key); found {
		t.Error("expected miss after Delete")
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	key := Key("registry", "doi", "10.1234/expired")

	if err := c.Set(key, []byte("stale"), 5*time.Millisecond); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// Expiry is checked lazily on Get, so no cleanup pass is needed
	time.Sleep(20 * time.Millisecond)

	if _, found := c.Get(key); found {
		t.Error("expected expired entry to miss")
	}
}

func TestDiskCache(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)
	key := Key("registry", "doi", "10.1001/jama.296.10.1255")

	if _, found := c.Get(key); found {
		t.Error("expected miss on empty cache")
	}

	if err := c.Set(key, []byte("record"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	val, found := c.Get(key)
	if !found {
		t.Fatal("expected hit after Set")
	}
	if string(val) != "record" {
		t.Errorf("expected %q, got %q", "record", val)
	}

	// The entry lands as a plain hex JSON file
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 cache file, got %d", len(entries))
	}
	name := entries[0].Name()
	if !strings.HasSuffix(name, ".json") || strings.Contains(name, ":") {
		t.Errorf("unexpected cache file name %q", name)
	}
}

func TestDiskCache_Expiry(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)
	key := Key("registry", "doi", "10.1234/expired")

	if err := c.Set(key, []byte("stale"), -time.Second); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if _, found := c.Get(key); found {
		t.Error("expected expired entry to miss")
	}

	// Expired file is removed on read
	path := filepath.Join(dir, strings.TrimPrefix(key, "citegate:v1:")+".json")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("expected expired file to be removed")
	}
}

func TestDiskCache_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	key := Key("registry", "pmid", "16968850")

	first := NewDiskCache(dir, time.Hour)
	if err := first.Set(key, []byte("persisted"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	second := NewDiskCache(dir, time.Hour)
	val, found := second.Get(key)
	if !found {
		t.Fatal("expected entry to survive a new cache instance")
	}
	if string(val) != "persisted" {
		t.Errorf("expected %q, got %q", "persisted", val)
	}
}

func TestLayeredCache_Promotion(t *testing.T) {
	dir := t.TempDir()
	key := Key("registry", "doi", "10.1234/promoted")

	// Seed only the disk layer
	disk := NewDiskCache(dir, time.Hour)
	if err := disk.Set(key, []byte("from-disk"), 0); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	layered := NewLayeredCache(time.Minute, dir, time.Hour)

	val, found := layered.Get(key)
	if !found {
		t.Fatal("expected disk hit through the layered cache")
	}
	if string(val) != "from-disk" {
		t.Errorf("expected %q, got %q", "from-disk", val)
	}

	// The hit must now be served from memory even if the disk copy goes away
	if err := disk.Delete(key); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, found := layered.Get(key); !found {
		t.Error("expected promoted entry to be served from memory")
	}
}

func TestLayeredCache_SetWritesBothLayers(t *testing.T) {
	dir := t.TempDir()
	key := Key("registry", "pmid", "29065496")

	layered := NewLayeredCache(time.Minute, dir, time.Hour)
	if err := layered.Set(key, []byte("both"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// A separate disk handle sees the write
	disk := NewDiskCache(dir, time.Hour)
	val, found := disk.Get(key)
	if !found {
		t.Fatal("expected Set to reach the disk layer")
	}
	if string(val) != "both" {
		t.Errorf("expected %q, got %q", "both", val)
	}
}

func TestLayeredCache_Clear(t *testing.T) {
	dir := t.TempDir()
	key := Key("registry", "doi", "10.1234/cleared")

	layered := NewLayeredCache(time.Minute, dir, time.Hour)
	if err := layered.Set(key, []byte("gone"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if err := layered.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	if _, found := layered.Get(key); found {
		t.Error("expected miss after Clear")
	}
}
