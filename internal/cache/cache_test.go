package cache

import (
	"bytes"
	"testing"
	"time"
)

func TestKey(t *testing.T) {
	a := Key("https://example.com/mods/night-sky")
	b := Key("https://example.com/mods/night-sky")
	c := Key("https://example.com/mods/other")

	if a != b {
		t.Error("same URL must produce the same key")
	}
	if a == c {
		t.Error("distinct URLs must produce distinct keys")
	}
	if len(a) == 0 || a[:12] != "modtriage:v1" {
		t.Errorf("key missing namespace prefix: %q", a)
	}
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	if _, found := c.Get("missing"); found {
		t.Error("unexpected hit on empty cache")
	}

	if err := c.Set("k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	got, found := c.Get("k")
	if !found || !bytes.Equal(got, []byte("v")) {
		t.Errorf("get = (%q, %v)", got, found)
	}

	if err := c.Delete("k"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, found := c.Get("k"); found {
		t.Error("hit after delete")
	}
}

func TestDiskCache(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Minute)

	if err := c.Set("k", []byte("persisted"), time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	// A fresh instance over the same directory sees the entry
	c2 := NewDiskCache(dir, time.Minute)
	got, found := c2.Get("k")
	if !found || !bytes.Equal(got, []byte("persisted")) {
		t.Errorf("get = (%q, %v)", got, found)
	}
}

func TestDiskCache_Expiry(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Minute)

	if err := c.Set("k", []byte("v"), -time.Second); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if _, found := c.Get("k"); found {
		t.Error("expired entry served")
	}
}

func TestLayeredCache_Promotion(t *testing.T) {
	dir := t.TempDir()

	first := NewLayeredCache(time.Minute, dir, time.Minute)
	if err := first.Set("k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	// A new process has a cold memory layer and finds the entry on disk
	second := NewLayeredCache(time.Minute, dir, time.Minute)
	got, found := second.Get("k")
	if !found || !bytes.Equal(got, []byte("v")) {
		t.Fatalf("disk lookup = (%q, %v)", got, found)
	}
}
