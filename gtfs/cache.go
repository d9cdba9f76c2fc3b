package gtfs

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// cacheVersion changes whenever Index gains or loses fields
const cacheVersion = 2

// ErrStaleCache is returned for a cache written by another format version or from another source
var ErrStaleCache = errors.New("gtfs index cache is stale")

type cacheEnvelope struct {
	Version int
	Source  string
	BuiltAt time.Time
	Index   *Index
}

// EncodeIndex writes idx to w as a gob cache entry for source
func EncodeIndex(w io.Writer, source string, idx *Index) error {
	env := cacheEnvelope{Version: cacheVersion, Source: source, BuiltAt: time.Now().UTC(), Index: idx}
	if err := gob.NewEncoder(w).Encode(env); err != nil {
		return fmt.Errorf("encode gtfs index: %w", err)
	}
	return nil
}

// DecodeIndex reads a cache entry from r. An entry for a different source or format
// version yields ErrStaleCache; an empty source accepts any entry.
func DecodeIndex(r io.Reader, source string) (*Index, error) {
	var env cacheEnvelope
	if err := gob.NewDecoder(r).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode gtfs index: %w", err)
	}
	if env.Version != cacheVersion || (source != "" && env.Source != source) || env.Index == nil {
		return nil, fmt.Errorf("%w: version %d, source %q", ErrStaleCache, env.Version, env.Source)
	}
	return env.Index, nil
}

// WriteCache stores idx at path. The file is replaced atomically so a concurrent
// reader never sees a partial entry.
func WriteCache(path, source string, idx *Index) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".gtfs-index-*")
	if err != nil {
		return fmt.Errorf("create cache file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := EncodeIndex(tmp, source, idx); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write cache file: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

// ReadCache loads the index cached at path for source
func ReadCache(path, source string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeIndex(f, source)
}
