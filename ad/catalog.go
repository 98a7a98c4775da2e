package ad

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strings"
	"sync"
)

// Source reads raw ad records from a backing store
type Source interface {
	ReadAds() ([]Ad, error)
	String() string
}

// Catalog loads ads from a Source once and serves them from memory
type Catalog struct {
	source Source

	mu     sync.RWMutex
	ads    []Ad
	byID   map[ID]int
	loaded bool
}

// NewCatalog creates a catalog backed by the given source
func NewCatalog(source Source) *Catalog {
	return &Catalog{source: source}
}

// NewFileCatalog creates a catalog backed by a JSON file holding a list of ad objects
func NewFileCatalog(path string) *Catalog {
	return NewCatalog(FileSource{Path: path})
}

// Load reads and validates the catalog. A failed load is not cached.
func (c *Catalog) Load() ([]Ad, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loaded {
		return c.ads, nil
	}

	log.Printf("[catalog] Loading ads from %s", c.source)
	ads, err := c.source.ReadAds()
	if err != nil {
		log.Printf("[catalog] Failed to read ads from %s: %v", c.source, err)
		return nil, err
	}

	byID, err := validateAds(ads)
	if err != nil {
		log.Printf("[catalog] Validation failed for %s: %v", c.source, err)
		return nil, err
	}

	c.ads = ads
	c.byID = byID
	c.loaded = true
	log.Printf("[catalog] Loaded %d ads from %s", len(ads), c.source)
	return c.ads, nil
}

// GetAll returns every ad in the catalog, loading it on first access
func (c *Catalog) GetAll() ([]Ad, error) {
	ads, err := c.Load()
	if err != nil {
		return nil, err
	}
	out := make([]Ad, len(ads))
	copy(out, ads)
	return out, nil
}

// GetByID returns the ad with the given identifier.
// Digit-only strings are compared as integers first, then as strings.
func (c *Catalog) GetByID(id any) (Ad, bool, error) {
	if _, err := c.Load(); err != nil {
		return Ad{}, false, err
	}

	key, ok := ParseID(id)
	if !ok {
		return Ad{}, false, nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if i, found := c.byID[key]; found {
		return c.ads[i], true, nil
	}
	if s, isString := id.(string); isString && key.IsInt() {
		if i, found := c.byID[StringID(s)]; found {
			return c.ads[i], true, nil
		}
	}
	return Ad{}, false, nil
}

// Len returns the number of loaded ads, or zero before the first load
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.ads)
}

// validateAds checks the rules shared by every source and builds the id lookup
func validateAds(ads []Ad) (map[ID]int, error) {
	byID := make(map[ID]int, len(ads))
	for i, a := range ads {
		if a.ID.IsZero() {
			return nil, &SchemaError{Index: i, Fields: []string{"ad_id"}, Empty: true}
		}

		var empty []string
		if strings.TrimSpace(a.Tagline) == "" {
			empty = append(empty, "tagline")
		}
		if strings.TrimSpace(a.Text) == "" {
			empty = append(empty, "text")
		}
		if len(empty) > 0 {
			return nil, &SchemaError{Index: i, AdID: a.ID.String(), Fields: empty, Empty: true}
		}

		if prev, dup := byID[a.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate ad_id %s at advertisements %d and %d", ErrDataFormat, a.ID, prev, i)
		}
		byID[a.ID] = i
	}
	return byID, nil
}

// FileSource reads ads from a JSON file
type FileSource struct {
	Path string
}

func (s FileSource) String() string {
	return s.Path
}

// ReadAds parses the file and checks that every object has the required fields
func (s FileSource) ReadAds() ([]Ad, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: data file not found at: %s", ErrDataSourceNotFound, s.Path)
		}
		return nil, fmt.Errorf("error reading data file %s: %w", s.Path, err)
	}
	return ParseAds(data)
}

// ParseAds decodes a JSON list of ad objects
func ParseAds(data []byte) ([]Ad, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return nil, fmt.Errorf("%w: invalid JSON at offset %d: %v", ErrDataFormat, syntaxErr.Offset, err)
		}
		return nil, fmt.Errorf("%w: JSON data must be a list of objects", ErrDataFormat)
	}
	if items == nil {
		return nil, fmt.Errorf("%w: JSON data must be a list of objects", ErrDataFormat)
	}

	ads := make([]Ad, 0, len(items))
	for i, item := range items {
		var fields map[string]json.RawMessage
		if bytes.Equal(bytes.TrimSpace(item), []byte("null")) || json.Unmarshal(item, &fields) != nil {
			return nil, fmt.Errorf("%w: advertisement %d is not an object", ErrDataFormat, i)
		}

		var missing []string
		for _, name := range RequiredFields {
			raw, ok := fields[name]
			if !ok || (name == "ad_id" && bytes.Equal(bytes.TrimSpace(raw), []byte("null"))) {
				missing = append(missing, name)
			}
		}
		if len(missing) > 0 {
			return nil, &SchemaError{Index: i, Fields: missing}
		}

		var a Ad
		if err := json.Unmarshal(item, &a); err != nil {
			return nil, fmt.Errorf("%w: advertisement %d: %v", ErrDataFormat, i, err)
		}
		ads = append(ads, a)
	}
	return ads, nil
}
