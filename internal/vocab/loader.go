// Package vocab provides the keyword vocabularies used by scoring, filtering and detection.
// Vocabularies are stored as JSON files and embedded at compile time.
package vocab

import (
	"embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
)

//go:embed *.json
var vocabFiles embed.FS

// cache stores parsed vocabulary files to avoid repeated JSON parsing
var (
	cache   = make(map[string]map[string][]string)
	cacheMu sync.RWMutex
)

// Get retrieves a word list by file name and key.
// The name may omit the ".json" extension (e.g., "domains").
func Get(name, key string) ([]string, error) {
	lists, err := loadFile(name)
	if err != nil {
		return nil, err
	}

	words, exists := lists[key]
	if !exists {
		return nil, fmt.Errorf("vocabulary key %q not found in %s", key, name)
	}

	return words, nil
}

// MustGet retrieves a word list, panicking if not found.
// Use this for vocabularies that are required at initialization time.
func MustGet(name, key string) []string {
	words, err := Get(name, key)
	if err != nil {
		panic(fmt.Sprintf("failed to load vocabulary: %v", err))
	}
	return words
}

// Set returns a word list as a lookup set of lower-cased entries.
func Set(name, key string) map[string]bool {
	words := MustGet(name, key)
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[strings.ToLower(w)] = true
	}
	return set
}

// loadFile loads and caches a vocabulary file.
func loadFile(name string) (map[string][]string, error) {
	if !strings.HasSuffix(name, ".json") {
		name += ".json"
	}

	cacheMu.RLock()
	if lists, exists := cache[name]; exists {
		cacheMu.RUnlock()
		return lists, nil
	}
	cacheMu.RUnlock()

	data, err := vocabFiles.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read vocabulary file %s: %w", name, err)
	}

	var lists map[string][]string
	if err := json.Unmarshal(data, &lists); err != nil {
		return nil, fmt.Errorf("failed to parse vocabulary file %s: %w", name, err)
	}

	cacheMu.Lock()
	cache[name] = lists
	cacheMu.Unlock()

	return lists, nil
}

// ClearCache clears the vocabulary cache. Useful for testing.
func ClearCache() {
	cacheMu.Lock()
	cache = make(map[string]map[string][]string)
	cacheMu.Unlock()
}

// List returns all keys in a file, sorted.
func List(name string) ([]string, error) {
	lists, err := loadFile(name)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(lists))
	for key := range lists {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}
