package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cjp-luany/mw-moneycount/internal/redact"
)

// Rule-file names inside the config directory. These are externally authored;
// a missing file is initialized with an empty object and loads as empty.
const (
	TagMappingFile     = "tag_mapping.json"
	AutoTagMappingFile = "auto_tag_mapping.json"
	SensitiveWordsFile = "sensitive_words_v1.json"
)

// Pair is one rule-file entry. File order is preserved: for sensitive words
// it drives the replacement cascade, for auto rules the last-match-wins
// replay order.
type Pair struct {
	Key   string
	Value string
}

// TagRules is the manual keyword → canonical tag mapping.
type TagRules struct {
	pairs []Pair
	index map[string]string
}

// Resolve returns the canonical tag for a keyword.
func (r *TagRules) Resolve(word string) (string, bool) {
	if r == nil {
		return "", false
	}
	tag, ok := r.index[word]
	return tag, ok
}

// Words returns the known keywords in file order.
func (r *TagRules) Words() []string {
	if r == nil {
		return nil
	}
	out := make([]string, len(r.pairs))
	for i, p := range r.pairs {
		out[i] = p.Key
	}
	return out
}

// Len reports the number of mappings.
func (r *TagRules) Len() int {
	if r == nil {
		return 0
	}
	return len(r.pairs)
}

// AutoRule replays a historical source-substring → tag-word association.
type AutoRule struct {
	Pattern string // substring matched against source/note
	TagWord string // resolved through the manual TagRules
}

// Rules bundles the three rule files for one unit of work.
type Rules struct {
	Tags      *TagRules
	AutoRules []AutoRule
	Sensitive redact.WordMap
}

// LoadRules loads all rule files from dir, creating empty defaults for any
// that are absent.
func LoadRules(dir string) (Rules, error) {
	tags, err := LoadTagRules(filepath.Join(dir, TagMappingFile))
	if err != nil {
		return Rules{}, err
	}
	auto, err := LoadAutoRules(filepath.Join(dir, AutoTagMappingFile))
	if err != nil {
		return Rules{}, err
	}
	words, err := LoadSensitiveWords(filepath.Join(dir, SensitiveWordsFile))
	if err != nil {
		return Rules{}, err
	}
	return Rules{Tags: tags, AutoRules: auto, Sensitive: words}, nil
}

// LoadTagRules loads the manual keyword → tag mapping.
func LoadTagRules(path string) (*TagRules, error) {
	pairs, err := loadOrderedPairs(path)
	if err != nil {
		return nil, err
	}
	index := make(map[string]string, len(pairs))
	for _, p := range pairs {
		index[p.Key] = p.Value
	}
	return &TagRules{pairs: pairs, index: index}, nil
}

// LoadAutoRules loads the source-substring → tag-word replay list in file
// order.
func LoadAutoRules(path string) ([]AutoRule, error) {
	pairs, err := loadOrderedPairs(path)
	if err != nil {
		return nil, err
	}
	out := make([]AutoRule, len(pairs))
	for i, p := range pairs {
		out[i] = AutoRule{Pattern: p.Key, TagWord: p.Value}
	}
	return out, nil
}

// LoadSensitiveWords loads the ordered redaction word map.
func LoadSensitiveWords(path string) (redact.WordMap, error) {
	pairs, err := loadOrderedPairs(path)
	if err != nil {
		return nil, err
	}
	out := make(redact.WordMap, len(pairs))
	for i, p := range pairs {
		out[i] = redact.Rule{Pattern: p.Key, Replacement: p.Value}
	}
	return out, nil
}

// loadOrderedPairs reads a flat JSON object of string → string entries,
// preserving key order. json.Unmarshal into a map would lose the order the
// rule files rely on, so the object is walked token by token instead. A
// missing file is created holding "{}" and loads as empty.
func loadOrderedPairs(path string) ([]Pair, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if mkErr := os.MkdirAll(filepath.Dir(path), 0o755); mkErr != nil {
			return nil, fmt.Errorf("create rules dir: %w", mkErr)
		}
		if wErr := os.WriteFile(path, []byte("{}\n"), 0o644); wErr != nil {
			return nil, fmt.Errorf("write default %s: %w", filepath.Base(path), wErr)
		}
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}

	dec := json.NewDecoder(strings.NewReader(string(data)))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("parse %s: expected object, got %v", filepath.Base(path), tok)
	}

	var pairs []Pair
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("parse %s: non-string key %v", filepath.Base(path), keyTok)
		}
		valTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
		}
		val, ok := valTok.(string)
		if !ok {
			return nil, fmt.Errorf("parse %s: entry %q: non-string value %v", filepath.Base(path), key, valTok)
		}
		pairs = append(pairs, Pair{Key: key, Value: val})
	}
	return pairs, nil
}
