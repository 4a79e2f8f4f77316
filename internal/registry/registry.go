package registry

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"unicode"

	"gopkg.in/yaml.v3"
)

// Unknown is returned by CapitalOf when no country key matches
const Unknown = "Unknown"

//go:embed data/registry.yaml
var defaultData []byte

// Data is the on-disk shape of the registry
type Data struct {
	Countries map[string]string `yaml:"countries"` // country -> capital display name
	Aliases   map[string]string `yaml:"aliases"`   // alternative name -> country
	Cities    []string          `yaml:"cities"`
}

// Tier identifies which matching rule accepted a candidate
type Tier int

const (
	TierNone Tier = iota
	TierExact
	TierSubset
	TierContains
)

func (t Tier) String() string {
	switch t {
	case TierExact:
		return "exact"
	case TierSubset:
		return "subset"
	case TierContains:
		return "contains"
	default:
		return "none"
	}
}

// Match is the outcome of a membership test
type Match struct {
	Entry string
	Tier  Tier
}

// Found reports whether any tier accepted the candidate
func (m Match) Found() bool {
	return m.Tier != TierNone
}

// entrySet indexes normalized names for the three matching tiers
type entrySet struct {
	exact map[string]struct{}
	fuzzy []string            // longest first, then alphabetical
	words map[string][]string // multi-word entry -> tokens
}

func newEntrySet() *entrySet {
	return &entrySet{
		exact: make(map[string]struct{}),
		words: make(map[string][]string),
	}
}

func (s *entrySet) add(name string) bool {
	if name == "" {
		return false
	}
	if _, ok := s.exact[name]; ok {
		return false
	}
	s.exact[name] = struct{}{}
	s.fuzzy = append(s.fuzzy, name)
	if tokens := strings.Fields(name); len(tokens) >= 2 {
		s.words[name] = tokens
	}
	return true
}

func (s *entrySet) sort() {
	sortFuzzy(s.fuzzy)
}

// lookup applies exact, subset and containment tiers in order; strict stops after exact.
func (s *entrySet) lookup(candidate string, strict bool) Match {
	if candidate == "" {
		return Match{}
	}
	if _, ok := s.exact[candidate]; ok {
		return Match{Entry: candidate, Tier: TierExact}
	}
	if strict {
		return Match{}
	}

	if tokens := strings.Fields(candidate); len(tokens) >= 2 {
		for _, entry := range s.fuzzy {
			entryWords, ok := s.words[entry]
			if ok && allWordsIn(tokens, entryWords) {
				return Match{Entry: entry, Tier: TierSubset}
			}
		}
	}

	for _, entry := range s.fuzzy {
		if containsWords(candidate, entry) || containsWords(entry, candidate) {
			return Match{Entry: entry, Tier: TierContains}
		}
	}
	return Match{}
}

// Registry holds the known cities, countries and the country to capital mapping.
// Lookups may run concurrently; AddCity takes the write lock.
type Registry struct {
	mu          sync.RWMutex
	cities      *entrySet
	countries   *entrySet
	capitals    map[string]string
	capitalKeys []string
}

// New builds a registry from raw data. Capitals are also registered as known cities.
func New(data Data) *Registry {
	r := &Registry{
		cities:    newEntrySet(),
		countries: newEntrySet(),
		capitals:  make(map[string]string, len(data.Countries)+len(data.Aliases)),
	}

	for country, capital := range data.Countries {
		key := Normalize(country)
		if key == "" {
			continue
		}
		r.countries.add(key)
		r.capitals[key] = strings.TrimSpace(capital)
		r.cities.add(Normalize(capital))
	}

	for alias, country := range data.Aliases {
		key := Normalize(alias)
		capital, ok := r.capitals[Normalize(country)]
		if key == "" || !ok {
			continue
		}
		r.countries.add(key)
		r.capitals[key] = capital
	}

	for _, city := range data.Cities {
		r.cities.add(Normalize(city))
	}

	r.capitalKeys = make([]string, 0, len(r.capitals))
	for key := range r.capitals {
		r.capitalKeys = append(r.capitalKeys, key)
	}
	sortFuzzy(r.capitalKeys)
	r.cities.sort()
	r.countries.sort()

	return r
}

// Parse builds a registry from YAML
func Parse(raw []byte) (*Registry, error) {
	var data Data
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("error parsing registry YAML: %w", err)
	}
	if len(data.Countries) == 0 && len(data.Cities) == 0 {
		return nil, fmt.Errorf("registry data contains no countries or cities")
	}
	return New(data), nil
}

// Load reads a registry file from disk
func Load(path string) (*Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading registry file: %w", err)
	}
	return Parse(raw)
}

// Default returns the registry built from the embedded data set
func Default() (*Registry, error) {
	return Parse(defaultData)
}

// MatchCity tests a candidate against the city set. strict limits matching to the exact tier.
func (r *Registry) MatchCity(candidate string, strict bool) Match {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cities.lookup(Normalize(candidate), strict)
}

// MatchCountry tests a candidate against the country set using all three tiers
func (r *Registry) MatchCountry(candidate string) Match {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.countries.lookup(Normalize(candidate), false)
}

func (r *Registry) IsKnownCity(candidate string) bool {
	return r.MatchCity(candidate, false).Found()
}

func (r *Registry) IsKnownCountry(candidate string) bool {
	return r.MatchCountry(candidate).Found()
}

// CapitalOf resolves a country mention to its capital's display name, or Unknown
func (r *Registry) CapitalOf(country string) string {
	key := Normalize(country)
	if key == "" {
		return Unknown
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if capital, ok := r.capitals[key]; ok {
		return capital
	}
	for _, candidate := range r.capitalKeys {
		if containsWords(key, candidate) || containsWords(candidate, key) {
			return r.capitals[candidate]
		}
	}
	return Unknown
}

// AddCity registers a new city name. It reports false when the name was empty or already known.
func (r *Registry) AddCity(name string) bool {
	key := Normalize(name)

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.cities.add(key) {
		return false
	}
	r.cities.sort()
	return true
}

// Size returns the number of known cities and countries (aliases included)
func (r *Registry) Size() (cities, countries int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cities.exact), len(r.countries.exact)
}

// Normalize lowercases, trims and collapses whitespace. Punctuation other than
// hyphens and apostrophes separates words.
func Normalize(s string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-', r == '\'':
			return unicode.ToLower(r)
		default:
			return ' '
		}
	}, s)
	return strings.Join(strings.Fields(mapped), " ")
}

// containsWords reports whether needle occurs in haystack on word boundaries
func containsWords(haystack, needle string) bool {
	if needle == "" {
		return false
	}
	return strings.Contains(" "+haystack+" ", " "+needle+" ")
}

func allWordsIn(tokens, entryWords []string) bool {
	for _, token := range tokens {
		found := false
		for _, word := range entryWords {
			if token == word {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func sortFuzzy(entries []string) {
	sort.Slice(entries, func(i, j int) bool {
		if len(entries[i]) != len(entries[j]) {
			return len(entries[i]) > len(entries[j])
		}
		return entries[i] < entries[j]
	})
}
