package registry

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	return New(Data{
		Countries: map[string]string{
			"France":               "Paris",
			"United Arab Emirates": "Abu Dhabi",
			"United Kingdom":       "London",
			"South Korea":          "Seoul",
			"North Korea":          "Pyongyang",
			"Japan":                "Tokyo",
		},
		Aliases: map[string]string{
			"UAE":   "United Arab Emirates",
			"Korea": "South Korea",
			"Nope":  "Atlantis",
		},
		Cities: []string{"New York", "Rio de Janeiro", "Dubai", "Los Angeles"},
	})
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Paris ", "paris"},
		{"NEW   York", "new york"},
		{"Washington, D.C.", "washington d c"},
		{"Côte d'Ivoire", "côte d'ivoire"},
		{"Abu-Dhabi?", "abu-dhabi"},
		{"", ""},
		{" \t ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestMatchCity_Tiers(t *testing.T) {
	r := testRegistry(t)

	tests := []struct {
		name      string
		candidate string
		strict    bool
		wantTier  Tier
		wantEntry string
	}{
		{"exact", "dubai", false, TierExact, "dubai"},
		{"exact ignores case and space", "  DUBAI ", false, TierExact, "dubai"},
		{"capital registered as city", "Abu Dhabi", false, TierExact, "abu dhabi"},
		{"subset is order independent", "york new", false, TierSubset, "new york"},
		{"subset with partial words", "rio janeiro", false, TierSubset, "rio de janeiro"},
		{"candidate contains entry", "downtown los angeles", false, TierContains, "los angeles"},
		{"entry contains candidate", "angeles", false, TierContains, "los angeles"},
		{"no partial word containment", "dub", false, TierNone, ""},
		{"unknown", "atlantis", false, TierNone, ""},
		{"empty", "", false, TierNone, ""},
		{"strict accepts exact", "new york", true, TierExact, "new york"},
		{"strict rejects subset", "york new", true, TierNone, ""},
		{"strict rejects containment", "angeles", true, TierNone, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := r.MatchCity(tt.candidate, tt.strict)
			assert.Equal(t, tt.wantTier, m.Tier)
			assert.Equal(t, tt.wantEntry, m.Entry)
		})
	}
}

func TestMatchCountry(t *testing.T) {
	r := testRegistry(t)

	assert.True(t, r.IsKnownCountry("France"))
	assert.True(t, r.IsKnownCountry("united arab emirates"))
	assert.True(t, r.IsKnownCountry("arab emirates"), "subset tier")
	assert.True(t, r.IsKnownCountry("paris, france"), "containment tier")
	assert.True(t, r.IsKnownCountry("uae"), "alias")
	assert.False(t, r.IsKnownCountry("nope"), "alias to unknown country is dropped")
	assert.False(t, r.IsKnownCountry("Paris"))
	assert.False(t, r.IsKnownCountry("Atlantis"))

	assert.Equal(t, TierSubset, r.MatchCountry("emirates arab").Tier)
}

func TestCapitalOf(t *testing.T) {
	r := testRegistry(t)

	tests := []struct {
		country string
		want    string
	}{
		{"France", "Paris"},
		{"united arab emirates", "Abu Dhabi"},
		{"UAE", "Abu Dhabi"},
		{"Korea", "Seoul"},
		{"north korea", "Pyongyang"},
		{"paris france", "Paris"},
		{"emirates", "Abu Dhabi"},
		{"Atlantis", Unknown},
		{"", Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.country, func(t *testing.T) {
			assert.Equal(t, tt.want, r.CapitalOf(tt.country))
		})
	}
}

func TestAddCity(t *testing.T) {
	r := testRegistry(t)

	assert.False(t, r.IsKnownCity("Gotham"))
	assert.True(t, r.AddCity(" Gotham "))
	assert.True(t, r.IsKnownCity("gotham"))
	assert.False(t, r.AddCity("GOTHAM"), "duplicate")
	assert.False(t, r.AddCity("  "), "empty")
}

func TestAddCity_ConcurrentWithLookups(t *testing.T) {
	r := testRegistry(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			r.AddCity(string(rune('a'+i)) + " town")
		}(i)
		go func() {
			defer wg.Done()
			_ = r.IsKnownCity("new york")
			_ = r.CapitalOf("france")
		}()
	}
	wg.Wait()

	cities, _ := r.Size()
	assert.Equal(t, 4+6+8, cities)
}

func TestDefault(t *testing.T) {
	r, err := Default()
	require.NoError(t, err)

	assert.Equal(t, "Abu Dhabi", r.CapitalOf("United Arab Emirates"))
	assert.Equal(t, "Paris", r.CapitalOf("France"))
	assert.True(t, r.IsKnownCity("Paris"))
	assert.True(t, r.IsKnownCity("New York"))
	assert.False(t, r.IsKnownCity("Atlantis"))
	assert.False(t, r.IsKnownCountry("Atlantis"))
	assert.False(t, r.IsKnownCountry("Paris"))
	assert.False(t, r.IsKnownCountry("Tirana"), "word boundaries keep Iran out of Tirana")
	assert.Equal(t, "Washington", r.CapitalOf("United States of America"))
	for _, region := range []string{"South America", "Latin America", "Central America"} {
		assert.False(t, r.IsKnownCountry(region), region)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "registry.yaml")
	require.NoError(t, os.WriteFile(path, []byte("countries:\n  Narnia: Cair Paravel\ncities:\n  - Archenland\n"), 0o644))

	r, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Cair Paravel", r.CapitalOf("narnia"))
	assert.True(t, r.IsKnownCity("archenland"))

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	_, err = Parse([]byte("cities: []\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("countries: [unclosed"))
	assert.Error(t, err)
}
