package location

import (
	"sort"
	"strings"
	"sync"
)

// Alias maps a lowercase country alias to its canonical country name
type Alias struct {
	Alias     string
	Canonical string
}

// Tables holds the static place tables. A Tables value is read-only after
// construction and safe to share between goroutines.
type Tables struct {
	aliases  []Alias
	aliasMap map[string]string
	cities   map[string]string
	cityKeys []string // sorted, for deterministic fuzzy matching
}

// NewTables builds lookup tables from an ordered alias list and a city→country map.
// Keys are lowercased.
func NewTables(aliases []Alias, cities map[string]string) *Tables {
	t := &Tables{
		aliases:  make([]Alias, 0, len(aliases)),
		aliasMap: make(map[string]string, len(aliases)),
		cities:   make(map[string]string, len(cities)),
		cityKeys: make([]string, 0, len(cities)),
	}
	for _, a := range aliases {
		key := strings.ToLower(strings.TrimSpace(a.Alias))
		if _, dup := t.aliasMap[key]; dup || key == "" {
			continue
		}
		t.aliases = append(t.aliases, Alias{Alias: key, Canonical: a.Canonical})
		t.aliasMap[key] = a.Canonical
	}
	for city, country := range cities {
		key := strings.ToLower(strings.TrimSpace(city))
		if key == "" {
			continue
		}
		if _, dup := t.cities[key]; !dup {
			t.cityKeys = append(t.cityKeys, key)
		}
		t.cities[key] = country
	}
	sort.Strings(t.cityKeys)
	return t
}

// Aliases returns the aliases in table order
func (t *Tables) Aliases() []Alias { return t.aliases }

// AliasCountry returns the canonical country for an exact lowercase alias
func (t *Tables) AliasCountry(alias string) (string, bool) {
	c, ok := t.aliasMap[alias]
	return c, ok
}

// CityCountry returns the country for an exact lowercase city name
func (t *Tables) CityCountry(city string) (string, bool) {
	c, ok := t.cities[city]
	return c, ok
}

// CityKeys returns all known lowercase city names, sorted
func (t *Tables) CityKeys() []string { return t.cityKeys }

// WithCatalogue returns a copy of t with alias targets and city countries
// spelled the way cat spells them. Names cat does not know are kept.
func (t *Tables) WithCatalogue(cat Catalogue) *Tables {
	canonical := func(name string) string {
		if c, ok := cat.Lookup(name); ok {
			return c
		}
		return name
	}
	out := &Tables{
		aliases:  make([]Alias, len(t.aliases)),
		aliasMap: make(map[string]string, len(t.aliasMap)),
		cities:   make(map[string]string, len(t.cities)),
		cityKeys: t.cityKeys,
	}
	for i, a := range t.aliases {
		a.Canonical = canonical(a.Canonical)
		out.aliases[i] = a
		out.aliasMap[a.Alias] = a.Canonical
	}
	for city, country := range t.cities {
		out.cities[city] = canonical(country)
	}
	return out
}

var (
	defaultTables     *Tables
	defaultTablesOnce sync.Once
)

// DefaultTables returns the shared built-in tables
func DefaultTables() *Tables {
	defaultTablesOnce.Do(func() {
		defaultTables = NewTables(countryAliases, cityToCountry)
	})
	return defaultTables
}

// countryAliases is checked in order; earlier entries win
var countryAliases = []Alias{
	{"us", "United States"},
	{"usa", "United States"},
	{"u.s.", "United States"},
	{"u.s.a", "United States"},
	{"u.s.a.", "United States"},
	{"united states of america", "United States"},
	{"uk", "United Kingdom"},
	{"u.k.", "United Kingdom"},
	{"great britain", "United Kingdom"},
	{"england", "United Kingdom"},
	{"scotland", "United Kingdom"},
	{"wales", "United Kingdom"},
	{"northern ireland", "United Kingdom"},
	{"uae", "United Arab Emirates"},
	{"u.a.e.", "United Arab Emirates"},
	{"sl", "Sri Lanka"},
	{"lka", "Sri Lanka"},
	{"south korea", "Republic of Korea"},
	{"north korea", "Democratic People's Republic of Korea"},
}

// cityToCountry seeds city resolution; extend as new markets appear
var cityToCountry = map[string]string{
	// Sri Lanka
	"colombo": "Sri Lanka", "galle": "Sri Lanka", "kandy": "Sri Lanka", "jaffna": "Sri Lanka",
	"negombo": "Sri Lanka", "matara": "Sri Lanka", "kurunegala": "Sri Lanka", "gampaha": "Sri Lanka",
	"moratuwa": "Sri Lanka", "dehiwala": "Sri Lanka",
	// United Kingdom
	"london": "United Kingdom", "manchester": "United Kingdom", "birmingham": "United Kingdom",
	"edinburgh": "United Kingdom", "glasgow": "United Kingdom",
	// United States
	"new york": "United States", "los angeles": "United States", "san francisco": "United States",
	"seattle": "United States", "chicago": "United States", "boston": "United States",
	"austin": "United States",
	// United Arab Emirates
	"dubai": "United Arab Emirates", "abu dhabi": "United Arab Emirates",
	// Canada
	"toronto": "Canada", "vancouver": "Canada", "montreal": "Canada",
	// Australia
	"sydney": "Australia", "melbourne": "Australia", "brisbane": "Australia",
	// Singapore
	"singapore": "Singapore",
	// Germany
	"berlin": "Germany", "munich": "Germany", "hamburg": "Germany",
	// France
	"paris": "France", "lyon": "France",
	// Netherlands
	"amsterdam": "Netherlands", "rotterdam": "Netherlands",
	// India
	"mumbai": "India", "bangalore": "India", "bengaluru": "India", "delhi": "India",
	"chennai": "India", "hyderabad": "India", "pune": "India",
}
