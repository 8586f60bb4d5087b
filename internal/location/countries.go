package location

import (
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/biter777/countries"
)

// Catalogue is a list of recognizable country names
type Catalogue interface {
	// Lookup returns the canonical country name for a loosely written name
	Lookup(name string) (string, bool)
	// Names returns every canonical country name in catalogue order
	Names() []string
}

// minLookupLength keeps two and three letter codes ("in", "at", "be") from
// being read as countries. Short forms are handled by the alias table.
const minLookupLength = 4

// ISOCatalogue is the ISO 3166 country list
type ISOCatalogue struct {
	once  sync.Once
	names []string
}

var isoCatalogue = &ISOCatalogue{}

// DefaultCatalogue returns the shared ISO 3166 catalogue
func DefaultCatalogue() *ISOCatalogue {
	return isoCatalogue
}

// Lookup resolves an English country name, official or common
func (c *ISOCatalogue) Lookup(name string) (string, bool) {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) < minLookupLength {
		return "", false
	}
	code := countries.ByName(name)
	if code == countries.Unknown {
		return "", false
	}
	return code.String(), true
}

// Names returns all ISO country names
func (c *ISOCatalogue) Names() []string {
	c.once.Do(func() {
		all := countries.All()
		c.names = make([]string, 0, len(all))
		for _, code := range all {
			name := code.String()
			if name == "" || code == countries.Unknown {
				continue
			}
			c.names = append(c.names, name)
		}
	})
	return c.names
}

// StaticCatalogue is a fixed name list, matched case-insensitively
type StaticCatalogue []string

// Lookup returns the catalogue name equal to name, ignoring case
func (s StaticCatalogue) Lookup(name string) (string, bool) {
	name = strings.TrimSpace(name)
	for _, n := range s {
		if strings.EqualFold(n, name) {
			return n, true
		}
	}
	return "", false
}

// Names returns the list as-is
func (s StaticCatalogue) Names() []string { return s }
