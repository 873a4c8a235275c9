package track

import "fmt"

// Species identifies a particle-species hypothesis for PID evaluation.
// The value is the short code used in configs, JSON records and QA keys.
type Species string

const (
	SpeciesElectron Species = "el"
	SpeciesPion     Species = "pi"
	SpeciesKaon     Species = "ka"
	SpeciesProton   Species = "pr"
	SpeciesDeuteron Species = "de"
)

// speciesNames maps full config names to their codes.
var speciesNames = map[string]Species{
	"electron": SpeciesElectron,
	"pion":     SpeciesPion,
	"kaon":     SpeciesKaon,
	"proton":   SpeciesProton,
	"deuteron": SpeciesDeuteron,
}

// AllSpecies returns the species catalogue in canonical order.
func AllSpecies() []Species {
	return []Species{SpeciesElectron, SpeciesPion, SpeciesKaon, SpeciesProton, SpeciesDeuteron}
}

// Valid reports whether s is a catalogued species code.
func (s Species) Valid() bool {
	switch s {
	case SpeciesElectron, SpeciesPion, SpeciesKaon, SpeciesProton, SpeciesDeuteron:
		return true
	}
	return false
}

// String implements fmt.Stringer with the short code.
func (s Species) String() string {
	return string(s)
}

// ParseSpecies resolves a short code or full name ("pi" or "pion") to a
// species, rejecting anything outside the catalogue.
func ParseSpecies(name string) (Species, error) {
	if s := Species(name); s.Valid() {
		return s, nil
	}
	if s, ok := speciesNames[name]; ok {
		return s, nil
	}
	return "", fmt.Errorf("track: unknown species %q", name)
}
