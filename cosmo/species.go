package cosmo

import "fmt"

// Species is a matter component with its own amplitude routing and output
// channel.
type Species int

const (
	DM Species = iota
	Baryon
	Neutrino
)

func (s Species) String() string {
	switch s {
	case DM:
		return "dm"
	case Baryon:
		return "baryon"
	case Neutrino:
		return "neutrino"
	}
	return fmt.Sprintf("Species(%d)", int(s))
}

// ParseSpecies maps a config name onto a Species.
func ParseSpecies(name string) (Species, error) {
	switch name {
	case "dm":
		return DM, nil
	case "baryon":
		return Baryon, nil
	case "neutrino":
		return Neutrino, nil
	}
	return 0, fmt.Errorf("cosmo: unknown species %q", name)
}
