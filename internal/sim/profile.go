package sim

import (
	"fmt"
	"sort"
)

// Profile weights demand at a point of the sale window, expressed as a
// fraction of elapsed time in [0, 1). Weights are relative; the simulator
// normalizes them over all steps.
type Profile func(frac float64) float64

// Named demand shapes.
//
//	flat:         constant demand across the window
//	front_loaded: demand decays quadratically from the open
//	back_loaded:  demand ramps quadratically into the close
//	pulse:        quiet except a burst through the middle fifth
//	none:         no demand at all, pure schedule decay
var profiles = map[string]Profile{
	"flat": func(frac float64) float64 { return 1 },
	"front_loaded": func(frac float64) float64 {
		return 3 * (1 - frac) * (1 - frac)
	},
	"back_loaded": func(frac float64) float64 {
		return 3 * frac * frac
	},
	"pulse": func(frac float64) float64 {
		if frac >= 0.4 && frac < 0.6 {
			return 1
		}
		return 0.05
	},
	"none": func(frac float64) float64 { return 0 },
}

// ProfileByName resolves a demand profile.
func ProfileByName(name string) (Profile, error) {
	p, ok := profiles[name]
	if !ok {
		return nil, fmt.Errorf("unknown demand profile %q, have %v", name, ProfileNames())
	}
	return p, nil
}

// ProfileNames lists the known profiles in stable order.
func ProfileNames() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
