package sim

import (
	"testing"
)

func TestProfileByName(t *testing.T) {
	for _, name := range ProfileNames() {
		if _, err := ProfileByName(name); err != nil {
			t.Fatalf("known profile %q rejected: %v", name, err)
		}
	}
	if _, err := ProfileByName("spiky"); err == nil {
		t.Fatalf("unknown profile accepted")
	}
}

func TestProfileShapes(t *testing.T) {
	flat, _ := ProfileByName("flat")
	if flat(0) != flat(0.9) {
		t.Fatalf("flat profile is not constant")
	}

	front, _ := ProfileByName("front_loaded")
	if front(0.1) <= front(0.9) {
		t.Fatalf("front_loaded demand does not decay")
	}

	back, _ := ProfileByName("back_loaded")
	if back(0.1) >= back(0.9) {
		t.Fatalf("back_loaded demand does not ramp")
	}

	pulse, _ := ProfileByName("pulse")
	if pulse(0.5) <= pulse(0.1) {
		t.Fatalf("pulse has no burst in the middle")
	}

	none, _ := ProfileByName("none")
	for _, frac := range []float64{0, 0.3, 0.99} {
		if none(frac) != 0 {
			t.Fatalf("none profile demands at %v", frac)
		}
	}
}
