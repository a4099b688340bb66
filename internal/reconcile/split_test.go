package reconcile

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSplitCombined(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"with", "Steve Miller Band with Dave Mason", []string{"Steve Miller Band", "Dave Mason"}},
		{"single", "Phish", []string{"Phish"}},
		{"slash", "Rod Stewart/Cyndi Lauper", []string{"Rod Stewart", "Cyndi Lauper"}},
		{"and before ampersand", "Hall and Oates & Friends", []string{"Hall", "Oates & Friends"}},
		{"ampersand before comma", "Crosby, Stills & Nash", []string{"Crosby, Stills", "Nash"}},
		{"colon", "Phish: New Year's Run", []string{"Phish", "New Year's Run"}},
		{"spaced slash", "Dead / Company", []string{"Dead", "Company"}},
		{"band is not and", "Steve Miller Band", []string{"Steve Miller Band"}},
		{"three way", "Tom Petty and Bob Dylan and The Dead", []string{"Tom Petty", "Bob Dylan", "The Dead"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, SplitCombined(tt.in)); diff != "" {
				t.Errorf("SplitCombined(%q) mismatch (-want +got):\n%s", tt.in, diff)
			}
		})
	}
}

func TestIsCombined(t *testing.T) {
	if IsCombined("Widespread Panic") {
		t.Error("IsCombined(Widespread Panic) = true")
	}
	if !IsCombined("Hall & Oates") {
		t.Error("IsCombined(Hall & Oates) = false")
	}
}
