package main

import (
	"math"
	"testing"
)

func TestEntryBMI(t *testing.T) {
	if got := entryBMI(nil, 70); got != nil {
		t.Errorf("no height: got %v, want nil", *got)
	}
	zero := 0
	if got := entryBMI(&zero, 70); got != nil {
		t.Errorf("zero height: got %v, want nil", *got)
	}
	h := 170
	got := entryBMI(&h, 70)
	if got == nil || math.Abs(*got-24.22) > 0.01 {
		t.Errorf("entryBMI(170, 70) = %v, want ~24.22", got)
	}
}

// TestCheckWeight verifies the log accepts exactly the range the registration
// form accepts.
func TestCheckWeight(t *testing.T) {
	cases := []struct {
		kg     float64
		wantOK bool
	}{
		{20, true},
		{72.5, true},
		{300, true},
		{19.99, false},
		{300.5, false},
		{0, false},
	}
	for _, tc := range cases {
		if r := checkWeight(tc.kg); r.Valid != tc.wantOK {
			t.Errorf("checkWeight(%v).Valid = %v, want %v", tc.kg, r.Valid, tc.wantOK)
		}
	}
}
