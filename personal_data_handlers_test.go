package main

import (
	"math"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// The PATCH handler runs its queries through a transaction with the same
// helpers the pool uses.
var (
	_ querier = (*pgxpool.Pool)(nil)
	_ querier = pgx.Tx(nil)
)

func TestRecordBMI(t *testing.T) {
	h, w := 170, 70.0
	zero := 0

	cases := []struct {
		name    string
		rec     personalDataRecord
		wantOK  bool
		wantBMI float64
		wantCat string
	}{
		{"both metrics", personalDataRecord{HeightCM: &h, WeightKG: &w}, true, 24.22, "normal"},
		{"height only", personalDataRecord{HeightCM: &h}, false, 0, ""},
		{"weight only", personalDataRecord{WeightKG: &w}, false, 0, ""},
		{"zero height", personalDataRecord{HeightCM: &zero, WeightKG: &w}, false, 0, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			bmi, cat, ok := recordBMI(tc.rec)
			if ok != tc.wantOK || cat != tc.wantCat || math.Abs(bmi-tc.wantBMI) > 0.01 {
				t.Errorf("recordBMI = (%.2f, %q, %v), want (%.2f, %q, %v)", bmi, cat, ok, tc.wantBMI, tc.wantCat, tc.wantOK)
			}
		})
	}
}
