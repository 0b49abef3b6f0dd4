package main

import (
	"math"
	"testing"
	"time"
)

func TestComputeBMI(t *testing.T) {
	cases := []struct {
		name           string
		height, weight string
		want           float64
	}{
		{"170cm 70kg", "170", "70", 24.22},
		{"180cm 90kg", "180", "90", 27.78},
		{"decimal weight", "165", "58.5", 21.49},
		{"empty height", "", "70", 0},
		{"junk weight", "170", "abc", 0},
		{"zero height", "0", "70", 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := computeBMI(tc.height, tc.weight)
			if math.Abs(got-tc.want) > 0.01 {
				t.Errorf("computeBMI(%q, %q) = %.3f, want %.2f", tc.height, tc.weight, got, tc.want)
			}
		})
	}
}

func TestCategorizeBMI_Boundaries(t *testing.T) {
	cases := []struct {
		bmi  float64
		want bmiCategory
	}{
		{10, bmiUnderweight},
		{18.49, bmiUnderweight},
		{18.5, bmiNormal},
		{24.99, bmiNormal},
		{25, bmiOverweight},
		{29.99, bmiOverweight},
		{30, bmiObese},
		{55, bmiObese},
	}
	for _, tc := range cases {
		if got := categorizeBMI(tc.bmi); got != tc.want {
			t.Errorf("categorizeBMI(%v) = %q, want %q", tc.bmi, got, tc.want)
		}
	}
}

// TestCategorizeBMI_Monotonic walks the BMI range and checks the bucket never
// moves backwards.
func TestCategorizeBMI_Monotonic(t *testing.T) {
	order := map[bmiCategory]int{bmiUnderweight: 0, bmiNormal: 1, bmiOverweight: 2, bmiObese: 3}
	prev := -1
	for bmi := 10.0; bmi <= 60; bmi += 0.1 {
		cur := order[categorizeBMI(bmi)]
		if cur < prev {
			t.Fatalf("category went backwards at %.1f", bmi)
		}
		prev = cur
	}
	for cat := range order {
		if cat.Label() == "" {
			t.Errorf("missing label for %q", cat)
		}
	}
}

func TestAgeOn(t *testing.T) {
	now := time.Date(2024, 5, 15, 23, 0, 0, 0, time.UTC)
	cases := []struct {
		dob  time.Time
		want int
	}{
		{time.Date(1990, 5, 15, 0, 0, 0, 0, time.UTC), 34},
		{time.Date(1990, 5, 16, 0, 0, 0, 0, time.UTC), 33},
		{time.Date(2011, 1, 1, 0, 0, 0, 0, time.UTC), 13},
		{time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC), 0},
	}
	for _, tc := range cases {
		if got := ageOn(tc.dob, now); got != tc.want {
			t.Errorf("ageOn(%s) = %d, want %d", tc.dob.Format("2006-01-02"), got, tc.want)
		}
	}
}
