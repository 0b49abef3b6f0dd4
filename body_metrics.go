package main

import (
	"math"
	"strconv"
	"time"
)

// bmiCategory is the WHO adult BMI bucket. The string value is the stable API
// code; Label gives the text shown in the app.
type bmiCategory string

const (
	bmiUnderweight bmiCategory = "underweight"
	bmiNormal      bmiCategory = "normal"
	bmiOverweight  bmiCategory = "overweight"
	bmiObese       bmiCategory = "obese"
)

var bmiLabels = map[bmiCategory]string{
	bmiUnderweight: "Bajo peso",
	bmiNormal:      "Peso normal",
	bmiOverweight:  "Sobrepeso",
	bmiObese:       "Obesidad",
}

func (c bmiCategory) Label() string {
	return bmiLabels[c]
}

// computeBMI parses raw form values and returns weight / height(m)². It is called
// while the user is still typing, so any conversion failure degrades to 0 instead
// of returning an error.
func computeBMI(heightCM, weightKG string) float64 {
	h, err := strconv.ParseFloat(heightCM, 64)
	if err != nil {
		return 0
	}
	w, err := strconv.ParseFloat(weightKG, 64)
	if err != nil {
		return 0
	}
	return bmiFromMetrics(h, w)
}

// bmiFromMetrics is computeBMI for already-typed values. Non-positive heights and
// non-finite results yield 0.
func bmiFromMetrics(heightCM, weightKG float64) float64 {
	if heightCM <= 0 {
		return 0
	}
	m := heightCM / 100
	bmi := weightKG / (m * m)
	if math.IsNaN(bmi) || math.IsInf(bmi, 0) {
		return 0
	}
	return bmi
}

// categorizeBMI maps a BMI to its bucket. Boundaries belong to the upper bucket:
// exactly 25.0 is overweight.
func categorizeBMI(bmi float64) bmiCategory {
	switch {
	case bmi < 18.5:
		return bmiUnderweight
	case bmi < 25:
		return bmiNormal
	case bmi < 30:
		return bmiOverweight
	default:
		return bmiObese
	}
}

// dateOf truncates t to midnight UTC of its own calendar day, so comparisons with
// parsed dates (which are UTC midnight) ignore the time of day.
func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ageOn returns the age in whole years on the given day.
func ageOn(dob, now time.Time) int {
	today := dateOf(now)
	age := today.Year() - dob.Year()
	if today.Before(dob.AddDate(age, 0, 0)) {
		age--
	}
	return age
}
