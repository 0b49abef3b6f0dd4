package main

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// dobLayout is the DD/MM/YYYY layout used by the registration form.
const dobLayout = "02/01/2006"

const (
	minAgeYears = 13
	maxAgeYears = 100

	minHeightCM = 50
	maxHeightCM = 250

	minWeightKG = 20.0
	maxWeightKG = 300.0
)

var (
	dobPattern    = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`)
	heightPattern = regexp.MustCompile(`^\d+$`)
	weightPattern = regexp.MustCompile(`^(\d+\.?\d*|\.\d+)$`)
)

// genderOptions is the closed set offered by the registration dropdown, in
// display order.
var genderOptions = []string{"Masculino", "Femenino", "Prefiero no decirlo"}

/* ─── Field validators ───────────────────────────────────────────────── */

// validateDateOfBirth checks a DD/MM/YYYY birth date against now. Checks run in a
// fixed order (blank, format, calendar, age) so the first failure is always the
// one reported. Both age bounds are inclusive: a user who turns 13 today passes.
func validateDateOfBirth(text string, now time.Time) validationResult {
	if strings.TrimSpace(text) == "" {
		return invalid(codeRequired, "La fecha de nacimiento es requerida")
	}
	if !dobPattern.MatchString(text) {
		return invalid(codeFormat, "Formato de fecha inválido. Use DD/MM/AAAA")
	}

	// time.Parse rejects out-of-range days (31/02), so no lenient rollover.
	dob, err := time.Parse(dobLayout, text)
	if err != nil {
		return invalid(codeParse, "Fecha inválida")
	}

	// The lower bound goes through ageOn so the validator and the reported age
	// agree on leap days.
	earliest := addMonthsClamped(now, -12*maxAgeYears)

	switch {
	case ageOn(dob, now) < minAgeYears:
		return invalid(codeRange, "Debe ser mayor de 13 años")
	case dob.Before(earliest):
		return invalid(codeRange, "La edad máxima permitida es 100 años")
	}
	return valid()
}

func validateGender(value string) validationResult {
	if strings.TrimSpace(value) == "" {
		return invalid(codeRequired, "Debe seleccionar un género")
	}
	for _, g := range genderOptions {
		if value == g {
			return valid()
		}
	}
	return invalid(codeInvalidValue, "Género no válido")
}

// validateHeight checks an integer height in centimetres. Only plain digits are
// accepted; Atoi alone would also take signs.
func validateHeight(text string) validationResult {
	if strings.TrimSpace(text) == "" {
		return invalid(codeRequired, "La altura es requerida")
	}
	h, err := strconv.Atoi(text)
	if err != nil || !heightPattern.MatchString(text) {
		return invalid(codeNotNumeric, "Altura debe ser un número válido")
	}
	switch {
	case h < minHeightCM:
		return invalid(codeRange, "La altura mínima es 50 cm")
	case h > maxHeightCM:
		return invalid(codeRange, "La altura máxima es 250 cm")
	}
	return valid()
}

// validateWeight checks a weight in kilograms written as plain decimal digits.
// ParseFloat also accepts hex floats, exponents, signs, NaN and Inf, so the shape
// is checked first.
func validateWeight(text string) validationResult {
	if strings.TrimSpace(text) == "" {
		return invalid(codeRequired, "El peso es requerido")
	}
	if !weightPattern.MatchString(text) {
		return invalid(codeNotNumeric, "Peso debe ser un número válido")
	}
	w, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsInf(w, 0) {
		return invalid(codeNotNumeric, "Peso debe ser un número válido")
	}
	switch {
	case w < minWeightKG:
		return invalid(codeRange, "El peso mínimo es 20 kg")
	case w > maxWeightKG:
		return invalid(codeRange, "El peso máximo es 300 kg")
	}
	return valid()
}

// validateCompleteForm runs the four field validators in form order and returns
// the first failure.
func validateCompleteForm(f personalDataForm, now time.Time) validationResult {
	checks := []func() validationResult{
		func() validationResult { return validateDateOfBirth(f.DateOfBirth, now) },
		func() validationResult { return validateGender(f.Gender) },
		func() validationResult { return validateHeight(f.Height) },
		func() validationResult { return validateWeight(f.Weight) },
	}
	for _, check := range checks {
		if r := check(); !r.Valid {
			return r
		}
	}
	return valid()
}

/* ─── Live-typing filters ────────────────────────────────────────────── */

// sanitizeNumericInput keeps ASCII digits and the first '.', dropping everything
// else. Applying it twice gives the same result as applying it once.
func sanitizeNumericInput(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	seenDot := false
	for _, r := range text {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' && !seenDot:
			seenDot = true
			b.WriteRune(r)
		}
	}
	return b.String()
}

// formatDateInput masks a keystroke stream as DD/MM/YYYY. Only digits are kept
// (at most 8), with separators inserted after the day and month once more digits
// follow, so the output never exceeds 10 characters.
func formatDateInput(text string) string {
	digits := make([]byte, 0, 8)
	for i := 0; i < len(text) && len(digits) < 8; i++ {
		if text[i] >= '0' && text[i] <= '9' {
			digits = append(digits, text[i])
		}
	}

	out := make([]byte, 0, 10)
	for i, d := range digits {
		if i == 2 || i == 4 {
			out = append(out, '/')
		}
		out = append(out, d)
	}
	return string(out)
}

/* ─── Form evaluation ────────────────────────────────────────────────── */

// personalDataForm holds the raw strings exactly as typed on the registration screen.
type personalDataForm struct {
	DateOfBirth string `json:"date_of_birth"`
	Gender      string `json:"gender"`
	Height      string `json:"height"`
	Weight      string `json:"weight"`
}

// personalDataEvaluation is the response for the stateless validate endpoint:
// one result per field plus the derived BMI, so the client can render every error
// in a single round trip.
type personalDataEvaluation struct {
	DateOfBirth   validationResult `json:"date_of_birth"`
	Gender        validationResult `json:"gender"`
	Height        validationResult `json:"height"`
	Weight        validationResult `json:"weight"`
	Form          validationResult `json:"form"`
	BMI           float64          `json:"bmi"`
	BMICategory   string           `json:"bmi_category,omitempty"`
	BMILabel      string           `json:"bmi_label,omitempty"`
	Age           *int             `json:"age,omitempty"`
	GenderOptions []string         `json:"gender_options"`
}

// evaluatePersonalData validates every field independently. BMI is computed
// speculatively whenever both height and weight are present, even if they are
// out of range, matching the as-you-type behaviour of the form.
func evaluatePersonalData(f personalDataForm, now time.Time) personalDataEvaluation {
	ev := personalDataEvaluation{
		DateOfBirth:   validateDateOfBirth(f.DateOfBirth, now),
		Gender:        validateGender(f.Gender),
		Height:        validateHeight(f.Height),
		Weight:        validateWeight(f.Weight),
		Form:          validateCompleteForm(f, now),
		GenderOptions: genderOptions,
	}

	if strings.TrimSpace(f.Height) != "" && strings.TrimSpace(f.Weight) != "" {
		ev.BMI = computeBMI(f.Height, f.Weight)
		if ev.BMI > 0 {
			cat := categorizeBMI(ev.BMI)
			ev.BMICategory = string(cat)
			ev.BMILabel = cat.Label()
		}
	}

	if ev.DateOfBirth.Valid {
		dob, _ := time.Parse(dobLayout, f.DateOfBirth)
		age := ageOn(dob, now)
		ev.Age = &age
	}
	return ev
}
