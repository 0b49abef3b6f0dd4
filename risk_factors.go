package main

import "time"

// riskFactorSet is the risk-factor step of registration: eight independent flags
// plus the client-side registration time in Unix milliseconds.
type riskFactorSet struct {
	Hypertension       bool  `json:"hypertension"`
	Diabetes           bool  `json:"diabetes"`
	HighCholesterol    bool  `json:"high_cholesterol"`
	FamilyHistory      bool  `json:"family_history"`
	Overweight         bool  `json:"overweight"`
	SedentaryLifestyle bool  `json:"sedentary_lifestyle"`
	Smoking            bool  `json:"smoking"`
	ChronicStress      bool  `json:"chronic_stress"`
	RegisteredAt       int64 `json:"registered_at"`
}

type riskLevel string

const (
	riskLow      riskLevel = "low"
	riskModerate riskLevel = "moderate"
	riskHigh     riskLevel = "high"
	riskVeryHigh riskLevel = "very high"
)

// riskFactorRule is one row of the scoring table.
type riskFactorRule struct {
	Name            string
	Weight          int
	Active          func(s riskFactorSet) bool
	Recommendations [2]string
}

// riskFactorRules is the single source of truth for factor order, weights and
// recommendations. Order here is the order recommendations are returned in.
var riskFactorRules = []riskFactorRule{
	{
		Name:   "hypertension",
		Weight: 15,
		Active: func(s riskFactorSet) bool { return s.Hypertension },
		Recommendations: [2]string{
			"Controle regularmente su presión arterial",
			"Reduzca el consumo de sal en su dieta",
		},
	},
	{
		Name:   "diabetes",
		Weight: 20,
		Active: func(s riskFactorSet) bool { return s.Diabetes },
		Recommendations: [2]string{
			"Mantenga un control estricto de sus niveles de glucosa",
			"Siga una dieta balanceada baja en azúcares",
		},
	},
	{
		Name:   "high_cholesterol",
		Weight: 10,
		Active: func(s riskFactorSet) bool { return s.HighCholesterol },
		Recommendations: [2]string{
			"Reduzca el consumo de grasas saturadas",
			"Incluya más fibra en su alimentación",
		},
	},
	{
		Name:   "family_history",
		Weight: 12,
		Active: func(s riskFactorSet) bool { return s.FamilyHistory },
		Recommendations: [2]string{
			"Realice chequeos médicos regulares",
			"Informe a su médico sobre su historial familiar",
		},
	},
	{
		Name:   "overweight",
		Weight: 8,
		Active: func(s riskFactorSet) bool { return s.Overweight },
		Recommendations: [2]string{
			"Mantenga un peso saludable",
			"Consulte con un nutricionista",
		},
	},
	{
		Name:   "sedentary_lifestyle",
		Weight: 6,
		Active: func(s riskFactorSet) bool { return s.SedentaryLifestyle },
		Recommendations: [2]string{
			"Realice al menos 30 minutos de ejercicio diario",
			"Incorpore actividad física en su rutina",
		},
	},
	{
		Name:   "smoking",
		Weight: 18,
		Active: func(s riskFactorSet) bool { return s.Smoking },
		Recommendations: [2]string{
			"Considere dejar de fumar",
			"Busque apoyo profesional para dejar el tabaco",
		},
	},
	{
		Name:   "chronic_stress",
		Weight: 5,
		Active: func(s riskFactorSet) bool { return s.ChronicStress },
		Recommendations: [2]string{
			"Practique técnicas de relajación",
			"Mantenga un equilibrio entre trabajo y descanso",
		},
	},
}

const (
	registrationMaxAge  = time.Hour
	registrationMaxSkew = 5 * time.Minute
)

// validateRiskFactors only checks that the registration timestamp was set. The
// flags themselves are all optional; see validateMinimumSelection.
func validateRiskFactors(s riskFactorSet) validationResult {
	if s.RegisteredAt <= 0 {
		return invalid(codeInvalidData, "Error en los datos de factores de riesgo")
	}
	return valid()
}

// validateMinimumSelection fails when requireAtLeastOne is set and no flag is true.
func validateMinimumSelection(s riskFactorSet, requireAtLeastOne bool) validationResult {
	if !requireAtLeastOne || activeFactorCount(s) > 0 {
		return valid()
	}
	return invalid(codeNoSelection, "Debe seleccionar al menos un factor de riesgo")
}

// computeRiskScore sums the weights of the active factors, 0..94.
func computeRiskScore(s riskFactorSet) int {
	score := 0
	for _, rule := range riskFactorRules {
		if rule.Active(s) {
			score += rule.Weight
		}
	}
	return score
}

func riskLevelFor(score int) riskLevel {
	switch {
	case score <= 20:
		return riskLow
	case score <= 50:
		return riskModerate
	case score <= 80:
		return riskHigh
	default:
		return riskVeryHigh
	}
}

// generateRecommendations returns two recommendations per active factor in table
// order. The result is never nil so it encodes as [] rather than null.
func generateRecommendations(s riskFactorSet) []string {
	recs := []string{}
	for _, rule := range riskFactorRules {
		if rule.Active(s) {
			recs = append(recs, rule.Recommendations[:]...)
		}
	}
	return recs
}

func activeFactorCount(s riskFactorSet) int {
	n := 0
	for _, rule := range riskFactorRules {
		if rule.Active(s) {
			n++
		}
	}
	return n
}

// validateRegistrationTimestamp rejects submissions stamped more than an hour
// before now or more than five minutes after it.
func validateRegistrationTimestamp(ts int64, now time.Time) validationResult {
	nowMS := now.UnixMilli()
	switch {
	case ts < nowMS-registrationMaxAge.Milliseconds():
		return invalid(codeTooOld, "Fecha de registro muy antigua")
	case ts > nowMS+registrationMaxSkew.Milliseconds():
		return invalid(codeFuture, "Fecha de registro inválida")
	}
	return valid()
}
