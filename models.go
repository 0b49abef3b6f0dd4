package main

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// DateOnly wraps time.Time to serialize as "YYYY-MM-DD" in JSON.
type DateOnly struct{ time.Time }

func (d DateOnly) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Time.Format("2006-01-02") + `"`), nil
}

func (d *DateOnly) UnmarshalJSON(b []byte) error {
	t, err := time.Parse(`"2006-01-02"`, string(b))
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// ScanDate implements pgtype.DateScanner so pgx can scan PostgreSQL date
// columns (OID 1082) into DateOnly. NULL values zero the time and return nil
// so that *DateOnly pointer fields can be set to nil by pgx's NULL handling.
func (d *DateOnly) ScanDate(v pgtype.Date) error {
	if !v.Valid {
		d.Time = time.Time{}
		return nil
	}
	d.Time = v.Time
	return nil
}

/* ─── Domain structs ─────────────────────────────────────────────────── */

// user maps to the users table. AuthToken and Password are hidden from JSON responses.
type user struct {
	ID        int        `json:"id" db:"id"`
	Username  string     `json:"username" db:"username"`
	Email     string     `json:"email" db:"email"`
	AuthToken string     `json:"-" db:"auth_token"`
	Password  string     `json:"-" db:"password"`
	CreatedAt *time.Time `json:"created_at" db:"created_at"`
}

// personalDataRecord maps to personal_data, one row per user. Every profile
// field is nullable so a row can be created before registration is finished.
type personalDataRecord struct {
	UserID      int        `json:"user_id"       db:"user_id"`
	DateOfBirth *DateOnly  `json:"date_of_birth" db:"date_of_birth"`
	Gender      *string    `json:"gender"        db:"gender"`
	HeightCM    *int       `json:"height_cm"     db:"height_cm"`
	WeightKG    *float64   `json:"weight_kg"     db:"weight_kg"`
	BMI         *float64   `json:"bmi"           db:"bmi"`
	BMICategory *string    `json:"bmi_category"  db:"bmi_category"`
	UpdatedAt   *time.Time `json:"updated_at"    db:"updated_at"`

	// Computed on read; not stored.
	Age      *int    `json:"age,omitempty"       db:"-"`
	BMILabel *string `json:"bmi_label,omitempty" db:"-"`
}

// riskFactorRecord is what the risk store keeps per user. Timestamps are Unix
// milliseconds, matching riskFactorSet.RegisteredAt.
type riskFactorRecord struct {
	ID                 string `json:"id"                  db:"id"`
	UserID             int    `json:"user_id"             db:"user_id"`
	Hypertension       bool   `json:"hypertension"        db:"hypertension"`
	Diabetes           bool   `json:"diabetes"            db:"diabetes"`
	HighCholesterol    bool   `json:"high_cholesterol"    db:"high_cholesterol"`
	FamilyHistory      bool   `json:"family_history"      db:"family_history"`
	Overweight         bool   `json:"overweight"          db:"overweight"`
	SedentaryLifestyle bool   `json:"sedentary_lifestyle" db:"sedentary_lifestyle"`
	Smoking            bool   `json:"smoking"             db:"smoking"`
	ChronicStress      bool   `json:"chronic_stress"      db:"chronic_stress"`
	RiskScore          int    `json:"risk_score"          db:"risk_score"`
	CreatedAt          int64  `json:"created_at"          db:"created_at"`
	UpdatedAt          int64  `json:"updated_at"          db:"updated_at"`
}

// factors returns the flags as a riskFactorSet stamped with the creation time.
func (r riskFactorRecord) factors() riskFactorSet {
	return riskFactorSet{
		Hypertension:       r.Hypertension,
		Diabetes:           r.Diabetes,
		HighCholesterol:    r.HighCholesterol,
		FamilyHistory:      r.FamilyHistory,
		Overweight:         r.Overweight,
		SedentaryLifestyle: r.SedentaryLifestyle,
		Smoking:            r.Smoking,
		ChronicStress:      r.ChronicStress,
		RegisteredAt:       r.CreatedAt,
	}
}

// withFactors copies the flags from s onto r.
func (r riskFactorRecord) withFactors(s riskFactorSet) riskFactorRecord {
	r.Hypertension = s.Hypertension
	r.Diabetes = s.Diabetes
	r.HighCholesterol = s.HighCholesterol
	r.FamilyHistory = s.FamilyHistory
	r.Overweight = s.Overweight
	r.SedentaryLifestyle = s.SedentaryLifestyle
	r.Smoking = s.Smoking
	r.ChronicStress = s.ChronicStress
	return r
}

// riskStatistics is the response for GET /api/risk-factors/statistics.
type riskStatistics struct {
	TotalFactors int       `json:"total_factors"`
	RiskScore    int       `json:"risk_score"`
	RiskLevel    riskLevel `json:"risk_level"`
	LastUpdate   int64     `json:"last_update"`
}

// riskSubmission is the response of the simulated server round trip.
type riskSubmission struct {
	Success         bool      `json:"success"`
	Message         string    `json:"message"`
	RiskScore       *int      `json:"risk_score,omitempty"`
	RiskLevel       riskLevel `json:"risk_level,omitempty"`
	Recommendations []string  `json:"recommendations,omitempty"`
}

// foodDiaryItem maps to food_diary_items. Nutrient totals are stored already
// scaled to the logged quantity and portion; the per-100 g values they were
// scaled from are kept so an edit can recompute them without rounding drift.
type foodDiaryItem struct {
	ID              int        `json:"id"                db:"id"`
	UserID          int        `json:"user_id"           db:"user_id"`
	Date            DateOnly   `json:"date"              db:"date"`
	MealType        string     `json:"meal_type"         db:"meal_type"`
	FoodName        string     `json:"food_name"         db:"food_name"`
	Quantity        float64    `json:"quantity"          db:"quantity"`
	Portion         string     `json:"portion"           db:"portion"`
	Grams           float64    `json:"grams"             db:"grams"`
	CaloriesPer100G float64    `json:"calories_per_100g" db:"calories_per_100g"`
	ProteinPer100G  float64    `json:"protein_per_100g"  db:"protein_per_100g"`
	CarbsPer100G    float64    `json:"carbs_per_100g"    db:"carbs_per_100g"`
	FatPer100G      float64    `json:"fat_per_100g"      db:"fat_per_100g"`
	FiberPer100G    float64    `json:"fiber_per_100g"    db:"fiber_per_100g"`
	Calories        int        `json:"calories"          db:"calories"`
	ProteinG        float64    `json:"protein_g"         db:"protein_g"`
	CarbsG          float64    `json:"carbs_g"           db:"carbs_g"`
	FatG            float64    `json:"fat_g"             db:"fat_g"`
	FiberG          float64    `json:"fiber_g"           db:"fiber_g"`
	CreatedAt       *time.Time `json:"created_at"        db:"created_at"`
	UpdatedAt       *time.Time `json:"updated_at"        db:"updated_at"`
}

// nutrientTotals is the shared sum shape used by meal, day and range summaries.
type nutrientTotals struct {
	Calories int     `json:"calories"`
	ProteinG float64 `json:"protein_g"`
	CarbsG   float64 `json:"carbs_g"`
	FatG     float64 `json:"fat_g"`
	FiberG   float64 `json:"fiber_g"`
}

func (t *nutrientTotals) addItem(item foodDiaryItem) {
	t.Calories += item.Calories
	t.ProteinG += item.ProteinG
	t.CarbsG += item.CarbsG
	t.FatG += item.FatG
	t.FiberG += item.FiberG
}

func (t *nutrientTotals) addTotals(o nutrientTotals) {
	t.Calories += o.Calories
	t.ProteinG += o.ProteinG
	t.CarbsG += o.CarbsG
	t.FatG += o.FatG
	t.FiberG += o.FiberG
}

// mealSummary groups a day's items under one meal type.
type mealSummary struct {
	MealType string          `json:"meal_type"`
	Label    string          `json:"label"`
	Totals   nutrientTotals  `json:"totals"`
	Items    []foodDiaryItem `json:"items"`
}

// dailyDiary is the response shape for GET /food-diary/daily.
type dailyDiary struct {
	Date   string         `json:"date"`
	Label  string         `json:"label"`
	Totals nutrientTotals `json:"totals"`
	Meals  []mealSummary  `json:"meals"`
}

// diaryDayDBRow is the shape of each row returned by the range summary GROUP BY query.
type diaryDayDBRow struct {
	Date     DateOnly `db:"date"`
	Calories int      `db:"calories"`
	ProteinG float64  `db:"protein_g"`
	CarbsG   float64  `db:"carbs_g"`
	FatG     float64  `db:"fat_g"`
	FiberG   float64  `db:"fiber_g"`
}

func (r diaryDayDBRow) totals() nutrientTotals {
	return nutrientTotals{Calories: r.Calories, ProteinG: r.ProteinG, CarbsG: r.CarbsG, FatG: r.FatG, FiberG: r.FiberG}
}

// diaryDaySummary is one day of a weekly or monthly summary. Days with no
// entries have HasData=false and zero totals.
type diaryDaySummary struct {
	Date    DateOnly       `json:"date"`
	Totals  nutrientTotals `json:"totals"`
	HasData bool           `json:"has_data"`
}

// diaryRangeSummary is the response shape for GET /food-diary/summary.
type diaryRangeSummary struct {
	View     string            `json:"view"`
	Label    string            `json:"label"`
	Start    DateOnly          `json:"start"`
	End      DateOnly          `json:"end"`
	Previous DateOnly          `json:"previous"`
	Next     DateOnly          `json:"next"`
	Totals   nutrientTotals    `json:"totals"`
	Days     []diaryDaySummary `json:"days"`
}

// createFoodDiaryItemRequest is the request body for POST /api/food-diary/items.
// Nutrients are per 100 g; the server scales them by quantity and portion.
type createFoodDiaryItemRequest struct {
	Date            string  `json:"date"`
	MealType        string  `json:"meal_type"`
	FoodName        string  `json:"food_name"`
	Quantity        float64 `json:"quantity"`
	Portion         string  `json:"portion"`
	CaloriesPer100G float64 `json:"calories_per_100g"`
	ProteinPer100G  float64 `json:"protein_per_100g"`
	CarbsPer100G    float64 `json:"carbs_per_100g"`
	FatPer100G      float64 `json:"fat_per_100g"`
	FiberPer100G    float64 `json:"fiber_per_100g"`
}

// weightEntry maps to weight_log. BMI is derived from the user's stored height at
// the time of logging and is NULL when no height is on file.
type weightEntry struct {
	ID        int        `json:"id"         db:"id"`
	UserID    int        `json:"user_id"    db:"user_id"`
	Date      DateOnly   `json:"date"       db:"date"`
	WeightKG  float64    `json:"weight_kg"  db:"weight_kg"`
	BMI       *float64   `json:"bmi"        db:"bmi"`
	CreatedAt *time.Time `json:"created_at" db:"created_at"`
}

// patchPersonalDataRequest is the request body for PATCH /api/personal-data.
// Values are the raw form strings; only non-nil fields are validated and written.
type patchPersonalDataRequest struct {
	DateOfBirth *string `json:"date_of_birth"`
	Gender      *string `json:"gender"`
	Height      *string `json:"height"`
	Weight      *string `json:"weight"`
}
