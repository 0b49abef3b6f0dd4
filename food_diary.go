package main

import (
	"errors"
	"math"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

// mealTypes lists the diary sections in display order with their labels.
// Reject unknown values with 400 rather than letting the DB return a cryptic 500.
var mealTypes = []struct {
	Code  string
	Label string
}{
	{"desayuno", "Desayuno"},
	{"almuerzo", "Almuerzo"},
	{"cena", "Cena"},
	{"snack", "Snack"},
}

func isMealType(s string) bool {
	for _, m := range mealTypes {
		if m.Code == s {
			return true
		}
	}
	return false
}

// portionGrams maps each portion type to its weight in grams.
var portionGrams = map[string]float64{
	"gramos":    1,
	"porcion":   100,
	"taza":      150,
	"cucharada": 15,
}

const (
	minFoodNameLen     = 2
	maxFoodNameLen     = 100
	maxNutrientPer100G = 10000
	maxFoodQuantity    = 10000
)

/* ─── Food item validation ───────────────────────────────────────────── */

// validateFoodName checks the trimmed name length in characters.
func validateFoodName(name string) validationResult {
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	switch {
	case n == 0:
		return invalid(codeRequired, "El nombre del alimento es obligatorio")
	case n < minFoodNameLen:
		return invalid(codeRange, "El nombre debe tener al menos 2 caracteres")
	case n > maxFoodNameLen:
		return invalid(codeRange, "El nombre es demasiado largo")
	}
	return valid()
}

// validateNutrientValue checks one per-100 g value against 0..10000.
func validateNutrientValue(v float64) validationResult {
	switch {
	case math.IsNaN(v) || math.IsInf(v, 0):
		return invalid(codeNotNumeric, "Ingrese un número válido")
	case v < 0:
		return invalid(codeRange, "El valor no puede ser negativo")
	case v > maxNutrientPer100G:
		return invalid(codeRange, "El valor es demasiado alto")
	}
	return valid()
}

// validateFoodItem checks the name, then each per-100 g value in form order
// (calories, protein, carbs, fat, fiber), and returns the first failure.
func validateFoodItem(req createFoodDiaryItemRequest) validationResult {
	if r := validateFoodName(req.FoodName); !r.Valid {
		return r
	}
	for _, v := range []float64{
		req.CaloriesPer100G, req.ProteinPer100G, req.CarbsPer100G, req.FatPer100G, req.FiberPer100G,
	} {
		if r := validateNutrientValue(v); !r.Valid {
			return r
		}
	}
	return valid()
}

// scalePortion converts per-100 g nutrient values into totals for quantity units
// of portion. ok=false for an unknown portion or a quantity outside 0 < q <= 10000.
func scalePortion(req createFoodDiaryItemRequest) (grams float64, totals nutrientTotals, ok bool) {
	unit, found := portionGrams[req.Portion]
	if !found || !(req.Quantity > 0) || req.Quantity > maxFoodQuantity {
		return 0, nutrientTotals{}, false
	}
	grams = req.Quantity * unit
	m := grams / 100
	return grams, nutrientTotals{
		Calories: int(math.Round(req.CaloriesPer100G * m)),
		ProteinG: req.ProteinPer100G * m,
		CarbsG:   req.CarbsPer100G * m,
		FatG:     req.FatPer100G * m,
		FiberG:   req.FiberPer100G * m,
	}, true
}

// groupByMeal splits items into one mealSummary per meal type, in display order.
// Meal types with no items are still present with an empty item list.
func groupByMeal(items []foodDiaryItem) ([]mealSummary, nutrientTotals) {
	var day nutrientTotals
	meals := make([]mealSummary, len(mealTypes))
	for i, m := range mealTypes {
		meals[i] = mealSummary{MealType: m.Code, Label: m.Label, Items: []foodDiaryItem{}}
	}
	for _, item := range items {
		for i := range meals {
			if meals[i].MealType == item.MealType {
				meals[i].Items = append(meals[i].Items, item)
				meals[i].Totals.addItem(item)
				break
			}
		}
		day.addItem(item)
	}
	return meals, day
}

// fillDays builds one diaryDaySummary per day in [start, end], filling zeros for
// days with no rows.
func fillDays(start, end time.Time, rows []diaryDayDBRow) ([]diaryDaySummary, nutrientTotals) {
	// Index DB rows by date string for O(1) merge.
	rowByDate := make(map[string]diaryDayDBRow, len(rows))
	for _, r := range rows {
		rowByDate[r.Date.Time.Format("2006-01-02")] = r
	}

	var total nutrientTotals
	days := []diaryDaySummary{}
	for _, d := range daysBetween(start, end) {
		day := diaryDaySummary{Date: DateOnly{d}}
		if row, ok := rowByDate[d.Format("2006-01-02")]; ok {
			day.HasData = true
			day.Totals = row.totals()
			total.addTotals(day.Totals)
		}
		days = append(days, day)
	}
	return days, total
}

/* ─── Handlers ───────────────────────────────────────────────────────── */

// getDailyDiary returns the day's diary items grouped by meal with totals.
// GET /api/food-diary/daily?date=YYYY-MM-DD (defaults to today).
func (h *Handler) getDailyDiary(c *gin.Context) {
	userID := c.GetInt("user_id")
	date := c.DefaultQuery("date", h.now().Format("2006-01-02"))

	// An invalid date would otherwise silently return no rows.
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

	items, err := queryMany[foodDiaryItem](h.db, c,
		`SELECT * FROM food_diary_items
		 WHERE user_id = @userID AND date = @date
		 ORDER BY created_at`,
		pgx.NamedArgs{"userID": userID, "date": date})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch diary")
		return
	}

	meals, totals := groupByMeal(items)
	c.JSON(http.StatusOK, dailyDiary{
		Date:   date,
		Label:  rangeLabel(day, viewDaily),
		Totals: totals,
		Meals:  meals,
	})
}

// getDiarySummary returns per-day totals for the week (Sun–Sat) or month
// containing date. Every day in the range is present; days without entries have
// has_data=false. previous/next give the navigation targets for the same view.
// GET /api/food-diary/summary?view=weekly|monthly&date=YYYY-MM-DD.
func (h *Handler) getDiarySummary(c *gin.Context) {
	userID := c.GetInt("user_id")
	view := c.DefaultQuery("view", viewWeekly)
	if view != viewWeekly && view != viewMonthly {
		apiError(c, http.StatusBadRequest, "view must be one of: weekly, monthly")
		return
	}

	anchor := h.now()
	if s := c.Query("date"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			apiError(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
			return
		}
		anchor = t
	}
	start, end, err := viewRange(anchor, view)
	if err != nil {
		apiError(c, http.StatusBadRequest, err.Error())
		return
	}

	rows, err := queryMany[diaryDayDBRow](h.db, c,
		`SELECT
			date,
			COALESCE(SUM(calories),  0) AS calories,
			COALESCE(SUM(protein_g), 0) AS protein_g,
			COALESCE(SUM(carbs_g),   0) AS carbs_g,
			COALESCE(SUM(fat_g),     0) AS fat_g,
			COALESCE(SUM(fiber_g),   0) AS fiber_g
		 FROM food_diary_items
		 WHERE user_id = @userID AND date >= @start AND date <= @end
		 GROUP BY date`,
		pgx.NamedArgs{
			"userID": userID,
			"start":  start.Format("2006-01-02"),
			"end":    end.Format("2006-01-02"),
		})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch diary summary")
		return
	}

	days, totals := fillDays(start, end, rows)
	c.JSON(http.StatusOK, diaryRangeSummary{
		View:     view,
		Label:    rangeLabel(anchor, view),
		Start:    DateOnly{start},
		End:      DateOnly{end},
		Previous: DateOnly{navigateDate(anchor, view, false)},
		Next:     DateOnly{navigateDate(anchor, view, true)},
		Totals:   totals,
		Days:     days,
	})
}

// createFoodDiaryItem logs a food under a meal. Nutrients arrive per 100 g and
// are stored scaled to the portion.
// POST /api/food-diary/items. Defaults date to today if omitted.
func (h *Handler) createFoodDiaryItem(c *gin.Context) {
	userID := c.GetInt("user_id")

	var body createFoodDiaryItemRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	body.FoodName = strings.TrimSpace(body.FoodName)
	if r := validateFoodItem(body); !r.Valid {
		validationError(c, r)
		return
	}
	if !isMealType(body.MealType) {
		apiError(c, http.StatusBadRequest, "meal_type must be one of: desayuno, almuerzo, cena, snack")
		return
	}
	if body.Date == "" {
		body.Date = h.now().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", body.Date); err != nil {
		apiError(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}
	grams, totals, ok := scalePortion(body)
	if !ok {
		apiError(c, http.StatusBadRequest, "quantity must be in (0, 10000] and portion one of: gramos, porcion, taza, cucharada")
		return
	}

	item, err := queryOne[foodDiaryItem](h.db, c,
		`INSERT INTO food_diary_items (user_id, date, meal_type, food_name, quantity, portion, grams,
			calories_per_100g, protein_per_100g, carbs_per_100g, fat_per_100g, fiber_per_100g,
			calories, protein_g, carbs_g, fat_g, fiber_g)
		 VALUES (@userID, @date, @mealType, @foodName, @quantity, @portion, @grams,
			@caloriesPer100G, @proteinPer100G, @carbsPer100G, @fatPer100G, @fiberPer100G,
			@calories, @proteinG, @carbsG, @fatG, @fiberG)
		 RETURNING *`,
		pgx.NamedArgs{
			"userID": userID, "date": body.Date, "mealType": body.MealType,
			"foodName": body.FoodName, "quantity": body.Quantity, "portion": body.Portion, "grams": grams,
			"caloriesPer100G": body.CaloriesPer100G, "proteinPer100G": body.ProteinPer100G,
			"carbsPer100G": body.CarbsPer100G, "fatPer100G": body.FatPer100G, "fiberPer100G": body.FiberPer100G,
			"calories": totals.Calories, "proteinG": totals.ProteinG,
			"carbsG": totals.CarbsG, "fatG": totals.FatG, "fiberG": totals.FiberG,
		})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to create item")
		return
	}

	c.JSON(http.StatusCreated, item)
}

// updateFoodDiaryItem edits an existing entry. A quantity or portion change
// rescales the stored nutrients by the ratio of new to old grams.
// PUT /api/food-diary/items/:id.
func (h *Handler) updateFoodDiaryItem(c *gin.Context) {
	userID := c.GetInt("user_id")
	id := c.Param("id")

	var body struct {
		Date     *string  `json:"date"`
		MealType *string  `json:"meal_type"`
		FoodName *string  `json:"food_name"`
		Quantity *float64 `json:"quantity"`
		Portion  *string  `json:"portion"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Date != nil {
		if _, err := time.Parse("2006-01-02", *body.Date); err != nil {
			apiError(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
			return
		}
	}
	if body.FoodName != nil {
		trimmed := strings.TrimSpace(*body.FoodName)
		if r := validateFoodName(trimmed); !r.Valid {
			validationError(c, r)
			return
		}
		body.FoodName = &trimmed
	}
	if body.MealType != nil && !isMealType(*body.MealType) {
		apiError(c, http.StatusBadRequest, "meal_type must be one of: desayuno, almuerzo, cena, snack")
		return
	}

	item, err := queryOne[foodDiaryItem](h.db, c,
		"SELECT * FROM food_diary_items WHERE id = @id AND user_id = @userID",
		pgx.NamedArgs{"id": id, "userID": userID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			apiError(c, http.StatusNotFound, "item not found")
		} else {
			apiError(c, http.StatusInternalServerError, "failed to fetch item")
		}
		return
	}

	if body.Date != nil {
		t, _ := time.Parse("2006-01-02", *body.Date)
		item.Date = DateOnly{t}
	}
	if body.MealType != nil {
		item.MealType = *body.MealType
	}
	if body.FoodName != nil {
		item.FoodName = *body.FoodName
	}
	if body.Quantity != nil || body.Portion != nil {
		if !rescaleItem(&item, body.Quantity, body.Portion) {
			apiError(c, http.StatusBadRequest, "quantity must be in (0, 10000] and portion one of: gramos, porcion, taza, cucharada")
			return
		}
	}

	updated, err := queryOne[foodDiaryItem](h.db, c,
		`UPDATE food_diary_items SET
			date = @date, meal_type = @mealType, food_name = @foodName,
			quantity = @quantity, portion = @portion, grams = @grams,
			calories = @calories, protein_g = @proteinG, carbs_g = @carbsG,
			fat_g = @fatG, fiber_g = @fiberG, updated_at = now()
		 WHERE id = @id AND user_id = @userID
		 RETURNING *`,
		pgx.NamedArgs{
			"id": id, "userID": userID,
			"date": item.Date.Format("2006-01-02"), "mealType": item.MealType, "foodName": item.FoodName,
			"quantity": item.Quantity, "portion": item.Portion, "grams": item.Grams,
			"calories": item.Calories, "proteinG": item.ProteinG, "carbsG": item.CarbsG,
			"fatG": item.FatG, "fiberG": item.FiberG,
		})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to update item")
		return
	}

	c.JSON(http.StatusOK, updated)
}

// rescaleItem applies a new quantity and/or portion to item in place, recomputing
// the totals from the stored per-100 g values. Returns false, leaving item
// untouched, when the result would be invalid.
func rescaleItem(item *foodDiaryItem, quantity *float64, portion *string) bool {
	req := createFoodDiaryItemRequest{
		Quantity:        item.Quantity,
		Portion:         item.Portion,
		CaloriesPer100G: item.CaloriesPer100G,
		ProteinPer100G:  item.ProteinPer100G,
		CarbsPer100G:    item.CarbsPer100G,
		FatPer100G:      item.FatPer100G,
		FiberPer100G:    item.FiberPer100G,
	}
	if quantity != nil {
		req.Quantity = *quantity
	}
	if portion != nil {
		req.Portion = *portion
	}
	grams, totals, ok := scalePortion(req)
	if !ok {
		return false
	}

	item.Quantity, item.Portion, item.Grams = req.Quantity, req.Portion, grams
	item.Calories = totals.Calories
	item.ProteinG = totals.ProteinG
	item.CarbsG = totals.CarbsG
	item.FatG = totals.FatG
	item.FiberG = totals.FiberG
	return true
}

// deleteFoodDiaryItem removes a diary entry. Returns 204 on success.
// DELETE /api/food-diary/items/:id.
func (h *Handler) deleteFoodDiaryItem(c *gin.Context) {
	userID := c.GetInt("user_id")
	id := c.Param("id")

	result, err := h.db.Exec(c,
		"DELETE FROM food_diary_items WHERE id = @id AND user_id = @userID",
		pgx.NamedArgs{"id": id, "userID": userID})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to delete item")
		return
	}
	if result.RowsAffected() == 0 {
		apiError(c, http.StatusNotFound, "item not found")
		return
	}

	c.Status(http.StatusNoContent)
}
