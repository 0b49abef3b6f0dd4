package main

import (
	"math"
	"strings"
	"testing"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestScalePortion(t *testing.T) {
	req := createFoodDiaryItemRequest{
		Quantity: 2, Portion: "taza",
		CaloriesPer100G: 52, ProteinPer100G: 0.3, CarbsPer100G: 14, FatPer100G: 0.2, FiberPer100G: 2.4,
	}
	grams, totals, ok := scalePortion(req)
	if !ok {
		t.Fatal("expected ok")
	}
	if grams != 300 {
		t.Errorf("grams = %v, want 300", grams)
	}
	if totals.Calories != 156 || !approx(totals.CarbsG, 42) || !approx(totals.FiberG, 7.2) {
		t.Errorf("totals = %+v", totals)
	}

	cases := []struct {
		name     string
		quantity float64
		portion  string
	}{
		{"unknown portion", 1, "plato"},
		{"zero quantity", 0, "gramos"},
		{"negative quantity", -1, "porcion"},
		{"nan quantity", math.NaN(), "porcion"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, ok := scalePortion(createFoodDiaryItemRequest{Quantity: tc.quantity, Portion: tc.portion}); ok {
				t.Error("expected ok=false")
			}
		})
	}
}

func TestScalePortion_Units(t *testing.T) {
	for portion, unit := range portionGrams {
		grams, totals, ok := scalePortion(createFoodDiaryItemRequest{Quantity: 1, Portion: portion, CaloriesPer100G: 100})
		if !ok || grams != unit {
			t.Errorf("%s: grams = %v ok=%v, want %v", portion, grams, ok, unit)
		}
		if want := int(math.Round(unit)); totals.Calories != want {
			t.Errorf("%s: calories = %d, want %d", portion, totals.Calories, want)
		}
	}
}

func TestRescaleItem(t *testing.T) {
	item := foodDiaryItem{
		Quantity: 1, Portion: "porcion", Grams: 100,
		CaloriesPer100G: 200, ProteinPer100G: 10, CarbsPer100G: 20, FatPer100G: 5, FiberPer100G: 2,
		Calories: 200, ProteinG: 10, CarbsG: 20, FatG: 5, FiberG: 2,
	}

	q := 3.0
	if !rescaleItem(&item, &q, nil) {
		t.Fatal("rescale with new quantity failed")
	}
	if item.Grams != 300 || item.Calories != 600 || !approx(item.ProteinG, 30) {
		t.Errorf("after quantity change: %+v", item)
	}

	p := "cucharada"
	if !rescaleItem(&item, nil, &p) {
		t.Fatal("rescale with new portion failed")
	}
	if item.Grams != 45 || item.Calories != 90 || !approx(item.FatG, 2.25) {
		t.Errorf("after portion change: %+v", item)
	}

	bad := "plato"
	before := item
	if rescaleItem(&item, nil, &bad) {
		t.Error("unknown portion should fail")
	}
	tooMuch := maxFoodQuantity + 1.0
	if rescaleItem(&item, &tooMuch, nil) {
		t.Error("quantity above the limit should fail")
	}
	if item != before {
		t.Error("failed rescale must leave the item untouched")
	}
}

// TestRescaleItem_MatchesFreshEntry edits a tiny entry whose stored calories
// rounded to zero; the result must equal a fresh entry of the new size.
func TestRescaleItem_MatchesFreshEntry(t *testing.T) {
	create := createFoodDiaryItemRequest{Quantity: 1, Portion: "gramos", CaloriesPer100G: 40, ProteinPer100G: 1.3}
	grams, totals, ok := scalePortion(create)
	if !ok || totals.Calories != 0 {
		t.Fatalf("1 g of a 40 kcal/100 g food: calories = %d ok=%v, want 0", totals.Calories, ok)
	}
	item := foodDiaryItem{
		Quantity: create.Quantity, Portion: create.Portion, Grams: grams,
		CaloriesPer100G: create.CaloriesPer100G, ProteinPer100G: create.ProteinPer100G,
		Calories: totals.Calories, ProteinG: totals.ProteinG,
	}

	q := 100.0
	if !rescaleItem(&item, &q, nil) {
		t.Fatal("rescale failed")
	}

	fresh := create
	fresh.Quantity = q
	_, want, _ := scalePortion(fresh)
	if item.Calories != want.Calories || item.Calories != 40 {
		t.Errorf("rescaled calories = %d, fresh entry = %d, want 40", item.Calories, want.Calories)
	}
	if !approx(item.ProteinG, want.ProteinG) {
		t.Errorf("rescaled protein = %v, fresh entry = %v", item.ProteinG, want.ProteinG)
	}
}

/* ─── Food item validation ───────────────────────────────────────────── */

func TestValidateFoodItem(t *testing.T) {
	base := func() createFoodDiaryItemRequest {
		return createFoodDiaryItemRequest{FoodName: "Manzana", CaloriesPer100G: 52, ProteinPer100G: 0.3}
	}
	cases := []struct {
		name     string
		mut      func(r *createFoodDiaryItemRequest)
		wantCode validationCode
	}{
		{"valid", func(r *createFoodDiaryItemRequest) {}, ""},
		{"empty name", func(r *createFoodDiaryItemRequest) { r.FoodName = "" }, codeRequired},
		{"whitespace name", func(r *createFoodDiaryItemRequest) { r.FoodName = "   " }, codeRequired},
		{"one char", func(r *createFoodDiaryItemRequest) { r.FoodName = " A " }, codeRange},
		{"two chars", func(r *createFoodDiaryItemRequest) { r.FoodName = "Té" }, ""},
		{"100 chars", func(r *createFoodDiaryItemRequest) { r.FoodName = strings.Repeat("ñ", 100) }, ""},
		{"101 chars", func(r *createFoodDiaryItemRequest) { r.FoodName = strings.Repeat("a", 101) }, codeRange},
		{"negative calories", func(r *createFoodDiaryItemRequest) { r.CaloriesPer100G = -1 }, codeRange},
		{"negative protein", func(r *createFoodDiaryItemRequest) { r.ProteinPer100G = -0.5 }, codeRange},
		{"calories at limit", func(r *createFoodDiaryItemRequest) { r.CaloriesPer100G = 10000 }, ""},
		{"calories over limit", func(r *createFoodDiaryItemRequest) { r.CaloriesPer100G = 10000.1 }, codeRange},
		{"huge fiber", func(r *createFoodDiaryItemRequest) { r.FiberPer100G = 1e300 }, codeRange},
		{"nan fat", func(r *createFoodDiaryItemRequest) { r.FatPer100G = math.NaN() }, codeNotNumeric},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := base()
			tc.mut(&req)
			r := validateFoodItem(req)
			if r.Code != tc.wantCode || r.Valid != (tc.wantCode == "") {
				t.Errorf("validateFoodItem = {%v %q}, want code %q", r.Valid, r.Code, tc.wantCode)
			}
		})
	}
}

// TestScalePortion_Bounds checks the largest accepted entry still fits an int.
func TestScalePortion_Bounds(t *testing.T) {
	req := createFoodDiaryItemRequest{Quantity: maxFoodQuantity, Portion: "taza", CaloriesPer100G: maxNutrientPer100G}
	grams, totals, ok := scalePortion(req)
	if !ok {
		t.Fatal("maximum quantity should be accepted")
	}
	if grams != 1.5e6 || totals.Calories != 150000000 {
		t.Errorf("grams = %v calories = %d", grams, totals.Calories)
	}
	req.Quantity = math.Inf(1)
	if _, _, ok := scalePortion(req); ok {
		t.Error("infinite quantity should fail")
	}
}

func TestGroupByMeal(t *testing.T) {
	items := []foodDiaryItem{
		{MealType: "cena", Calories: 500, ProteinG: 30},
		{MealType: "desayuno", Calories: 300, ProteinG: 10},
		{MealType: "desayuno", Calories: 100, ProteinG: 5},
	}
	meals, total := groupByMeal(items)

	if len(meals) != 4 {
		t.Fatalf("got %d meals, want 4", len(meals))
	}
	wantOrder := []string{"desayuno", "almuerzo", "cena", "snack"}
	for i, code := range wantOrder {
		if meals[i].MealType != code {
			t.Errorf("meals[%d] = %q, want %q", i, meals[i].MealType, code)
		}
		if meals[i].Items == nil {
			t.Errorf("meals[%d].Items is nil, want empty slice", i)
		}
	}
	if meals[0].Totals.Calories != 400 || len(meals[0].Items) != 2 {
		t.Errorf("desayuno = %+v", meals[0])
	}
	if meals[1].Totals.Calories != 0 {
		t.Errorf("almuerzo should be empty, got %+v", meals[1].Totals)
	}
	if total.Calories != 900 || !approx(total.ProteinG, 45) {
		t.Errorf("day total = %+v", total)
	}
	if meals[0].Label != "Desayuno" {
		t.Errorf("label = %q", meals[0].Label)
	}
}

func TestFillDays(t *testing.T) {
	start, end := weekRange(day(2024, 5, 15))
	rows := []diaryDayDBRow{
		{Date: DateOnly{day(2024, 5, 13)}, Calories: 1800, ProteinG: 90},
		{Date: DateOnly{day(2024, 5, 15)}, Calories: 2100, ProteinG: 110},
	}
	days, total := fillDays(start, end, rows)

	if len(days) != 7 {
		t.Fatalf("got %d days, want 7", len(days))
	}
	withData := 0
	for _, d := range days {
		if d.HasData {
			withData++
		} else if d.Totals.Calories != 0 {
			t.Errorf("%s has no data but calories %d", d.Date.Format("2006-01-02"), d.Totals.Calories)
		}
	}
	if withData != 2 {
		t.Errorf("%d days with data, want 2", withData)
	}
	if !days[1].HasData || days[1].Totals.Calories != 1800 {
		t.Errorf("monday = %+v", days[1])
	}
	if total.Calories != 3900 || !approx(total.ProteinG, 200) {
		t.Errorf("range total = %+v", total)
	}
}
