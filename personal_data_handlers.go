package main

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

// validatePersonalData validates the registration form without saving it. Every
// field gets its own result so the client can show all errors at once; "form"
// carries the first failure in form order.
// POST /api/registration/personal-data/validate (public).
func (h *Handler) validatePersonalData(c *gin.Context) {
	var form personalDataForm
	if err := c.ShouldBindJSON(&form); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	c.JSON(http.StatusOK, evaluatePersonalData(form, h.now()))
}

// formatInput applies the as-you-type masks to whichever fields are present.
// POST /api/input/format. Body: { "date"?: "...", "numeric"?: "..." }.
func (h *Handler) formatInput(c *gin.Context) {
	var body struct {
		Date    *string `json:"date"`
		Numeric *string `json:"numeric"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	resp := gin.H{}
	if body.Date != nil {
		resp["date"] = formatDateInput(*body.Date)
	}
	if body.Numeric != nil {
		resp["numeric"] = sanitizeNumericInput(*body.Numeric)
	}
	c.JSON(http.StatusOK, resp)
}

// getPersonalData returns the stored personal data for the authenticated user,
// with age and BMI label computed on read.
// GET /api/personal-data.
func (h *Handler) getPersonalData(c *gin.Context) {
	userID := c.GetInt("user_id")

	rec, err := queryOne[personalDataRecord](h.db, c,
		"SELECT * FROM personal_data WHERE user_id = @userID",
		pgx.NamedArgs{"userID": userID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			apiError(c, http.StatusNotFound, "personal data not found")
		} else {
			apiError(c, http.StatusInternalServerError, "failed to fetch personal data")
		}
		return
	}

	h.populateComputed(&rec)
	c.JSON(http.StatusOK, rec)
}

// putPersonalData saves the complete registration form. The form must pass
// validateCompleteForm; the first failing field is returned as 422.
// PUT /api/personal-data.
func (h *Handler) putPersonalData(c *gin.Context) {
	userID := c.GetInt("user_id")

	var form personalDataForm
	if err := c.ShouldBindJSON(&form); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if r := validateCompleteForm(form, h.now()); !r.Valid {
		validationError(c, r)
		return
	}

	// Validators have already accepted these, so parse errors are impossible here.
	dob, _ := time.Parse(dobLayout, form.DateOfBirth)
	height, _ := strconv.Atoi(form.Height)
	weight, _ := strconv.ParseFloat(form.Weight, 64)
	bmi := bmiFromMetrics(float64(height), weight)

	rec, err := queryOne[personalDataRecord](h.db, c,
		`INSERT INTO personal_data (user_id, date_of_birth, gender, height_cm, weight_kg, bmi, bmi_category, updated_at)
		 VALUES (@userID, @dob, @gender, @height, @weight, @bmi, @category, NOW())
		 ON CONFLICT (user_id) DO UPDATE SET
			date_of_birth = EXCLUDED.date_of_birth,
			gender        = EXCLUDED.gender,
			height_cm     = EXCLUDED.height_cm,
			weight_kg     = EXCLUDED.weight_kg,
			bmi           = EXCLUDED.bmi,
			bmi_category  = EXCLUDED.bmi_category,
			updated_at    = NOW()
		 RETURNING *`,
		pgx.NamedArgs{
			"userID":   userID,
			"dob":      dob.Format("2006-01-02"),
			"gender":   form.Gender,
			"height":   height,
			"weight":   weight,
			"bmi":      bmi,
			"category": string(categorizeBMI(bmi)),
		})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to save personal data")
		return
	}

	h.populateComputed(&rec)
	c.JSON(http.StatusOK, rec)
}

// patchPersonalData updates only the provided fields. Each provided field is run
// through its own validator; BMI is recomputed in SQL from the resulting height
// and weight so a partial update never leaves a stale BMI behind.
// PATCH /api/personal-data.
func (h *Handler) patchPersonalData(c *gin.Context) {
	userID := c.GetInt("user_id")

	var body patchPersonalDataRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	// Build SET clause dynamically: only update fields the client actually sent
	setClauses := []string{}
	args := pgx.NamedArgs{"userID": userID}

	if body.DateOfBirth != nil {
		if r := validateDateOfBirth(*body.DateOfBirth, h.now()); !r.Valid {
			validationError(c, r)
			return
		}
		dob, _ := time.Parse(dobLayout, *body.DateOfBirth)
		setClauses = append(setClauses, "date_of_birth = @dob")
		args["dob"] = dob.Format("2006-01-02")
	}
	if body.Gender != nil {
		if r := validateGender(*body.Gender); !r.Valid {
			validationError(c, r)
			return
		}
		setClauses = append(setClauses, "gender = @gender")
		args["gender"] = *body.Gender
	}
	if body.Height != nil {
		if r := validateHeight(*body.Height); !r.Valid {
			validationError(c, r)
			return
		}
		height, _ := strconv.Atoi(*body.Height)
		setClauses = append(setClauses, "height_cm = @height")
		args["height"] = height
	}
	if body.Weight != nil {
		if r := validateWeight(*body.Weight); !r.Valid {
			validationError(c, r)
			return
		}
		weight, _ := strconv.ParseFloat(*body.Weight, 64)
		setClauses = append(setClauses, "weight_kg = @weight")
		args["weight"] = weight
	}

	if len(setClauses) == 0 {
		apiError(c, http.StatusBadRequest, "no fields to update")
		return
	}

	query := "INSERT INTO personal_data (user_id) VALUES (@userID) ON CONFLICT (user_id) DO UPDATE SET " +
		strings.Join(setClauses, ", ") + ", updated_at = NOW() RETURNING *"

	// The field update and the BMI refresh commit together so a failure never
	// leaves new metrics next to a stale BMI.
	tx, err := h.db.Begin(c)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to start transaction")
		return
	}
	defer tx.Rollback(c)

	rec, err := queryOne[personalDataRecord](tx, c, query, args)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to update personal data")
		return
	}

	if bmi, category, ok := recordBMI(rec); ok {
		rec, err = queryOne[personalDataRecord](tx, c,
			"UPDATE personal_data SET bmi = @bmi, bmi_category = @category WHERE user_id = @userID RETURNING *",
			pgx.NamedArgs{"bmi": bmi, "category": category, "userID": userID})
		if err != nil {
			apiError(c, http.StatusInternalServerError, "failed to update bmi")
			return
		}
	}

	if err := tx.Commit(c); err != nil {
		apiError(c, http.StatusInternalServerError, "failed to commit personal data")
		return
	}

	h.populateComputed(&rec)
	c.JSON(http.StatusOK, rec)
}

// recordBMI returns the BMI and category for the stored metrics, ok=false until
// both height and weight are known.
func recordBMI(rec personalDataRecord) (bmi float64, category string, ok bool) {
	if rec.HeightCM == nil || rec.WeightKG == nil {
		return 0, "", false
	}
	bmi = bmiFromMetrics(float64(*rec.HeightCM), *rec.WeightKG)
	if bmi == 0 {
		return 0, "", false
	}
	return bmi, string(categorizeBMI(bmi)), true
}

// populateComputed fills the read-only fields of rec.
func (h *Handler) populateComputed(rec *personalDataRecord) {
	if rec.DateOfBirth != nil && !rec.DateOfBirth.IsZero() {
		age := ageOn(rec.DateOfBirth.Time, h.now())
		rec.Age = &age
	}
	if rec.BMICategory != nil {
		label := bmiCategory(*rec.BMICategory).Label()
		rec.BMILabel = &label
	}
}
