package main

import (
	"errors"
	"log"
	"net/http"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 8

// dummyHash is a pre-computed bcrypt hash used when a login username isn't found.
// Running bcrypt against it (instead of returning early) keeps response time
// constant, preventing timing-based username enumeration.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy"), bcrypt.DefaultCost)

// login verifies credentials and returns the user's auth token. The login field
// matches either the username or the email.
// POST /api/login (public, no auth required).
func (h *Handler) login(c *gin.Context) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	u, lookupErr := queryOne[user](h.db, c,
		"SELECT * FROM users WHERE username = @login OR email = @login",
		pgx.NamedArgs{"login": strings.TrimSpace(body.Username)})

	// Always run bcrypt to keep response time constant regardless of whether the
	// username was found.
	hashToCheck := string(dummyHash)
	if lookupErr == nil {
		hashToCheck = u.Password
	}
	compareErr := bcrypt.CompareHashAndPassword([]byte(hashToCheck), []byte(body.Password))

	if lookupErr != nil || compareErr != nil {
		apiError(c, http.StatusUnauthorized, "invalid credentials")
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": u.AuthToken, "user_id": u.ID})
}

// registerRequest is the final step of the registration wizard: account
// credentials plus the personal-data form exactly as typed.
type registerRequest struct {
	Email        string           `json:"email"`
	Password     string           `json:"password"`
	PersonalData personalDataForm `json:"personal_data"`
}

// register creates an account and its personal data in one transaction. The
// personal data must pass validateCompleteForm; failures return 422.
// POST /api/register (public).
func (h *Handler) register(c *gin.Context) {
	var body registerRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	email, ok := normalizeEmail(body.Email)
	if !ok {
		apiError(c, http.StatusBadRequest, "invalid email")
		return
	}
	if len(body.Password) < minPasswordLen {
		apiError(c, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}
	if r := validateCompleteForm(body.PersonalData, h.now()); !r.Valid {
		validationError(c, r)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to hash password")
		return
	}
	token := uuid.New().String()

	form := body.PersonalData
	dob, _ := time.Parse(dobLayout, form.DateOfBirth)
	height, _ := strconv.Atoi(form.Height)
	weight, _ := strconv.ParseFloat(form.Weight, 64)
	bmi := bmiFromMetrics(float64(height), weight)

	tx, err := h.db.Begin(c)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to start transaction")
		return
	}
	defer tx.Rollback(c)

	var userID int
	err = tx.QueryRow(c,
		`INSERT INTO users (username, email, password, auth_token)
		 VALUES (@email, @email, @password, @token)
		 ON CONFLICT DO NOTHING
		 RETURNING id`,
		pgx.NamedArgs{"email": email, "password": string(hash), "token": token}).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		apiError(c, http.StatusConflict, "email already registered")
		return
	}
	if err != nil {
		log.Printf("[register] insert user: %v", err)
		apiError(c, http.StatusInternalServerError, "failed to create user")
		return
	}

	if _, err := tx.Exec(c,
		`INSERT INTO personal_data (user_id, date_of_birth, gender, height_cm, weight_kg, bmi, bmi_category, updated_at)
		 VALUES (@userID, @dob, @gender, @height, @weight, @bmi, @category, NOW())`,
		pgx.NamedArgs{
			"userID": userID, "dob": dob.Format("2006-01-02"), "gender": form.Gender,
			"height": height, "weight": weight, "bmi": bmi, "category": string(categorizeBMI(bmi)),
		}); err != nil {
		log.Printf("[register] insert personal data for user %d: %v", userID, err)
		apiError(c, http.StatusInternalServerError, "failed to save personal data")
		return
	}

	if err := tx.Commit(c); err != nil {
		apiError(c, http.StatusInternalServerError, "failed to commit registration")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"token": token, "user_id": userID})
}

// normalizeEmail lower-cases and trims raw and accepts it only as a bare address;
// display-name forms like "Bob <bob@example.com>" are rejected.
func normalizeEmail(raw string) (string, bool) {
	email := strings.ToLower(strings.TrimSpace(raw))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", false
	}
	return email, true
}

// authMiddleware validates the Bearer token and sets user_id on the context.
func (h *Handler) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			apiError(c, http.StatusUnauthorized, "missing or invalid authorization header")
			c.Abort()
			return
		}
		token := strings.TrimPrefix(header, "Bearer ")

		var userID int
		err := h.db.QueryRow(c, "SELECT id FROM users WHERE auth_token = $1", token).Scan(&userID)
		if err != nil {
			apiError(c, http.StatusUnauthorized, "invalid token")
			c.Abort()
			return
		}

		c.Set("user_id", userID)
		c.Next()
	}
}
