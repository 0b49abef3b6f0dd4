package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

var handlerNow = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

// setupRiskTest builds a Handler backed by the in-memory store and mounts the
// risk-factor routes behind a stub that sets user_id, skipping the DB-backed
// auth middleware. No DB needed.
func setupRiskTest(submitDelay time.Duration) (*gin.Engine, *recordingPublisher) {
	gin.SetMode(gin.TestMode)

	pub := &recordingPublisher{}
	svc := newRiskFactorService(newMemoryStore[riskFactorRecord](), pub, submitDelay, false)
	svc.now = func() time.Time { return handlerNow }
	h := &Handler{risk: svc, now: func() time.Time { return handlerNow }}

	router := gin.New()
	api := router.Group("/api", func(c *gin.Context) {
		c.Set("user_id", 1)
		c.Next()
	})
	api.POST("/risk-factors", h.saveRiskFactors)
	api.GET("/risk-factors", h.getRiskFactors)
	api.PUT("/risk-factors", h.updateRiskFactors)
	api.DELETE("/risk-factors", h.deleteRiskFactors)
	api.GET("/risk-factors/statistics", h.getRiskStatistics)
	api.POST("/risk-factors/submit", h.submitRiskFactors)
	return router, pub
}

// doRequest sends a request with an optional JSON body.
func doRequest(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// riskBody returns a risk-factor JSON body stamped at handlerNow.
func riskBody(flags string) string {
	ts := strconv.FormatInt(handlerNow.UnixMilli(), 10)
	if flags == "" {
		return `{"registered_at":` + ts + `}`
	}
	return `{` + flags + `,"registered_at":` + ts + `}`
}

/* ─── Public routes ──────────────────────────────────────────────────── */

func TestPublicRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := &Handler{now: func() time.Time { return handlerNow }}
	router := newRouter([]string{"*"})
	h.registerRoutes(router)

	t.Run("healthz", func(t *testing.T) {
		w := doRequest(router, "GET", "/healthz", "")
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
	})

	t.Run("validate personal data", func(t *testing.T) {
		w := doRequest(router, "POST", "/api/registration/personal-data/validate",
			`{"date_of_birth":"15/05/2011","gender":"Masculino","height":"170","weight":"70"}`)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
		var resp struct {
			DateOfBirth validationResult `json:"date_of_birth"`
			Form        validationResult `json:"form"`
			BMICategory string           `json:"bmi_category"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		if resp.Form.Valid || resp.DateOfBirth.Code != codeRange {
			t.Errorf("expected age range failure, got %+v", resp)
		}
		if resp.BMICategory != "normal" {
			t.Errorf("bmi_category = %q", resp.BMICategory)
		}
	})

	t.Run("format input", func(t *testing.T) {
		w := doRequest(router, "POST", "/api/input/format", `{"date":"1505199","numeric":"7a2.5.1"}`)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		var resp map[string]string
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		if resp["date"] != "15/05/199" || resp["numeric"] != "72.51" {
			t.Errorf("resp = %v", resp)
		}
	})

	t.Run("bad body", func(t *testing.T) {
		w := doRequest(router, "POST", "/api/input/format", `{`)
		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
	})

	t.Run("protected route without token", func(t *testing.T) {
		w := doRequest(router, "GET", "/api/risk-factors", "")
		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", w.Code)
		}
	})
}

/* ─── Risk factor routes ─────────────────────────────────────────────── */

func TestRiskFactors_CRUD(t *testing.T) {
	router, pub := setupRiskTest(0)

	if w := doRequest(router, "GET", "/api/risk-factors", ""); w.Code != http.StatusNotFound {
		t.Fatalf("GET before save: expected 404, got %d", w.Code)
	}
	if w := doRequest(router, "PUT", "/api/risk-factors", riskBody(`"smoking":true`)); w.Code != http.StatusNotFound {
		t.Fatalf("PUT before save: expected 404, got %d", w.Code)
	}

	w := doRequest(router, "POST", "/api/risk-factors", riskBody(`"hypertension":true,"diabetes":true`))
	if w.Code != http.StatusCreated {
		t.Fatalf("POST: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var rec riskFactorRecord
	if err := json.Unmarshal(w.Body.Bytes(), &rec); err != nil {
		t.Fatal(err)
	}
	if rec.RiskScore != 35 || !rec.Hypertension || !rec.Diabetes {
		t.Errorf("saved record = %+v", rec)
	}

	w = doRequest(router, "PUT", "/api/risk-factors", riskBody(`"smoking":true`))
	if w.Code != http.StatusOK {
		t.Fatalf("PUT: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = doRequest(router, "GET", "/api/risk-factors/statistics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("statistics: expected 200, got %d", w.Code)
	}
	var stats riskStatistics
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatal(err)
	}
	if stats.TotalFactors != 1 || stats.RiskScore != 18 || stats.RiskLevel != riskLow {
		t.Errorf("statistics = %+v", stats)
	}

	for i := 0; i < 2; i++ {
		if w := doRequest(router, "DELETE", "/api/risk-factors", ""); w.Code != http.StatusNoContent {
			t.Fatalf("DELETE #%d: expected 204, got %d", i+1, w.Code)
		}
	}
	if w := doRequest(router, "GET", "/api/risk-factors/statistics", ""); w.Code != http.StatusNotFound {
		t.Errorf("statistics after delete: expected 404, got %d", w.Code)
	}

	want := []string{eventRiskSaved, eventRiskUpdated, eventRiskDeleted}
	got := pub.types()
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("events[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestRiskFactors_Validation(t *testing.T) {
	router, _ := setupRiskTest(0)

	cases := []struct {
		name     string
		body     string
		wantCode int
		wantErr  validationCode
	}{
		{"malformed json", `{"smoking":`, http.StatusBadRequest, ""},
		{"missing timestamp", `{"smoking":true}`, http.StatusUnprocessableEntity, codeInvalidData},
		{"stale timestamp", `{"smoking":true,"registered_at":` +
			strconv.FormatInt(handlerNow.Add(-2*time.Hour).UnixMilli(), 10) + `}`,
			http.StatusUnprocessableEntity, codeTooOld},
		{"future timestamp", `{"smoking":true,"registered_at":` +
			strconv.FormatInt(handlerNow.Add(time.Hour).UnixMilli(), 10) + `}`,
			http.StatusUnprocessableEntity, codeFuture},
		{"no factors is allowed", riskBody(""), http.StatusCreated, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doRequest(router, "POST", "/api/risk-factors", tc.body)
			if w.Code != tc.wantCode {
				t.Fatalf("expected %d, got %d: %s", tc.wantCode, w.Code, w.Body.String())
			}
			if tc.wantErr != "" {
				var r validationResult
				if err := json.Unmarshal(w.Body.Bytes(), &r); err != nil {
					t.Fatal(err)
				}
				if r.Valid || r.Code != tc.wantErr || r.ErrorMessage == nil {
					t.Errorf("validation body = %s", w.Body.String())
				}
			}
		})
	}
}

func TestRiskFactors_Submit(t *testing.T) {
	router, pub := setupRiskTest(5 * time.Millisecond)

	w := doRequest(router, "POST", "/api/risk-factors/submit", riskBody(`"hypertension":true,"diabetes":true`))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Success         bool     `json:"success"`
		RiskScore       *int     `json:"risk_score"`
		RiskLevel       string   `json:"risk_level"`
		Recommendations []string `json:"recommendations"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Success || resp.RiskScore == nil || *resp.RiskScore != 35 || resp.RiskLevel != "moderate" {
		t.Errorf("resp = %s", w.Body.String())
	}
	if len(resp.Recommendations) != 4 {
		t.Errorf("recommendations = %v", resp.Recommendations)
	}
	if len(pub.types()) != 0 {
		t.Error("submit must not store or publish")
	}
	if w := doRequest(router, "GET", "/api/risk-factors", ""); w.Code != http.StatusNotFound {
		t.Errorf("submit must not store: GET returned %d", w.Code)
	}
}
