package main

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// bindRiskFactors decodes the request body and checks the registration timestamp.
// It writes the error response itself and returns ok=false on failure.
func (h *Handler) bindRiskFactors(c *gin.Context) (riskFactorSet, bool) {
	var set riskFactorSet
	if err := c.ShouldBindJSON(&set); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return set, false
	}
	if r := validateRiskFactors(set); !r.Valid {
		validationError(c, r)
		return set, false
	}
	if r := validateRegistrationTimestamp(set.RegisteredAt, h.now()); !r.Valid {
		validationError(c, r)
		return set, false
	}
	return set, true
}

// saveRiskFactors validates, scores and stores the user's risk factors.
// POST /api/risk-factors. Responds 201 with the stored record.
func (h *Handler) saveRiskFactors(c *gin.Context) {
	userID := c.GetInt("user_id")
	set, ok := h.bindRiskFactors(c)
	if !ok {
		return
	}

	rec, result, err := h.risk.Save(c, userID, set)
	if err != nil {
		log.Printf("[saveRiskFactors] user %d: %v", userID, err)
		apiError(c, http.StatusInternalServerError, "failed to save risk factors")
		return
	}
	if !result.Valid {
		validationError(c, result)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

// getRiskFactors returns the stored record, 404 when none exists.
// GET /api/risk-factors.
func (h *Handler) getRiskFactors(c *gin.Context) {
	userID := c.GetInt("user_id")
	rec, err := h.risk.Get(c, userID)
	if err != nil {
		h.storeError(c, "getRiskFactors", userID, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// updateRiskFactors replaces the flags of an existing record.
// PUT /api/risk-factors. 404 when nothing has been saved yet.
func (h *Handler) updateRiskFactors(c *gin.Context) {
	userID := c.GetInt("user_id")
	set, ok := h.bindRiskFactors(c)
	if !ok {
		return
	}

	rec, result, err := h.risk.Update(c, userID, set)
	if err != nil {
		h.storeError(c, "updateRiskFactors", userID, err)
		return
	}
	if !result.Valid {
		validationError(c, result)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// deleteRiskFactors removes the stored record. Always 204, even when nothing was stored.
// DELETE /api/risk-factors.
func (h *Handler) deleteRiskFactors(c *gin.Context) {
	userID := c.GetInt("user_id")
	if err := h.risk.Delete(c, userID); err != nil {
		log.Printf("[deleteRiskFactors] user %d: %v", userID, err)
		apiError(c, http.StatusInternalServerError, "failed to delete risk factors")
		return
	}
	c.Status(http.StatusNoContent)
}

// getRiskStatistics returns factor count, score, level and last update time.
// GET /api/risk-factors/statistics.
func (h *Handler) getRiskStatistics(c *gin.Context) {
	userID := c.GetInt("user_id")
	stats, err := h.risk.Statistics(c, userID)
	if err != nil {
		h.storeError(c, "getRiskStatistics", userID, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// submitRiskFactors runs the simulated remote assessment and returns score, level
// and recommendations without storing anything. A client disconnect during the
// simulated latency cancels the request.
// POST /api/risk-factors/submit.
func (h *Handler) submitRiskFactors(c *gin.Context) {
	set, ok := h.bindRiskFactors(c)
	if !ok {
		return
	}

	resp, err := h.risk.Submit(c.Request.Context(), set)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			apiError(c, http.StatusRequestTimeout, "request cancelled")
			return
		}
		apiError(c, http.StatusInternalServerError, "failed to submit risk factors")
		return
	}
	if !resp.Success {
		c.JSON(http.StatusUnprocessableEntity, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// storeError maps store errors to 404 or 500.
func (h *Handler) storeError(c *gin.Context, fn string, userID int, err error) {
	if errors.Is(err, errRecordNotFound) {
		apiError(c, http.StatusNotFound, "risk factors not found")
		return
	}
	log.Printf("[%s] user %d: %v", fn, userID, err)
	apiError(c, http.StatusInternalServerError, "failed to load risk factors")
}
