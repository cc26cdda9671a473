package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	portssvc "github.com/cuidobem/finance-backend/internal/core/ports/services"
	"github.com/cuidobem/finance-backend/internal/dto"
	"github.com/cuidobem/finance-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

// settingsHandler handles HTTP requests related to runtime settings.
type settingsHandler struct {
	settingsService portssvc.SettingsSvcFacade
}

// newSettingsHandler creates a new settingsHandler.
func newSettingsHandler(ss portssvc.SettingsSvcFacade) *settingsHandler {
	return &settingsHandler{
		settingsService: ss,
	}
}

// registerSettingsRoutes registers routes related to settings.
func registerSettingsRoutes(rg *gin.RouterGroup, settingsService portssvc.SettingsSvcFacade) {
	h := newSettingsHandler(settingsService)

	settings := rg.Group("/settings")
	{
		settings.GET("/:key", h.getSetting)
		settings.PUT("/:key", h.updateSetting)
		settings.GET("/:key/history", h.settingHistory)
	}
}

// getSetting godoc
// @Summary Get a setting
// @Tags settings
// @Produce  json
// @Param   key path string true "Setting key"
// @Success 200 {object} dto.SettingResponse
// @Failure 404 {object} map[string]string "Setting not found"
// @Router /settings/{key} [get]
func (h *settingsHandler) getSetting(c *gin.Context) {
	setting, err := h.settingsService.Get(c.Request.Context(), c.Param("key"))
	if err != nil {
		respondError(c, err, "Failed to retrieve setting")
		return
	}
	c.JSON(http.StatusOK, dto.ToSettingResponse(setting))
}

// updateSetting godoc
// @Summary Write a setting
// @Description Writes the value, records history, and invalidates the in-process cache
// @Tags settings
// @Accept  json
// @Produce  json
// @Param   key path string true "Setting key"
// @Param   setting body dto.UpdateSettingRequest true "New value"
// @Success 200 {object} dto.SettingResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Router /settings/{key} [put]
func (h *settingsHandler) updateSetting(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.UpdateSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for UpdateSetting", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	setting, err := h.settingsService.Set(c.Request.Context(), c.Param("key"), req.Value, actorID(c))
	if err != nil {
		respondError(c, err, "Failed to update setting")
		return
	}
	c.JSON(http.StatusOK, dto.ToSettingResponse(setting))
}

// settingHistory godoc
// @Summary List a setting's superseded values
// @Description Retrieves prior values, newest first
// @Tags settings
// @Produce  json
// @Param   key path string true "Setting key"
// @Param   limit query int false "Page size" default(20)
// @Success 200 {array} dto.SettingHistoryResponse
// @Router /settings/{key}/history [get]
func (h *settingsHandler) settingHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	history, err := h.settingsService.History(c.Request.Context(), c.Param("key"), limit)
	if err != nil {
		respondError(c, err, "Failed to retrieve setting history")
		return
	}
	c.JSON(http.StatusOK, dto.ToSettingHistoryResponses(history))
}
