package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/promptforge/promptforge-backend/internal/services"
	"github.com/promptforge/promptforge-backend/internal/types"
)

type ProviderHandler struct {
	providerService services.ProviderService
}

func NewProviderHandler(providerService services.ProviderService) *ProviderHandler {
	return &ProviderHandler{providerService: providerService}
}

func (h *ProviderHandler) Create(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", err)
		return
	}
	var input services.ProviderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	provider, err := h.providerService.Create(c.Request.Context(), userID, input)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "create_failed", err)
		return
	}
	RespondOK(c, gin.H{"provider": provider.ToResponse()})
}

func (h *ProviderHandler) List(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", err)
		return
	}
	enabledOnly := c.Query("enabled") == "1" || c.Query("enabled") == "true"
	providers, err := h.providerService.List(c.Request.Context(), userID, enabledOnly)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	responses := make([]*types.APIProviderResponse, 0, len(providers))
	for _, p := range providers {
		responses = append(responses, p.ToResponse())
	}
	RespondOK(c, gin.H{"providers": responses})
}

func (h *ProviderHandler) Get(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", err)
		return
	}
	providerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	provider, err := h.providerService.Get(c.Request.Context(), userID, providerID)
	if err != nil {
		RespondError(c, http.StatusNotFound, "provider_not_found", err)
		return
	}
	RespondOK(c, gin.H{"provider": provider.ToResponse()})
}

func (h *ProviderHandler) Update(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", err)
		return
	}
	providerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	var input services.ProviderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	provider, err := h.providerService.Update(c.Request.Context(), userID, providerID, input)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "update_failed", err)
		return
	}
	RespondOK(c, gin.H{"provider": provider.ToResponse()})
}

func (h *ProviderHandler) Delete(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", err)
		return
	}
	providerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := h.providerService.Delete(c.Request.Context(), userID, providerID); err != nil {
		RespondError(c, http.StatusBadRequest, "delete_failed", err)
		return
	}
	RespondOK(c, gin.H{"message": "provider deleted"})
}
