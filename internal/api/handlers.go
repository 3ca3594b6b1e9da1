package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"rwa-registry-go/internal/models"

	"github.com/gin-gonic/gin"
)

// Handler binds HTTP requests to the registry service
type Handler struct {
	svc *RegistryService
}

func NewHandler(svc *RegistryService) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.svc.HealthCheck(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) Overview(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Overview())
}

func (h *Handler) Initialize(c *gin.Context) {
	var req AdminRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.svc.Initialize(c.Request.Context(), req.Admin); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.svc.Overview())
}

func (h *Handler) SetAdmin(c *gin.Context) {
	var req AdminRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.svc.SetAdmin(c.Request.Context(), req.Admin); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.svc.Overview())
}

func (h *Handler) WhitelistCountry(c *gin.Context) {
	var req CountryRequest
	if !bindJSON(c, &req) {
		return
	}
	code := c.Param("code")
	if err := h.svc.WhitelistCountry(c.Request.Context(), code, *req.Allowed); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"country_code": code, "allowed": *req.Allowed})
}

func (h *Handler) BlacklistAddress(c *gin.Context) {
	var req BlacklistRequest
	if !bindJSON(c, &req) {
		return
	}
	address := c.Param("address")
	if err := h.svc.BlacklistAddress(c.Request.Context(), address, *req.Blocked); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"address": address, "blocked": *req.Blocked})
}

func (h *Handler) RegisterInvestor(c *gin.Context) {
	var req RegisterInvestorRequest
	if !bindJSON(c, &req) {
		return
	}
	investor, err := h.svc.RegisterInvestor(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, investor)
}

func (h *Handler) GetInvestor(c *gin.Context) {
	investor, err := h.svc.GetInvestor(c.Param("address"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, investor)
}

func (h *Handler) UpdateAccreditation(c *gin.Context) {
	var req AccreditationRequest
	if !bindJSON(c, &req) {
		return
	}
	address := c.Param("address")
	if err := h.svc.UpdateAccreditation(c.Request.Context(), address, *req.Accredited); err != nil {
		respondError(c, err)
		return
	}
	investor, err := h.svc.GetInvestor(address)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, investor)
}

func (h *Handler) Portfolio(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Portfolio(c.Param("address")))
}

func (h *Handler) AvailableDistributions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"distributions": h.svc.AvailableDistributions(c.Param("address"))})
}

func (h *Handler) CreateAsset(c *gin.Context) {
	var req CreateAssetRequest
	if !bindJSON(c, &req) {
		return
	}
	id, err := h.svc.CreateAsset(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, CreatedResponse{Id: id})
}

func (h *Handler) ListAssets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"assets": h.svc.ListAssets()})
}

func (h *Handler) GetAsset(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	asset, err := h.svc.GetAsset(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, asset)
}

func (h *Handler) UpdateValuation(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var req ValuationRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.svc.UpdateValuation(c.Request.Context(), id, req.ValuationUsd); err != nil {
		respondError(c, err)
		return
	}
	h.GetAsset(c)
}

func (h *Handler) SetTransferable(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var req TransferableRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.svc.SetTransferable(c.Request.Context(), id, *req.Transferable); err != nil {
		respondError(c, err)
		return
	}
	h.GetAsset(c)
}

func (h *Handler) TokenPrice(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	price, err := h.svc.TokenPrice(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, price)
}

func (h *Handler) Eligibility(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.svc.Eligibility(id, c.Param("address")))
}

func (h *Handler) ListHoldings(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	holdings, err := h.svc.ListHoldings(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"holdings": holdings})
}

func (h *Handler) GetHolding(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	holding, err := h.svc.GetHolding(id, c.Param("address"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, holding)
}

func (h *Handler) Invest(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var req InvestRequest
	if !bindJSON(c, &req) {
		return
	}
	holding, err := h.svc.Invest(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, holding)
}

func (h *Handler) Transfer(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var req TransferRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.svc.Transfer(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) CreateDistribution(c *gin.Context) {
	var req CreateDistributionRequest
	if !bindJSON(c, &req) {
		return
	}
	distribution, err := h.svc.CreateDistribution(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, distribution)
}

func (h *Handler) GetDistribution(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	distribution, err := h.svc.GetDistribution(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, distribution)
}

func (h *Handler) ClaimDistribution(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var req ClaimRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.svc.ClaimDistribution(c.Request.Context(), id, req.Investor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) ListAssetDistributions(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	distributions, err := h.svc.ListDistributions(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"distributions": distributions})
}

func (h *Handler) ListClaims(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	claims, err := h.svc.ListClaims(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"claims": claims})
}

func (h *Handler) ClaimStatus(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	status, err := h.svc.ClaimStatus(id, c.Param("address"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (h *Handler) ListEvents(c *gin.Context) {
	filter := models.EventFilter{
		Type:  models.EventType(c.Query("type")),
		Actor: c.Query("actor"),
	}
	var err error
	if filter.AssetId, err = queryUint(c, "asset_id"); err != nil {
		respondError(c, err)
		return
	}
	limit, err := queryUint(c, "limit")
	if err != nil {
		respondError(c, err)
		return
	}
	offset, err := queryUint(c, "offset")
	if err != nil {
		respondError(c, err)
		return
	}
	filter.Limit, filter.Offset = int(limit), int(offset)

	events, err := h.svc.ListEvents(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, EventsResponse{Events: events, Limit: filter.Limit, Offset: filter.Offset})
}

func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return false
	}
	return true
}

func pathId(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondBadRequest(c, "Invalid id", "id must be a non-negative integer")
		return 0, false
	}
	return id, true
}

func queryUint(c *gin.Context, name string) (uint64, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, invalidInput("%s must be a non-negative integer", name)
	}
	return v, nil
}
