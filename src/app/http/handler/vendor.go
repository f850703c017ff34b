package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/yash-surviantllc/FixRx-sub003/src/app/http/dto"
	"github.com/yash-surviantllc/FixRx-sub003/src/app/http/response"
	"github.com/yash-surviantllc/FixRx-sub003/src/app/middleware"
	"github.com/yash-surviantllc/FixRx-sub003/src/core/usecase"
)

// VendorHandler serves vendor search endpoints.
type VendorHandler struct {
	search *usecase.VendorSearchService
}

// NewVendorHandler creates a new VendorHandler.
func NewVendorHandler(search *usecase.VendorSearchService) *VendorHandler {
	return &VendorHandler{search: search}
}

// Nearby lists active vendors around a point, nearest first.
// GET /v1/vendors/nearby?lat=..&lng=..&radius_km=..&categories=a,b
func (h *VendorHandler) Nearby(c *gin.Context) {
	requestID := middleware.GetRequestID(c)

	var q dto.NearbyVendorsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "lat, lng and a positive radius_km are required: "+err.Error(), requestID)
		return
	}

	res, err := h.search.Nearby(c.Request.Context(), q.ToRequest())
	if err != nil {
		response.FromDomainError(c, err, requestID)
		return
	}

	response.OK(c, dto.NewNearbyVendorsResponse(res))
}
