package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	catalogdomain "github.com/indigobills/indigobills/internal/catalog/domain"
)

type resolveProductRequest struct {
	Name               string  `json:"name"`
	DefaultBagWeightKg float64 `json:"default_bag_weight_kg"`
}

// ResolveOrCreateProduct returns the existing product with the given
// name, or creates one with a fresh HSN code. Safe to call repeatedly
// with the same name.
func (s *Server) ResolveOrCreateProduct(c *gin.Context) {
	var req resolveProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError(err.Error()))
		return
	}

	product, err := s.catalogSvc.ResolveOrCreate(c.Request.Context(), catalogdomain.ResolveOrCreateRequest{
		Name:               req.Name,
		DefaultBagWeightKg: req.DefaultBagWeightKg,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": product})
}

func (s *Server) ListProducts(c *gin.Context) {
	resp, err := s.catalogSvc.List(c.Request.Context(), catalogdomain.ListProductRequest{})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
