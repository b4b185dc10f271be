package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	clientdomain "github.com/indigobills/indigobills/internal/client/domain"
)

type createClientRequest struct {
	Name           string `json:"name"`
	Address        string `json:"address"`
	MotorVehicleNo string `json:"motor_vehicle_no"`
	GSTIN          string `json:"gstin"`
	Phone          string `json:"phone"`
}

func (s *Server) CreateClient(c *gin.Context) {
	var req createClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError(err.Error()))
		return
	}

	created, err := s.clientSvc.Create(c.Request.Context(), clientdomain.CreateClientRequest{
		Name:           req.Name,
		Address:        req.Address,
		MotorVehicleNo: req.MotorVehicleNo,
		GSTIN:          req.GSTIN,
		Phone:          req.Phone,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": created})
}

// SearchClients powers the name typeahead on the invoice form. The
// response is the bare array the autocomplete widget consumes.
func (s *Server) SearchClients(c *gin.Context) {
	clients, err := s.clientSvc.Search(c.Request.Context(), clientdomain.SearchClientRequest{
		Query: c.Query("q"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, clients)
}

func (s *Server) GetClientByID(c *gin.Context) {
	found, err := s.clientSvc.GetByID(c.Request.Context(), clientdomain.GetClientRequest{
		ID: c.Param("id"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": found})
}
