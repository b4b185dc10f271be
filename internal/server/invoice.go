package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	invoicedomain "github.com/indigobills/indigobills/internal/invoice/domain"
	"github.com/indigobills/indigobills/internal/usercontext"
	"github.com/indigobills/indigobills/pkg/db/pagination"
)

type invoiceItemRequest struct {
	ProductID       string   `json:"product_id"`
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	HSNCode         string   `json:"hsn_code"`
	NumBags         float64  `json:"num_bags"`
	BagWeightKg     float64  `json:"bag_weight_kg"`
	RatePerBag      *float64 `json:"rate_per_bag"`
	RatePerKg       *float64 `json:"rate_per_kg"`
	DiscountPercent float64  `json:"discount_percent"`
	GSTPercent      float64  `json:"gst_percent"`
}

type invoiceClientRequest struct {
	Name           string `json:"name"`
	Address        string `json:"address"`
	MotorVehicleNo string `json:"motor_vehicle_no"`
	GSTIN          string `json:"gstin"`
	Phone          string `json:"phone"`
}

type createInvoiceRequest struct {
	ClientID        string                `json:"client_id"`
	Client          *invoiceClientRequest `json:"client"`
	MotorVehicleNo  string                `json:"motor_vehicle_no"`
	DeliveryAddress string                `json:"delivery_address"`
	Notes           string                `json:"notes"`
	DiscountPercent float64               `json:"discount_percent"`
	Items           []invoiceItemRequest  `json:"items"`
}

type replaceInvoiceRequest struct {
	MotorVehicleNo  string               `json:"motor_vehicle_no"`
	DeliveryAddress string               `json:"delivery_address"`
	Notes           string               `json:"notes"`
	DiscountPercent float64              `json:"discount_percent"`
	Items           []invoiceItemRequest `json:"items"`
}

func (s *Server) CreateInvoice(c *gin.Context) {
	userID, ok := usercontext.UserIDFromContext(c.Request.Context())
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req createInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError(err.Error()))
		return
	}

	clientID, err := parseOptionalID(req.ClientID)
	if err != nil {
		AbortWithError(c, ValidationErrors{{Field: "client_id", Message: "must be a numeric id"}})
		return
	}

	items, verrs := toItemInputs(req.Items)
	if len(verrs) > 0 {
		AbortWithError(c, verrs)
		return
	}

	in := invoicedomain.CreateInvoiceRequest{
		UserID:          userID,
		ClientID:        clientID,
		MotorVehicleNo:  req.MotorVehicleNo,
		DeliveryAddress: req.DeliveryAddress,
		Notes:           req.Notes,
		DiscountPercent: req.DiscountPercent,
		Items:           items,
	}
	if req.Client != nil {
		in.Client = &invoicedomain.ClientInput{
			Name:           req.Client.Name,
			Address:        req.Client.Address,
			MotorVehicleNo: req.Client.MotorVehicleNo,
			GSTIN:          req.Client.GSTIN,
			Phone:          req.Client.Phone,
		}
	}

	resp, err := s.invoiceSvc.Create(c.Request.Context(), in)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Invoice created",
		"invoice": resp.Invoice,
		"items":   resp.Items,
	})
}

func (s *Server) ReplaceInvoiceItems(c *gin.Context) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, invoicedomain.ErrInvalidID)
		return
	}

	var req replaceInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError(err.Error()))
		return
	}

	items, verrs := toItemInputs(req.Items)
	if len(verrs) > 0 {
		AbortWithError(c, verrs)
		return
	}

	resp, err := s.invoiceSvc.ReplaceItems(c.Request.Context(), invoicedomain.ReplaceInvoiceItemsRequest{
		InvoiceID:       id,
		MotorVehicleNo:  req.MotorVehicleNo,
		DeliveryAddress: req.DeliveryAddress,
		Notes:           req.Notes,
		DiscountPercent: req.DiscountPercent,
		Items:           items,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Invoice updated",
		"invoice": resp.Invoice,
		"items":   resp.Items,
	})
}

func (s *Server) GetInvoiceByID(c *gin.Context) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, invoicedomain.ErrInvalidID)
		return
	}

	resp, err := s.invoiceSvc.GetByID(c.Request.Context(), invoicedomain.GetInvoiceRequest{ID: id})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) ListInvoices(c *gin.Context) {
	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		AbortWithError(c, invalidRequestError(err.Error()))
		return
	}

	clientID, err := parseOptionalID(c.Query("client_id"))
	if err != nil {
		AbortWithError(c, ValidationErrors{{Field: "client_id", Message: "must be a numeric id"}})
		return
	}

	createdFrom, err := parseOptionalTime(c.Query("created_from"))
	if err != nil {
		AbortWithError(c, ValidationErrors{{Field: "created_from", Message: "must be RFC 3339"}})
		return
	}
	createdTo, err := parseOptionalTime(c.Query("created_to"))
	if err != nil {
		AbortWithError(c, ValidationErrors{{Field: "created_to", Message: "must be RFC 3339"}})
		return
	}

	resp, err := s.invoiceSvc.List(c.Request.Context(), invoicedomain.ListInvoiceRequest{
		ClientID:    clientID,
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
		PageToken:   page.PageToken,
		PageSize:    page.PageSize,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func toItemInputs(items []invoiceItemRequest) ([]invoicedomain.ItemInput, ValidationErrors) {
	var verrs ValidationErrors
	out := make([]invoicedomain.ItemInput, 0, len(items))
	for i, item := range items {
		productID, err := parseOptionalID(item.ProductID)
		if err != nil {
			verrs = append(verrs, ValidationError{
				Field:   fmt.Sprintf("items[%d].product_id", i),
				Message: "must be a numeric id",
			})
			continue
		}
		out = append(out, invoicedomain.ItemInput{
			ProductID:       productID,
			Name:            item.Name,
			Description:     item.Description,
			HSNCode:         item.HSNCode,
			NumBags:         item.NumBags,
			BagWeightKg:     item.BagWeightKg,
			RatePerBag:      item.RatePerBag,
			RatePerKg:       item.RatePerKg,
			DiscountPercent: item.DiscountPercent,
			GSTPercent:      item.GSTPercent,
		})
	}
	return out, verrs
}

func parseOptionalID(raw string) (snowflake.ID, error) {
	if raw == "" {
		return 0, nil
	}
	return snowflake.ParseString(raw)
}

func parseOptionalTime(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
