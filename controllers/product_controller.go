package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/markings199/DRIFTWEAR-E-commerce-Fashion-Platform-sub001/apperrors"
	"github.com/markings199/DRIFTWEAR-E-commerce-Fashion-Platform-sub001/services"
)

type ProductController struct {
	Products services.ProductService
	Logger   *zap.Logger
}

func NewProductController(products services.ProductService, logger *zap.Logger) *ProductController {
	return &ProductController{Products: products, Logger: logger}
}

func (pc *ProductController) GetProducts(c *gin.Context) {
	category := c.Query("category")

	limit := int64(50)
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 1 {
			apperrors.Respond(c, apperrors.ErrInvalidPayload)
			return
		}
		limit = parsed
	}

	products, err := pc.Products.ListProducts(c.Request.Context(), category, limit)
	if err != nil {
		pc.Logger.Error("failed to list products", zap.Error(err))
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (pc *ProductController) GetProduct(c *gin.Context) {
	product, err := pc.Products.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, product)
}
