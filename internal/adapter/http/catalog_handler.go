package http

import (
	"context"
	"net/http"
	"strconv"

	domain "github.com/GTRcubautos/https-github.com-gwxpgvsgsn-byte-VentaGlobal-sub001/internal/entity"
	"github.com/GTRcubautos/https-github.com-gwxpgvsgsn-byte-VentaGlobal-sub001/internal/usecase"
	"github.com/gin-gonic/gin"
)

type CatalogHandler struct {
	catalog *usecase.Catalog
}

func NewCatalogHandler(catalog *usecase.Catalog) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

type productsResp struct {
	Items []domain.Product `json:"items"`
}

// ListProducts GET /v1/products?category=&search=&limit=
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(c)
			return
		}
		limit = n
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), defaultTimeout)
	defer cancel()

	ps, err := h.catalog.List(ctx, c.Query("category"), c.Query("search"), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	if ps == nil {
		ps = []domain.Product{}
	}
	c.JSON(http.StatusOK, productsResp{Items: ps})
}

func (h *CatalogHandler) GetProduct(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), defaultTimeout)
	defer cancel()

	p, err := h.catalog.Get(ctx, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
