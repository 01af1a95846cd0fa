// Catalog HTTP handlers.
//
// This file exposes the read-only reference data endpoints:
//   - GET /tags                    (all tags)
//   - GET /tags/{id}
//   - GET /ingredients?name=...    (ranked name search)
//   - GET /ingredients/{id}
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-recipe-backend/internal/services"
)

// ListTags godoc
// @ID          listTags
// @Summary     List all tags
// @Tags        Catalog
// @Produce     json
//
// @Success     200  {array}  domain.Tag
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /tags [get]
func (h *Handlers) ListTags(c *gin.Context) {
	tags, err := h.catalogSvc.ListTags(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, tags)
}

// GetTag godoc
// @ID          getTag
// @Summary     Tag by id
// @Tags        Catalog
// @Produce     json
//
// @Param       id  path  int  true  "Tag ID"
//
// @Success     200  {object} domain.Tag
// @Failure     404  {object} handlers.ErrorResponse "Tag not found"
// @Router      /tags/{id} [get]
func (h *Handlers) GetTag(c *gin.Context) {
	id, okID := pathID(c)
	if !okID {
		return
	}
	tag, err := h.catalogSvc.GetTag(c.Request.Context(), id)
	if err != nil {
		if err == services.ErrTagNotFound {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "tag not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, tag)
}

// SearchIngredients godoc
// @ID          searchIngredients
// @Summary     Search ingredients by name
// @Description Case-insensitive search; names starting with the query rank before mid-word matches.
// @Tags        Catalog
// @Produce     json
//
// @Param       name  query  string  false  "Name fragment"
//
// @Success     200  {array}  domain.Ingredient
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /ingredients [get]
func (h *Handlers) SearchIngredients(c *gin.Context) {
	found, err := h.catalogSvc.SearchIngredients(c.Request.Context(), c.Query("name"))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, found)
}

// GetIngredient godoc
// @ID          getIngredient
// @Summary     Ingredient by id
// @Tags        Catalog
// @Produce     json
//
// @Param       id  path  int  true  "Ingredient ID"
//
// @Success     200  {object} domain.Ingredient
// @Failure     404  {object} handlers.ErrorResponse "Ingredient not found"
// @Router      /ingredients/{id} [get]
func (h *Handlers) GetIngredient(c *gin.Context) {
	id, okID := pathID(c)
	if !okID {
		return
	}
	ing, err := h.catalogSvc.GetIngredient(c.Request.Context(), id)
	if err != nil {
		if err == services.ErrIngredientNotFound {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "ingredient not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, ing)
}
