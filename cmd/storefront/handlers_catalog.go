package main

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/MikeMC777/storefront/internal/apperr"
	"github.com/MikeMC777/storefront/internal/catalog"
	"github.com/MikeMC777/storefront/internal/httpx"
	"github.com/MikeMC777/storefront/internal/money"
)

var errProductNotFound = apperr.New(apperr.KindNotFound, apperr.CodeProductNotFound, "product not found")

func listProductsHandler(repo catalog.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, offset := page(c)
		q := catalog.Query{CategoryID: strings.TrimSpace(c.Query("category_id")), Limit: limit, Offset: offset}
		items, err := repo.List(c.Request.Context(), q)
		if err != nil {
			httpx.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, catalog.ListResponse{CategoryID: q.CategoryID, Limit: limit, Offset: offset, Items: items})
	}
}

func getProductHandler(repo catalog.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := repo.GetByID(c.Request.Context(), c.Param("id"))
		if errors.Is(err, catalog.ErrNotFound) {
			httpx.Fail(c, errProductNotFound)
			return
		}
		if err != nil {
			httpx.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

func listCategoriesHandler(repo catalog.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := repo.ListCategories(c.Request.Context())
		if err != nil {
			httpx.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": out})
	}
}

func createProductHandler(repo catalog.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in catalog.CreateProductRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.BindError(c, err)
			return
		}
		price, err := money.ParsePrice(in.Price)
		if err != nil {
			httpx.Fail(c, apperr.Validation(err.Error()))
			return
		}
		p := &catalog.Product{
			ID:          uuid.NewString(),
			CategoryID:  in.CategoryID,
			Brand:       strings.TrimSpace(in.Brand),
			Name:        strings.TrimSpace(in.Name),
			Description: in.Description,
			Price:       price,
			Stock:       in.Stock,
			Available:   true,
		}
		if err := repo.Create(c.Request.Context(), p); err != nil {
			httpx.Fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, p)
	}
}

// updateProductHandler applies a partial update; absent fields keep their value.
func updateProductHandler(repo catalog.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in catalog.UpdateProductRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.BindError(c, err)
			return
		}
		if in.Price != nil {
			price, err := money.ParsePrice(*in.Price)
			if err != nil {
				httpx.Fail(c, apperr.Validation(err.Error()))
				return
			}
			s := price.StringFixed(2)
			in.Price = &s
		}
		if in.Stock != nil && *in.Stock < 0 {
			httpx.Fail(c, apperr.Validation("stock must be non-negative"))
			return
		}
		p, err := repo.Update(c.Request.Context(), c.Param("id"), in)
		if errors.Is(err, catalog.ErrNotFound) {
			httpx.Fail(c, errProductNotFound)
			return
		}
		if err != nil {
			httpx.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

func deleteProductHandler(repo catalog.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := repo.Delete(c.Request.Context(), c.Param("id"))
		if err != nil {
			httpx.Fail(c, err)
			return
		}
		if !ok {
			httpx.Fail(c, errProductNotFound)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func createCategoryHandler(repo catalog.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in catalog.CreateCategoryRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.BindError(c, err)
			return
		}
		slug := catalog.Slugify(in.Slug)
		if slug == "" {
			slug = catalog.Slugify(in.Name)
		}
		if slug == "" {
			httpx.Fail(c, apperr.Validation("name must contain letters or digits"))
			return
		}
		cat := &catalog.Category{ID: uuid.NewString(), Name: strings.TrimSpace(in.Name), Slug: slug}
		err := repo.CreateCategory(c.Request.Context(), cat)
		if errors.Is(err, catalog.ErrAlreadyExist) {
			httpx.Fail(c, apperr.New(apperr.KindConflict, apperr.CodeCategoryExists, "category slug already exists"))
			return
		}
		if err != nil {
			httpx.Fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, cat)
	}
}

func listMediaHandler(repo catalog.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := repo.ListMedia(c.Request.Context(), c.Param("id"))
		if errors.Is(err, catalog.ErrNotFound) {
			httpx.Fail(c, errProductNotFound)
			return
		}
		if err != nil {
			httpx.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": out})
	}
}

func addMediaHandler(repo catalog.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in catalog.AddMediaRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.BindError(c, err)
			return
		}
		m := &catalog.Media{ID: uuid.NewString(), ProductID: c.Param("id"), Type: in.Type, URL: strings.TrimSpace(in.URL)}
		err := repo.AddMedia(c.Request.Context(), m)
		if errors.Is(err, catalog.ErrNotFound) {
			httpx.Fail(c, errProductNotFound)
			return
		}
		if err != nil {
			httpx.Fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, m)
	}
}

func deleteMediaHandler(repo catalog.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := repo.DeleteMedia(c.Request.Context(), c.Param("id"))
		if errors.Is(err, catalog.ErrMediaNotFound) {
			httpx.Fail(c, apperr.New(apperr.KindNotFound, apperr.CodeNotFound, "product media not found"))
			return
		}
		if err != nil {
			httpx.Fail(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
