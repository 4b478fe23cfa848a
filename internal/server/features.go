package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xaenox/feature-scout/internal/models"
)

type createFeatureRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description" binding:"required"`
	Category    string   `json:"category" binding:"required"`
	Complexity  int      `json:"complexity" binding:"required,min=1,max=5"`
	Keywords    []string `json:"keywords"`
}

func (s *Server) createFeature(c *gin.Context) {
	var req createFeatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	if req.Keywords == nil {
		req.Keywords = []string{}
	}
	feature := &models.Feature{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Complexity:  req.Complexity,
		Keywords:    req.Keywords,
		Popularity:  0.0,
	}
	if err := s.store.CreateFeature(c.Request.Context(), feature); err != nil {
		s.respondStorageError(c, err, "feature")
		return
	}
	c.JSON(http.StatusCreated, feature)
}

func (s *Server) getFeature(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	feature, err := s.store.GetFeature(c.Request.Context(), id)
	if err != nil {
		s.respondStorageError(c, err, "feature")
		return
	}
	c.JSON(http.StatusOK, feature)
}

func (s *Server) listFeatures(c *gin.Context) {
	offset, limit := pagination(c)
	features, err := s.store.ListFeatures(c.Request.Context(), offset, limit)
	if err != nil {
		s.respondStorageError(c, err, "feature")
		return
	}
	if features == nil {
		features = []*models.Feature{}
	}
	c.JSON(http.StatusOK, features)
}
