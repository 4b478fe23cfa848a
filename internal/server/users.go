package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/xaenox/feature-scout/internal/models"
)

type createUserRequest struct {
	Username        string `json:"username" binding:"required"`
	Email           string `json:"email" binding:"required,email"`
	ProductRole     string `json:"product_role" binding:"required"`
	ExperienceLevel string `json:"experience_level" binding:"required"`
}

func (s *Server) createUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	user := &models.User{
		Username:        req.Username,
		Email:           req.Email,
		ProductRole:     req.ProductRole,
		ExperienceLevel: req.ExperienceLevel,
		DiscoveryScore:  0.0,
	}
	if err := s.store.CreateUser(c.Request.Context(), user); err != nil {
		s.respondStorageError(c, err, "user")
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (s *Server) getUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	user, err := s.store.GetUser(c.Request.Context(), id)
	if err != nil {
		s.respondStorageError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *Server) listUsers(c *gin.Context) {
	offset, limit := pagination(c)
	users, err := s.store.ListUsers(c.Request.Context(), offset, limit)
	if err != nil {
		s.respondStorageError(c, err, "user")
		return
	}
	if users == nil {
		users = []*models.User{}
	}
	c.JSON(http.StatusOK, users)
}

// discoveredFeatures lists the features a user knows at least halfway.
func (s *Server) discoveredFeatures(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	if _, err := s.store.GetUser(ctx, id); err != nil {
		s.respondStorageError(c, err, "user")
		return
	}

	interactions, err := s.store.ListUserInteractions(ctx, id)
	if err != nil {
		s.respondStorageError(c, err, "interaction")
		return
	}

	features := []*models.Feature{}
	for _, interaction := range interactions {
		if interaction.DiscoveryStatus < 0.5 {
			continue
		}
		feature, err := s.store.GetFeature(ctx, interaction.FeatureID)
		if err != nil {
			s.respondStorageError(c, err, "feature")
			return
		}
		features = append(features, feature)
	}
	c.JSON(http.StatusOK, features)
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid_id", "invalid id")
		return 0, false
	}
	return id, true
}

func pagination(c *gin.Context) (offset, limit int) {
	offset, _ = strconv.Atoi(c.DefaultQuery("skip", "0"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "100"))
	return offset, limit
}
