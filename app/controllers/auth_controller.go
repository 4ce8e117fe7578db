package controllers

import (
	"net/http"

	"github.com/mosaicpim/mosaic/pkg/auth"
	"github.com/mosaicpim/mosaic/pkg/bind"
	"github.com/mosaicpim/mosaic/pkg/response"
)

// AuthController issues tenant-scoped API tokens.
type AuthController struct{}

func NewAuthController() *AuthController { return &AuthController{} }

type tokenRequest struct {
	Tenant string `json:"tenant" validate:"required"`
	Client string `json:"client" validate:"required"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

func (c *AuthController) Token(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if fields, err := bind.JSON(r, &req); err != nil {
		response.BadRequest(w, err.Error())
		return
	} else if fields != nil {
		response.ValidationFailed(w, fields)
		return
	}

	token, err := auth.GenerateToken(req.Tenant, req.Client)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, tokenResponse{Token: token})
}
