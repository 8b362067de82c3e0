package handlers

import (
	"encoding/json"
	"net/http"

	"patio-backend/internal/models"
	"patio-backend/internal/services"
	"patio-backend/pkg/utils"
)

type AuthHandler struct {
	Service *services.UserService
}

func NewAuthHandler(s *services.UserService) *AuthHandler {
	return &AuthHandler{Service: s}
}

// Signup handles user registration
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "corpo da requisição inválido")
		return
	}

	authResp, err := h.Service.Signup(r.Context(), &req)
	if err != nil {
		serviceError(w, err)
		return
	}
	utils.JSON(w, http.StatusCreated, authResp)
}

// Login handles user authentication
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "corpo da requisição inválido")
		return
	}

	authResp, err := h.Service.Login(r.Context(), &req)
	if err != nil {
		utils.Error(w, http.StatusUnauthorized, "credenciais inválidas")
		return
	}
	utils.JSON(w, http.StatusOK, authResp)
}
