package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	userhttpmapper "github.com/Apurer/aims-commerce/internal/domains/users/adapters/http/mapper"
	usersports "github.com/Apurer/aims-commerce/internal/domains/users/ports"
)

var errMissingBearer = errors.New("missing bearer token")

// AuthAPI wires HTTP transport with the users bounded context.
type AuthAPI struct {
	service usersports.Service
}

// NewAuthAPI creates an AuthAPI backed by the provided service.
func NewAuthAPI(service usersports.Service) AuthAPI {
	return AuthAPI{service: service}
}

// Post /api/auth/login
// Logs user into the system
func (api *AuthAPI) Login(c *gin.Context) {
	var payload userhttpmapper.LoginRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	result, err := api.service.Login(c.Request.Context(), payload.Login(), payload.Password)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, userhttpmapper.FromLoginResult(result))
}

// Post /api/auth/register
// Create an account and sign it in
func (api *AuthAPI) Register(c *gin.Context) {
	var payload userhttpmapper.RegisterRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	user, err := api.service.Register(c.Request.Context(), userhttpmapper.ToRegisterInput(payload))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	result, err := api.service.Login(c.Request.Context(), user.Username, payload.Password)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, userhttpmapper.FromLoginResult(result))
}

// Post /api/auth/create-role
// Create a role; the body is either {"name": ...} or the bare role name
func (api *AuthAPI) CreateRole(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	name := strings.TrimSpace(string(body))
	if strings.HasPrefix(name, "{") || strings.HasPrefix(name, `"`) {
		var payload userhttpmapper.RoleRequest
		if err := json.Unmarshal(body, &payload); err != nil {
			if err := json.Unmarshal(body, &name); err != nil {
				respondError(c, http.StatusBadRequest, err)
				return
			}
		} else {
			name = payload.Name
		}
	}
	role, err := api.service.CreateRole(c.Request.Context(), name)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, userhttpmapper.FromDomainRole(role))
}

// Post /api/auth/logout
// Logs out current logged in user session
func (api *AuthAPI) Logout(c *gin.Context) {
	token, ok := bearerToken(c)
	if !ok {
		return
	}
	if err := api.service.Logout(c.Request.Context(), token); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Get /api/auth/me
// The account behind the bearer token
func (api *AuthAPI) Me(c *gin.Context) {
	token, ok := bearerToken(c)
	if !ok {
		return
	}
	user, err := api.service.Authenticate(c.Request.Context(), token)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, userhttpmapper.FromDomainUser(user))
}

func bearerToken(c *gin.Context) (string, bool) {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		respondError(c, http.StatusUnauthorized, errMissingBearer)
		return "", false
	}
	return strings.TrimSpace(token), true
}
