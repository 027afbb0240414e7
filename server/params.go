package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/oapi-codegen/runtime"
)

// parseIDParam binds a required int64 path parameter in simple style.
func parseIDParam(c *gin.Context, name string) (int64, bool) {
	var id int64
	err := runtime.BindStyledParameterWithOptions("simple", name, c.Param(name), &id, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Explode:       false,
		Required:      true,
	})
	if err != nil {
		respondError(c, http.StatusBadRequest, fmt.Errorf("invalid format for parameter %s: %w", name, err))
		return 0, false
	}
	return id, true
}

// bindQuery binds a form style query parameter into dest. Absent parameters leave dest untouched.
func bindQuery(c *gin.Context, name string, dest any) bool {
	query := c.Request.URL.Query()
	if _, present := query[name]; !present {
		return true
	}
	if err := runtime.BindQueryParameter("form", true, true, name, query, dest); err != nil {
		respondError(c, http.StatusBadRequest, fmt.Errorf("invalid format for parameter %s: %w", name, err))
		return false
	}
	return true
}
