package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"social-service/internal/logger"
	"social-service/internal/services"
)

const notEligibleMessage = "No such pending friend request for this user"

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(jsonFieldName)
	}
}

func jsonFieldName(field reflect.StructField) string {
	name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return field.Name
	}
	return name
}

// respondError maps service errors to HTTP responses.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	var (
		verr *services.ValidationError
		rule *services.RuleViolation
	)
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, verr.Fields)
	case errors.As(err, &rule):
		c.JSON(http.StatusBadRequest, gin.H{"non_field_errors": []string{rule.Message}})
	case errors.Is(err, services.ErrRequestNotEligible):
		c.JSON(http.StatusNotFound, gin.H{"Error": notEligibleMessage})
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusBadRequest, gin.H{"error": []string{"Invalid Credentials"}})
	default:
		logger.FromContext(c.Request.Context(), log).Error("request failed",
			zap.String("route", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// respondBindError reports a body that failed to decode or validate.
func respondBindError(c *gin.Context, err error) {
	var (
		verrs     validator.ValidationErrors
		typeErr   *json.UnmarshalTypeError
		syntaxErr *json.SyntaxError
	)
	switch {
	case errors.As(err, &verrs):
		fields := make(map[string][]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = append(fields[fe.Field()], fieldMessage(fe))
		}
		c.JSON(http.StatusBadRequest, fields)
	case errors.As(err, &typeErr):
		c.JSON(http.StatusBadRequest, gin.H{
			typeErr.Field: []string{fmt.Sprintf("Incorrect type. Expected %s, received %s.", typeErr.Type.Kind(), typeErr.Value)},
		})
	case errors.As(err, &syntaxErr):
		c.JSON(http.StatusBadRequest, gin.H{"detail": "JSON parse error - " + syntaxErr.Error()})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Malformed request body."})
	}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "oneof":
		return fmt.Sprintf("%q is not a valid choice.", fmt.Sprint(fe.Value()))
	case "email":
		return "Enter a valid email address."
	}
	return "Invalid value."
}
