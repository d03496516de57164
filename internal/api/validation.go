package api

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

var clockPattern = regexp.MustCompile(`^(([01]\d|2[0-3]):[0-5]\d(:[0-5]\d)?|24:00(:00)?)$`)

// RegisterValidators adds the custom tags to gin's binding validator.
// "clock" accepts HH:MM or HH:MM:SS, plus 24:00 as an end of day;
// "date" accepts YYYY-MM-DD.
func RegisterValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		registerCustom(v)
	}
}

func registerCustom(v *validator.Validate) {
	_ = v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		return clockPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("date", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if len(s) != 10 || s[4] != '-' || s[7] != '-' {
			return false
		}
		for _, part := range strings.Split(s, "-") {
			if _, err := strconv.Atoi(part); err != nil {
				return false
			}
		}
		return true
	})
}

// ValidateStruct validates a struct and returns formatted errors
func ValidateStruct(s interface{}) []ValidationError {
	validate := validator.New()
	registerCustom(validate)
	var errs []ValidationError

	err := validate.Struct(s)
	if err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return []ValidationError{{Message: err.Error()}}
		}
		for _, fe := range verrs {
			errs = append(errs, ValidationError{
				Field:   fe.Field(),
				Tag:     fe.Tag(),
				Message: getErrorMessage(fe),
			})
		}
	}

	return errs
}

func getErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return err.Field() + " is required"
	case "email":
		return err.Field() + " must be a valid email address"
	case "min":
		return err.Field() + " must be at least " + err.Param()
	case "max":
		return err.Field() + " must be at most " + err.Param()
	case "gte":
		return err.Field() + " must be greater than or equal to " + err.Param()
	case "lte":
		return err.Field() + " must be less than or equal to " + err.Param()
	case "oneof":
		return err.Field() + " must be one of: " + err.Param()
	case "clock":
		return err.Field() + " must be a time of day (HH:MM)"
	case "date":
		return err.Field() + " must be a date (YYYY-MM-DD)"
	default:
		return err.Field() + " is invalid"
	}
}

// RespondWithValidationErrors sends validation errors as JSON response
func RespondWithValidationErrors(c *gin.Context, errs []ValidationError) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "validation failed",
		"details": errs,
	})
}

// BindJSON binds and validates the body, writing the 400 itself when
// either step fails.
func BindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			out := make([]ValidationError, 0, len(verrs))
			for _, fe := range verrs {
				out = append(out, ValidationError{Field: fe.Field(), Tag: fe.Tag(), Message: getErrorMessage(fe)})
			}
			RespondWithValidationErrors(c, out)
			return false
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return false
	}
	return true
}

// ParamInt reads a positive integer path parameter.
func ParamInt(c *gin.Context, name string) (int, bool) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil || v <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid " + name})
		return 0, false
	}
	return v, true
}
