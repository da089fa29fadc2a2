// Package web defines common components for a web application.
package web

import (
	"github.com/go-playground/validator/v10"
)

// Response holds the common response type for all APIs.
type Response struct {
	AccessToken          string `json:"access_token,omitempty"`
	AccessTokenExpiresAt string `json:"access_token_expires_at,omitempty"`
	Data                 any    `json:"data,omitempty"`
	Error                string `json:"error,omitempty"`
}

// Error wraps a given err into a json friendly response.
func Error(err error) Response {
	return Response{Error: err.Error()}
}

// GetErrorMsg builds a readable message for the first failed validation.
func GetErrorMsg(ve validator.ValidationErrors) string {
	field := ve[0]

	switch field.Tag() {
	case "required":
		return field.Field() + " field is required"
	case "email":
		return field.Field() + " field must contain a valid email"
	case "alphanum":
		return field.Field() + " field must contain only alphanumeric characters"
	case "numeric":
		return field.Field() + " field must contain only digits"
	case "min":
		return field.Field() + " field must be greater or equal to " + field.Param()
	case "max":
		return field.Field() + " field must be less or equal to " + field.Param()
	case "len":
		return field.Field() + " field must be exactly " + field.Param() + " characters long"
	case "accnumber":
		return field.Field() + " field must be a valid account number"
	}

	return field.Field() + " field is invalid"
}
