package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"gitlab.com/magneto-ui.net/internal/core/ports/primary"
	"gitlab.com/magneto-ui.net/internal/handlers/response"
	"gitlab.com/magneto-ui.net/internal/static/errs"
)

// maxJSONBody bounds request bodies outside of file uploads
const maxJSONBody = 1 << 20

var validate = validator.New(validator.WithRequiredStructEnabled())

func init() {
	// report fields by their JSON names
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func ResponseWithJson(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

func ResponseError(w http.ResponseWriter, message string, code int) {
	response.WriteError(w, response.ErrorMessage{Message: message, StatusCode: code})
}

// ResponseFromError writes the envelope for err. 5xx errors are logged.
func ResponseFromError(w http.ResponseWriter, r *http.Request, logger primary.Logger, err error) {
	msg := response.FromError(err)
	if msg.StatusCode >= http.StatusInternalServerError {
		logger.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	response.WriteError(w, msg)
}

// DecodeJSON decodes the request body into dst and validates its struct tags
func DecodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed JSON body", errs.ErrValidation)
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return fmt.Errorf("%w: %s", errs.ErrValidation, describe(verrs))
		}
		return fmt.Errorf("%w: %v", errs.ErrValidation, err)
	}
	return nil
}

func describe(verrs validator.ValidationErrors) string {
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fe.Field()+" is required")
		case "email":
			parts = append(parts, fe.Field()+" must be an email address")
		case "uuid":
			parts = append(parts, fe.Field()+" must be a UUID")
		case "max":
			parts = append(parts, fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(parts, ", ")
}

// PathUUID parses a mux path variable as a UUID
func PathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s must be a UUID", errs.ErrValidation, name)
	}
	return id, nil
}
