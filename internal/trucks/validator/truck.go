package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"portbuoy/pkg/logger"
	"portbuoy/pkg/model"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type TruckValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewTruckValidator(log *logger.Logger) *TruckValidator {
	v := validator.New()

	if err := v.RegisterValidation("number_plate", validateNumberPlate); err != nil {
		log.Fatal("Failed to register 'number_plate' validator", "error", err)
	}

	log.Info("Truck validator initialized successfully")

	return &TruckValidator{
		validate: v,
		logger:   log,
	}
}

// validateNumberPlate accepts uppercase alphanumerics with optional dashes,
// the shape plates take after sanitization.
func validateNumberPlate(fl validator.FieldLevel) bool {
	plate := fl.Field().String()
	if plate == "" {
		return true
	}
	for _, r := range plate {
		switch {
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '-':
		default:
			return false
		}
	}
	return true
}

func (v *TruckValidator) Validate(truck *model.Truck) error {
	return v.translate(v.validate.Struct(truck))
}

func (v *TruckValidator) ValidateUpdate(updates *model.TruckUpdate) error {
	return v.translate(v.validate.Struct(updates))
}

func (v *TruckValidator) translate(err error) error {
	if err == nil {
		return nil
	}
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	var validationErrors ValidationErrors
	for _, fieldErr := range validationErrs {
		message := fieldErr.Error()

		switch fieldErr.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", fieldErr.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", fieldErr.Field(), fieldErr.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", fieldErr.Field(), fieldErr.Param())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", fieldErr.Field(), fieldErr.Param())
		case "number_plate":
			message = "number_plate must contain only letters, digits and dashes"
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid object ID", fieldErr.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   fieldErr.Field(),
			Message: message,
		})
	}

	return validationErrors
}
