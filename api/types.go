package api

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"staas-order/core/order"
	"staas-order/internal/errors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report json field names in validation messages
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// OrderRequest is the body for the order and preview endpoints. The
// performance type is not constrained here; the selection pipeline
// classifies unknown values with its own error type.
type OrderRequest struct {
	// Name labels the volume in order history
	Name string `json:"name,omitempty"`

	Size             int    `json:"size" validate:"required,gt=0"`
	StorageType      string `json:"storage_type" validate:"required,oneof=file block"`
	PerformanceType  string `json:"performance_type" validate:"required"`
	PerformanceValue int    `json:"performance_value" validate:"required,gt=0"`
	Region           string `json:"region" validate:"required"`
}

// Validate checks the request shape
func (r *OrderRequest) Validate() error {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if stderrors.As(err, &fieldErrs) {
		details := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			details = append(details, fieldMessage(fe))
		}
		return errors.Input("invalid order request: " + strings.Join(details, "; "))
	}
	return errors.Wrap(errors.TypeInput, "invalid order request", err)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

// Params converts the request to order parameters
func (r *OrderRequest) Params() order.Parameters {
	return order.Parameters{
		Size:             r.Size,
		StorageType:      r.StorageType,
		PerformanceType:  r.PerformanceType,
		PerformanceValue: r.PerformanceValue,
		RegionName:       r.Region,
	}
}

// OrderResponse is the body for a placed order
type OrderResponse struct {
	OrderID   int             `json:"order_id"`
	OrderDate string          `json:"order_date,omitempty"`
	Container order.Container `json:"container"`
	Estimate  order.Estimate  `json:"estimate"`

	// HistoryID is set when the order was recorded in history
	HistoryID string `json:"history_id,omitempty"`
}

// PreviewResponse is the body for a previewed order
type PreviewResponse struct {
	Container order.Container `json:"container"`
	Estimate  order.Estimate  `json:"estimate"`
}
