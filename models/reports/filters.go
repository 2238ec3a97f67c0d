package reports

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/chifles_reporting/utils"
	"github.com/go-playground/validator/v10"
)

const (
	DefaultLimite = 10
	MaxLimite     = 1000
)

var ErrInvalidInput = errors.New("invalid input")

// ValidationError lists the failing fields and the rule each one broke.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		names = append(names, f)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, f := range names {
		parts = append(parts, fmt.Sprintf("%s (%s)", f, describeRule(e.Fields[f])))
	}
	return "invalid input: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

func describeRule(tag string) string {
	switch tag {
	case "gt":
		return "must be greater than zero"
	case "gte":
		return "must not be negative"
	case "lte":
		return fmt.Sprintf("must be at most %d", MaxLimite)
	case "isodate":
		return "must be YYYY-MM-DD or RFC 3339"
	}
	return tag
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		return isISODate(fl.Field().String())
	})
	return v
}

func isISODate(s string) bool {
	if _, err := time.Parse(time.DateOnly, s); err == nil {
		return true
	}
	if _, err := time.Parse(time.RFC3339, s); err == nil {
		return true
	}
	_, err := time.Parse(time.RFC3339Nano, s)
	return err == nil
}

// DateRange is the optional fechaInicio/fechaFin pair. Blank values count as absent.
type DateRange struct {
	FechaInicio *string `json:"fechaInicio" validate:"omitempty,isodate"`
	FechaFin    *string `json:"fechaFin" validate:"omitempty,isodate"`
}

func (d DateRange) normalized() DateRange {
	return DateRange{
		FechaInicio: trimmed(d.FechaInicio),
		FechaFin:    trimmed(d.FechaFin),
	}
}

type clientOrdersInput struct {
	ClienteId int64 `json:"clienteId" validate:"gt=0"`
	DateRange
}

type traceInput struct {
	PedidoId int64 `json:"pedidoId" validate:"gt=0"`
}

type topSellingInput struct {
	Limite int `json:"limite" validate:"gte=0,lte=1000"`
}

func validateInput(v any) error {
	if err := validate.Struct(v); err != nil {
		return &ValidationError{Fields: utils.ProcessValidationErrors(err)}
	}
	return nil
}

func trimmed(s *string) *string {
	if s = utils.NilIfBlank(s); s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}
