package bazi

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// BirthInput is a Gregorian birth date and hour as entered by a user.
type BirthInput struct {
	Year  int `json:"year" validate:"gte=1900,lte=2100"`
	Month int `json:"month" validate:"gte=1,lte=12"`
	Day   int `json:"day" validate:"gte=1,lte=31"`
	Hour  int `json:"hour" validate:"gte=0,lte=23"`
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func inputValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		// Report json names so messages match the request body.
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Validate checks the ranges accepted at the boundary. It does not check that
// the day exists in the month. Errors wrap ErrInvalidInput.
func (in BirthInput) Validate() error {
	err := inputValidator().Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s must be %s %s", fe.Field(), boundWord(fe.Tag()), fe.Param()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(msgs, "; "))
}

func boundWord(tag string) string {
	switch tag {
	case "gte":
		return ">="
	case "lte":
		return "<="
	default:
		return tag
	}
}

// Reading bundles a chart with its element balance and assessment.
type Reading struct {
	Input      BirthInput
	Chart      Chart
	Histogram  ElementHistogram
	Assessment GodAssessment
}

// Compute runs the full pipeline for in without validating it.
func Compute(in BirthInput) Reading {
	chart := ComputeChart(in.Year, in.Month, in.Day, in.Hour)
	hist := AggregateElements(chart)
	return Reading{
		Input:      in,
		Chart:      chart,
		Histogram:  hist,
		Assessment: SelectGods(hist),
	}
}
