package dto

import (
	"errors"
	"fmt"
	"html"
	"reflect"
	"regexp"
	"strings"

	"relief-disbursement-gateway/internal/core/domain"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var safeStringRe = regexp.MustCompile(`^[a-zA-Z0-9_\-\.]+$`)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("safe_id", validateSafeID)
		_ = v.RegisterValidation("money", validateMoney)
		_ = v.RegisterValidation("aid_category", validateCategory)
	}
}

// validateSafeID allows alphanumeric, underscore, dash, and dot.
func validateSafeID(fl validator.FieldLevel) bool {
	return safeStringRe.MatchString(fl.Field().String())
}

// validateMoney accepts positive major-unit decimal strings with at
// most two fractional digits.
func validateMoney(fl validator.FieldLevel) bool {
	_, err := MinorUnits(fl.Field().String())
	return err == nil
}

// validateCategory accepts only the standard aid categories.
func validateCategory(fl validator.FieldLevel) bool {
	return domain.ValidCategory(domain.Category(fl.Field().String()))
}

// MinorUnits converts a major-unit decimal amount string to minor
// units. Sub-cent precision is rejected rather than rounded.
func MinorUnits(s string) (int64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("parse amount: %w", err)
	}
	if !d.IsPositive() {
		return 0, errors.New("amount must be positive")
	}
	shifted := d.Shift(2)
	if !shifted.IsInteger() {
		return 0, errors.New("amount has sub-cent precision")
	}
	// IntPart wraps silently past int64; reject instead.
	minor := shifted.BigInt()
	if !minor.IsInt64() {
		return 0, errors.New("amount is out of range")
	}
	return minor.Int64(), nil
}

// SanitizeStruct trims whitespace and HTML-escapes every exported string
// field (including *string) of a struct pointer.
func SanitizeStruct(v interface{}) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Struct {
		return
	}
	sanitizeFields(rv.Elem())
}

func sanitizeFields(rv reflect.Value) {
	for i := 0; i < rv.NumField(); i++ {
		f := rv.Field(i)
		if !f.CanSet() {
			continue
		}
		switch f.Kind() {
		case reflect.String:
			f.SetString(sanitize(f.String()))
		case reflect.Ptr:
			if f.IsNil() {
				continue
			}
			elem := f.Elem()
			if elem.Kind() == reflect.String {
				s := sanitize(elem.String())
				elem.SetString(s)
			}
		}
	}
}

func sanitize(s string) string {
	return html.EscapeString(strings.TrimSpace(s))
}
