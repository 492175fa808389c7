package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// report koanf keys rather than Go field names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("koanf"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks cfg against its struct tags and the cross-field rules.
// Every problem is returned as a *ConfigError, joined.
func Validate(cfg *Config) error {
	var errs []error

	if err := validate.Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for _, fe := range fieldErrs {
			errs = append(errs, toConfigError(fe))
		}
	}

	if cfg.Report.Sink == SinkAMQP && cfg.Report.AMQP.URL == "" {
		errs = append(errs, NewMissingFieldError("report.amqp.url"))
	}
	return errors.Join(errs...)
}

func toConfigError(fe validator.FieldError) *ConfigError {
	field := fe.Namespace()
	if _, rest, ok := strings.Cut(field, "."); ok {
		field = rest
	}

	switch fe.Tag() {
	case "required":
		return NewMissingFieldError(field)
	case "oneof":
		return NewInvalidFieldError(field, fmt.Sprintf("must be one of [%s], got %q", fe.Param(), fmt.Sprint(fe.Value())))
	case "url":
		return NewInvalidFieldError(field, fmt.Sprintf("must be a valid url, got %q", fmt.Sprint(fe.Value())))
	case "gte":
		return NewInvalidFieldError(field, "must not be negative")
	default:
		return NewInvalidFieldError(field, fmt.Sprintf("failed %s validation", fe.Tag()))
	}
}
