package models

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"Gin_postgres_redis_inventory_tool/apperr"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// engine is gin's binding validator, so ShouldBindJSON in the handlers and
// Check in the repository apply the same `binding` tags.
var engine = func() *validator.Validate {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		v = validator.New()
		v.SetTagName("binding")
	}
	v.RegisterTagNameFunc(jsonName)
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	v.RegisterStructValidation(ipAddressRules, IPAddress{})
	return v
}()

func init() {
	binding.EnableDecoderDisallowUnknownFields = true
}

func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return f.Name
	}
	return name
}

// Check validates v against its binding tags.
func Check(v any) error {
	return BindError(engine.Struct(v))
}

// BindError maps a bind or validation failure onto apperr.Invalid.
func BindError(err error) error {
	if err == nil {
		return nil
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		msgs := make([]string, 0, len(ve))
		for _, fe := range ve {
			msgs = append(msgs, fieldMessage(fe.Field(), fe))
		}
		return apperr.Invalidf("%s", strings.Join(msgs, "; "))
	}
	if errors.Is(err, io.EOF) {
		return apperr.Invalidf("request body is empty")
	}
	return apperr.Invalidf("invalid request body: %v", err)
}

// checkVar validates one PATCH value under the name of its JSON key.
func checkVar(field string, v any, tag string) error {
	var ve validator.ValidationErrors
	if err := engine.Var(v, tag); errors.As(err, &ve) && len(ve) > 0 {
		return apperr.Invalidf("%s", fieldMessage(field+ve[0].Field(), ve[0]))
	} else if err != nil {
		return apperr.Invalidf("%s: %v", field, err)
	}
	return nil
}

func fieldMessage(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return field + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gtfield":
		return fmt.Sprintf("%s must be after %s", field, lowerFirst(fe.Param()))
	case "mac":
		return fmt.Sprintf("%s is not a MAC address", field)
	case "ip":
		return fmt.Sprintf("%s is not an IP address", field)
	case "uuid_rfc4122":
		return field + " must be a directory GUID"
	case "required_if":
		return fmt.Sprintf("%s is required for %s addresses", field, IPStatic)
	case "excluded_if":
		return fmt.Sprintf("%s must be empty for %s addresses", field, IPDynamic)
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
