package validator

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	v *validator.Validate

	topicPattern = regexp.MustCompile(`^[a-zA-Z0-9\-_.~%]+$`)
)

func init() {
	v = validator.New()

	// report fields by their wire name, so errors read like the payload the user knows
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		for _, tag := range []string{"json", "yaml"} {
			name := strings.SplitN(field.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}

			if name != "" {
				return name
			}
		}

		return field.Name
	})

	_ = v.RegisterValidation("fcm_topic", func(fl validator.FieldLevel) bool {
		return IsTopic(fl.Field().String())
	})
}

func Validate(i interface{}) error {
	if i == nil {
		return fmt.Errorf("data to validate is nil")
	}

	return v.Struct(i)
}

// Var validates a single value against tag, e.g. Var("http://x", "url").
func Var(field interface{}, tag string) error {
	return v.Var(field, tag)
}

// IsTopic reports whether topic is a valid FCM topic name.
// A leading "/topics/" must be stripped by the caller.
func IsTopic(topic string) bool {
	return topicPattern.MatchString(topic)
}

// Message turns validator errors into a single line such as
// "priority must be one of [high normal]; ttl is required".
// Other errors are returned as is.
func Message(err error) string {
	if err == nil {
		return ""
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}

	return strings.Join(msgs, "; ")
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "fcm_topic":
		return fmt.Sprintf("%s %q is not a valid topic name", field, fe.Value())
	default:
		return fmt.Sprintf("%s failed on '%s'", field, fe.Tag())
	}
}
