package docstore

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"tornado/internal/canvas"
)

var validate = validator.New()

// Sanitize drops node records that fail validation and returns the rest
// with the number dropped.
func Sanitize(nodes []canvas.Node) ([]canvas.Node, int) {
	kept := make([]canvas.Node, 0, len(nodes))
	dropped := 0
	for _, n := range nodes {
		if err := validate.Struct(n); err != nil {
			dropped++
			continue
		}
		kept = append(kept, n)
	}
	return kept, dropped
}

// ValidateNode reports the first problems with n in readable form.
func ValidateNode(n canvas.Node) error {
	return formatValidationError(validate.Struct(n))
}

// ValidateRequest checks a project create or rename body.
func ValidateRequest(req ProjectRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	return formatValidationError(validate.Struct(req))
}

func formatValidationError(err error) error {
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, formatFieldError(e))
	}
	return fmt.Errorf("invalid %s", strings.Join(msgs, "; "))
}

func formatFieldError(e validator.FieldError) string {
	field := strings.ToLower(e.Field())
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "gt", "gte":
		return fmt.Sprintf("%s must be positive", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
