package handler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// bindMessage turns a gin binding failure into a caller-facing sentence.
func bindMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "request body must be a JSON object: " + err.Error()
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := jsonName(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", field))
		case "http_url":
			msgs = append(msgs, fmt.Sprintf("%s must be an absolute http or https URL", field))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %q validation", field, fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}

// jsonName maps ExtractRequest field names to their JSON keys.
func jsonName(field string) string {
	switch field {
	case "URL":
		return "url"
	case "WebhookURL":
		return "webhook_url"
	default:
		return strings.ToLower(field)
	}
}
