package api

import (
	"github.com/stacksapp/stacks-server/internal/domain"
	domainerrors "github.com/stacksapp/stacks-server/internal/errors"
	"github.com/stacksapp/stacks-server/internal/validation"
)

// validate is a shared validator instance for request validation.
// Handlers run it over their inputs before touching the services.
var validate = validation.New()

// parseOptionalDate parses a YYYY-MM-DD date field, treating the empty
// string as the zero date.
func parseOptionalDate(value string) (domain.Date, error) {
	if value == "" {
		return domain.Date{}, nil
	}
	d, err := domain.ParseDate(value)
	if err != nil {
		return domain.Date{}, domainerrors.Validationf("invalid date %q, expected YYYY-MM-DD", value)
	}
	return d, nil
}
