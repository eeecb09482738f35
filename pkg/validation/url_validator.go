package validation

import (
	"net/url"
	"slices"
	"strings"

	apperrors "go-c2rcc/internal/errors"
)

// URLValidator guards the HTTP base that net definitions are downloaded
// from. Role paths are appended to the base, so it must be a bare
// scheme, host and path.
type URLValidator struct {
	allowedSchemes []string
	allowedHosts   []string
}

func NewURLValidator() *URLValidator {
	return NewURLValidatorWithOptions([]string{"http", "https"}, nil)
}

// NewURLValidatorWithOptions restricts schemes and hosts. A nil host list
// accepts any mirror.
func NewURLValidatorWithOptions(schemes []string, hosts []string) *URLValidator {
	return &URLValidator{allowedSchemes: schemes, allowedHosts: hosts}
}

func (v *URLValidator) ValidateBaseURL(baseURL string) error {
	if strings.TrimSpace(baseURL) == "" {
		return apperrors.NewValidationError("URL cannot be empty", nil)
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return apperrors.NewValidationError("Invalid URL format", err)
	}

	switch {
	case !slices.Contains(v.allowedSchemes, base.Scheme):
		return apperrors.NewValidationError("URL scheme not allowed", nil)
	case base.Hostname() == "":
		return apperrors.NewValidationError("URL must have a valid host", nil)
	case !v.isHostAllowed(base.Hostname()):
		return apperrors.NewValidationError("URL host not allowed", nil)
	case base.User != nil:
		// credentials would end up in every logged net URL
		return apperrors.NewValidationError("Base URL must not embed credentials", nil)
	case base.RawQuery != "" || base.Fragment != "":
		return apperrors.NewValidationError("Base URL must not carry a query or fragment", nil)
	}
	return nil
}

// isHostAllowed ignores the port and letter case
func (v *URLValidator) isHostAllowed(host string) bool {
	if len(v.allowedHosts) == 0 {
		return true
	}
	return slices.ContainsFunc(v.allowedHosts, func(allowed string) bool {
		return strings.EqualFold(allowed, host)
	})
}
