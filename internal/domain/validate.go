package domain

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"go.uber.org/multierr"
)

const portMessage = "must be a valid port number (1-65535)"

// Validate checks a single target: a name, a known kind and exactly the
// arguments that kind needs.
func (t Target) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.Name, validation.Required),
		validation.Field(&t.Kind, validation.Required, validation.In(KindHTTP, KindTCP)),
		validation.Field(&t.URL,
			validation.When(t.Kind == KindHTTP, validation.Required, validation.By(validateHTTPURL)),
			validation.When(t.Kind != KindHTTP, validation.Empty),
		),
		validation.Field(&t.Host,
			validation.When(t.Kind == KindTCP, validation.Required, validation.By(validateHost)),
			validation.When(t.Kind != KindTCP, validation.Empty),
		),
		validation.Field(&t.Port,
			validation.When(t.Kind == KindTCP,
				validation.Required.Error(portMessage),
				validation.Min(1).Error(portMessage),
				validation.Max(65535).Error(portMessage),
			),
			validation.When(t.Kind != KindTCP, validation.Empty),
		),
	)
}

// ValidateTargets validates every target and rejects empty lists and duplicate
// names. All problems are reported, not just the first one.
func ValidateTargets(targets []Target) error {
	if len(targets) == 0 {
		return fmt.Errorf("no targets defined")
	}
	var errs error
	seen := make(map[string]int, len(targets))
	for i, t := range targets {
		if err := t.Validate(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("target #%d %q (%s): %w", i+1, t.Name, t.Kind, err))
			continue
		}
		if first, dup := seen[t.Name]; dup {
			errs = multierr.Append(errs, fmt.Errorf("target #%d %q: duplicate name (first used by target #%d)", i+1, t.Name, first))
			continue
		}
		seen[t.Name] = i + 1
	}
	return errs
}

func validateHTTPURL(value interface{}) error {
	raw, _ := value.(string)
	u, err := url.Parse(raw)
	if err != nil {
		return validation.NewError("validation_invalid_url", "must be a valid URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return validation.NewError("validation_invalid_scheme", "URL must use http or https scheme")
	}
	if u.Host == "" {
		return validation.NewError("validation_missing_host", "URL must have a host")
	}
	return nil
}

func validateHost(value interface{}) error {
	host, _ := value.(string)
	if strings.HasPrefix(host, "[") || strings.HasSuffix(host, "]") {
		ip := net.ParseIP(BareHost(host))
		if ip == nil || ip.To4() != nil {
			return validation.NewError("validation_invalid_host", "brackets are only allowed around IPv6 literals")
		}
		return nil
	}
	if err := is.Host.Validate(host); err != nil {
		return validation.NewError("validation_invalid_host", "must be a hostname or IP address")
	}
	return nil
}
