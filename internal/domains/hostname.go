package domains

import (
	"fmt"
	"strings"
)

const (
	maxHostnameLen = 253
	maxLabelLen    = 63
)

// NormalizeDomain lowercases and trims a raw hostname and validates it
// against conventional hostname grammar: dot-separated labels of
// alphanumerics and hyphens, no label starting or ending with a hyphen,
// and a final TLD label of at least two letters.
func NormalizeDomain(raw string) (string, error) {
	domain := strings.ToLower(strings.TrimSpace(raw))
	domain = strings.TrimSuffix(domain, ".")

	if domain == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidDomainName)
	}
	if len(domain) > maxHostnameLen {
		return "", fmt.Errorf("%w: longer than %d characters", ErrInvalidDomainName, maxHostnameLen)
	}

	labels := strings.Split(domain, ".")
	if len(labels) < 2 {
		return "", fmt.Errorf("%w: %q has no top-level domain", ErrInvalidDomainName, domain)
	}

	for _, label := range labels {
		if err := validateLabel(label); err != nil {
			return "", err
		}
	}

	tld := labels[len(labels)-1]
	if len(tld) < 2 || !isAlpha(tld) {
		return "", fmt.Errorf("%w: top-level domain %q must be at least two letters", ErrInvalidDomainName, tld)
	}

	return domain, nil
}

// ValidateSlugLabel checks that a tenant slug can serve as a single
// subdomain label under the platform suffix.
func ValidateSlugLabel(slug string) error {
	if strings.Contains(slug, ".") {
		return fmt.Errorf("%w: slug %q must be a single label", ErrInvalidDomainName, slug)
	}
	return validateLabel(slug)
}

func validateLabel(label string) error {
	if label == "" {
		return fmt.Errorf("%w: empty label", ErrInvalidDomainName)
	}
	if len(label) > maxLabelLen {
		return fmt.Errorf("%w: label %q longer than %d characters", ErrInvalidDomainName, label, maxLabelLen)
	}
	if label[0] == '-' || label[len(label)-1] == '-' {
		return fmt.Errorf("%w: label %q starts or ends with a hyphen", ErrInvalidDomainName, label)
	}
	for i := range len(label) {
		c := label[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9':
		case c == '-':
		default:
			return fmt.Errorf("%w: label %q contains %q", ErrInvalidDomainName, label, string(c))
		}
	}
	return nil
}

func isAlpha(s string) bool {
	for i := range len(s) {
		if s[i] < 'a' || s[i] > 'z' {
			return false
		}
	}
	return true
}
