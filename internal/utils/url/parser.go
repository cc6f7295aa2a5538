package urlutil

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/idna"
	"golang.org/x/net/publicsuffix"
)

// ValidateURL performs comprehensive URL validation
func ValidateURL(urlStr string) error {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: must be http or https, got %s", parsed.Scheme)
	}

	if parsed.Host == "" {
		return fmt.Errorf("invalid URL: missing host")
	}

	return nil
}

// ResolveURL resolves a possibly-relative href against a base URL and returns a string
func ResolveURL(base, href string) string {
	href = strings.TrimSpace(href)
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if u.IsAbs() {
		return href
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return href
	}
	return baseURL.ResolveReference(u).String()
}

// IsAbsoluteURL checks if a URL is absolute http(s)
func IsAbsoluteURL(raw string) bool {
	lower := strings.ToLower(raw)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// Normalize makes raw absolute against base, lower-cases the scheme and
// host, converts the host to its ASCII (punycode) form and drops the fragment.
func Normalize(base, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty URL")
	}
	if !IsAbsoluteURL(raw) {
		if strings.HasPrefix(raw, "//") {
			raw = "https:" + raw
		} else {
			if !strings.HasPrefix(raw, "/") {
				raw = "/" + raw
			}
			raw = strings.TrimRight(base, "/") + raw
		}
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse %q: %w", raw, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid URL %q: missing host", raw)
	}

	host, err := idna.Lookup.ToASCII(strings.ToLower(u.Hostname()))
	if err != nil {
		return "", fmt.Errorf("invalid host %q: %w", u.Hostname(), err)
	}
	if port := u.Port(); port != "" {
		host = host + ":" + port
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = host
	u.Fragment = ""
	u.RawFragment = ""
	return u.String(), nil
}

// RegistrableDomain returns the eTLD+1 of the URL's host, or the bare host
// when the public suffix list has no answer (IP addresses, localhost).
func RegistrableDomain(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return ""
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return domain
}

// SameSite reports whether two URLs share a registrable domain.
func SameSite(a, b string) bool {
	da, db := RegistrableDomain(a), RegistrableDomain(b)
	return da != "" && da == db
}

// HostMatches reports whether host equals domain or is a subdomain of it.
func HostMatches(host, domain string) bool {
	host = strings.ToLower(strings.TrimPrefix(host, "www."))
	domain = strings.ToLower(domain)
	return host == domain || strings.HasSuffix(host, "."+domain)
}

// Unique removes duplicate links while keeping the first occurrence order
func Unique(links []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(links))

	for _, link := range links {
		if !seen[link] {
			seen[link] = true
			result = append(result, link)
		}
	}

	return result
}
