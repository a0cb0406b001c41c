package common

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// markdownLinkPattern extracts the URL from markdown link syntax:
// "[text](https://example.com)" -> "https://example.com".
var markdownLinkPattern = regexp.MustCompile(`^\[.*?\]\((https?://[^\)]+)\)$`)

// baseURLPattern requires an http(s) scheme and a plausible host.
var baseURLPattern = regexp.MustCompile(`^https?://[a-zA-Z0-9][-a-zA-Z0-9.:]*[a-zA-Z0-9](/[^\s]*)?$`)

// SanitizeBaseURL cleans common copy-paste artifacts from a configured
// base URL. Removes surrounding whitespace, markdown link syntax, and
// stray punctuation picked up when pasting into YAML.
func SanitizeBaseURL(raw string) string {
	cleaned := strings.TrimSpace(raw)

	if matches := markdownLinkPattern.FindStringSubmatch(cleaned); len(matches) > 1 {
		cleaned = matches[1]
	}

	// Trailing punctuation from copy-paste: "https://example.com," etc.
	trailingChars := []string{",", ".", ")", "}", "]", "\"", "'", ">", ";"}
	for _, char := range trailingChars {
		cleaned = strings.TrimSuffix(cleaned, char)
	}

	leadingChars := []string{"(", "[", "<", "\"", "'"}
	for _, char := range leadingChars {
		cleaned = strings.TrimPrefix(cleaned, char)
	}

	return strings.TrimSpace(cleaned)
}

// ValidateBaseURL sanitizes a configured base URL and checks that it
// can anchor a crawl. Returns the cleaned URL, or an error describing
// why it is unusable.
func ValidateBaseURL(raw string) (string, error) {
	cleaned := SanitizeBaseURL(raw)

	if cleaned == "" {
		return "", errors.New("url is empty")
	}
	// Literal spaces must be pre-encoded as %20.
	if strings.Contains(cleaned, " ") {
		return "", errors.New("url contains literal spaces")
	}
	if !baseURLPattern.MatchString(cleaned) {
		return "", errors.New("url must start with http:// or https:// and name a host")
	}

	parsed, err := url.Parse(cleaned)
	if err != nil {
		return "", fmt.Errorf("url does not parse: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", errors.New("url has no host")
	}
	if strings.ContainsAny(parsed.Host, "{}[]<>\"'") {
		return "", fmt.Errorf("host %q contains malformed characters", parsed.Host)
	}

	return cleaned, nil
}
