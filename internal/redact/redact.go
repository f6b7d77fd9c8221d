// Package redact scrubs credentials, tokens and personal data from strings
// before they are logged.
package redact

import "regexp"

// Placeholders
const (
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	RedactedKeyPlaceholder        = "[REDACTED_KEY]"
	RedactedJWTPlaceholder        = "[REDACTED_JWT]"
	RedactedEmailPlaceholder      = "[REDACTED_EMAIL]"
	RedactedPathPlaceholder       = "[REDACTED_PATH]"
	RedactedSQLPlaceholder        = "[REDACTED_SQL]"
)

type rule struct {
	pattern     *regexp.Regexp
	replacement string
}

// Rules run in order. Connection strings go before emails so user:pass@host
// is not half-matched as an address.
var rules = []rule{
	{
		regexp.MustCompile(`(?i)\b(postgres(?:ql)?|mongodb(?:\+srv)?|redis|rediss)://[^@\s/]+@`),
		"$1://" + RedactedCredentialPlaceholder + "@",
	},
	{
		regexp.MustCompile(`eyJ[A-Za-z0-9_-]+\.eyJ[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+`),
		RedactedJWTPlaceholder,
	},
	{
		regexp.MustCompile(`(?i)\b(bearer)\s+[A-Za-z0-9_\-.~+/]{8,}=*`),
		"$1 " + RedactedKeyPlaceholder,
	},
	{
		regexp.MustCompile(`(?i)\b(password|passwd|pwd|current_?password|new_?password)(["']?\s*[=:]\s*["']?)[^"'&\s,}]+`),
		"$1$2" + RedactedCredentialPlaceholder,
	},
	{
		regexp.MustCompile(`(?i)\b(client_secret|jwt_secret|secret|api_?key|access_token|refresh_token|code|state)(["']?\s*[=:]\s*["']?)[A-Za-z0-9_\-.~+/%]{6,}`),
		"$1$2" + RedactedKeyPlaceholder,
	},
	{
		regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
		RedactedEmailPlaceholder,
	},
	{
		regexp.MustCompile(`(?i)\b(SELECT\s.+?\sFROM|INSERT\s+INTO|UPDATE\s+\w+\s+SET|DELETE\s+FROM)\b[^;]*`),
		RedactedSQLPlaceholder,
	},
	{
		regexp.MustCompile(`(?:^|\s)(/[\w.-]+){2,}`),
		" " + RedactedPathPlaceholder,
	},
}

// String redacts sensitive information from input.
func String(input string) string {
	if input == "" {
		return input
	}
	result := input
	for _, r := range rules {
		result = r.pattern.ReplaceAllString(result, r.replacement)
	}
	return result
}

// Error redacts err.Error(). A nil error yields "".
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}
