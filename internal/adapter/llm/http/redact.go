package http

import "regexp"

var urlSecretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(api_key|apiKey|access_token|token|key)=[^&"\s]+`),
}

// RedactURLSecrets redacts credential-bearing query parameters from URLs
// embedded in error messages before they reach the process log.
//
// Example:
//
//	input:  "https://api.example.com/v1?key=secret123&foo=bar"
//	output: "https://api.example.com/v1?key=[REDACTED]&foo=bar"
func RedactURLSecrets(text string) string {
	if text == "" {
		return text
	}
	for _, re := range urlSecretPatterns {
		text = re.ReplaceAllString(text, "$1=[REDACTED]")
	}
	return text
}
