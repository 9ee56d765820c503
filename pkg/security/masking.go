package security

import (
	"regexp"
	"strings"
)

var (
	// Patterns for sensitive data
	bearerPattern  = regexp.MustCompile(`(?i)bearer\s+[a-zA-Z0-9._~+/-]+=*`)
	apiKeyPattern  = regexp.MustCompile(`(?i)(api[_-]?key|apikey|secret|token|password|auth)["\s:=]+["']?([a-zA-Z0-9_-]{16,})["']?`)
	hexKeyPattern  = regexp.MustCompile(`\b(0x)?[a-fA-F0-9]{64}\b`)
	walletPattern  = regexp.MustCompile(`0x[a-fA-F0-9]{40}`)
	pemBodyPattern = regexp.MustCompile(`(?s)-----BEGIN [A-Z ]+-----.*?-----END [A-Z ]+-----`)

	// Sensitive field names
	sensitiveFields = []string{
		"password", "secret", "token", "key", "auth", "signature",
		"private_key", "seed", "mnemonic", "api_key", "apikey",
		"bearer", "credential", "pem",
	}
)

// MaskString masks sensitive patterns in a string
func MaskString(s string) string {
	s = pemBodyPattern.ReplaceAllString(s, "-----REDACTED KEY MATERIAL-----")
	s = bearerPattern.ReplaceAllString(s, "Bearer ***REDACTED***")
	s = apiKeyPattern.ReplaceAllString(s, "$1: ***REDACTED***")
	s = hexKeyPattern.ReplaceAllString(s, "***REDACTED***")
	s = walletPattern.ReplaceAllStringFunc(s, MaskAddress)
	return s
}

// MaskMap masks sensitive fields in a map
func MaskMap(data map[string]interface{}) map[string]interface{} {
	masked := make(map[string]interface{})
	for k, v := range data {
		if isSensitiveField(k) {
			masked[k] = "***REDACTED***"
			continue
		}

		switch val := v.(type) {
		case string:
			masked[k] = MaskString(val)
		case map[string]interface{}:
			masked[k] = MaskMap(val)
		case []interface{}:
			masked[k] = maskSlice(val)
		default:
			masked[k] = v
		}
	}
	return masked
}

// MaskAddress masks a chain address showing first 6 and last 4 chars.
// Works for 0x-prefixed EVM addresses and base58 Solana addresses alike.
func MaskAddress(addr string) string {
	if len(addr) < 10 {
		return "****"
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}

// MaskAPIKey masks an API key showing only first 4 chars
func MaskAPIKey(key string) string {
	if len(key) < 4 {
		return "****"
	}
	return key[:4] + strings.Repeat("*", len(key)-4)
}

// MaskVaultID masks a vault identifier keeping only a short prefix.
func MaskVaultID(id string) string {
	if len(id) < 8 {
		return "****"
	}
	return id[:8] + "..."
}

func isSensitiveField(field string) bool {
	lower := strings.ToLower(field)
	for _, sensitive := range sensitiveFields {
		if strings.Contains(lower, sensitive) {
			return true
		}
	}
	return false
}

func maskSlice(slice []interface{}) []interface{} {
	masked := make([]interface{}, len(slice))
	for i, v := range slice {
		switch val := v.(type) {
		case string:
			masked[i] = MaskString(val)
		case map[string]interface{}:
			masked[i] = MaskMap(val)
		default:
			masked[i] = v
		}
	}
	return masked
}

// RedactHeaders removes sensitive headers
func RedactHeaders(headers map[string][]string) map[string]string {
	redacted := make(map[string]string)
	sensitiveHeaders := []string{"authorization", "x-signature", "x-api-key", "cookie", "set-cookie"}

	for k, v := range headers {
		lower := strings.ToLower(k)
		isSensitive := false
		for _, sensitive := range sensitiveHeaders {
			if strings.Contains(lower, sensitive) {
				isSensitive = true
				break
			}
		}
		if isSensitive {
			redacted[k] = "***REDACTED***"
			continue
		}
		if len(v) > 0 {
			redacted[k] = v[0]
		}
	}
	return redacted
}
