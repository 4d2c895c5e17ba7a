// Copyright (C) 2025 Boekwerk B.V.
// SPDX-License-Identifier: AGPL-3.0-or-later

package utils

import "strings"

// MaskAPIKey masks an API key for safe display in logs and debug output
func MaskAPIKey(apiKey string) string {
	if apiKey == "" {
		return ""
	}

	if len(apiKey) <= 8 {
		// Very short key, mask everything except first 2 chars
		if len(apiKey) <= 2 {
			return strings.Repeat("*", len(apiKey))
		}
		return apiKey[:2] + strings.Repeat("*", len(apiKey)-2)
	}

	// Show first 4 characters, mask the rest
	return apiKey[:4] + strings.Repeat("*", len(apiKey)-4)
}

// RedactAuthHeader redacts the credential portion of an Authorization header
func RedactAuthHeader(headerValue string) string {
	if headerValue == "" {
		return ""
	}

	if strings.HasPrefix(headerValue, "Bearer ") {
		token := headerValue[7:]
		return "Bearer " + MaskAPIKey(token)
	}

	parts := strings.SplitN(headerValue, " ", 2)
	if len(parts) == 2 {
		return parts[0] + " " + MaskAPIKey(parts[1])
	}

	return MaskAPIKey(headerValue)
}
