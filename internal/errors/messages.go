// Copyright (C) 2025 Boekwerk B.V.
// SPDX-License-Identifier: AGPL-3.0-or-later

package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// StatusMessages maps backend error codes to user-facing text.
var StatusMessages = map[string]string{
	"INVALID_API_KEY":     "Invalid API key. Get a new one at https://app.boekwerk.nl/instellingen/api-keys",
	"ADMIN_NOT_FOUND":     "Client administration not found or not linked to your office",
	"RATE_LIMIT_EXCEEDED": "Rate limit exceeded. Please wait before retrying",
	"SERVER_ERROR":        "Boekwerk servers are experiencing issues. Please try again later",
	"UNAUTHORIZED":        "You don't have permission to access this resource",
	"FORBIDDEN":           "Access to this resource is forbidden",
	"TIMEOUT":             "Request timed out. The operation may still be processing",
	"NETWORK_ERROR":       "Network connectivity issue. Please check your connection",
	"VALIDATION_ERROR":    "Invalid input provided. Please check your request",
}

type APIErrorResponse struct {
	Error   string                 `json:"error"`
	Message string                 `json:"message"`
	Status  string                 `json:"status"`
	Code    string                 `json:"code"`
	Details map[string]interface{} `json:"details"`
}

func ParseAPIError(statusCode int, body []byte) error {
	// Try to parse JSON error response
	var apiErr APIErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil {
		return createErrorFromAPIResponse(statusCode, apiErr)
	}

	// Fallback to raw body as error message
	message := strings.TrimSpace(string(body))
	if message == "" {
		message = fmt.Sprintf("API request failed with status %d", statusCode)
	}

	return createErrorFromStatusCode(statusCode, message)
}

func createErrorFromAPIResponse(statusCode int, apiErr APIErrorResponse) error {
	// Note: API may send error code in either "code" or "error" field
	errorCode := strings.ToUpper(apiErr.Code)
	if errorCode == "" {
		errorCode = strings.ToUpper(apiErr.Error)
	}

	switch errorCode {
	case "INVALID_API_KEY", "UNAUTHORIZED":
		return &AuthError{
			Message: StatusMessages["INVALID_API_KEY"],
			Reason:  apiErr.Code,
		}

	case "ADMIN_NOT_FOUND":
		message := StatusMessages["ADMIN_NOT_FOUND"]
		if apiErr.Details != nil {
			if id, ok := apiErr.Details["clientId"].(string); ok {
				message = fmt.Sprintf("Client administration '%s' not found or not linked to your office", id)
			}
		}
		return &APIError{
			StatusCode: statusCode,
			Status:     apiErr.Status,
			Message:    message,
			ErrorType:  ErrorTypeNotFound,
		}

	case "OPERATION_NOT_FOUND":
		message := apiErr.Message
		if message == "" {
			message = "Bulk operation not found"
		}
		return &APIError{
			StatusCode: statusCode,
			Status:     apiErr.Status,
			Message:    message,
			ErrorType:  ErrorTypeNotFound,
		}

	case "RATE_LIMIT_EXCEEDED":
		retryAfter := ""
		if apiErr.Details != nil {
			if ra, ok := apiErr.Details["retry_after"].(string); ok {
				retryAfter = ra
			}
		}
		return &RateLimitError{
			RetryAfter: retryAfter,
		}

	case "VALIDATION_ERROR":
		field := ""
		if apiErr.Details != nil {
			if f, ok := apiErr.Details["field"].(string); ok {
				field = f
			}
		}
		return &ValidationError{
			Field:   field,
			Message: apiErr.Message,
		}
	}

	// Default to generic API error
	message := apiErr.Message
	if message == "" {
		message = apiErr.Error
	}

	return createErrorFromStatusCode(statusCode, message)
}

func createErrorFromStatusCode(statusCode int, message string) error {
	var errorType ErrorType

	switch statusCode {
	case 401:
		if message == "" {
			message = StatusMessages["INVALID_API_KEY"]
		}
		return &AuthError{
			Message: message,
			Reason:  "http_401",
		}

	case 403:
		if message == "" {
			message = StatusMessages["FORBIDDEN"]
		}
		return &AuthError{
			Message: message,
			Reason:  "http_403",
		}

	case 404:
		errorType = ErrorTypeNotFound
		if message == "" {
			message = "Resource not found"
		}

	case 429:
		errorType = ErrorTypeRateLimit
		if message == "" {
			message = StatusMessages["RATE_LIMIT_EXCEEDED"]
		}
		return &APIError{
			StatusCode: statusCode,
			Status:     "Too Many Requests",
			Message:    message,
			ErrorType:  errorType,
		}

	case 408:
		errorType = ErrorTypeTimeout
		if message == "" {
			message = StatusMessages["TIMEOUT"]
		}

	case 422:
		if message == "" {
			message = StatusMessages["VALIDATION_ERROR"]
		}
		return &ValidationError{
			Message: message,
		}

	case 500, 502, 503, 504:
		errorType = ErrorTypeAPI
		if message == "" {
			message = StatusMessages["SERVER_ERROR"]
		}

	default:
		errorType = ErrorTypeUnknown
		if message == "" {
			message = fmt.Sprintf("Unexpected error (status %d)", statusCode)
		}
	}

	return &APIError{
		StatusCode: statusCode,
		Status:     getHTTPStatusText(statusCode),
		Message:    message,
		ErrorType:  errorType,
	}
}

func getHTTPStatusText(code int) string {
	switch code {
	case 400:
		return "Bad Request"
	case 401:
		return "Unauthorized"
	case 403:
		return "Forbidden"
	case 404:
		return "Not Found"
	case 408:
		return "Request Timeout"
	case 422:
		return "Unprocessable Entity"
	case 429:
		return "Too Many Requests"
	case 500:
		return "Internal Server Error"
	case 502:
		return "Bad Gateway"
	case 503:
		return "Service Unavailable"
	case 504:
		return "Gateway Timeout"
	default:
		return fmt.Sprintf("HTTP %d", code)
	}
}

func FormatUserError(err error) string {
	if err == nil {
		return ""
	}

	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Error()
	}

	var rateLimitErr *RateLimitError
	if errors.As(err, &rateLimitErr) {
		return rateLimitErr.Error()
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Error()
	}

	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return fmt.Sprintf("Network error: %v. Please check your connection and try again.", netErr.Err)
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return apiErr.Error()
	}

	return err.Error()
}
