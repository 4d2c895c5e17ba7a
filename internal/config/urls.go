// Copyright (C) 2025 Boekwerk B.V.
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"strings"
)

// URLs provides centralized URL management for the Boekwerk web app
type URLs struct {
	BaseURL     string
	AppURL      string
	ClientsURL  string
	SettingsURL string
	APIKeysURL  string
}

// GetURLs returns the appropriate URLs based on the current API configuration
func GetURLs() *URLs {
	baseURL := getBaseURL()

	return &URLs{
		BaseURL:     baseURL,
		AppURL:      baseURL + "/app",
		ClientsURL:  baseURL + "/app/klanten",
		SettingsURL: baseURL + "/instellingen",
		APIKeysURL:  baseURL + "/instellingen/api-keys",
	}
}

// getBaseURL determines the base URL from the API URL
func getBaseURL() string {
	// Check if dev environment
	if os.Getenv(EnvEnvironment) == "dev" {
		return "http://localhost:3000"
	}

	apiURL := os.Getenv(EnvAPIURL)
	if apiURL == "" {
		return "https://app.boekwerk.nl"
	}

	// Handle localhost and development environments
	if strings.Contains(apiURL, "localhost") || strings.Contains(apiURL, "127.0.0.1") {
		if strings.Contains(apiURL, ":8080") {
			return "http://localhost:3000"
		}
		return apiURL
	}

	// For production and staging, use the standard URL
	return "https://app.boekwerk.nl"
}

// GetAPIKeysURL is a convenience function for getting the API keys URL
func GetAPIKeysURL() string {
	return GetURLs().APIKeysURL
}
