// Copyright (C) 2025 Boekwerk B.V.
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

// Environment variable constants
const (
	// EnvAPIKey is the environment variable for the Boekwerk API key
	EnvAPIKey = "BOEKWERK_API_KEY"

	// EnvAPIURL is the environment variable for the Boekwerk API URL
	EnvAPIURL = "BOEKWERK_API_URL"

	// EnvDebug is the environment variable for debug mode
	EnvDebug = "BOEKWERK_DEBUG"

	// EnvEnvironment is the environment variable for setting the environment (prod/dev)
	EnvEnvironment = "BOEKWERK_ENV"
)
