// Package config provides centralized configuration management for the
// dashboard service and its CLI.
//
// # Configuration Sources
//
// Configuration is assembled from the following sources, later ones winning:
//
//	1. Built-in defaults (Default)
//	2. A YAML file: $BIKE_CONFIG_FILE, ./config.yaml or ./configs/config.yaml
//	3. Environment variables, optionally seeded from a .env file
//
// # Environment Variables
//
// All environment variables use the BIKE_ prefix followed by the section:
//
//	BIKE_SERVER_PORT=8080
//	BIKE_DATASET_FILE=data/all.csv
//	BIKE_DATASET_VALIDATE_TOTALS=true
//	BIKE_LOGGING_LEVEL=debug
//	BIKE_SECURITY_ALLOWED_ORIGINS=http://localhost:8080,http://127.0.0.1:8080
//	BIKE_TELEMETRY_TRACE_EXPORTER=stdout
//
// # Example YAML
//
//	server:
//	  port: 8080
//	dataset:
//	  path: data/hour.xlsx
//	  sheet: hourly
//	  max_errors: 50
//	logging:
//	  level: info
//	  output: both
//
// Load validates the merged result and returns an error describing the first
// invalid field.
package config
