package utils

import (
	"os"
	"strings"
)

// GetEnv returns the value of the environment variable or the fallback when unset or empty.
func GetEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// GetEnvList splits a comma separated environment variable, dropping empty entries.
func GetEnvList(key, fallback string) []string {
	raw := GetEnv(key, fallback)
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
