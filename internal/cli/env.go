package cli

import (
	"os"
	"strconv"
)

// envPrefix namespaces the environment variables that provide flag defaults.
const envPrefix = "CHANBENCH_"

func envString(name, def string) string {
	if v := os.Getenv(envPrefix + name); v != "" {
		return v
	}

	return def
}

func envInt(name string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(envPrefix + name)); err == nil {
		return v
	}

	return def
}
