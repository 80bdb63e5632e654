package otelx

import "os"

var lookupEnv = os.LookupEnv

func getenv(key, fallback string) string {
	if v, ok := lookupEnv(key); ok {
		return v
	}
	return fallback
}
