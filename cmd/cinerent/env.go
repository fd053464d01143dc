// Copyright (C) 2025 CineRent Labs, Inc.
// See LICENSE for copying information.

package main

import (
	"net"
	"net/url"
	"strconv"
)

// applyEnv overlays the deployment environment contract onto the loaded
// configuration. POSTGRES_* variables compose the database url, REDIS_*
// the live scan session cache address; the remaining variables map onto
// their config fields directly. Set variables win over flag and file values.
func applyEnv(config *Config, get func(string) string) {
	if composed, ok := postgresURL(get); ok {
		config.Database.URL = composed
	}
	if composed, ok := redisURL(get); ok {
		config.LiveBackend = composed
	}
	if v := get("CORS_ORIGINS"); v != "" {
		config.CORSOrigins = v
	}
	if v := get("ENVIRONMENT"); v != "" {
		config.Environment = v
	}
	if v := get("SECRET_KEY"); v != "" {
		config.SecretKey = v
	}
	if v := get("UPLOAD_DIR"); v != "" {
		config.UploadDir = v
	}
	if v := get("MAX_UPLOAD_SIZE"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.MaxUploadSize = n
		}
	}
	if v := get("DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			config.Debug = b
		}
	}
}

// postgresURL composes a connection url from the POSTGRES_* variables.
// POSTGRES_SERVER is the trigger; the port defaults to 5432.
func postgresURL(get func(string) string) (string, bool) {
	server := get("POSTGRES_SERVER")
	if server == "" {
		return "", false
	}
	port := get("POSTGRES_PORT")
	if port == "" {
		port = "5432"
	}

	composed := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(server, port),
		Path:   "/" + get("POSTGRES_DB"),
	}
	if user := get("POSTGRES_USER"); user != "" {
		if password := get("POSTGRES_PASSWORD"); password != "" {
			composed.User = url.UserPassword(user, password)
		} else {
			composed.User = url.User(user)
		}
	}
	return composed.String(), true
}

// redisURL composes a live cache address from the REDIS_* variables.
// REDIS_HOST is the trigger; the port defaults to 6379.
func redisURL(get func(string) string) (string, bool) {
	host := get("REDIS_HOST")
	if host == "" {
		return "", false
	}
	port := get("REDIS_PORT")
	if port == "" {
		port = "6379"
	}

	composed := "redis://" + net.JoinHostPort(host, port)
	if db := get("REDIS_DB"); db != "" {
		composed += "/" + db
	}
	return composed, true
}
