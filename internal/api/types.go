package api

import "time"

// HealthzResponse is the GET /healthz payload.
type HealthzResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	PluginsLoaded int    `json:"plugins_loaded"`
}

// PluginInfo describes one loaded provider in GET /plugins.
type PluginInfo struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Endpoints int    `json:"endpoints"`
}

// RunResponse carries the provider's reply to POST /plugin/{name}/run.
type RunResponse struct {
	Status int    `json:"status"`
	Answer string `json:"answer"`
}

// AuditEntry is one row in GET /audit.
type AuditEntry struct {
	ID         string    `json:"id"`
	Plugin     string    `json:"plugin"`
	Command    string    `json:"command"`
	Status     int       `json:"status"`
	DurationMS int64     `json:"duration_ms"`
	Source     string    `json:"source"`
	CreatedAt  time.Time `json:"created_at"`
}

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}
