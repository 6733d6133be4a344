package models

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success bool         `json:"success"`
	Error   *ErrorDetail `json:"error"`
}

// AcceptedResponse is returned for async extractions.
type AcceptedResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"` // always "processing"
	URL    string `json:"url"`
}

// HealthResponse is the response for GET /health.
type HealthResponse struct {
	Status         string `json:"status"` // always "ok"; availability is reported separately
	YtdlpAvailable bool   `json:"ytdlp_available"`
	YtdlpVersion   string `json:"ytdlp_version"`
	GoVersion      string `json:"go_version"`
	Uptime         string `json:"uptime"`
	Version        string `json:"version"`

	// Set only when concurrent extractions are capped.
	ExtractionsActive int `json:"extractions_active,omitempty"`
	ExtractionsMax    int `json:"extractions_max,omitempty"`
}

// ServiceInfo is the response for GET /.
type ServiceInfo struct {
	Service   string            `json:"service"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}
