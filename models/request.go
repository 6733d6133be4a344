package models

// ExtractRequest is the payload for POST /extract.
type ExtractRequest struct {
	// URL is the video page to extract. Required; must be an absolute
	// http(s) URL.
	URL string `json:"url" binding:"required,http_url"`

	// WebhookURL switches the request to async mode: the handler answers
	// 202 immediately and POSTs the outcome here when extraction finishes.
	WebhookURL string `json:"webhook_url,omitempty" binding:"omitempty,http_url"`
}
