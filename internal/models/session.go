package models

// Session identifies the browser a request came from. ID scopes drafts and
// live streams; BackendToken is the storefront backend's auth cookie value,
// forwarded untouched on every backend call.
type Session struct {
	ID           string
	BackendToken string
}
