package handler

const (
	// RootPath is the root path of a route group.
	RootPath = "/"

	// AccessCookie carries the short-lived access token.
	AccessCookie = "token"

	// RefreshCookie carries the long-lived refresh token.
	RefreshCookie = "refreshToken"

	// ErrNilADFatalLogMsg is used if the app or deps pointer is nil.
	ErrNilADFatalLogMsg = "app or deps is nil"
)
