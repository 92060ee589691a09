// Package main provides the entry point for the EcoTrack backend. It runs
// a Fiber web server exposing account registration, cookie-based login with
// access and refresh tokens, password recovery by mail, and a WebSocket
// gateway that streams simulated environmental sensor readings to the
// dashboard. The application uses gorm for data persistence.
package main
