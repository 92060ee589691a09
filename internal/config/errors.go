package config

import (
	"errors"
)

var (
	// ErrEmptyURL error if config webserver.URL is empty.
	ErrEmptyURL = errors.New("toml config webserver.url can not be empty")

	// ErrWebServerPortCanNotBeZero error if config webserver listening port is 0.
	ErrWebServerPortCanNotBeZero = errors.New("toml config webserver.port listening port can not be 0")

	// ErrEmptyClientBaseURL error if config webserver.clientBaseURL is empty.
	// Without it password reset links can not be built.
	ErrEmptyClientBaseURL = errors.New("toml config webserver.clientBaseURL can not be empty")

	// ErrEmptySigningSecret error if one of the token signing secrets is empty.
	ErrEmptySigningSecret = errors.New("toml config auth signing secrets can not be empty")

	// ErrEqualSigningSecrets error if access and refresh secrets are identical.
	ErrEqualSigningSecrets = errors.New("toml config auth access and refresh secrets must differ")
)
