package owin

import (
	"bytes"
	"encoding/json"
	"net/http"
)

// Error sets the response status to code and writes the status text as a
// plain text body, mirroring http.Error.
func Error(env *Environment, code int) error {
	if env.ResponseHeaders == nil {
		env.ResponseHeaders = make(http.Header)
	}

	env.ResponseHeaders.Del("Content-Length")
	env.ResponseHeaders.Set("Content-Type", "text/plain; charset=utf-8")
	env.ResponseHeaders.Set("X-Content-Type-Options", "nosniff")
	env.ResponseStatusCode = code

	_, err := env.Write([]byte(http.StatusText(code) + "\n"))
	return err
}

// ResponseJSON encodes v as JSON and writes it with the given status code.
// The Content-Type header is set to "application/json". If encoding fails,
// a 500 Internal Server Error is written instead.
func ResponseJSON(env *Environment, code int, v any) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		return Error(env, http.StatusInternalServerError)
	}

	if env.ResponseHeaders == nil {
		env.ResponseHeaders = make(http.Header)
	}

	env.ResponseHeaders.Set("Content-Type", "application/json")
	env.ResponseStatusCode = code

	_, err := env.Write(buf.Bytes())
	return err
}
