package pipelinehandlers

import "net/http"

// setHeader sets a header value, allocating the header map when the host
// did not provide one.
func setHeader(h *http.Header, name, value string) {
	if *h == nil {
		*h = make(http.Header)
	}

	h.Set(name, value)
}

// addHeader appends a header value, allocating the header map when needed.
func addHeader(h *http.Header, name, value string) {
	if *h == nil {
		*h = make(http.Header)
	}

	h.Add(name, value)
}
