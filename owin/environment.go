package owin

import (
	"context"
	"io"
	"net/http"
	"slices"
)

// Well-known environment keys.
const (
	KeyVersion            = "owin.Version"
	KeyCallCancelled      = "owin.CallCancelled"
	KeyRequestMethod      = "owin.RequestMethod"
	KeyRequestScheme      = "owin.RequestScheme"
	KeyRequestPathBase    = "owin.RequestPathBase"
	KeyRequestPath        = "owin.RequestPath"
	KeyRequestQueryString = "owin.RequestQueryString"
	KeyRequestProtocol    = "owin.RequestProtocol"
	KeyRequestHeaders     = "owin.RequestHeaders"
	KeyRequestBody        = "owin.RequestBody"
	KeyRequestID          = "owin.RequestId"
	KeyResponseStatusCode = "owin.ResponseStatusCode"
	KeyResponseReason     = "owin.ResponseReasonPhrase"
	KeyResponseProtocol   = "owin.ResponseProtocol"
	KeyResponseHeaders    = "owin.ResponseHeaders"
	KeyResponseBody       = "owin.ResponseBody"
	KeyTraceOutput        = "host.TraceOutput"
)

// Version is the environment version reported by NewEnvironment.
const Version = "1.0"

// Environment carries the state of one in-flight request/response exchange.
//
// Well-known values live in typed fields; a zero value means the value has
// not been set. Values for any other key are kept in a side-table reachable
// through Get, Set and Delete.
//
// An Environment is owned by a single request and must not be shared
// between concurrent requests.
type Environment struct {
	// Context carries the cancellation signal for the exchange.
	Context context.Context

	Version string

	RequestMethod      string
	RequestScheme      string
	RequestPathBase    string
	RequestPath        string
	RequestQueryString string
	RequestProtocol    string
	RequestID          string
	RequestHeaders     http.Header
	RequestBody        io.Reader

	ResponseStatusCode   int
	ResponseReasonPhrase string
	ResponseProtocol     string
	ResponseHeaders      http.Header
	ResponseBody         io.Writer

	// TraceOutput receives diagnostic text from middleware that has no
	// structured logger of its own.
	TraceOutput io.Writer

	extra map[string]any
}

// NewEnvironment returns an environment for the given request method and
// path with empty request and response header maps allocated.
func NewEnvironment(ctx context.Context, method, path string) *Environment {
	return &Environment{
		Context:         ctx,
		Version:         Version,
		RequestMethod:   method,
		RequestPath:     path,
		RequestHeaders:  make(http.Header),
		ResponseHeaders: make(http.Header),
	}
}

// Ctx returns the cancellation context of the exchange, or
// context.Background when none was set.
func (e *Environment) Ctx() context.Context {
	if e.Context == nil {
		return context.Background()
	}

	return e.Context
}

// StatusCode returns the response status code. An unset status means 200.
func (e *Environment) StatusCode() int {
	if e.ResponseStatusCode == 0 {
		return http.StatusOK
	}

	return e.ResponseStatusCode
}

// Write writes p to the response body. Without a response body the data is
// discarded.
func (e *Environment) Write(p []byte) (int, error) {
	if e.ResponseBody == nil {
		return len(p), nil
	}

	return e.ResponseBody.Write(p)
}

// Get returns the value stored under key and whether it is present.
func (e *Environment) Get(key string) (any, bool) {
	switch key {
	case KeyVersion:
		return e.Version, e.Version != ""
	case KeyCallCancelled:
		return e.Context, e.Context != nil
	case KeyRequestMethod:
		return e.RequestMethod, e.RequestMethod != ""
	case KeyRequestScheme:
		return e.RequestScheme, e.RequestScheme != ""
	case KeyRequestPathBase:
		return e.RequestPathBase, e.RequestPathBase != ""
	case KeyRequestPath:
		return e.RequestPath, e.RequestPath != ""
	case KeyRequestQueryString:
		return e.RequestQueryString, e.RequestQueryString != ""
	case KeyRequestProtocol:
		return e.RequestProtocol, e.RequestProtocol != ""
	case KeyRequestID:
		return e.RequestID, e.RequestID != ""
	case KeyRequestHeaders:
		return e.RequestHeaders, e.RequestHeaders != nil
	case KeyRequestBody:
		return e.RequestBody, e.RequestBody != nil
	case KeyResponseStatusCode:
		return e.ResponseStatusCode, e.ResponseStatusCode != 0
	case KeyResponseReason:
		return e.ResponseReasonPhrase, e.ResponseReasonPhrase != ""
	case KeyResponseProtocol:
		return e.ResponseProtocol, e.ResponseProtocol != ""
	case KeyResponseHeaders:
		return e.ResponseHeaders, e.ResponseHeaders != nil
	case KeyResponseBody:
		return e.ResponseBody, e.ResponseBody != nil
	case KeyTraceOutput:
		return e.TraceOutput, e.TraceOutput != nil
	}

	v, ok := e.extra[key]
	return v, ok
}

// Set stores value under key, overwriting any previous value. For
// well-known keys a value of the wrong type is ignored.
func (e *Environment) Set(key string, value any) {
	switch key {
	case KeyVersion:
		setField(&e.Version, value)
	case KeyCallCancelled:
		setField(&e.Context, value)
	case KeyRequestMethod:
		setField(&e.RequestMethod, value)
	case KeyRequestScheme:
		setField(&e.RequestScheme, value)
	case KeyRequestPathBase:
		setField(&e.RequestPathBase, value)
	case KeyRequestPath:
		setField(&e.RequestPath, value)
	case KeyRequestQueryString:
		setField(&e.RequestQueryString, value)
	case KeyRequestProtocol:
		setField(&e.RequestProtocol, value)
	case KeyRequestID:
		setField(&e.RequestID, value)
	case KeyRequestHeaders:
		setField(&e.RequestHeaders, value)
	case KeyRequestBody:
		setField(&e.RequestBody, value)
	case KeyResponseStatusCode:
		setField(&e.ResponseStatusCode, value)
	case KeyResponseReason:
		setField(&e.ResponseReasonPhrase, value)
	case KeyResponseProtocol:
		setField(&e.ResponseProtocol, value)
	case KeyResponseHeaders:
		setField(&e.ResponseHeaders, value)
	case KeyResponseBody:
		setField(&e.ResponseBody, value)
	case KeyTraceOutput:
		setField(&e.TraceOutput, value)
	default:
		if e.extra == nil {
			e.extra = make(map[string]any)
		}
		e.extra[key] = value
	}
}

// Delete removes the value stored under key.
func (e *Environment) Delete(key string) {
	switch key {
	case KeyVersion:
		e.Version = ""
	case KeyCallCancelled:
		e.Context = nil
	case KeyRequestMethod:
		e.RequestMethod = ""
	case KeyRequestScheme:
		e.RequestScheme = ""
	case KeyRequestPathBase:
		e.RequestPathBase = ""
	case KeyRequestPath:
		e.RequestPath = ""
	case KeyRequestQueryString:
		e.RequestQueryString = ""
	case KeyRequestProtocol:
		e.RequestProtocol = ""
	case KeyRequestID:
		e.RequestID = ""
	case KeyRequestHeaders:
		e.RequestHeaders = nil
	case KeyRequestBody:
		e.RequestBody = nil
	case KeyResponseStatusCode:
		e.ResponseStatusCode = 0
	case KeyResponseReason:
		e.ResponseReasonPhrase = ""
	case KeyResponseProtocol:
		e.ResponseProtocol = ""
	case KeyResponseHeaders:
		e.ResponseHeaders = nil
	case KeyResponseBody:
		e.ResponseBody = nil
	case KeyTraceOutput:
		e.TraceOutput = nil
	default:
		delete(e.extra, key)
	}
}

// wellKnownKeys lists every key backed by a typed field.
var wellKnownKeys = []string{
	KeyVersion,
	KeyCallCancelled,
	KeyRequestMethod,
	KeyRequestScheme,
	KeyRequestPathBase,
	KeyRequestPath,
	KeyRequestQueryString,
	KeyRequestProtocol,
	KeyRequestHeaders,
	KeyRequestBody,
	KeyRequestID,
	KeyResponseStatusCode,
	KeyResponseReason,
	KeyResponseProtocol,
	KeyResponseHeaders,
	KeyResponseBody,
	KeyTraceOutput,
}

// Keys returns the sorted keys of all values currently present.
func (e *Environment) Keys() []string {
	keys := make([]string, 0, len(wellKnownKeys)+len(e.extra))
	for _, k := range wellKnownKeys {
		if _, ok := e.Get(k); ok {
			keys = append(keys, k)
		}
	}

	for k := range e.extra {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	return keys
}

// Get returns the value stored under key as a T. It returns the zero value
// of T when the key is absent or holds a value of another type.
func Get[T any](env *Environment, key string) T {
	v, _ := Lookup[T](env, key)
	return v
}

// Lookup returns the value stored under key as a T and reports whether a
// value of that type was present.
func Lookup[T any](env *Environment, key string) (T, bool) {
	var zero T
	if env == nil {
		return zero, false
	}

	raw, ok := env.Get(key)
	if !ok {
		return zero, false
	}

	v, ok := raw.(T)
	if !ok {
		return zero, false
	}

	return v, true
}

func setField[T any](dst *T, value any) {
	if value == nil {
		var zero T
		*dst = zero
		return
	}

	if v, ok := value.(T); ok {
		*dst = v
	}
}
