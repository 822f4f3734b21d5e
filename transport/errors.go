package transport

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Kind classifies a failed attempt.
type Kind int

const (
	KindBadRequest Kind = iota + 1
	KindUnauthorized
	KindAccessDenied
	KindNotFound
	KindRequestTimeout
	KindRateLimitEncountered
	KindServerError
	KindUnsupported
)

// Sentinel errors matched by *Error through errors.Is.
var (
	ErrBadRequest           = errors.New("bad request")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrAccessDenied         = errors.New("access denied")
	ErrNotFound             = errors.New("not found")
	ErrRequestTimeout       = errors.New("request timeout")
	ErrRateLimitEncountered = errors.New("rate limit encountered")
	ErrServerError          = errors.New("server error")
	ErrUnsupported          = errors.New("unsupported status")

	// ErrCircuitOpen is returned without contacting the server while the
	// circuit breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker is open")
)

var kindSentinels = map[Kind]error{
	KindBadRequest:           ErrBadRequest,
	KindUnauthorized:         ErrUnauthorized,
	KindAccessDenied:         ErrAccessDenied,
	KindNotFound:             ErrNotFound,
	KindRequestTimeout:       ErrRequestTimeout,
	KindRateLimitEncountered: ErrRateLimitEncountered,
	KindServerError:          ErrServerError,
	KindUnsupported:          ErrUnsupported,
}

// statusKinds lists every status with a dedicated kind. Anything else
// outside the success range is KindUnsupported.
var statusKinds = map[int]Kind{
	http.StatusBadRequest:          KindBadRequest,
	http.StatusUnauthorized:        KindUnauthorized,
	http.StatusForbidden:           KindAccessDenied,
	http.StatusNotFound:            KindNotFound,
	http.StatusTooManyRequests:     KindRateLimitEncountered,
	http.StatusInternalServerError: KindServerError,
}

func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "bad_request"
	case KindUnauthorized:
		return "unauthorized"
	case KindAccessDenied:
		return "access_denied"
	case KindNotFound:
		return "not_found"
	case KindRequestTimeout:
		return "request_timeout"
	case KindRateLimitEncountered:
		return "rate_limit_encountered"
	case KindServerError:
		return "server_error"
	case KindUnsupported:
		return "unsupported"
	default:
		return "unknown"
	}
}

// kindForStatus maps a non-success status code to its kind.
func kindForStatus(status int) Kind {
	if kind, ok := statusKinds[status]; ok {
		return kind
	}
	return KindUnsupported
}

// Error is a failed attempt, constructed once per attempt.
type Error struct {
	Kind Kind

	// StatusCode is zero for RequestTimeout.
	StatusCode int

	// Message is the raw response body, or a description when there is none.
	Message string

	// Body is the response body parsed as JSON, or the raw text.
	Body any

	Header http.Header

	// RateLimit is set only for KindRateLimitEncountered.
	RateLimit *RateLimit

	// Err is the underlying cause for timeouts.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s (%d): %s", kindSentinels[e.Kind], e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", kindSentinels[e.Kind], e.Message)
}

// Is reports whether target is the sentinel for e.Kind.
func (e *Error) Is(target error) bool {
	sentinel, ok := kindSentinels[e.Kind]
	return ok && sentinel == target
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of a transport error anywhere in err's chain.
func KindOf(err error) (Kind, bool) {
	var terr *Error
	if errors.As(err, &terr) {
		return terr.Kind, true
	}
	return 0, false
}

// Rate-limit response headers.
const (
	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRateLimitReset     = "X-RateLimit-Reset"
)

// RateLimit carries the server's rate-limit headers from a 429 response.
type RateLimit struct {
	Limit     int
	Remaining int

	// Reset is when the window resets. Zero when the header is absent.
	Reset time.Time
}

func parseRateLimit(h http.Header) *RateLimit {
	rl := &RateLimit{
		Limit:     headerInt(h, HeaderRateLimitLimit),
		Remaining: headerInt(h, HeaderRateLimitRemaining),
	}
	if reset := h.Get(HeaderRateLimitReset); reset != "" {
		if seconds, err := strconv.ParseInt(reset, 10, 64); err == nil {
			rl.Reset = time.Unix(seconds, 0)
		}
	}
	return rl
}

func headerInt(h http.Header, key string) int {
	v, err := strconv.Atoi(h.Get(key))
	if err != nil {
		return 0
	}
	return v
}
