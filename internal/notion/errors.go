package notion

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"

	"github.com/jomei/notionapi"
)

// Reason classifies a failed remote call.
type Reason string

const (
	// ReasonNetwork covers transport failures and timeouts.
	ReasonNetwork Reason = "network"
	// ReasonRateLimited means the remote store asked us to back off.
	ReasonRateLimited Reason = "rate_limited"
	// ReasonUnauthorized means the token was rejected.
	ReasonUnauthorized Reason = "unauthorized"
	// ReasonForbidden means the token lacks access to the target page.
	ReasonForbidden Reason = "forbidden"
	// ReasonNotFound means the page or block does not exist, or is not
	// shared with the integration.
	ReasonNotFound Reason = "not_found"
	// ReasonConflict means the remote store rejected a conflicting write.
	ReasonConflict Reason = "conflict"
	// ReasonGeneric covers everything else.
	ReasonGeneric Reason = "generic"
)

// RemoteError wraps a failed remote call with its classification and the
// operation that failed.
type RemoteError struct {
	Reason    Reason
	Operation string
	PageID    string
	Err       error
}

func (e *RemoteError) Error() string {
	if e.PageID != "" {
		return fmt.Sprintf("%s %s: %s: %v", e.Operation, e.PageID, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Operation, e.Reason, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// ReasonOf returns the reason code of a remote error, ReasonGeneric for
// anything else.
func ReasonOf(err error) Reason {
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Reason
	}
	return ReasonGeneric
}

func wrap(op, pageID string, err error) error {
	if err == nil {
		return nil
	}
	return &RemoteError{Reason: classify(err), Operation: op, PageID: pageID, Err: err}
}

func classify(err error) Reason {
	var apiErr *notionapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Status {
		case http.StatusUnauthorized:
			return ReasonUnauthorized
		case http.StatusForbidden:
			return ReasonForbidden
		case http.StatusNotFound:
			return ReasonNotFound
		case http.StatusConflict:
			return ReasonConflict
		case http.StatusTooManyRequests:
			return ReasonRateLimited
		}
		switch string(apiErr.Code) {
		case "unauthorized":
			return ReasonUnauthorized
		case "restricted_resource":
			return ReasonForbidden
		case "object_not_found":
			return ReasonNotFound
		case "conflict_error":
			return ReasonConflict
		case "rate_limited":
			return ReasonRateLimited
		}
		return ReasonGeneric
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ReasonNetwork
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return ReasonNetwork
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return ReasonNetwork
	}
	return ReasonGeneric
}
