package errorx

type Code int

var Unknown = Error{Code: 100000, Message: "Request failed"}

const (
	// Common codes
	BadRequest          Code = 100001
	NotFound            Code = 100004
	AlreadyExists       Code = 100006
	Internal            Code = 100007
	UpstreamUnavailable Code = 100008

	// Score codes
	InsufficientFunds Code = 200001

	// Risk reward codes
	InvalidState  Code = 300001
	AlreadyOpened Code = 300002
	LimitExceeded Code = 300003
)

func (c Code) String() string {
	switch c {
	case Unknown.Code:
		return "unknown"
	case BadRequest:
		return "bad_request"
	case NotFound:
		return "not_found"
	case AlreadyExists:
		return "already_exists"
	case Internal:
		return "internal"
	case UpstreamUnavailable:
		return "upstream_unavailable"
	case InsufficientFunds:
		return "insufficient_funds"
	case InvalidState:
		return "invalid_state"
	case AlreadyOpened:
		return "already_opened"
	case LimitExceeded:
		return "limit_exceeded"
	}

	return "unknown"
}
