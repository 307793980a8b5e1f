package protocol

import "fmt"

// ErrorKind classifies synthesized error responses.
type ErrorKind int

const (
	// ErrorNone marks an ordinary, non-error response.
	ErrorNone ErrorKind = iota
	// ErrorGeneric covers unexpected failures and malformed pages.
	ErrorGeneric
	// ErrorUnderConstruction marks not-yet-implemented server features.
	ErrorUnderConstruction
	// ErrorCommunication covers transport failures and non-200 statuses.
	ErrorCommunication
	// ErrorNeedUpdate means the client build is too old for the
	// response it received.
	ErrorNeedUpdate
)

// String returns the error kind name.
func (k ErrorKind) String() string {
	switch k {
	case ErrorNone:
		return "none"
	case ErrorGeneric:
		return "generic"
	case ErrorUnderConstruction:
		return "under-construction"
	case ErrorCommunication:
		return "communication-error"
	case ErrorNeedUpdate:
		return "need-update"
	default:
		return fmt.Sprintf("invalid(%d)", int(k))
	}
}

func (k ErrorKind) defaultMessage() string {
	switch k {
	case ErrorUnderConstruction:
		return "Under construction; check back soon."
	case ErrorCommunication:
		return "Unable to connect to the server."
	case ErrorNeedUpdate:
		return "Your client is out of date.\nPlease update to continue."
	default:
		return "Something went wrong.\nPlease try again later."
	}
}

// ErrorResponse builds a well-formed single-row, single-button response
// for a failure. The OK button closes the window. If message is empty a
// default message for the kind is used.
//
// This constructor has no dependencies on anything configurable: it must
// keep working even when the fulfillment backend is completely broken.
func ErrorResponse(kind ErrorKind, message string) *Response {
	if kind == ErrorNone {
		kind = ErrorGeneric
	}
	if message == "" {
		message = kind.defaultMessage()
	}
	return &Response{
		Tag: TagResponsePage,
		Err: kind,
		Page: Page{
			Title: message,
			Rows: []Row{{
				Buttons: []Button{{
					ID:     "error-ok",
					Label:  "OK",
					Action: NewLocal(true, nil, nil),
				}},
			}},
		},
	}
}
