// Package coap defines the request/response surface the base station consumes
// from the stack's CoAP service.
//
// Message encoding, retransmission and deduplication belong to the stack. The
// base station sees decoded requests, allocates responses through the server,
// and either hands them back for sending or frees them.
package coap

import (
	"fmt"
	"net/netip"
)

// DefaultPort is the standard CoAP UDP port.
const DefaultPort = 5683

// Type is the message reliability class.
type Type uint8

const (
	TypeConfirmable Type = iota
	TypeNonConfirmable
	TypeAcknowledgment
	TypeReset
)

// String returns the type name.
func (t Type) String() string {
	switch t {
	case TypeConfirmable:
		return "CON"
	case TypeNonConfirmable:
		return "NON"
	case TypeAcknowledgment:
		return "ACK"
	case TypeReset:
		return "RST"
	default:
		return fmt.Sprintf("Type(%d)", uint8(t))
	}
}

// Code is a request method or response code in class.detail form.
type Code uint8

func makeCode(class, detail uint8) Code {
	return Code(class<<5 | detail)
}

// Request methods.
var (
	CodeGet    = makeCode(0, 1)
	CodePost   = makeCode(0, 2)
	CodePut    = makeCode(0, 3)
	CodeDelete = makeCode(0, 4)
)

// Response codes.
var (
	CodeCreated          = makeCode(2, 1)
	CodeDeleted          = makeCode(2, 2)
	CodeValid            = makeCode(2, 3)
	CodeChanged          = makeCode(2, 4)
	CodeContent          = makeCode(2, 5)
	CodeBadRequest       = makeCode(4, 0)
	CodeNotFound         = makeCode(4, 4)
	CodeMethodNotAllowed = makeCode(4, 5)
	CodeInternalError    = makeCode(5, 0)
)

// Class returns the code class (0 request, 2 success, 4 client error, 5 server error).
func (c Code) Class() uint8 {
	return uint8(c) >> 5
}

// Detail returns the code detail.
func (c Code) Detail() uint8 {
	return uint8(c) & 0x1f
}

// IsRequest returns true for method codes.
func (c Code) IsRequest() bool {
	return c.Class() == 0 && c.Detail() != 0
}

// String returns the method name for requests and class.detail otherwise.
func (c Code) String() string {
	switch c {
	case CodeGet:
		return "GET"
	case CodePost:
		return "POST"
	case CodePut:
		return "PUT"
	case CodeDelete:
		return "DELETE"
	}
	return fmt.Sprintf("%d.%02d", c.Class(), c.Detail())
}

// MessageInfo carries the addressing of an inbound request.
type MessageInfo struct {
	PeerAddr netip.Addr
	PeerPort uint16
	SockAddr netip.Addr
}

// Peer returns the peer as address:port.
func (m MessageInfo) Peer() string {
	if !m.PeerAddr.IsValid() {
		return "unknown"
	}
	return netip.AddrPortFrom(m.PeerAddr, m.PeerPort).String()
}

// Request is an inbound, already decoded request.
type Request interface {
	Code() Code
	Type() Type
	Token() []byte

	// ReadPayload copies up to len(buf) payload bytes into buf and returns the
	// number copied. Payload beyond len(buf) is not read.
	ReadPayload(buf []byte) int
}

// Response is a response message allocated by the server. The caller owns it
// until SendResponse succeeds; on any other exit path it must call Free.
type Response interface {
	// Append adds payload bytes after the payload marker.
	Append(p []byte) error

	// Free releases the message back to the stack's buffer pool.
	Free()
}

// HandlerFunc processes one request for a resource.
type HandlerFunc func(req Request, info MessageInfo)

// Resource binds a handler to a URI path.
type Resource struct {
	URIPath string
	Handler HandlerFunc
}

// Server is the stack's CoAP service.
type Server interface {
	// Start opens the CoAP socket on port.
	Start(port uint16) error

	// AddResource registers r. The server keeps a reference to r.
	AddResource(r *Resource) error

	// NewResponse allocates a response to req with the given type and code.
	// The request token is copied and the payload marker set.
	NewResponse(req Request, typ Type, code Code) (Response, error)

	// SendResponse transmits resp to the requester. On success the server
	// takes ownership of resp; on failure the caller still owns it.
	SendResponse(resp Response, info MessageInfo) error
}
