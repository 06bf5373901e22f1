package sim

import (
	"bytes"

	"github.com/backkem/basestation/pkg/coap"
	"github.com/backkem/basestation/pkg/thread"
)

// MaxPayloadSize bounds a response payload, matching an unfragmented IPv6 MTU
// minus headers.
const MaxPayloadSize = 1024

// Request is an inbound CoAP request.
type Request struct {
	code    coap.Code
	typ     coap.Type
	token   []byte
	payload []byte
}

// NewRequest builds a request.
func NewRequest(code coap.Code, typ coap.Type, token, payload []byte) *Request {
	return &Request{
		code:    code,
		typ:     typ,
		token:   bytes.Clone(token),
		payload: bytes.Clone(payload),
	}
}

// Code implements coap.Request.
func (r *Request) Code() coap.Code { return r.code }

// Type implements coap.Request.
func (r *Request) Type() coap.Type { return r.typ }

// Token implements coap.Request.
func (r *Request) Token() []byte { return r.token }

// ReadPayload implements coap.Request.
func (r *Request) ReadPayload(buf []byte) int {
	return copy(buf, r.payload)
}

// SentResponse is a response handed to SendResponse.
type SentResponse struct {
	Type    coap.Type
	Code    coap.Code
	Token   []byte
	Payload []byte
	Peer    coap.MessageInfo
}

// message is an allocated response.
type message struct {
	stack   *Stack
	typ     coap.Type
	code    coap.Code
	token   []byte
	payload []byte
	freed   bool
	sent    bool
}

// Append implements coap.Response.
func (m *message) Append(p []byte) error {
	m.stack.mu.Lock()
	defer m.stack.mu.Unlock()

	if m.freed || m.sent {
		return thread.ErrorInvalidState
	}
	if m.stack.coap.failNextAppend {
		m.stack.coap.failNextAppend = false
		return thread.ErrorNoBufs
	}
	if len(m.payload)+len(p) > MaxPayloadSize {
		return thread.ErrorNoBufs
	}
	m.payload = append(m.payload, p...)
	return nil
}

// Free implements coap.Response.
func (m *message) Free() {
	m.stack.mu.Lock()
	defer m.stack.mu.Unlock()

	if m.freed || m.sent {
		return
	}
	m.freed = true
	m.stack.coap.live--
}

type coapState struct {
	started        bool
	port           uint16
	resources      map[string]*coap.Resource
	sent           []SentResponse
	live           int
	failNextAlloc  bool
	failNextAppend bool
	failNextSend   bool
	onResponse     func(SentResponse)
}

func newCoapState() coapState {
	return coapState{resources: make(map[string]*coap.Resource)}
}

// CoAP is the stack's CoAP service. It implements coap.Server.
type CoAP struct {
	s *Stack
}

var _ coap.Server = (*CoAP)(nil)

// CoAP returns the CoAP service.
func (s *Stack) CoAP() *CoAP {
	return s.coapSvc
}

// Start implements coap.Server.
func (c *CoAP) Start(port uint16) error {
	s := c.s
	if port == 0 {
		return thread.ErrorInvalidArgs
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.coap.started {
		return thread.ErrorAlready
	}
	s.coap.started = true
	s.coap.port = port
	s.log.Debugf("coap listening on port %d", port)
	return nil
}

// AddResource implements coap.Server.
func (c *CoAP) AddResource(r *coap.Resource) error {
	s := c.s
	if r == nil || r.URIPath == "" || r.Handler == nil {
		return thread.ErrorInvalidArgs
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.coap.resources[r.URIPath]; exists {
		return thread.ErrorAlready
	}
	s.coap.resources[r.URIPath] = r
	return nil
}

// NewResponse implements coap.Server.
func (c *CoAP) NewResponse(req coap.Request, typ coap.Type, code coap.Code) (coap.Response, error) {
	s := c.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.coap.failNextAlloc {
		s.coap.failNextAlloc = false
		return nil, thread.ErrorNoBufs
	}
	s.coap.live++
	return &message{
		stack: s,
		typ:   typ,
		code:  code,
		token: bytes.Clone(req.Token()),
	}, nil
}

// SendResponse implements coap.Server.
func (c *CoAP) SendResponse(resp coap.Response, info coap.MessageInfo) error {
	s := c.s
	m, ok := resp.(*message)
	if !ok || m.stack != s {
		return thread.ErrorInvalidArgs
	}

	s.mu.Lock()
	if m.freed || m.sent {
		s.mu.Unlock()
		return thread.ErrorInvalidState
	}
	if !s.coap.started {
		s.mu.Unlock()
		return thread.ErrorInvalidState
	}
	if s.coap.failNextSend {
		s.coap.failNextSend = false
		s.mu.Unlock()
		return thread.ErrorFailed
	}
	m.sent = true
	s.coap.live--
	sent := SentResponse{
		Type:    m.typ,
		Code:    m.code,
		Token:   m.token,
		Payload: bytes.Clone(m.payload),
		Peer:    info,
	}
	s.coap.sent = append(s.coap.sent, sent)
	hook := s.coap.onResponse
	s.mu.Unlock()

	if hook != nil {
		hook(sent)
	}
	return nil
}

// Deliver dispatches an inbound request to the resource at path. It must be
// called on the stack loop.
func (c *CoAP) Deliver(path string, req coap.Request, info coap.MessageInfo) error {
	s := c.s
	s.mu.Lock()
	started := s.coap.started
	r := s.coap.resources[path]
	s.mu.Unlock()

	if !started {
		return thread.ErrorInvalidState
	}
	if r == nil {
		return thread.ErrorNotFound
	}
	r.Handler(req, info)
	return nil
}

// OnResponse installs a hook called for every sent response.
func (c *CoAP) OnResponse(fn func(SentResponse)) {
	s := c.s
	s.mu.Lock()
	s.coap.onResponse = fn
	s.mu.Unlock()
}

// Responses returns every response sent so far.
func (c *CoAP) Responses() []SentResponse {
	s := c.s
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SentResponse, len(s.coap.sent))
	copy(out, s.coap.sent)
	return out
}

// LiveMessages returns the number of responses allocated but neither sent nor
// freed.
func (c *CoAP) LiveMessages() int {
	s := c.s
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.coap.live
}

// Port returns the port the CoAP service was started on, or 0.
func (c *CoAP) Port() uint16 {
	s := c.s
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.coap.port
}

// HasResource reports whether a resource is registered at path.
func (c *CoAP) HasResource(path string) bool {
	s := c.s
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.coap.resources[path]
	return ok
}

// FailNextAlloc makes the next NewResponse fail with NoBufs.
func (c *CoAP) FailNextAlloc() {
	s := c.s
	s.mu.Lock()
	s.coap.failNextAlloc = true
	s.mu.Unlock()
}

// FailNextAppend makes the next Append fail with NoBufs.
func (c *CoAP) FailNextAppend() {
	s := c.s
	s.mu.Lock()
	s.coap.failNextAppend = true
	s.mu.Unlock()
}

// FailNextSend makes the next SendResponse fail.
func (c *CoAP) FailNextSend() {
	s := c.s
	s.mu.Lock()
	s.coap.failNextSend = true
	s.mu.Unlock()
}
