// Package resource serves the base station's single CoAP resource,
// question/answer, backed by an attribute.Store.
//
// GET returns the stored value. POST replaces it with the request payload
// verbatim (truncated to the store's capacity), pushes a log event to the
// display queue, toggles the activity LED, and echoes the new value when the
// request was confirmable.
package resource

import (
	"fmt"

	"github.com/backkem/basestation/pkg/attribute"
	"github.com/backkem/basestation/pkg/coap"
	"github.com/backkem/basestation/pkg/display"
	"github.com/backkem/basestation/pkg/hal"
	"github.com/backkem/basestation/pkg/thread"
	"github.com/pion/logging"
)

// DefaultPath is the URI path of the resource.
const DefaultPath = "question/answer"

// Config configures a Handler.
type Config struct {
	// Server is the stack's CoAP service. Required.
	Server coap.Server

	// Port the CoAP service is started on. Defaults to coap.DefaultPort.
	Port uint16

	// Path is the resource URI path. Defaults to DefaultPath.
	Path string

	// Queue receives a log event for every POST. Optional.
	Queue display.Queue

	// LED is toggled once per POST. Optional.
	LED hal.LED

	// LoggerFactory for creating loggers.
	LoggerFactory logging.LoggerFactory
}

// Handler owns the attribute store and serves it over CoAP. All methods run
// on the stack's event loop.
type Handler struct {
	server    coap.Server
	port      uint16
	queue     display.Queue
	led       hal.LED
	log       logging.LeveledLogger
	store     *attribute.Store
	res       coap.Resource
	installed bool

	// readBuf holds the request payload during a POST.
	readBuf [attribute.MaxValueLen]byte
}

// New creates a Handler with an empty store. The resource is not served until
// Install is called.
func New(config Config) (*Handler, error) {
	if config.Server == nil {
		return nil, ErrServerRequired
	}
	if config.Port == 0 {
		config.Port = coap.DefaultPort
	}
	if config.Path == "" {
		config.Path = DefaultPath
	}
	if config.LoggerFactory == nil {
		config.LoggerFactory = logging.NewDefaultLoggerFactory()
	}

	h := &Handler{
		server: config.Server,
		port:   config.Port,
		queue:  config.Queue,
		led:    config.LED,
		log:    config.LoggerFactory.NewLogger("resource"),
		store:  attribute.New(),
	}
	h.res = coap.Resource{URIPath: config.Path, Handler: h.handle}
	return h, nil
}

// Store returns the attribute store served by the handler.
func (h *Handler) Store() *attribute.Store {
	return h.store
}

// Installed reports whether the resource is being served.
func (h *Handler) Installed() bool {
	return h.installed
}

// Install starts the CoAP service and registers the resource. Calling it again
// after success returns ErrAlreadyInstalled and changes nothing. A CoAP
// service that is already running is reused.
func (h *Handler) Install() error {
	if h.installed {
		h.log.Infof("coap server: %v", ErrAlreadyInstalled)
		return ErrAlreadyInstalled
	}

	err := thread.LogResult(h.log, "coap server start", h.server.Start(h.port))
	if err != nil && !thread.IsAlready(err) {
		return err
	}

	err = thread.LogResult(h.log, "coap add resource "+h.res.URIPath, h.server.AddResource(&h.res))
	if err != nil && !thread.IsAlready(err) {
		return err
	}

	h.installed = true
	return nil
}

func (h *Handler) handle(req coap.Request, info coap.MessageInfo) {
	switch req.Code() {
	case coap.CodeGet:
		h.handleGet(req, info)
	case coap.CodePost:
		h.handlePost(req, info)
	default:
		h.log.Debugf("coap %s from %s not allowed", req.Code(), info.Peer())
		if req.Type() == coap.TypeConfirmable {
			h.respond(req, info, coap.CodeMethodNotAllowed, nil, "method not allowed")
		}
	}
}

func (h *Handler) handleGet(req coap.Request, info coap.MessageInfo) {
	h.respond(req, info, coap.CodeContent, h.store.Bytes(), "get")
}

func (h *Handler) handlePost(req coap.Request, info coap.MessageInfo) {
	n := req.ReadPayload(h.readBuf[:])
	h.store.Set(h.readBuf[:n])
	clear(h.readBuf[:n])

	if h.queue != nil {
		msg := fmt.Sprintf("[coap] %s *%s", info.Peer(), h.store.String())
		h.queue.Add(display.NewEvent(display.EventFlagLog, msg))
	}
	if h.led != nil {
		h.led.Toggle()
	}

	if req.Type() == coap.TypeConfirmable {
		h.respond(req, info, coap.CodeChanged, h.store.Bytes(), "confirmable")
	}
}

// respond builds and sends an acknowledgement. The response is freed on every
// path where it is not handed to the server.
func (h *Handler) respond(req coap.Request, info coap.MessageInfo, code coap.Code, payload []byte, what string) {
	resp, err := h.server.NewResponse(req, coap.TypeAcknowledgment, code)
	if thread.LogResult(h.log, "coap "+what+" response alloc", err) != nil {
		return
	}

	if len(payload) > 0 {
		if thread.LogResult(h.log, "coap "+what+" response append", resp.Append(payload)) != nil {
			resp.Free()
			return
		}
	}

	if thread.LogResult(h.log, "coap send "+what+" response", h.server.SendResponse(resp, info)) != nil {
		resp.Free()
	}
}
