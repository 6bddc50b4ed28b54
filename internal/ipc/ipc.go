// Package ipc exposes the annotation index to UI collaborators over a
// WebSocket request/response channel. Each text frame carries one JSON
// request {id, method, params} and is answered by exactly one JSON response
// {id, result, error}; there is no broadcasting and no hub, one goroutine
// serves one connection.
package ipc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"github.com/FocuswithJustin/CedarBible/core/books"
	"github.com/FocuswithJustin/CedarBible/core/errors"
	"github.com/FocuswithJustin/CedarBible/internal/annotations"
	"github.com/FocuswithJustin/CedarBible/internal/logging"
	"github.com/FocuswithJustin/CedarBible/internal/query"
)

const (
	readDeadline  = 60 * time.Second
	writeDeadline = 10 * time.Second
)

// Request is one inbound call frame.
type Request struct {
	ID     string          `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Response answers one request. Exactly one of Result and Error is set.
type Response struct {
	ID     string      `json:"id"`
	Result interface{} `json:"result,omitempty"`
	Error  *Error      `json:"error,omitempty"`
}

// Error carries a stable machine-readable code plus a human message so the
// UI can render specific resolutions per failure class.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes, one per failure class.
const (
	CodeBadRequest            = "bad_request"
	CodeUnknownMethod         = "unknown_method"
	CodeNotFound              = "not_found"
	CodeInvalidInput          = "invalid_input"
	CodeUnknownBook           = "unknown_book"
	CodeUnknownChapter        = "unknown_chapter"
	CodeOutOfRange            = "out_of_range"
	CodeVersificationMismatch = "versification_mismatch"
	CodeDuplicateTag          = "duplicate_tag"
	CodeStorage               = "storage"
)

// codeFor maps a domain error onto its wire code. Order matters: the more
// specific classes unwrap to the general ones.
func codeFor(err error) string {
	switch {
	case errors.Is(err, errors.ErrDuplicateTag):
		return CodeDuplicateTag
	case errors.Is(err, errors.ErrUnknownChapter):
		return CodeUnknownChapter
	case errors.Is(err, errors.ErrUnknownBook):
		return CodeUnknownBook
	case errors.Is(err, errors.ErrOutOfRange):
		return CodeOutOfRange
	case errors.Is(err, errors.ErrVersificationMismatch):
		return CodeVersificationMismatch
	case errors.Is(err, errors.ErrNotFound):
		return CodeNotFound
	case errors.Is(err, errors.ErrInvalidInput):
		return CodeInvalidInput
	default:
		return CodeStorage
	}
}

// Server dispatches IPC requests against one annotation index.
type Server struct {
	index    *annotations.Index
	resolver *query.Resolver
	dir      *books.Directory
	methods  map[string]handlerFunc
	upgrader websocket.Upgrader
}

type handlerFunc func(ctx context.Context, params json.RawMessage) (interface{}, error)

// NewServer builds a server over the given index and resolver.
func NewServer(index *annotations.Index, resolver *query.Resolver, dir *books.Directory) *Server {
	s := &Server{
		index:    index,
		resolver: resolver,
		dir:      dir,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     localOrigin,
		},
	}
	s.methods = s.methodTable()
	return s
}

// localOrigin admits same-host UI clients only. Browserless clients send no
// Origin header and are admitted.
func localOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	switch u.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return u.Host == r.Host
}

// ServeHTTP upgrades the connection and runs the request loop until the
// client goes away.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	logging.IPCEvent("client_connected", "remote", conn.RemoteAddr().String())
	defer logging.IPCEvent("client_disconnected", "remote", conn.RemoteAddr().String())

	conn.SetReadDeadline(time.Now().Add(readDeadline))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readDeadline))
		return nil
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.Error("websocket unexpected close", "error", err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(readDeadline))

		resp := s.handleFrame(r.Context(), data)

		conn.SetWriteDeadline(time.Now().Add(writeDeadline))
		if err := conn.WriteJSON(resp); err != nil {
			logging.Error("websocket write failed", "error", err)
			return
		}
	}
}

// handleFrame decodes one frame and dispatches it.
func (s *Server) handleFrame(ctx context.Context, data []byte) Response {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return Response{Error: &Error{Code: CodeBadRequest, Message: "malformed request frame"}}
	}
	return s.Dispatch(ctx, req)
}

// Dispatch runs one request against the method table and shapes the
// response envelope.
func (s *Server) Dispatch(ctx context.Context, req Request) Response {
	handler, ok := s.methods[req.Method]
	if !ok {
		return Response{ID: req.ID, Error: &Error{
			Code:    CodeUnknownMethod,
			Message: "unknown method " + req.Method,
		}}
	}

	started := time.Now()
	result, err := handler(ctx, req.Params)
	logging.IPCRequest(req.Method, time.Since(started), err)

	if err != nil {
		return Response{ID: req.ID, Error: &Error{Code: codeFor(err), Message: err.Error()}}
	}
	return Response{ID: req.ID, Result: result}
}

// decode unmarshals params into dst, mapping failures onto invalid input.
func decode(params json.RawMessage, dst interface{}) error {
	if len(params) == 0 {
		return errors.NewValidation("params", "missing parameters")
	}
	if err := json.Unmarshal(params, dst); err != nil {
		return errors.Wrap(errors.ErrInvalidInput, "malformed parameters")
	}
	return nil
}
