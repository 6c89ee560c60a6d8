package rpc

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
)

// ErrorResponse is the wire envelope for failed procedures.
type ErrorResponse struct {
	Error *Error `json:"error"`
}

// SuccessResponse is the minimal envelope for procedures that only report success.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// Decode reads the JSON procedure input from the request body.
// An empty body is allowed for procedures without input.
func Decode(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if err != nil && !errors.Is(err, io.EOF) {
		return NewError(CodeBadRequest, "invalid request body")
	}
	return nil
}

// JSON renders a successful procedure result.
func JSON(w http.ResponseWriter, r *http.Request, v interface{}) {
	render.Status(r, http.StatusOK)
	render.JSON(w, r, v)
}

// Success renders the plain {success:true} result.
func Success(w http.ResponseWriter, r *http.Request) {
	JSON(w, r, SuccessResponse{Success: true})
}

// RenderError renders a failed procedure. Untyped errors are masked as
// internal errors so no details cross the boundary.
func RenderError(w http.ResponseWriter, r *http.Request, err error) {
	var rpcErr *Error
	if !errors.As(err, &rpcErr) {
		slog.Error("Unhandled procedure error", "path", r.URL.Path, "err", err)
		rpcErr = NewError(CodeInternal, "")
	}
	render.Status(r, HTTPStatus(rpcErr.Code))
	render.JSON(w, r, ErrorResponse{Error: rpcErr})
}
