package handler

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/gameportal/portal/internal/domain"
)

// maxBodyBytes caps request bodies read by DecodeJSON.
const maxBodyBytes = 1 << 20

// RespondJSON writes a JSON response with the given status code.
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Code    domain.ErrorCode `json:"code"`
	Message string           `json:"message"`
}

// RespondError writes err as a JSON error. Anything that is not an AppError,
// and any internal AppError, is reported without its cause.
func RespondError(w http.ResponseWriter, err error) {
	var appErr *domain.AppError
	if !errors.As(err, &appErr) || appErr.Code == domain.CodeInternal {
		RespondJSON(w, http.StatusInternalServerError, errorBody{
			Code:    domain.CodeInternal,
			Message: "internal server error",
		})
		return
	}
	RespondJSON(w, appErr.Status, errorBody{Code: appErr.Code, Message: appErr.Message})
}

// RespondInvalidBody writes the standard 400 for an undecodable request body.
func RespondInvalidBody(w http.ResponseWriter) {
	RespondError(w, domain.ErrValidation("invalid request body"))
}

// DecodeJSON reads and decodes a JSON request body into dst. Bodies over
// 1 MiB are rejected.
func DecodeJSON(r *http.Request, dst interface{}) error {
	return json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes)).Decode(dst)
}

// ClientIP returns the caller's address, preferring the first X-Forwarded-For hop.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
