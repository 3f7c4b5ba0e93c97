package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/user/shortlink-go/apperror"
)

// maxBodyBytes caps request bodies; both payloads are a few hundred bytes at most.
const maxBodyBytes = 1 << 20

// Handlers exposes the AuthService over HTTP. It only translates between JSON and
// the service: decoding, calling one flow, and writing the result or the error.
type Handlers struct {
	service *AuthService
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service *AuthService) *Handlers {
	return &Handlers{service: service}
}

// HandleRegister godoc
// @Summary Register a user
// @Description Creates an account. The email and userName must both be unused.
// @Tags Users
// @Accept json
// @Produce json
// @Param registerBody body auth.RegisterRequest true "Account details"
// @Success 201 {object} auth.MessageResponse "User registered successfully"
// @Failure 400 {object} apperror.ErrorResponse "Invalid payload"
// @Failure 409 {object} apperror.ErrorResponse "User already registered"
// @Failure 500 {object} apperror.ErrorResponse "Internal server error"
// @Router /users [post]
func (h *Handlers) HandleRegister() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		if err := decodeJSON(w, r, &req); err != nil {
			WriteError(w, r, err)
			return
		}

		if _, err := h.service.Register(r.Context(), req); err != nil {
			WriteError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, MessageResponse{Message: MsgRegistered})
	}
}

// HandleLogin godoc
// @Summary Log in
// @Description Checks the credentials and returns a signed token valid for 7 hours.
// @Tags Auth
// @Accept json
// @Produce json
// @Param loginBody body auth.LoginRequest true "Credentials"
// @Success 200 {object} auth.LoginResponse "Login successful"
// @Failure 400 {object} apperror.ErrorResponse "Invalid payload"
// @Failure 401 {object} apperror.ErrorResponse "Invalid email or password"
// @Failure 500 {object} apperror.ErrorResponse "Internal server error"
// @Router /auth [post]
func (h *Handlers) HandleLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := decodeJSON(w, r, &req); err != nil {
			WriteError(w, r, err)
			return
		}

		resp, err := h.service.Login(r.Context(), req)
		if err != nil {
			WriteError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

// decodeJSON reads one JSON object into dst. Decoding problems are reported as
// ValidationErrors worded like the validator's messages. An empty body decodes
// as an empty object so the validator reports the first missing field.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	// MaxBytesReader stops reading past the limit and makes the server close the
	// connection afterwards; DisallowUnknownFields turns stray keys into errors.
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}

	var typeErr *json.UnmarshalTypeError
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &typeErr) && typeErr.Field != "":
		return apperror.NewValidationError(
			fmt.Sprintf("%q must be a %s", labelForJSONField(dst, typeErr.Field), typeErr.Type.Kind()), err)
	case errors.As(err, &maxErr):
		return apperror.NewValidationError("request body too large", err)
	}

	// encoding/json has no typed error for unknown fields; the key is only
	// available in the message, already quoted.
	if field, ok := strings.CutPrefix(err.Error(), "json: unknown field "); ok {
		return apperror.NewValidationError(field+" is not allowed", err)
	}
	return apperror.NewValidationError(MsgInvalidBody, err)
}

// writeJSON serializes data with the given status. Headers must be set before
// WriteHeader, so an encoding failure can only be logged, not reported.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", slog.Any("error", err))
	}
}

// WriteError renders err as an ErrorResponse. Errors that are not AppErrors are
// reported as internal errors.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := apperror.FromError(err)
	if !ok {
		slog.ErrorContext(r.Context(), "unhandled error", slog.Any("error", err))
		appErr = apperror.NewInternalError(err)
	}
	writeJSON(w, appErr.StatusCode(), appErr.ToResponse())
}
