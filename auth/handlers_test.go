package auth

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/user/shortlink-go/users"
)

func newTestHandlers(t *testing.T) *Handlers {
	t.Helper()
	tokens, err := NewTokenIssuer(testSecret, 7*time.Hour)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	service := NewAuthService(users.NewMemoryStore(), NewBcryptHasher(bcrypt.MinCost), tokens, nil, logger)
	return NewHandlers(service)
}

func post(t *testing.T, h http.HandlerFunc, body string) (int, map[string]string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var out map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec.Code, out
}

func TestHandleRegister(t *testing.T) {
	h := newTestHandlers(t)
	register := h.HandleRegister()

	code, body := post(t, register, `{"userName":"alice","email":"alice@x.com","password":"Abcd1234!"}`)
	assert.Equal(t, http.StatusCreated, code)
	assert.Equal(t, map[string]string{"message": "User registered successfully"}, body)

	code, body = post(t, register, `{"userName":"alice","email":"alice@x.com","password":"Abcd1234!"}`)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "User already registered", body["message"])
}

func TestHandleRegister_BadPayloads(t *testing.T) {
	register := newTestHandlers(t).HandleRegister()

	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{name: "empty body", body: ``, wantMsg: `"Username" is required`},
		{name: "empty object", body: `{}`, wantMsg: `"Username" is required`},
		{name: "malformed json", body: `{"userName":`, wantMsg: "invalid request body"},
		{name: "unknown key", body: `{"userName":"alice","foo":1}`, wantMsg: `"foo" is not allowed`},
		{name: "wrong type", body: `{"userName":42}`, wantMsg: `"Username" must be a string`},
		{
			name:    "invalid email",
			body:    `{"userName":"alice","email":"not-an-email","password":"Abcd1234!"}`,
			wantMsg: `"email" must be a valid email`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := post(t, register, tt.body)
			assert.Equal(t, http.StatusBadRequest, code)
			assert.Equal(t, tt.wantMsg, body["message"])
		})
	}
}

func TestHandleLogin(t *testing.T) {
	h := newTestHandlers(t)
	code, _ := post(t, h.HandleRegister(), `{"userName":"alice","email":"alice@x.com","password":"Abcd1234!"}`)
	require.Equal(t, http.StatusCreated, code)

	login := h.HandleLogin()

	code, body := post(t, login, `{"email":"alice@x.com","password":"Abcd1234!"}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Login successful", body["message"])
	assert.NotEmpty(t, body["data"])

	code, body = post(t, login, `{"email":"alice@x.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, map[string]string{"message": "Invalid email or password"}, body)

	code, body = post(t, login, `{"email":"nobody@x.com","password":"Abcd1234!"}`)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Invalid email or password", body["message"])

	code, _ = post(t, login, `{"userName":"alice","email":"alice@x.com","password":"Abcd1234!"}`)
	assert.Equal(t, http.StatusOK, code)

	code, body = post(t, login, `{"userName":"","email":"alice@x.com","password":"Abcd1234!"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, `"Username" is not allowed to be empty`, body["message"])

	code, body = post(t, login, `{"password":"Abcd1234!"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, `"email" is required`, body["message"])
}

func TestWriteError_UnknownErrorIsInternal(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	WriteError(rec, req, errors.New("secret detail"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"Internal server error"}`, rec.Body.String())
}
