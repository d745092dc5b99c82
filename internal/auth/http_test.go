// Copyright (c) 2026 Communication LTD. All rights reserved.

package auth_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commltd/commltd-api/internal/auth"
	"github.com/commltd/commltd-api/internal/platform/middleware"
	"github.com/commltd/commltd-api/internal/platform/sec"
)

// newTestRouter assembles the auth routes behind the real JWT middleware,
// backed by the in-memory store.
func newTestRouter(t *testing.T) (http.Handler, *memoryAccountStore, *captureMailer) {
	t.Helper()

	tokenService, err := sec.NewTokenService("test-secret-at-least-32-bytes-long!!", "commltd.test")
	require.NoError(t, err)

	store := newMemoryAccountStore()
	mailer := newCaptureMailer()
	service := auth.NewService(auth.ServiceOptions{
		Accounts:         store,
		Tokens:           tokenService,
		Mail:             mailer,
		Policy:           testPolicy(),
		HistoryDepth:     3,
		MaxLoginAttempts: maxAttempts,
	})

	router := chi.NewRouter()
	router.Use(middleware.Authenticate(tokenService))
	router.Mount("/api", auth.NewHandler(service, nil).Routes())

	return router, store, mailer
}

// doJSON performs a JSON request against the handler and returns the recorder.
func doJSON(t *testing.T, handler http.Handler, method, path string, body any, bearer string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	request := httptest.NewRequest(method, path, reader)
	request.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		request.Header.Set("Authorization", "Bearer "+bearer)
	}

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	return recorder
}

// decodeBody unmarshals a response body into a generic map.
func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var payload map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &payload))
	return payload
}

func registerPayload() map[string]string {
	return map[string]string{
		"username": "alice",
		"email":    "alice@commltd.app",
		"password": testPassword,
	}
}

/*
TestHTTP_Register covers creation, the missing-field 400, the policy 400 with
verbatim violations, and the duplicate 400.
*/
func TestHTTP_Register(t *testing.T) {
	router, _, _ := newTestRouter(t)

	// Created
	recorder := doJSON(t, router, http.MethodPost, "/api/register", registerPayload(), "")
	require.Equal(t, http.StatusCreated, recorder.Code)

	data := decodeBody(t, recorder)["data"].(map[string]any)
	assert.Equal(t, "alice", data["username"])
	assert.NotContains(t, recorder.Body.String(), testPassword)

	// Missing fields
	recorder = doJSON(t, router, http.MethodPost, "/api/register", map[string]string{}, "")
	require.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeBody(t, recorder)["code"])

	// Weak password: violations surface in details
	weak := registerPayload()
	weak["username"] = "bob"
	weak["email"] = "bob@commltd.app"
	weak["password"] = "weak"
	recorder = doJSON(t, router, http.MethodPost, "/api/register", weak, "")
	require.Equal(t, http.StatusBadRequest, recorder.Code)

	body := decodeBody(t, recorder)
	assert.Equal(t, "VALIDATION_ERROR", body["code"])
	assert.Len(t, body["details"], 4)

	// Duplicate username
	recorder = doJSON(t, router, http.MethodPost, "/api/register", registerPayload(), "")
	require.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Equal(t, "DUPLICATE", decodeBody(t, recorder)["code"])
}

/*
TestHTTP_Login_IssuesUsableToken verifies that the login response token is
accepted by the authenticated change-password endpoint.
*/
func TestHTTP_Login_IssuesUsableToken(t *testing.T) {
	router, _, _ := newTestRouter(t)
	doJSON(t, router, http.MethodPost, "/api/register", registerPayload(), "")

	recorder := doJSON(t, router, http.MethodPost, "/api/login", map[string]string{
		"username": "alice",
		"password": testPassword,
	}, "")
	require.Equal(t, http.StatusOK, recorder.Code)

	data := decodeBody(t, recorder)["data"].(map[string]any)
	token, _ := data["token"].(string)
	require.NotEmpty(t, token)

	recorder = doJSON(t, router, http.MethodPost, "/api/change-password", map[string]string{
		"current_password": testPassword,
		"new_password":     "Rotated&Pass2",
	}, token)
	require.Equal(t, http.StatusOK, recorder.Code)

	// Old credential is gone, new one works.
	recorder = doJSON(t, router, http.MethodPost, "/api/login", map[string]string{
		"username": "alice",
		"password": testPassword,
	}, "")
	require.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", decodeBody(t, recorder)["code"])

	recorder = doJSON(t, router, http.MethodPost, "/api/login", map[string]string{
		"username": "alice",
		"password": "Rotated&Pass2",
	}, "")
	assert.Equal(t, http.StatusOK, recorder.Code)
}

/*
TestHTTP_ChangePassword_RequiresAuth verifies the 401 gate on the protected
route.
*/
func TestHTTP_ChangePassword_RequiresAuth(t *testing.T) {
	router, _, _ := newTestRouter(t)

	recorder := doJSON(t, router, http.MethodPost, "/api/change-password", map[string]string{
		"current_password": testPassword,
		"new_password":     "Rotated&Pass2",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	recorder = doJSON(t, router, http.MethodPost, "/api/change-password", map[string]string{
		"current_password": testPassword,
		"new_password":     "Rotated&Pass2",
	}, "garbage-token")
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

/*
TestHTTP_LockoutAndRecovery drives the full story over the wire: repeated bad
logins lock the account (401 ACCOUNT_LOCKED even with the right password),
the reset flow unlocks it, and the new credential logs in.
*/
func TestHTTP_LockoutAndRecovery(t *testing.T) {
	router, _, mailer := newTestRouter(t)
	doJSON(t, router, http.MethodPost, "/api/register", registerPayload(), "")

	for i := 0; i < maxAttempts; i++ {
		recorder := doJSON(t, router, http.MethodPost, "/api/login", map[string]string{
			"username": "alice",
			"password": "Wrong&Pass1!",
		}, "")
		require.Equal(t, http.StatusBadRequest, recorder.Code)
	}

	recorder := doJSON(t, router, http.MethodPost, "/api/login", map[string]string{
		"username": "alice",
		"password": testPassword,
	}, "")
	require.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Equal(t, "ACCOUNT_LOCKED", decodeBody(t, recorder)["code"])

	// Forgot-password: generic 200 and a mailed token.
	recorder = doJSON(t, router, http.MethodPost, "/api/forgot-password", map[string]string{
		"email": "alice@commltd.app",
	}, "")
	require.Equal(t, http.StatusOK, recorder.Code)
	token := mailer.waitForToken(t)

	recorder = doJSON(t, router, http.MethodPost, "/api/reset-password", map[string]string{
		"email":        "alice@commltd.app",
		"token":        token,
		"new_password": "Recovered&Pass2",
	}, "")
	require.Equal(t, http.StatusOK, recorder.Code)

	recorder = doJSON(t, router, http.MethodPost, "/api/login", map[string]string{
		"username": "alice",
		"password": "Recovered&Pass2",
	}, "")
	assert.Equal(t, http.StatusOK, recorder.Code)
}

/*
TestHTTP_ForgotPassword_UniformResponse verifies that known and unknown
emails produce byte-identical success bodies.
*/
func TestHTTP_ForgotPassword_UniformResponse(t *testing.T) {
	router, _, _ := newTestRouter(t)
	doJSON(t, router, http.MethodPost, "/api/register", registerPayload(), "")

	known := doJSON(t, router, http.MethodPost, "/api/forgot-password", map[string]string{
		"email": "alice@commltd.app",
	}, "")
	unknown := doJSON(t, router, http.MethodPost, "/api/forgot-password", map[string]string{
		"email": "stranger@commltd.app",
	}, "")

	require.Equal(t, http.StatusOK, known.Code)
	require.Equal(t, http.StatusOK, unknown.Code)
	assert.Equal(t, known.Body.String(), unknown.Body.String())
}

/*
TestHTTP_ResetPassword_BadToken verifies the uniform 400 for unknown tokens.
*/
func TestHTTP_ResetPassword_BadToken(t *testing.T) {
	router, _, _ := newTestRouter(t)
	doJSON(t, router, http.MethodPost, "/api/register", registerPayload(), "")

	recorder := doJSON(t, router, http.MethodPost, "/api/reset-password", map[string]string{
		"email":        "alice@commltd.app",
		"token":        "0000000000000000000000000000000000000000000000000000000000000000",
		"new_password": "Recovered&Pass2",
	}, "")
	require.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Equal(t, "INVALID_RESET_TOKEN", decodeBody(t, recorder)["code"])
}

/*
TestHTTP_InvalidJSON verifies the decode guard on a representative endpoint.
*/
func TestHTTP_InvalidJSON(t *testing.T) {
	router, _, _ := newTestRouter(t)

	request := httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewReader([]byte("{broken")))
	request.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	require.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeBody(t, recorder)["code"])
}
