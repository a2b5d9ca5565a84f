package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	restctx "github.com/dtroode/passkeeper-server/internal/api/rest/context"
	"github.com/dtroode/passkeeper-server/internal/api/rest/response"
)

var ctxMgr = restctx.NewManager()

func newRequest(method, target, body string) *http.Request {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

// withParams attaches chi URL params as the router would.
func withParams(req *http.Request, kv ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rctx.URLParams.Add(kv[i], kv[i+1])
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func asUser(req *http.Request, userID uuid.UUID) *http.Request {
	return req.WithContext(ctxMgr.SetUserIDToContext(req.Context(), userID))
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) response.HTTPError {
	t.Helper()

	var body response.HTTPError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}
