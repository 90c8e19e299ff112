package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"linecast/internal/core"
	"linecast/internal/types"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testValidator() *core.Validator {
	return core.NewValidator(testLogger())
}

// serve mounts register on a fresh router and serves one request.
func serve(register func(chi.Router), method, path string, body any) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	register(r)

	var reader io.Reader = http.NoBody
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, _ := json.Marshal(b)
		reader = bytes.NewBuffer(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(types.WithRequestID(req.Context(), "req_test_123"))

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

// envelope is the decoded success body with data left raw.
type envelope struct {
	Data json.RawMessage    `json:"data"`
	Meta *types.ResponseMeta `json:"meta"`
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder, data any) *types.ResponseMeta {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data), string(env.Data))
	}
	return env.Meta
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) core.ErrorDetail {
	t.Helper()
	var body core.APIErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body), rr.Body.String())
	return body.Error
}

func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), dst), rr.Body.String())
}
