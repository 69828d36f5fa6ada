package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"browser-guide/internal/domain/entity"
	"browser-guide/internal/infrastructure/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type upstreamCall struct {
	auth    string
	referer string
	body    map[string]any
}

func newUpstream(t *testing.T, status int, reply string) (*httptest.Server, chan upstreamCall) {
	t.Helper()
	calls := make(chan upstreamCall, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		calls <- upstreamCall{auth: r.Header.Get("Authorization"), referer: r.Header.Get("HTTP-Referer"), body: body}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)
	return srv, calls
}

func newTestServer(t *testing.T, apiKey, upstream string, control ControlHandler) *httptest.Server {
	t.Helper()
	cfg := DefaultConfig(apiKey)
	cfg.UpstreamURL = upstream
	srv := httptest.NewServer(New(cfg, control, logger.NewNop()).Router())
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, url, body string, headers ...string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(data)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, "", DefaultUpstreamURL, nil)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body["status"])
}

func TestChat_ForwardsWithDefaults(t *testing.T) {
	upstream, calls := newUpstream(t, http.StatusOK, `{"choices":[{"message":{"role":"assistant","content":"ELEMENT_ID: NONE"}}]}`)
	srv := newTestServer(t, "server-key", upstream.URL, nil)

	resp, body := post(t, srv.URL+"/api/chat", `{"messages":[{"role":"user","content":"hi"}]}`, "Referer", "https://shop.test/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"choices":[{"message":{"role":"assistant","content":"ELEMENT_ID: NONE"}}]}`, body)

	call := <-calls
	assert.Equal(t, "Bearer server-key", call.auth)
	assert.Equal(t, "https://shop.test/", call.referer)
	assert.Equal(t, DefaultRelayModel, call.body["model"])
	assert.Equal(t, 0.2, call.body["temperature"])
	assert.Equal(t, float64(500), call.body["max_tokens"])
	assert.Len(t, call.body["messages"], 1)
}

func TestChat_ClientOverrides(t *testing.T) {
	upstream, calls := newUpstream(t, http.StatusOK, `{}`)
	srv := newTestServer(t, "server-key", upstream.URL, nil)

	resp, _ := post(t, srv.URL+"/api/chat", `{"model":"m","temperature":0.7,"max_tokens":64,"messages":[]}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	call := <-calls
	assert.Equal(t, "m", call.body["model"])
	assert.Equal(t, 0.7, call.body["temperature"])
	assert.Equal(t, float64(64), call.body["max_tokens"])
	assert.Equal(t, "http://localhost", call.referer)
}

func TestChat_Rejections(t *testing.T) {
	upstream, _ := newUpstream(t, http.StatusOK, `{}`)

	withKey := newTestServer(t, "server-key", upstream.URL, nil)
	resp, body := post(t, withKey.URL+"/api/chat", `{"model":"m"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Invalid request"}`, body)

	resp, _ = post(t, withKey.URL+"/api/chat", `not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	noKey := newTestServer(t, "", upstream.URL, nil)
	resp, body = post(t, noKey.URL+"/api/chat", `{"messages":[]}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Server not configured"}`, body)
}

func TestChat_UpstreamError(t *testing.T) {
	upstream, _ := newUpstream(t, http.StatusTooManyRequests, `rate limited`)
	srv := newTestServer(t, "server-key", upstream.URL, nil)

	resp, body := post(t, srv.URL+"/api/chat", `{"messages":[]}`)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.JSONEq(t, `{"error":"API error","details":"rate limited"}`, body)
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t, "", DefaultUpstreamURL, nil)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/chat", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

type stubControl struct {
	reply entity.ControlReply
	err   error
	raw   string
}

func (c *stubControl) Execute(_ context.Context, raw []byte) (entity.ControlReply, error) {
	c.raw = string(raw)
	return c.reply, c.err
}

func TestControl(t *testing.T) {
	ctrl := &stubControl{reply: entity.ControlReply{Status: "active"}}
	srv := newTestServer(t, "", DefaultUpstreamURL, ctrl)

	resp, body := post(t, srv.URL+"/api/control", `{"action":"ping"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"active"}`, body)
	assert.Equal(t, `{"action":"ping"}`, ctrl.raw)

	ctrl.reply, ctrl.err = entity.ControlReply{}, entity.ErrUnknownAction
	resp, body = post(t, srv.URL+"/api/control", `{"action":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, entity.ErrUnknownAction.Error())
}

func TestControl_NotMountedWithoutHandler(t *testing.T) {
	srv := newTestServer(t, "", DefaultUpstreamURL, nil)

	resp, _ := post(t, srv.URL+"/api/control", `{"action":"ping"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
