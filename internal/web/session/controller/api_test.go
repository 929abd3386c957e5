package controller

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/Laisky/laisky-collab/internal/web/session/dto"
	"github.com/Laisky/laisky-collab/internal/web/session/service"
)

func setupAPIServer(t *testing.T) (*service.Type, *httptest.Server) {
	svc := setupTestSvc(t)
	ctl := New(svc)

	gin.SetMode(gin.TestMode)
	engine := gin.New()
	api := engine.Group("/api")
	api.POST("/sessions", ctl.CreateSession)
	api.GET("/sessions", ctl.ListSessions)
	api.GET("/sessions/:id", ctl.GetSession)
	api.DELETE("/sessions/:id", ctl.DeleteSession)
	api.PUT("/sessions/:id/file", ctl.PutFile)
	api.GET("/sessions/:id/file", ctl.GetFile)
	api.GET("/sessions/:id/files", ctl.ListFiles)

	srv := httptest.NewServer(engine)
	t.Cleanup(srv.Close)

	return svc, srv
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) *T {
	out := new(T)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	return out
}

func TestSessionAPILifecycle(t *testing.T) {
	_, srv := setupAPIServer(t)

	// create session "Demo"
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/sessions",
		&dto.CreateSessionReq{Name: "Demo"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	session := decodeBody[dto.SessionResp](t, resp)
	require.Equal(t, "Demo", session.Name)
	require.NotEmpty(t, session.ID)

	// put a file
	resp = doJSON(t, http.MethodPut,
		fmt.Sprintf("%s/api/sessions/%s/file", srv.URL, session.ID),
		&dto.PutFileReq{Path: "main.js", Content: "console.log(1)"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// read it back
	resp = doJSON(t, http.MethodGet,
		fmt.Sprintf("%s/api/sessions/%s/file?path=main.js", srv.URL, session.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	file := decodeBody[dto.FileResp](t, resp)
	require.Equal(t, "console.log(1)", file.Content)

	// list files
	resp = doJSON(t, http.MethodGet,
		fmt.Sprintf("%s/api/sessions/%s/files", srv.URL, session.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	files := decodeBody[[]*dto.FileInfoResp](t, resp)
	require.Len(t, *files, 1)
	require.Equal(t, "main.js", (*files)[0].Path)

	// list sessions
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/sessions", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sessions := decodeBody[[]*dto.SessionResp](t, resp)
	require.Len(t, *sessions, 1)

	// delete, then everything scoped to it is gone
	resp = doJSON(t, http.MethodDelete,
		fmt.Sprintf("%s/api/sessions/%s", srv.URL, session.ID), nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, http.MethodGet,
		fmt.Sprintf("%s/api/sessions/%s", srv.URL, session.ID), nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, http.MethodGet,
		fmt.Sprintf("%s/api/sessions/%s/file?path=main.js", srv.URL, session.ID), nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSessionAPIErrors(t *testing.T) {
	_, srv := setupAPIServer(t)

	// missing name
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/sessions", gin.H{})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// unknown session
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/sessions/missing", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, http.MethodDelete, srv.URL+"/api/sessions/missing", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, http.MethodPut, srv.URL+"/api/sessions/missing/file",
		&dto.PutFileReq{Path: "main.js", Content: "x"})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/sessions/missing/files", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	// malformed limit
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/sessions?limit=abc", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
