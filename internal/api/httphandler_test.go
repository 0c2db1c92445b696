package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"hookstate/internal/backends/memory"
	"hookstate/internal/flow"
	"hookstate/internal/hookenv"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/suite"
)

type UnitTestSuite struct {
	suite.Suite

	store *memory.Store
	srv   *httptest.Server
}

func TestUnitTestSuite(t *testing.T) {
	suite.Run(t, new(UnitTestSuite))
}

func (s *UnitTestSuite) SetupTest() {
	s.store = memory.NewStore()
	s.srv = httptest.NewServer(NewHandler(flow.Deps{Root: "/charms", Store: s.store}).Router())
}

func (s *UnitTestSuite) TearDownTest() {
	s.srv.Close()
}

func (s *UnitTestSuite) post(body string) (*http.Response, map[string]any) {
	resp, err := http.Post(s.srv.URL+"/hook", "application/json", strings.NewReader(body))
	s.Require().NoError(err)
	defer func() {
		_ = resp.Body.Close()
	}()
	var out map[string]any
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		s.Require().NoError(json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp, out
}

func (s *UnitTestSuite) TestHealth() {
	resp, err := http.Get(s.srv.URL + "/health")
	s.Require().NoError(err)
	_ = resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)
}

func (s *UnitTestSuite) TestHookRoundTrip() {
	ev := `{"unit": "mysql/0", "hook": "config-changed", "config": {"port": 3306}}`
	resp, out := s.post(ev)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal("completed", out["outcome"])
	s.Equal([]any{"port"}, out["changed"])
	s.NotEmpty(out["invocation"])

	resp, out = s.post(ev)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal("unchanged", out["outcome"])
	s.Equal(2, s.store.Saves())
}

func (s *UnitTestSuite) TestMethodNotAllowed() {
	resp, err := http.Get(s.srv.URL + "/hook")
	s.Require().NoError(err)
	_ = resp.Body.Close()
	s.Equal(http.StatusMethodNotAllowed, resp.StatusCode)
}

func (s *UnitTestSuite) TestBadRequests() {
	for _, body := range []string{
		"",
		"{not json",
		`{"unit": "nope", "hook": "install", "config": {}}`,
		`{"unit": "mysql/0", "hook": "install", "config": [1]}`,
	} {
		resp, _ := s.post(body)
		s.Equal(http.StatusBadRequest, resp.StatusCode, body)
	}
	s.Equal(0, s.store.Saves())
}

func (s *UnitTestSuite) TestHookFailureIsServerError() {
	s.srv.Close()
	s.srv = httptest.NewServer(NewHandler(flow.Deps{
		Root:  "/charms",
		Store: s.store,
		Hook: func(ctx context.Context, inv *hookenv.Invocation) error {
			return fmt.Errorf("service restart failed")
		},
	}).Router())

	resp, out := s.post(`{"unit": "mysql/0", "hook": "config-changed", "config": {"a": 1}}`)
	s.Equal(http.StatusInternalServerError, resp.StatusCode)
	s.Equal("aborted", out["outcome"])
	s.Contains(out["error"], "service restart failed")
	s.Equal(0, s.store.Saves())
}

func (s *UnitTestSuite) TestClientIP() {
	r := httptest.NewRequest(http.MethodPost, "/hook", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	s.Equal("10.0.0.1", clientIP(r))
	r.Header.Set("X-Forwarded-For", "1.2.3.4, 10.0.0.1")
	s.Equal("1.2.3.4", clientIP(r))
}

func (s *UnitTestSuite) TestRunServerInterruptible() {
	stop, done := RunServerInterruptible(39181, flow.Deps{Root: "/charms", Store: s.store})
	var resp *http.Response
	var err error
	for i := 0; i < 50; i++ {
		resp, err = http.Get("http://127.0.0.1:39181/health")
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	s.Require().NoError(err)
	_ = resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)

	close(stop)
	select {
	case err := <-done:
		s.NoError(err)
	case <-time.After(5 * time.Second):
		s.Fail("server did not shut down")
	}
}
