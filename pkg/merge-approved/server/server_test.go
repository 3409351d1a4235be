package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/require"

	"github.com/Eun/merge-approved/pkg/merge-approved/common"
	"github.com/Eun/merge-approved/pkg/merge-approved/internal/natstest"
)

const repositoryJSON = `"installation": {"id": 42},
"repository": {"node_id": "R_1", "full_name": "octo/hello", "name": "hello", "owner": {"login": "octo"}, "private": false}`

func newTestHandler() (*Handler, *natstest.JetStream) {
	js := &natstest.JetStream{}
	return &Handler{
		GetLoggerForContext: func(context.Context) *zerolog.Logger { return &log.Logger },
		AllowedRepositories: common.RegexSlice{common.MustNewRegexItem(".*")},
		Publisher: &common.RateLimitedPublisher{
			JetStreamContext: js,
			RateLimitKV:      natstest.NewKeyValue(),
			Interval:         time.Minute,
		},
		RepositorySubject: "repository",
	}, js
}

func doRequest(h http.Handler, event, body string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	r.Header.Set("X-GitHub-Event", event)
	r.Header.Set("X-GitHub-Delivery", "delivery-1")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestHandler_Events(t *testing.T) {
	tests := []struct {
		name      string
		event     string
		body      string
		wantQueue bool
	}{
		{name: "check_run completed", event: "check_run", body: `{"action": "completed", ` + repositoryJSON + `}`, wantQueue: true},
		{name: "check_run created", event: "check_run", body: `{"action": "created", ` + repositoryJSON + `}`},
		{name: "check_suite completed", event: "check_suite", body: `{"action": "completed", ` + repositoryJSON + `}`, wantQueue: true},
		{name: "status success", event: "status", body: `{"state": "success", ` + repositoryJSON + `}`, wantQueue: true},
		{name: "status failure", event: "status", body: `{"state": "failure", ` + repositoryJSON + `}`, wantQueue: true},
		{name: "status pending", event: "status", body: `{"state": "pending", ` + repositoryJSON + `}`},
		{
			name:      "pull_request opened",
			event:     "pull_request",
			body:      `{"action": "opened", "pull_request": {"number": 1, "state": "open"}, ` + repositoryJSON + `}`,
			wantQueue: true,
		},
		{
			name:      "pull_request ready_for_review",
			event:     "pull_request",
			body:      `{"action": "ready_for_review", "pull_request": {"number": 1, "state": "open"}, ` + repositoryJSON + `}`,
			wantQueue: true,
		},
		{
			name:  "pull_request closed",
			event: "pull_request",
			body:  `{"action": "closed", "pull_request": {"number": 1, "state": "closed"}, ` + repositoryJSON + `}`,
		},
		{
			name:  "pull_request labeled",
			event: "pull_request",
			body:  `{"action": "labeled", "pull_request": {"number": 1, "state": "open"}, ` + repositoryJSON + `}`,
		},
		{
			name:      "pull_request_review submitted",
			event:     "pull_request_review",
			body:      `{"action": "submitted", "pull_request": {"number": 1, "state": "open"}, ` + repositoryJSON + `}`,
			wantQueue: true,
		},
		{
			name:  "pull_request_review dismissed",
			event: "pull_request_review",
			body:  `{"action": "dismissed", "pull_request": {"number": 1, "state": "open"}, ` + repositoryJSON + `}`,
		},
		{name: "push", event: "push", body: `{` + repositoryJSON + `}`},
		{name: "missing installation", event: "check_run", body: `{"action": "completed", "repository": {"node_id": "R_1"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, js := newTestHandler()
			w := doRequest(h, tt.event, tt.body)
			require.Equal(t, http.StatusOK, w.Code)

			published := js.Published()
			if !tt.wantQueue {
				require.Empty(t, published)
				return
			}
			require.Len(t, published, 1)
			require.Equal(t, "repository.delivery-1", published[0].Subject)

			var msg common.QueueRepositoryMessage
			require.NoError(t, json.Unmarshal(published[0].Data, &msg))
			require.Equal(t, int64(42), msg.InstallationID)
			require.Equal(t, common.Repository{NodeID: "R_1", FullName: "octo/hello", Name: "hello", OwnerName: "octo"}, msg.Repository)
			require.Equal(t, tt.event, msg.Event)
		})
	}
}

func TestHandler_RateLimitsPerRepository(t *testing.T) {
	h, js := newTestHandler()
	body := `{"action": "completed", ` + repositoryJSON + `}`
	require.Equal(t, http.StatusOK, doRequest(h, "check_run", body).Code)
	require.Equal(t, http.StatusOK, doRequest(h, "check_suite", body).Code)

	published := js.Published()
	require.Len(t, published, 2)
	require.Empty(t, published[0].Header.Get(common.DelayUntilHeader))
	require.NotEmpty(t, published[1].Header.Get(common.DelayUntilHeader))
}

func TestHandler_NotAllowed(t *testing.T) {
	t.Run("allow list", func(t *testing.T) {
		h, js := newTestHandler()
		h.AllowedRepositories = common.RegexSlice{common.MustNewRegexItem("^octo/world$")}
		w := doRequest(h, "check_run", `{"action": "completed", `+repositoryJSON+`}`)
		require.Equal(t, http.StatusOK, w.Code)
		require.Empty(t, js.Published())
	})

	t.Run("private", func(t *testing.T) {
		h, js := newTestHandler()
		h.AllowOnlyPublicRepositories = true
		body := strings.Replace(`{"action": "completed", `+repositoryJSON+`}`, `"private": false`, `"private": true`, 1)
		w := doRequest(h, "check_run", body)
		require.Equal(t, http.StatusOK, w.Code)
		require.Empty(t, js.Published())
	})
}

func TestHandler_Errors(t *testing.T) {
	h, js := newTestHandler()

	require.Equal(t, http.StatusBadRequest, doRequest(h, "check_run", "{").Code)

	r := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	require.Equal(t, http.StatusTemporaryRedirect, w.Code)

	r = httptest.NewRequest(http.MethodPost, "/other", http.NoBody)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	require.Equal(t, http.StatusNotFound, w.Code)

	js.PublishErr = context.DeadlineExceeded
	require.Equal(t, http.StatusInternalServerError, doRequest(h, "check_run", `{"action": "completed", `+repositoryJSON+`}`).Code)
}
