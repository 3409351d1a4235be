package reporter

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/h2non/gock"
	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/Eun/merge-approved/pkg/merge-approved/common"
	"github.com/Eun/merge-approved/pkg/merge-approved/engine"
	"github.com/Eun/merge-approved/pkg/merge-approved/internal/natstest"
)

const webhookURL = "https://hooks.slack.com/services/T000/B000/XXXX"

var testPullRequest = &common.PullRequest{
	Number: 7,
	Title:  "Bump deps",
	URL:    "https://github.com/octo/hello/pull/7",
}

func newSlackReporter(t *testing.T, reportSkips bool) *SlackReporter {
	t.Helper()
	client := &http.Client{}
	gock.InterceptClient(client)
	t.Cleanup(func() {
		gock.RestoreClient(client)
		gock.Off()
	})
	return &SlackReporter{
		WebhookURL:  webhookURL,
		HTTPClient:  client,
		Repository:  "octo/hello",
		ReportSkips: reportSkips,
	}
}

func TestSlackReporter_Merged(t *testing.T) {
	r := newSlackReporter(t, false)
	gock.New("https://hooks.slack.com").
		Post("/services/T000/B000/XXXX").
		BodyString(`"text":"merged `).
		Reply(http.StatusOK).
		BodyString("ok")

	err := r.Report(context.Background(), &engine.Event{Kind: engine.MergedEvent, PullRequest: testPullRequest})
	require.NoError(t, err)
	require.True(t, gock.IsDone())
}

func TestSlackReporter_Error(t *testing.T) {
	r := newSlackReporter(t, false)
	gock.New("https://hooks.slack.com").
		Post("/services/T000/B000/XXXX").
		BodyString(`"color":"danger"`).
		Reply(http.StatusOK).
		BodyString("ok")

	err := r.Report(context.Background(), &engine.Event{
		Kind:        engine.ErrorEvent,
		PullRequest: testPullRequest,
		Summary:     "merge action failed",
		Err:         errors.New("merge action failed"),
	})
	require.NoError(t, err)
	require.True(t, gock.IsDone())
}

func TestSlackReporter_Skips(t *testing.T) {
	t.Run("not reported by default", func(t *testing.T) {
		r := newSlackReporter(t, false)
		err := r.Report(context.Background(), &engine.Event{
			Kind:        engine.SkipEvent,
			PullRequest: testPullRequest,
			Reason:      engine.NotMergeable,
		})
		require.NoError(t, err)
		require.False(t, gock.HasUnmatchedRequest())
	})

	t.Run("reported when enabled", func(t *testing.T) {
		r := newSlackReporter(t, true)
		gock.New("https://hooks.slack.com").
			Post("/services/T000/B000/XXXX").
			BodyString(`NOT_MERGEABLE`).
			Reply(http.StatusOK).
			BodyString("ok")

		err := r.Report(context.Background(), &engine.Event{
			Kind:        engine.SkipEvent,
			PullRequest: testPullRequest,
			Reason:      engine.NotMergeable,
		})
		require.NoError(t, err)
		require.True(t, gock.IsDone())
	})
}

func TestSlackReporter_Failure(t *testing.T) {
	r := newSlackReporter(t, false)
	gock.New("https://hooks.slack.com").
		Post("/services/T000/B000/XXXX").
		Reply(http.StatusNotFound).
		BodyString("no_service")

	err := r.Report(context.Background(), &engine.Event{Kind: engine.MergedEvent, PullRequest: testPullRequest})
	require.Error(t, err)
}

func TestJetStreamReporter(t *testing.T) {
	js := &natstest.JetStream{}
	r := &JetStreamReporter{JetStreamContext: js, Subject: "report", Repository: "octo/hello"}

	err := r.Report(context.Background(), &engine.Event{
		Kind:        engine.SkipEvent,
		PullRequest: testPullRequest,
		Reason:      engine.ChecksNotSuccessful,
		Summary:     "check `ci` did not succeed (`FAILURE`)",
	})
	require.NoError(t, err)
	err = r.Report(context.Background(), &engine.Event{
		Kind:        engine.ErrorEvent,
		PullRequest: testPullRequest,
		Err:         errors.New("boom"),
	})
	require.NoError(t, err)

	published := js.Published()
	require.Len(t, published, 2)
	require.Equal(t, "report.skip", published[0].Subject)
	require.Equal(t, "report.error", published[1].Subject)
	require.NotEqual(t, published[0].Header.Get(nats.MsgIdHdr), published[1].Header.Get(nats.MsgIdHdr))

	var msg ReportMessage
	require.NoError(t, json.Unmarshal(published[0].Data, &msg))
	require.Equal(t, "octo/hello", msg.Repository)
	require.Equal(t, engine.ChecksNotSuccessful, msg.Reason)
	require.Equal(t, int64(7), msg.PullRequest.Number)
	require.Equal(t, published[0].Header.Get(nats.MsgIdHdr), msg.ID)

	require.NoError(t, json.Unmarshal(published[1].Data, &msg))
	require.Equal(t, "boom", msg.Error)
}

func TestJetStreamReporter_PublishError(t *testing.T) {
	js := &natstest.JetStream{PublishErr: nats.ErrTimeout}
	r := &JetStreamReporter{JetStreamContext: js, Subject: "report"}

	err := r.Report(context.Background(), &engine.Event{Kind: engine.MergedEvent, PullRequest: testPullRequest})
	require.ErrorIs(t, err, nats.ErrTimeout)
}
