package reporter

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"

	"github.com/Eun/merge-approved/pkg/merge-approved/common"
	"github.com/Eun/merge-approved/pkg/merge-approved/engine"
)

// ReportMessage is published for every event on <Subject>.<kind>.
type ReportMessage struct {
	ID          string              `json:"id"`
	Time        time.Time           `json:"time"`
	Repository  string              `json:"repository"`
	Kind        engine.EventKind    `json:"kind"`
	PullRequest *common.PullRequest `json:"pull_request"`
	Reason      engine.SkipReason   `json:"reason,omitempty"`
	Title       string              `json:"title,omitempty"`
	Summary     string              `json:"summary,omitempty"`
	Error       string              `json:"error,omitempty"`
}

type JetStreamReporter struct {
	JetStreamContext nats.JetStreamContext
	Subject          string
	Repository       string
}

func (r *JetStreamReporter) Report(_ context.Context, event *engine.Event) error {
	msg := ReportMessage{
		ID:          uuid.NewString(),
		Time:        time.Now().UTC(),
		Repository:  r.Repository,
		Kind:        event.Kind,
		PullRequest: event.PullRequest,
		Reason:      event.Reason,
		Title:       event.Title,
		Summary:     event.Summary,
	}
	if event.Err != nil {
		msg.Error = event.Err.Error()
	}

	buf, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "unable to encode report")
	}

	header := make(nats.Header)
	header.Set(nats.MsgIdHdr, msg.ID)
	if _, err := r.JetStreamContext.PublishMsg(&nats.Msg{
		Subject: r.Subject + "." + string(event.Kind),
		Header:  header,
		Data:    buf,
	}); err != nil {
		return errors.Wrap(err, "unable to publish report")
	}
	return nil
}
