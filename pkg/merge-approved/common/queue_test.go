package common_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/Eun/merge-approved/pkg/merge-approved/common"
	"github.com/Eun/merge-approved/pkg/merge-approved/internal/natstest"
)

func TestRateLimitedPublisher_Publish(t *testing.T) {
	js := &natstest.JetStream{}
	kv := natstest.NewKeyValue()
	publisher := common.RateLimitedPublisher{
		JetStreamContext: js,
		RateLimitKV:      kv,
		Interval:         time.Minute,
	}

	msg := &common.QueueRepositoryMessage{
		BaseMessage: common.BaseMessage{
			InstallationID: 1,
			Repository:     common.Repository{FullName: "octo/hello", NodeID: "R_1"},
		},
		Event: "status",
	}

	if err := publisher.Publish(&log.Logger, "repository.1", "repository.1.R_1", msg); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if err := publisher.Publish(&log.Logger, "repository.2", "repository.1.R_1", msg); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	published := js.Published()
	if len(published) != 2 {
		t.Fatalf("expected 2 published messages, got %d", len(published))
	}

	if published[0].Header.Get(common.DelayUntilHeader) != "" {
		t.Error("first message must not be delayed")
	}
	if published[1].Header.Get(common.DelayUntilHeader) == "" {
		t.Error("second message within the interval must be delayed")
	}
	if published[1].Header.Get(nats.MsgIdHdr) == "" {
		t.Error("second message within the interval must carry a msg id")
	}

	var decoded common.QueueRepositoryMessage
	if err := json.Unmarshal(published[0].Data, &decoded); err != nil {
		t.Fatalf("unable to decode message: %v", err)
	}
	if decoded.Repository.FullName != "octo/hello" || decoded.Event != "status" {
		t.Errorf("unexpected message %+v", decoded)
	}
	if kv.Len() != 1 {
		t.Errorf("expected one rate limit entry, got %d", kv.Len())
	}
}

func TestRateLimitedPublisher_DifferentKeysAreNotDelayed(t *testing.T) {
	js := &natstest.JetStream{}
	publisher := common.RateLimitedPublisher{
		JetStreamContext: js,
		RateLimitKV:      natstest.NewKeyValue(),
		Interval:         time.Minute,
	}

	for _, key := range []string{"repository.1.R_1", "repository.1.R_2"} {
		if err := publisher.Publish(&log.Logger, "repository.x", key, struct{}{}); err != nil {
			t.Fatalf("Publish() error = %v", err)
		}
	}
	for _, msg := range js.Published() {
		if msg.Header.Get(common.DelayUntilHeader) != "" {
			t.Errorf("message %s must not be delayed", msg.Subject)
		}
	}
}
