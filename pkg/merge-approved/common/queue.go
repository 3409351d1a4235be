package common

import (
	"crypto/md5" //nolint: gosec // md5 is only used to build a kv key
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// RateLimitedPublisher publishes messages to jetstream. A message with a
// dedupe key that was already published within Interval gets a msg id (so
// jetstream drops duplicates) and a DelayUntil header.
type RateLimitedPublisher struct {
	JetStreamContext nats.JetStreamContext
	RateLimitKV      nats.KeyValue
	Interval         time.Duration
}

func (p *RateLimitedPublisher) Publish(logger *zerolog.Logger, subject, dedupeKey string, msg any) error {
	const bufSize = 8 // 64 bit
	//nolint: gosec // md5 is only used to build a kv key
	h := md5.Sum([]byte(dedupeKey))
	key := hex.EncodeToString(h[:])

	lastPublished, err := p.lastPublished(key)
	if err != nil {
		return err
	}

	header := make(nats.Header)
	if diff := time.Until(lastPublished.Add(p.Interval)); diff > 0 {
		header.Set(nats.MsgIdHdr, key)
		header.Set(DelayUntilHeader, time.Now().Add(diff).Format(time.RFC3339))
	}

	buf, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "unable to encode message")
	}

	if _, err := p.JetStreamContext.PublishMsgAsync(&nats.Msg{
		Subject: subject,
		Header:  header,
		Data:    buf,
	}); err != nil {
		return errors.Wrap(err, "unable to publish message to queue")
	}
	logger.Debug().
		Str("subject", subject).
		Bool("delayed", header.Get(DelayUntilHeader) != "").
		Msg("published message")

	b := make([]byte, bufSize)
	binary.LittleEndian.PutUint64(b, uint64(time.Now().UTC().Unix()))
	if _, err := p.RateLimitKV.Put(key, b); err != nil {
		return errors.Wrap(err, "unable to store last message time in kv bucket")
	}
	return nil
}

func (p *RateLimitedPublisher) lastPublished(key string) (time.Time, error) {
	entry, err := p.RateLimitKV.Get(key)
	if errors.Is(err, nats.ErrKeyNotFound) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, errors.Wrap(err, "unable to get rate limit from kv bucket")
	}
	if entry == nil || len(entry.Value()) == 0 {
		return time.Time{}, nil
	}
	return time.Unix(int64(binary.LittleEndian.Uint64(entry.Value())), 0), nil
}

// DelayMessageIfNeeded naks the message with the remaining delay when its
// DelayUntil header lies in the future. It reports whether the message was
// handled.
func DelayMessageIfNeeded(logger *zerolog.Logger, msg *nats.Msg) bool {
	delayUntilValue := msg.Header.Get(DelayUntilHeader)
	if delayUntilValue == "" {
		return false
	}
	delayUntil, err := time.Parse(time.RFC3339, delayUntilValue)
	if err != nil {
		logger.Error().Err(err).Msg("unable to parse delay until header")
		if err := msg.Nak(); err != nil {
			logger.Error().Err(err).Msg("unable to nak message")
		}
		return true
	}
	if diff := time.Until(delayUntil); diff > 0 {
		logger.Debug().Str("id", msg.Header.Get(nats.MsgIdHdr)).Msg("message not yet ready")
		if err := msg.NakWithDelay(diff); err != nil {
			logger.Error().Err(err).Msg("unable to nak delay message")
		}
		return true
	}
	return false
}
