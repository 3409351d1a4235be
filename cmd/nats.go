package cmd

import (
	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
)

// EnsureStream creates the stream or updates it to the given config.
func EnsureStream(js nats.JetStreamManager, cfg *nats.StreamConfig) error {
	info, err := js.StreamInfo(cfg.Name)
	if err != nil && !errors.Is(err, nats.ErrStreamNotFound) {
		return errors.Wrap(err, "unable to get stream")
	}
	if info != nil {
		if _, err := js.UpdateStream(cfg); err != nil {
			return errors.Wrap(err, "unable to update stream")
		}
		return nil
	}
	if _, err := js.AddStream(cfg); err != nil {
		return errors.Wrap(err, "unable to add stream")
	}
	return nil
}
