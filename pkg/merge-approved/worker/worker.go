package worker

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/Eun/merge-approved/pkg/merge-approved/common"
	"github.com/Eun/merge-approved/pkg/merge-approved/github"
)

type Worker struct {
	Logger *zerolog.Logger

	AllowedRepositories         common.RegexSlice
	AllowOnlyPublicRepositories bool

	RepositorySubscription *nats.Subscription

	AccessTokensKV nats.KeyValue
	ConfigsKV      nats.KeyValue

	JetStreamContext nats.JetStreamContext
	ReportSubject    string
	RetryWait        time.Duration

	MaxDurationForRepositoryWorker time.Duration
	MessageChannelSize             int

	HTTPClient *http.Client
	CIMode     github.CIMode

	SlackWebhookURL  string
	SlackReportSkips bool

	AppID      int64
	PrivateKey []byte

	closeCh chan struct{}
}

// Consume handles repository messages one after another until Shutdown is
// called or the subscription fails.
func (worker *Worker) Consume() error {
	worker.closeCh = make(chan struct{})
	errChan := make(chan error)

	repositoryChan := make(chan *nats.Msg, worker.MessageChannelSize)
	go func() {
		for {
			msg, err := worker.RepositorySubscription.NextMsgWithContext(context.Background())
			if err != nil {
				errChan <- err
				return
			}
			repositoryChan <- msg
		}
	}()

	for {
		select {
		case msg := <-repositoryChan:
			worker.Logger.Debug().
				Str("id", msg.Header.Get(nats.MsgIdHdr)).
				Msg("repository message received")
			handleMessage[common.QueueRepositoryMessage](worker, worker.Logger, msg, worker.runLogic)
		case err := <-errChan:
			return errors.Wrap(err, "error received")
		case <-worker.closeCh:
			worker.Logger.Debug().Msg("close signal received")
			return nil
		}
	}
}

func (worker *Worker) Shutdown(context.Context) error {
	worker.closeCh <- struct{}{}
	return nil
}

// ackNaker is the part of *nats.Msg that handleMessage needs to settle a
// message.
type ackNaker interface {
	Ack(opts ...nats.AckOpt) error
	NakWithDelay(delay time.Duration, opts ...nats.AckOpt) error
}

func handleMessage[T any, PT interface {
	*T
	common.Message
}](worker *Worker, logger *zerolog.Logger, msg *nats.Msg, fn func(logger *zerolog.Logger, m PT) error) {
	if common.DelayMessageIfNeeded(logger, msg) {
		return
	}
	settleMessage[T, PT](worker, logger, msg.Data, msg, fn)
}

func settleMessage[T any, PT interface {
	*T
	common.Message
}](worker *Worker, logger *zerolog.Logger, data []byte, msg ackNaker, fn func(logger *zerolog.Logger, m PT) error) {
	m := PT(new(T))
	if err := json.Unmarshal(data, m); err != nil {
		logger.Error().Err(err).Msg("unable to decode queue message")
		if err := msg.NakWithDelay(worker.RetryWait); err != nil {
			logger.Error().Err(err).Msg("unable to nak message")
		}
		return
	}

	if worker.AllowOnlyPublicRepositories && m.GetRepository().Private {
		logger.Warn().Str("repo", m.GetRepository().FullName).Msg("repository is not allowed (it is private)")
		if err := msg.Ack(); err != nil {
			logger.Error().Err(err).Msg("unable to ack message")
		}
		return
	}

	if worker.AllowedRepositories.ContainsOneOf(m.GetRepository().FullName) == "" {
		logger.Warn().Str("repo", m.GetRepository().FullName).Msg("repository is not allowed")
		if err := msg.Ack(); err != nil {
			logger.Error().Err(err).Msg("unable to ack message")
		}
		return
	}

	if err := fn(logger, m); err != nil {
		logger.Error().Err(err).Msg("error")
		if err := msg.NakWithDelay(worker.RetryWait); err != nil {
			logger.Error().Err(err).Msg("unable to nak message")
		}
		return
	}
	if err := msg.Ack(); err != nil {
		logger.Error().Err(err).Msg("unable to ack message")
	}
}
