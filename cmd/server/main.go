package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"

	"github.com/Eun/merge-approved/cmd"
	"github.com/Eun/merge-approved/pkg/merge-approved/common"
	"github.com/Eun/merge-approved/pkg/merge-approved/server"
)

func main() {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	if err := cmd.LoadEnv(); err != nil {
		logger.Error().Err(err).Msg("unable to load env file")
		return
	}
	if os.Getenv("DEBUG") != "" {
		logger = logger.Level(zerolog.DebugLevel)
	}

	address := os.Getenv("ADDRESS")
	if address == "" {
		address = ":" + os.Getenv("PORT")
	}

	if address == ":" {
		address = ":8000"
	}

	nc, err := nats.Connect(os.Getenv("NATS_URL"))
	if err != nil {
		logger.Error().Err(err).Str("nats_url", os.Getenv("NATS_URL")).Msg("unable to connect to nats")
		return
	}
	defer nc.Close()
	js, err := nc.JetStream()
	if err != nil {
		logger.Error().Err(err).Str("nats_url", os.Getenv("NATS_URL")).Msg("unable to create jetstream context")
		return
	}

	err = cmd.EnsureStream(js, &nats.StreamConfig{
		Name: cmd.GetSetting[string](cmd.StreamNameSetting),
		Subjects: []string{
			cmd.GetSetting[string](cmd.RepositorySubjectSetting) + ".>",
		},
		Retention: nats.WorkQueuePolicy,
		MaxAge:    cmd.GetSetting[time.Duration](cmd.MaxMessageAgeSetting),
	})
	if err != nil {
		logger.Error().Err(err).Str("nats_url", os.Getenv("NATS_URL")).Msg("unable to setup stream")
		return
	}

	rateLimitKV, err := js.CreateKeyValue(&nats.KeyValueConfig{
		Bucket: cmd.GetSetting[string](cmd.RateLimitBucketNameSetting),
		TTL:    cmd.GetSetting[time.Duration](cmd.RateLimitBucketTTLSetting),
	})
	if err != nil {
		logger.Error().
			Err(err).
			Str("nats_url", os.Getenv("NATS_URL")).
			Msg("unable to create jetstream key value bucket for rate limit")
		return
	}

	srv := http.Server{
		Addr:              address,
		ReadTimeout:       1 * time.Second,
		WriteTimeout:      1 * time.Second,
		IdleTimeout:       30 * time.Second, //nolint:gomnd // set IdleTimeout
		ReadHeaderTimeout: 2 * time.Second,  //nolint:gomnd // set ReadHeaderTimeout
		Handler: &server.Handler{
			GetLoggerForContext: func(ctx context.Context) *zerolog.Logger {
				return &logger
			},
			AllowedRepositories:         cmd.GetSetting[common.RegexSlice](cmd.AllowedRepositoriesSetting),
			AllowOnlyPublicRepositories: cmd.GetSetting[bool](cmd.AllowOnlyPublicRepositories),

			Publisher: &common.RateLimitedPublisher{
				JetStreamContext: js,
				RateLimitKV:      rateLimitKV,
				Interval:         cmd.GetSetting[time.Duration](cmd.RateLimitIntervalSetting),
			},
			RepositorySubject: cmd.GetSetting[string](cmd.RepositorySubjectSetting),
		},
		BaseContext: func(listener net.Listener) context.Context {
			return ctx
		},
	}

	errChan := make(chan error)
	go func() {
		errChan <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutting down")
		_ = srv.Shutdown(context.Background())
	case err := <-errChan:
		if err != nil {
			logger.Error().Err(err).Msgf("unable to listen on address %s", address)
		}
	}
}
