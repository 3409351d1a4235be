package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"

	"github.com/Eun/merge-approved/cmd"
	"github.com/Eun/merge-approved/pkg/merge-approved/common"
	"github.com/Eun/merge-approved/pkg/merge-approved/github"
	"github.com/Eun/merge-approved/pkg/merge-approved/worker"
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

	if os.Getenv("APP_ID") == "" {
		logger.Error().Msg("APP_ID is not set")
		return
	}

	appID, err := strconv.ParseInt(os.Getenv("APP_ID"), 10, 64)
	if err != nil {
		logger.Error().Err(err).Msg("unable to get APP_ID")
		return
	}

	privateKeyFile := os.Getenv("PRIVATE_KEY")
	if privateKeyFile == "" {
		logger.Error().Msg("PRIVATE_KEY is not set")
		return
	}
	privateKeyBytes, err := os.ReadFile(privateKeyFile)
	if err != nil {
		logger.Error().
			Err(err).
			Str("file", privateKeyFile).
			Msg("unable to read private key")
		return
	}

	ciMode, err := github.ParseCIMode(cmd.GetSetting[string](cmd.CIModeSetting))
	if err != nil {
		logger.Error().Err(err).Msg("unable to parse ci mode")
		return
	}

	nc, err := nats.Connect(os.Getenv("NATS_URL"))
	if err != nil {
		logger.Error().
			Err(err).
			Str("nats_url", os.Getenv("NATS_URL")).
			Msg("unable to connect to nats")
		return
	}
	defer nc.Close()
	js, err := nc.JetStream()
	if err != nil {
		logger.Error().
			Err(err).
			Str("nats_url", os.Getenv("NATS_URL")).
			Msg("unable to create jetstream context")
		return
	}

	reportSubject := cmd.GetSetting[string](cmd.ReportSubjectSetting)
	if reportSubject != "" {
		err = cmd.EnsureStream(js, &nats.StreamConfig{
			Name:      cmd.GetSetting[string](cmd.StreamNameSetting) + "_reports",
			Subjects:  []string{reportSubject + ".>"},
			Retention: nats.LimitsPolicy,
			MaxAge:    cmd.GetSetting[time.Duration](cmd.MaxMessageAgeSetting),
		})
		if err != nil {
			logger.Error().
				Err(err).
				Str("nats_url", os.Getenv("NATS_URL")).
				Msg("unable to setup report stream")
			return
		}
	}

	accessTokensKV, err := js.CreateKeyValue(&nats.KeyValueConfig{
		Bucket: cmd.GetSetting[string](cmd.AccessTokensBucketNameSetting),
		TTL:    cmd.GetSetting[time.Duration](cmd.AccessTokensBucketTTLSetting),
	})
	if err != nil {
		logger.Error().
			Err(err).
			Str("nats_url", os.Getenv("NATS_URL")).
			Msg("unable to create jetstream key value bucket for access-tokens")
		return
	}

	configsKV, err := js.CreateKeyValue(&nats.KeyValueConfig{
		Bucket: cmd.GetSetting[string](cmd.ConfigsBucketNameSetting),
		TTL:    cmd.GetSetting[time.Duration](cmd.ConfigsBucketTTLSetting),
	})
	if err != nil {
		logger.Error().
			Err(err).
			Str("nats_url", os.Getenv("NATS_URL")).
			Msg("unable to create jetstream key value bucket for configs")
		return
	}

	repositorySubscription, err := js.QueueSubscribeSync(
		cmd.GetSetting[string](cmd.RepositorySubjectSetting)+".>",
		"repository-worker",
		nats.AckExplicit(),
		nats.MaxDeliver(cmd.GetSetting[int](cmd.MessageRetryAttemptsSetting)),
	)
	if err != nil {
		logger.Error().
			Err(err).
			Str("nats_url", os.Getenv("NATS_URL")).
			Msg("unable to create jetstream subscriber for repository queue")
		return
	}
	defer func() {
		if err := repositorySubscription.Unsubscribe(); err != nil {
			logger.Error().Err(err).Msg("unable to unsubscribe from repository queue")
		}
	}()

	w := worker.Worker{
		Logger: &logger,

		AllowedRepositories:         cmd.GetSetting[common.RegexSlice](cmd.AllowedRepositoriesSetting),
		AllowOnlyPublicRepositories: cmd.GetSetting[bool](cmd.AllowOnlyPublicRepositories),

		RepositorySubscription: repositorySubscription,

		AccessTokensKV: accessTokensKV,
		ConfigsKV:      configsKV,

		JetStreamContext: js,
		ReportSubject:    reportSubject,
		RetryWait:        cmd.GetSetting[time.Duration](cmd.MessageRetryWaitSetting),

		MaxDurationForRepositoryWorker: cmd.GetSetting[time.Duration](cmd.MaxDurationForRepositoryWorkerSetting),
		MessageChannelSize:             cmd.GetSetting[int](cmd.MessageChannelSizeSetting),

		HTTPClient: http.DefaultClient,
		CIMode:     ciMode,

		SlackWebhookURL:  cmd.GetSetting[string](cmd.SlackWebhookURLSetting),
		SlackReportSkips: cmd.GetSetting[bool](cmd.SlackReportSkipsSetting),

		AppID:      appID,
		PrivateKey: privateKeyBytes,
	}

	errChan := make(chan error)
	go func() {
		errChan <- w.Consume()
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutting down")
		_ = w.Shutdown(context.Background())
	case err := <-errChan:
		if err != nil {
			logger.Error().Err(err).Msg("unable to consume")
		}
	}
}
