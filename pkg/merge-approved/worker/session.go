package worker

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/Eun/merge-approved/pkg/merge-approved/common"
	"github.com/Eun/merge-approved/pkg/merge-approved/github"
)

// session holds all necessary information for this run.
type session struct {
	Repository     *common.Repository
	InstallationID int64
	Client         *github.Client
	Config         *ConfigV1
}

func (worker *Worker) getSession(ctx context.Context, rootLogger *zerolog.Logger, message *common.BaseMessage) (*session, error) {
	accessToken, err := worker.getAccessToken(ctx, rootLogger, &message.Repository, message.InstallationID)
	if err != nil {
		return nil, errors.Wrap(err, "unable to get access token")
	}

	client := github.NewClient(worker.HTTPClient, accessToken, worker.CIMode)

	sha, err := client.GetLatestBaseCommitSha(ctx, &message.Repository)
	if err != nil {
		return nil, errors.Wrap(err, "unable to get latest base commit sha")
	}
	if sha == "" {
		rootLogger.Debug().Msg("latest commit sha is empty")
		return nil, nil
	}

	cfg, err := worker.getConfig(ctx, rootLogger, client, &message.Repository, sha)
	if err != nil {
		return nil, errors.Wrap(err, "unable to get config")
	}
	return &session{
		Repository:     &message.Repository,
		InstallationID: message.InstallationID,
		Client:         client,
		Config:         cfg,
	}, nil
}
