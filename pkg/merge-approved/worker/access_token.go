package worker

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/Eun/merge-approved/pkg/merge-approved/common"
	"github.com/Eun/merge-approved/pkg/merge-approved/github"
)

// tokens that expire within this margin are not used anymore.
const accessTokenExpiryMargin = time.Minute

func (worker *Worker) getAccessToken(
	ctx context.Context,
	rootLogger *zerolog.Logger,
	repository *common.Repository,
	installationID int64,
) (string, error) {
	key := hashForKV(repository.FullName)

	logger := rootLogger.With().
		Str("hash_key", key).
		Logger()

	cachedToken, err := getCached[github.AccessToken](worker.AccessTokensKV, key)
	if err != nil {
		return "", errors.Wrap(err, "unable to get access token from cache")
	}
	if cachedToken == nil {
		logger.Debug().
			Str("reason", "not in cache").
			Msg("creating a new access token")
		return worker.createNewAccessToken(ctx, &logger, repository, installationID, key)
	}

	if cachedToken.ExpiresAt.Before(time.Now().Add(accessTokenExpiryMargin)) {
		logger.Debug().
			Str("reason", "expired").
			Msg("creating a new access token")
		return worker.createNewAccessToken(ctx, &logger, repository, installationID, key)
	}

	logger.Debug().
		Msg("got access token from cache")
	return cachedToken.Token, nil
}

func (worker *Worker) createNewAccessToken(
	ctx context.Context,
	rootLogger *zerolog.Logger,
	repository *common.Repository,
	installationID int64,
	key string,
) (string, error) {
	rootLogger.Debug().Msg("getting access_token from github")
	accessToken, err := github.GetAccessToken(ctx, worker.HTTPClient, worker.AppID, worker.PrivateKey, repository, installationID)
	if err != nil {
		return "", errors.Wrap(err, "unable to get access token")
	}

	rootLogger.Debug().Msg("storing access_token in cache")
	if err := putCached(worker.AccessTokensKV, key, accessToken); err != nil {
		return "", errors.Wrap(err, "unable to store access token")
	}
	return accessToken.Token, nil
}
