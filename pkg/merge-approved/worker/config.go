package worker

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/Eun/merge-approved/pkg/merge-approved/common"
	"github.com/Eun/merge-approved/pkg/merge-approved/github"
)

type ConfigHeader struct {
	Version int `yaml:"version" json:"version"`
}

// ConfigV1 is the content of .github/merge-approved.yml.
type ConfigV1 struct {
	ConfigHeader `yaml:",inline"`
	// Author limits the pass to pull requests opened by this login.
	Author string `yaml:"author" json:"author"`
}

func (c *ConfigV1) Filter() common.PullRequestFilter {
	return common.PullRequestFilter{Author: c.Author}
}

func defaultConfig() *ConfigV1 {
	return &ConfigV1{ConfigHeader: ConfigHeader{Version: 1}}
}

type cachedConfig struct {
	*ConfigV1
	SHA string
}

func parseConfig(buf []byte) (*ConfigV1, error) {
	var hdr ConfigHeader
	if err := yaml.Unmarshal(buf, &hdr); err != nil {
		return nil, errors.Wrap(err, "unable to decode config header")
	}

	switch hdr.Version {
	case 1:
		var cfg ConfigV1
		if err := yaml.Unmarshal(buf, &cfg); err != nil {
			return nil, errors.Wrap(err, "unable to decode config")
		}
		cfg.Version = hdr.Version
		return &cfg, nil
	default:
		return nil, errors.Errorf("unknown version `%d'", hdr.Version)
	}
}

// configSource downloads the config file of a repository at a sha.
type configSource interface {
	GetConfig(ctx context.Context, repository *common.Repository, sha string) ([]byte, error)
}

func (worker *Worker) getConfig(
	ctx context.Context,
	rootLogger *zerolog.Logger,
	source configSource,
	repository *common.Repository,
	sha string,
) (*ConfigV1, error) {
	key := hashForKV(repository.FullName)
	logger := rootLogger.With().
		Str("hash_key", key).
		Str("sha", sha).
		Logger()

	config, err := getCached[cachedConfig](worker.ConfigsKV, key)
	if err != nil {
		return nil, errors.Wrap(err, "unable to get config from cache")
	}
	if config == nil {
		logger.Debug().
			Str("reason", "not in cache").
			Msg("getting latest config")
		return worker.getLatestConfig(ctx, &logger, source, repository, key, sha)
	}
	if config.SHA != sha || config.ConfigV1 == nil {
		logger.Debug().
			Str("reason", "possible old config").
			Msg("getting latest config")
		return worker.getLatestConfig(ctx, &logger, source, repository, key, sha)
	}
	logger.Debug().
		Msg("got config from cache")
	return config.ConfigV1, nil
}

func (worker *Worker) getLatestConfig(
	ctx context.Context,
	rootLogger *zerolog.Logger,
	source configSource,
	repository *common.Repository,
	key,
	sha string,
) (*ConfigV1, error) {
	rootLogger.Debug().Msg("getting latest config from github")
	buf, err := source.GetConfig(ctx, repository, sha)
	if err != nil {
		return nil, errors.Wrap(err, "unable to get config from github")
	}

	cfg := defaultConfig()
	if buf == nil {
		rootLogger.Debug().Str("path", github.ConfigPath).Msg("no config found, using default config")
	} else {
		cfg, err = parseConfig(buf)
		if err != nil {
			return nil, errors.Wrap(err, "unable to parse config")
		}
	}

	rootLogger.Debug().Msg("storing config in cache")
	if err := putCached(worker.ConfigsKV, key, &cachedConfig{ConfigV1: cfg, SHA: sha}); err != nil {
		return nil, errors.Wrap(err, "unable to store config")
	}
	return cfg, nil
}
