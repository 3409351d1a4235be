package worker

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/require"

	"github.com/Eun/merge-approved/pkg/merge-approved/common"
	"github.com/Eun/merge-approved/pkg/merge-approved/internal/natstest"
)

func Test_parseConfig(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    *ConfigV1
		wantErr bool
	}{
		{
			name:  "author",
			input: "version: 1\nauthor: renovate[bot]\n",
			want:  &ConfigV1{ConfigHeader: ConfigHeader{Version: 1}, Author: "renovate[bot]"},
		},
		{
			name:  "without author",
			input: "version: 1\n",
			want:  &ConfigV1{ConfigHeader: ConfigHeader{Version: 1}},
		},
		{
			name:    "unknown version",
			input:   "version: 2\nauthor: renovate\n",
			wantErr: true,
		},
		{
			name:    "missing version",
			input:   "author: renovate\n",
			wantErr: true,
		},
		{
			name:    "invalid yaml",
			input:   "version: [",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseConfig([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			require.Equal(t, tt.want, got)
		})
	}
}

func TestConfigV1_Filter(t *testing.T) {
	require.Equal(t, common.PullRequestFilter{}, defaultConfig().Filter())
	cfg := &ConfigV1{Author: "renovate"}
	require.Equal(t, common.PullRequestFilter{Author: "renovate"}, cfg.Filter())
}

type fakeConfigSource struct {
	calls int
	buf   []byte
	err   error
}

func (f *fakeConfigSource) GetConfig(context.Context, *common.Repository, string) ([]byte, error) {
	f.calls++
	return f.buf, f.err
}

func TestWorker_getConfig(t *testing.T) {
	repository := &common.Repository{FullName: "octo/hello"}

	t.Run("cached per sha", func(t *testing.T) {
		worker := &Worker{ConfigsKV: natstest.NewKeyValue()}
		source := &fakeConfigSource{buf: []byte("version: 1\nauthor: renovate\n")}

		cfg, err := worker.getConfig(context.Background(), &log.Logger, source, repository, "sha1")
		require.NoError(t, err)
		require.Equal(t, "renovate", cfg.Author)

		cfg, err = worker.getConfig(context.Background(), &log.Logger, source, repository, "sha1")
		require.NoError(t, err)
		require.Equal(t, "renovate", cfg.Author)
		require.Equal(t, 1, source.calls)

		source.buf = []byte("version: 1\nauthor: dependabot\n")
		cfg, err = worker.getConfig(context.Background(), &log.Logger, source, repository, "sha2")
		require.NoError(t, err)
		require.Equal(t, "dependabot", cfg.Author)
		require.Equal(t, 2, source.calls)
	})

	t.Run("default config when missing", func(t *testing.T) {
		worker := &Worker{ConfigsKV: natstest.NewKeyValue()}
		source := &fakeConfigSource{}

		cfg, err := worker.getConfig(context.Background(), &log.Logger, source, repository, "sha1")
		require.NoError(t, err)
		require.Equal(t, defaultConfig(), cfg)

		_, err = worker.getConfig(context.Background(), &log.Logger, source, repository, "sha1")
		require.NoError(t, err)
		require.Equal(t, 1, source.calls)
	})

	t.Run("invalid config", func(t *testing.T) {
		worker := &Worker{ConfigsKV: natstest.NewKeyValue()}
		source := &fakeConfigSource{buf: []byte("version: 3\n")}

		_, err := worker.getConfig(context.Background(), &log.Logger, source, repository, "sha1")
		require.Error(t, err)
		require.Equal(t, 0, worker.ConfigsKV.(*natstest.KeyValue).Len())
	})

	t.Run("download error", func(t *testing.T) {
		worker := &Worker{ConfigsKV: natstest.NewKeyValue()}
		source := &fakeConfigSource{err: errors.New("bad gateway")}

		_, err := worker.getConfig(context.Background(), &log.Logger, source, repository, "sha1")
		require.Error(t, err)
	})

	t.Run("kv error", func(t *testing.T) {
		kv := natstest.NewKeyValue()
		kv.GetErr = errors.New("no responders")
		worker := &Worker{ConfigsKV: kv}

		_, err := worker.getConfig(context.Background(), &log.Logger, &fakeConfigSource{}, repository, "sha1")
		require.Error(t, err)
	})
}

func Test_hashForKV(t *testing.T) {
	require.Equal(t, hashForKV("octo/hello"), hashForKV("octo/hello"))
	require.NotEqual(t, hashForKV("octo/hello"), hashForKV("octo/world"))
	require.NotEqual(t, hashForKV("ab", "c"), hashForKV("a", "bc"))
}
