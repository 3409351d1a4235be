package cmd

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"time"

	"github.com/Eun/merge-approved/pkg/merge-approved/common"
)

type Setting string

const (
	AllowedRepositoriesSetting            Setting = "AllowedRepositories"
	AllowOnlyPublicRepositories           Setting = "AllowOnlyPublicRepositories"
	StreamNameSetting                     Setting = "StreamName"
	RepositorySubjectSetting              Setting = "RepositorySubject"
	ReportSubjectSetting                  Setting = "ReportSubject"
	MessageRetryAttemptsSetting           Setting = "MessageRetryAttempts"
	MessageRetryWaitSetting               Setting = "MessageRetryWait"
	RateLimitBucketNameSetting            Setting = "RateLimitBucketName"
	RateLimitBucketTTLSetting             Setting = "RateLimitBucketTTL"
	RateLimitIntervalSetting              Setting = "RateLimitInterval"
	AccessTokensBucketNameSetting         Setting = "AccessTokensBucketName"
	AccessTokensBucketTTLSetting          Setting = "AccessTokensBucketTTL"
	ConfigsBucketNameSetting              Setting = "ConfigsBucketName"
	ConfigsBucketTTLSetting               Setting = "ConfigsBucketTTL"
	MaxMessageAgeSetting                  Setting = "MaxMessageAge"
	MaxDurationForRepositoryWorkerSetting Setting = "MaxDurationForRepositoryWorker"
	MessageChannelSizeSetting             Setting = "MessageChannelSize"
	CIModeSetting                         Setting = "CIMode"
	SlackWebhookURLSetting                Setting = "SlackWebhookURL"
	SlackReportSkipsSetting               Setting = "SlackReportSkips"
)

var defaultSettings = map[Setting]any{
	AllowedRepositoriesSetting:            common.RegexSlice{common.MustNewRegexItem(".*")},
	AllowOnlyPublicRepositories:           false,
	StreamNameSetting:                     "ma_bot_events",
	RepositorySubjectSetting:              "repository",
	ReportSubjectSetting:                  "report",
	MessageRetryAttemptsSetting:           5,                //nolint: gomnd // allow to set defaults
	MessageRetryWaitSetting:               time.Second * 15, //nolint: gomnd // allow to set defaults
	RateLimitBucketNameSetting:            "ma_rate_limit",
	RateLimitBucketTTLSetting:             time.Hour * 24,   //nolint: gomnd // allow to set defaults
	RateLimitIntervalSetting:              time.Second * 30, //nolint: gomnd // allow to set defaults
	AccessTokensBucketNameSetting:         "ma_access_tokens",
	AccessTokensBucketTTLSetting:          time.Hour * 24, //nolint: gomnd // allow to set defaults
	ConfigsBucketNameSetting:              "ma_configs",
	ConfigsBucketTTLSetting:               time.Hour * 24,   //nolint: gomnd // allow to set defaults
	MaxMessageAgeSetting:                  time.Minute * 10, //nolint: gomnd // allow to set defaults
	MaxDurationForRepositoryWorkerSetting: time.Minute * 5,  //nolint: gomnd // allow to set defaults
	MessageChannelSizeSetting:             64,               //nolint: gomnd // allow to set defaults
	CIModeSetting:                         "checks",
	SlackWebhookURLSetting:                "",
	SlackReportSkipsSetting:               false,
}

func GetSetting[T any](name Setting) (t T) {
	if s := os.Getenv(string(name)); s != "" {
		return convertValue(s, reflect.TypeOf(t)).Interface().(T)
	}
	return defaultSettings[name].(T)
}

func convertValue(value string, targetType reflect.Type) reflect.Value {
	if targetType == reflect.TypeOf(common.RegexSlice{}) {
		items, err := common.ParseRegexSlice(value)
		if err != nil {
			panic(fmt.Sprintf("unable to parse regex list `%s': %s", value, err))
		}
		return reflect.ValueOf(items)
	}
	if targetType == reflect.TypeOf(time.Duration(0)) {
		t, err := time.ParseDuration(value)
		if err != nil {
			panic(fmt.Sprintf("unable to parse duration `%s'", value))
		}
		return reflect.ValueOf(t)
	}
	switch targetType.Kind() {
	case reflect.Bool:
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return reflect.ValueOf(boolValue).Convert(targetType)
		}
	case reflect.String:
		return reflect.ValueOf(value).Convert(targetType)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return reflect.ValueOf(intValue).Convert(targetType)
		}
	default:
		panic(fmt.Sprintf("unsupported type: %s", targetType))
	}
	return reflect.Zero(targetType)
}
