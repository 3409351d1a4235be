package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// LoadEnv loads the given env files, or .env if none are given. Missing
// files are ignored and values already set in the environment win.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if _, err := os.Stat(file); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			return errors.Wrapf(err, "unable to load %s", file)
		}
	}
	return nil
}
