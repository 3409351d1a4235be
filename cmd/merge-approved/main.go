package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

func main() {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := newRootCommand(&Command{Out: os.Stdout, Err: os.Stderr}).ExecuteContext(ctx); err != nil {
		cancel()
		os.Exit(1) //nolint: gocritic // cancel is called above
	}
}
