package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"

	"github.com/mkrill/depthwatch/internal/config"
	"github.com/mkrill/depthwatch/internal/log"
	"github.com/mkrill/depthwatch/internal/pipeline"
	"github.com/mkrill/depthwatch/pkg/orderbook"
	"github.com/mkrill/depthwatch/sdk/kucoin"
)

func main() {
	snapshot := flag.Bool("snapshot", false, "fetch one REST depth snapshot, print it and exit")
	flag.Parse()

	cfg := config.Load()
	logger := log.NewLogger(cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	venue := kucoin.New(kucoin.Futures)
	if cfg.APIURL != "" {
		venue = kucoin.NewWithBase(cfg.APIURL)
	}
	book := orderbook.New(cfg.Symbol)

	if *snapshot {
		res, err := venue.GetDepth(ctx, cfg.Symbol)
		if err != nil {
			logger.Fatal().Err(err).Msg("depth snapshot failed")
		}
		book.Replace(res.Data.BidLevels(kucoin.Depth), res.Data.AskLevels(kucoin.Depth))
		book.Print()
		return
	}

	logger.Info().Str("symbol", cfg.Symbol).Str("api", venue.HTTP()).Msg("starting ladder watch")

	p := pipeline.New(venue, book, cfg.Symbol, logger)
	reason, err := p.Run(ctx)
	switch {
	case err == nil || errors.Is(err, context.Canceled):
		logger.Info().Stringer("reason", reason).Msg("pipeline terminated")
	default:
		logger.Error().Err(err).Stringer("reason", reason).Msg("pipeline terminated")
		os.Exit(1)
	}
}
