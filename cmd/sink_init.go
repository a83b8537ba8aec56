package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/routerlab/routerbench/internal/sink"
	"github.com/routerlab/routerbench/internal/source"
)

// initSink opens and migrates the configured result sink. Callers
// should defer Close.
func initSink(ctx context.Context) (sink.Sink, error) {
	sk, err := sink.Open(ctx, cfg.Sink)
	if err != nil {
		return nil, err
	}
	if err := sk.Migrate(ctx); err != nil {
		_ = sk.Close()
		return nil, eris.Wrap(err, "migrate sink")
	}
	return sk, nil
}

// initSource builds the prompt source from config.
func initSource() source.Source {
	return source.New(source.Options{
		Dataset:   cfg.Source.Dataset,
		Config:    cfg.Source.Config,
		Split:     cfg.Source.Split,
		CachePath: cfg.Source.CachePath,
		PageSize:  cfg.Source.PageSize,
	})
}
