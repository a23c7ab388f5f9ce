package main

import (
	"github.com/veridetect/plagiscan/internal/apperr"
	"github.com/veridetect/plagiscan/internal/chunker"
	"github.com/veridetect/plagiscan/internal/config"
)

func chunkerConfig(cfg config.Config) chunker.Config {
	return chunker.Config{
		ChunkSize:    cfg.ChunkSize,
		ChunkOverlap: cfg.ChunkOverlap,
		MinChunk:     cfg.MinChunkSize,
	}
}

func ignoreNotFound(err error) error {
	if apperr.KindOf(err) == apperr.NotFound {
		return nil
	}
	return err
}
