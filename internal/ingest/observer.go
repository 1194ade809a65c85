package ingest

import (
	"log/slog"
	"os"
	"strings"
)

// Observer receives pipeline progress. The core never writes to a global
// logger; whoever drives the pipeline decides where reports go.
type Observer interface {
	FileStarted(path, source string)
	RecordRejected(source, key string, err error)
	// DataQuality flags a suspicious-but-accepted condition, like an
	// assumed CRS or an unregistered carrier dialect.
	DataQuality(source, msg string)
	FileCompleted(path string, res FileResult)
	FileFailed(path string, err error)
}

// NopObserver discards everything; useful in tests.
type NopObserver struct{}

func (NopObserver) FileStarted(string, string)           {}
func (NopObserver) RecordRejected(string, string, error) {}
func (NopObserver) DataQuality(string, string)           {}
func (NopObserver) FileCompleted(string, FileResult)     {}
func (NopObserver) FileFailed(string, error)             {}

type slogObserver struct {
	log *slog.Logger
}

// NewSlogObserver reports progress through a structured logger. Level and
// format follow LOG_LEVEL / LOG_FORMAT.
func NewSlogObserver() Observer {
	lvl := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	var h slog.Handler
	if strings.ToLower(os.Getenv("LOG_FORMAT")) == "json" {
		h = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	} else {
		h = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	}
	return &slogObserver{log: slog.New(h)}
}

func (o *slogObserver) FileStarted(path, source string) {
	o.log.Info("file_started", "path", path, "source", source)
}

func (o *slogObserver) RecordRejected(source, key string, err error) {
	o.log.Warn("record_rejected", "source", source, "key", key, "kind", KindOf(err).String(), "err", err)
}

func (o *slogObserver) DataQuality(source, msg string) {
	o.log.Warn("data_quality", "source", source, "msg", msg)
}

func (o *slogObserver) FileCompleted(path string, res FileResult) {
	o.log.Info("file_completed", "path", path, "source", res.Source,
		"inserted", res.Inserted, "updated", res.Updated,
		"appended", res.Appended, "replaced", res.Replaced, "rejected", res.Rejected)
}

func (o *slogObserver) FileFailed(path string, err error) {
	o.log.Error("file_failed", "path", path, "kind", KindOf(err).String(), "err", err)
}
