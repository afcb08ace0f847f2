package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

// ErrorsFile дубль всех записей уровня Error
const ErrorsFile = "errors.log"

// Setup логгер по окружению: dev пишет JSON, остальные текст. Ошибки дополнительно уходят в ErrorsFile.
func Setup(env string) *slog.Logger {
	errorFile, err := os.OpenFile(ErrorsFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
	if err != nil {
		log := New(env, os.Stdout, nil)
		log.Warn("cannot open error log file", slog.String("error", err.Error()))
		return log
	}

	return New(env, os.Stdout, errorFile)
}

// New собирает логгер поверх out; errOut может быть nil.
func New(env string, out, errOut io.Writer) *slog.Logger {
	level := slog.LevelDebug
	if env == EnvProd {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var main slog.Handler
	if env == EnvDev {
		main = slog.NewJSONHandler(out, opts)
	} else {
		main = slog.NewTextHandler(out, opts)
	}

	if errOut == nil {
		return slog.New(main)
	}

	return slog.New(&teeHandler{
		main:   main,
		errors: slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: slog.LevelError}),
	})
}

// teeHandler пишет в основной поток, а ошибки копирует во второй
type teeHandler struct {
	main   slog.Handler
	errors slog.Handler
}

func (h *teeHandler) Enabled(ctx context.Context, lvl slog.Level) bool {
	return h.main.Enabled(ctx, lvl) || h.errors.Enabled(ctx, lvl)
}

func (h *teeHandler) Handle(ctx context.Context, r slog.Record) error {
	var err error
	if h.main.Enabled(ctx, r.Level) {
		err = h.main.Handle(ctx, r)
	}

	// сбой файла не мешает основному выводу
	if h.errors.Enabled(ctx, r.Level) {
		_ = h.errors.Handle(ctx, r.Clone())
	}

	return err
}

func (h *teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &teeHandler{main: h.main.WithAttrs(attrs), errors: h.errors.WithAttrs(attrs)}
}

func (h *teeHandler) WithGroup(name string) slog.Handler {
	return &teeHandler{main: h.main.WithGroup(name), errors: h.errors.WithGroup(name)}
}
