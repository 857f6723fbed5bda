package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/viant/authhttp"
)

func Run(args []string) error {
	return run(context.Background(), args, os.Stdout, os.Stderr)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	options := &Options{}
	_, err := flags.ParseArgs(options, args)
	if err != nil {
		return err
	}
	clientOptions, err := authhttp.LoadOptions(options.ConfigURL)
	if err != nil {
		return err
	}
	options.apply(clientOptions)
	logger := newLogger(clientOptions.LogLevel, options.Verbose, stderr)

	client, err := authhttp.New(ctx, clientOptions,
		authhttp.WithLogger(logger),
		authhttp.WithSessionExpired(func(err error) {
			logger.Error("session expired, login again", slog.String("err", err.Error()))
		}))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := client.Close(); cerr != nil {
			logger.Warn("client_close_failed", slog.String("err", cerr.Error()))
		}
	}()

	if options.Email != "" {
		if _, err = client.Login(ctx, options.Email, options.Password); err != nil {
			return fmt.Errorf("login failed: %w", err)
		}
		logger.Info("logged in", slog.String("email", options.Email))
	}

	if path := options.Positional.Path; path != "" {
		request := &authhttp.Request{Method: options.Method, Path: path}
		if options.Data != "" {
			request.Body = []byte(options.Data)
			request.Header = map[string][]string{"Content-Type": {"application/json"}}
		}
		resp, err := client.Send(ctx, request)
		if resp != nil {
			_, _ = fmt.Fprintln(stdout, string(resp.Body))
		}
		if err != nil {
			return err
		}
	}

	if options.Logout {
		return client.Logout(ctx)
	}
	return nil
}

func (o *Options) apply(clientOptions *authhttp.ClientOptions) {
	if o.URL != "" {
		clientOptions.BaseURL = o.URL
	}
	if o.Refresh != "" {
		clientOptions.RefreshPath = o.Refresh
	}
	if o.Store != "" {
		clientOptions.Store.Type = o.Store
	}
	if o.StoreURL != "" {
		clientOptions.Store.URL = o.StoreURL
	}
	if o.RedisAddr != "" {
		clientOptions.Store.RedisAddr = o.RedisAddr
	}
}

func newLogger(level string, verbose bool, w io.Writer) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	if verbose {
		lvl = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}
