package authhttp

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/viant/authhttp/client/auth/store"
	authtransport "github.com/viant/authhttp/client/auth/transport"
	"golang.org/x/oauth2"
)

var (
	// ErrRefreshFailed matches errors of requests whose token refresh failed
	ErrRefreshFailed = authtransport.ErrRefreshFailed
	// ErrRetryExhausted matches a 401 that survived the single retry
	ErrRetryExhausted = authtransport.ErrRetryExhausted
)

// Client sends API requests authenticated with the stored bearer token
type Client struct {
	options    *ClientOptions
	store      store.Store
	refresher  authtransport.Refresher
	base       http.RoundTripper
	transport  *authtransport.RoundTripper
	httpClient *http.Client
	logger     *slog.Logger
	closers    []func() error

	mux       sync.RWMutex
	listeners []func(err error)
}

type Option func(c *Client)

// WithStore sets token store, overriding ClientOptions.Store
func WithStore(store store.Store) Option {
	return func(c *Client) {
		c.store = store
	}
}

// WithTransport sets the underlying transport
func WithTransport(transport http.RoundTripper) Option {
	return func(c *Client) {
		c.base = transport
	}
}

// WithRefresher sets a custom refresher instead of POST <baseURL><refreshPath>
func WithRefresher(refresher authtransport.Refresher) Option {
	return func(c *Client) {
		c.refresher = refresher
	}
}

// WithLogger sets logger
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithSessionExpired subscribes fn to session expiry
func WithSessionExpired(fn func(err error)) Option {
	return func(c *Client) {
		c.listeners = append(c.listeners, fn)
	}
}

// New creates a client with token store and transport configured via ClientOptions.
func New(ctx context.Context, options *ClientOptions, opts ...Option) (*Client, error) {
	if options == nil {
		options = &ClientOptions{}
	}
	options.Init()
	ret := &Client{options: options, base: http.DefaultTransport}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.logger == nil {
		ret.logger = slog.Default()
	}
	if ret.store == nil {
		var err error
		if ret.store, err = ret.newStore(ctx); err != nil {
			return nil, err
		}
	}

	transportOptions := []authtransport.Option{
		authtransport.WithStore(ret.store),
		authtransport.WithTransport(ret.base),
		authtransport.WithSessionExpired(ret.notifyExpired),
		authtransport.WithLogger(ret.logger),
	}
	if ret.refresher == nil {
		if config := options.OAuth2.config(); config != nil {
			// token endpoint calls bypass the authenticating transport
			ret.refresher = &authtransport.OAuth2Refresher{Config: config, Client: &http.Client{Transport: ret.base}}
		}
	}
	if ret.refresher != nil {
		transportOptions = append(transportOptions, authtransport.WithRefresher(ret.refresher))
	} else {
		transportOptions = append(transportOptions,
			authtransport.WithRefreshURL(options.BaseURL),
			authtransport.WithRefreshPath(options.RefreshPath))
	}
	if options.RefreshTimeout > 0 {
		transportOptions = append(transportOptions, authtransport.WithRefreshTimeout(options.RefreshTimeout))
	}
	rt, err := authtransport.New(transportOptions...)
	if err != nil {
		return nil, err
	}
	ret.transport = rt
	// Timeout covers time spent waiting for a refresh as well
	ret.httpClient = &http.Client{Transport: rt, Timeout: options.Timeout}
	return ret, nil
}

func (c *Client) newStore(ctx context.Context) (store.Store, error) {
	storeOptions := c.options.Store
	switch storeOptions.Type {
	case StoreMemory:
		return store.NewMemoryStore(), nil
	case StoreFile:
		if storeOptions.URL == "" {
			return nil, fmt.Errorf("URL is required for file store")
		}
		return store.NewFileStore(ctx, storeOptions.URL)
	case StoreRedis:
		client := redis.NewClient(&redis.Options{Addr: storeOptions.RedisAddr})
		c.closers = append(c.closers, client.Close)
		return store.NewRedisStore(client, storeOptions.RedisKey, store.WithTTL(storeOptions.RedisTTL)), nil
	default:
		return nil, fmt.Errorf("unsupported token store: %v", storeOptions.Type)
	}
}

// Store returns token store
func (c *Client) Store() store.Store {
	return c.store
}

// HTTPClient returns http client using the authenticating transport
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// TokenSource exposes the stored session to oauth2 consumers
func (c *Client) TokenSource(ctx context.Context) oauth2.TokenSource {
	return store.TokenSource(ctx, c.store)
}

// Transport returns the authenticating transport
func (c *Client) Transport() *authtransport.RoundTripper {
	return c.transport
}

// OnSessionExpired subscribes fn to irrecoverable refresh failures.
// Listeners run after the failed requests have been released.
func (c *Client) OnSessionExpired(fn func(err error)) {
	c.mux.Lock()
	defer c.mux.Unlock()
	c.listeners = append(c.listeners, fn)
}

func (c *Client) notifyExpired(err error) {
	c.mux.RLock()
	listeners := append([]func(error){}, c.listeners...)
	c.mux.RUnlock()
	c.logger.Info("session expired", slog.String("err", err.Error()))
	for _, listener := range listeners {
		c.notify(listener, err)
	}
}

func (c *Client) notify(listener func(err error), err error) {
	defer func() {
		if p := recover(); p != nil {
			c.logger.Error("session expired listener panicked", slog.Any("panic", p))
		}
	}()
	listener(err)
}

// Close releases store connections
func (c *Client) Close() error {
	var err error
	for _, closer := range c.closers {
		if cerr := closer(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
