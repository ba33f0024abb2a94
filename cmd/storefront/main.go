package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/fjod/go_cart/storefront-client/internal/api"
	"github.com/fjod/go_cart/storefront-client/internal/config"
	"github.com/fjod/go_cart/storefront-client/internal/logger"
	"github.com/fjod/go_cart/storefront-client/internal/metrics"
	"github.com/fjod/go_cart/storefront-client/internal/session"
)

const usage = `usage: storefront <command> [flags]

commands:
  provinces  list provinces, or -province/-district to walk the tree
  cart       show the cart
  add        add a product to the cart
  set-qty    change an item's quantity (0 removes it)
  remove     remove an item from the cart
  addresses  list, add or delete delivery addresses
  checkout   place an order for the current cart
  proof      upload payment proof for an order
  orders     list orders, or show one by -id or -track
  image      download a protected image
`

type app struct {
	cfg     *config.Config
	log     *slog.Logger
	client  *api.Client
	metrics *metrics.Metrics
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
	os.Exit(start(os.Args[1], os.Args[2:]))
}

func start(command string, args []string) int {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	lg := logger.New(os.Stderr, cfg.LogLevel)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	// SIGINT/SIGTERM abandon whatever request is in flight.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, closeFn, err := setup(ctx, cfg, lg)
	if err != nil {
		log.Fatalf("failed to start: %v", err)
	}
	defer closeFn()

	return a.run(ctx, command, args)
}

func setup(ctx context.Context, cfg *config.Config, lg *slog.Logger) (*app, func(), error) {
	var (
		store   session.TokenStore = session.NewMemoryStore()
		closeFn                    = func() {}
	)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, nil, fmt.Errorf("connect to redis: %w", err)
		}
		store = session.NewRedisStore(rdb, "")
		closeFn = func() { _ = rdb.Close() }
	}

	sess, err := session.New(ctx, store, lg)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	if !sess.Authenticated() && cfg.Token != "" {
		if err := sess.Set(ctx, session.Tokens{AccessToken: cfg.Token}); err != nil {
			closeFn()
			return nil, nil, err
		}
	}
	sess.OnExpired(func() {
		lg.Info("credential rejected by the server, log in again and update STOREFRONT_TOKEN")
	})

	m := metrics.New(prometheus.DefaultRegisterer)
	client, err := api.New(api.Options{
		BaseURL:         cfg.BaseURL,
		Timeout:         cfg.RequestTimeout,
		Session:         sess,
		Metrics:         m,
		Logger:          lg,
		BreakerFailures: cfg.BreakerFailures,
		BreakerCooldown: cfg.BreakerCooldown,
	})
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return &app{cfg: cfg, log: lg, client: client, metrics: m}, closeFn, nil
}

func (a *app) run(ctx context.Context, command string, args []string) int {
	commands := map[string]func(context.Context, []string) error{
		"provinces": a.provinces,
		"cart":      a.cart,
		"add":       a.add,
		"set-qty":   a.setQuantity,
		"remove":    a.remove,
		"addresses": a.addresses,
		"checkout":  a.checkout,
		"proof":     a.proof,
		"orders":    a.orders,
		"image":     a.image,
	}
	cmd, ok := commands[command]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", command, usage)
		return 1
	}

	err := cmd(ctx, args)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, api.ErrAuthExpired), errors.Is(err, api.ErrUnauthenticated):
		fmt.Fprintf(os.Stderr, "%v: please log in again\n", err)
		return 2
	}
	fmt.Fprintln(os.Stderr, errorText(err))
	return 1
}

// errorText prefers the server's message, like the shop front end does.
func errorText(err error) string {
	var vErr *api.ValidationError
	if errors.As(err, &vErr) && vErr.Message != "" {
		return vErr.Message
	}
	var netErr *api.NetworkError
	if errors.As(err, &netErr) {
		return "the shop could not be reached, please try again"
	}
	return err.Error()
}
