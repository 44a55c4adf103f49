// Command hubctl is a terminal front end for the notification hub.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ashureev/notifyhub/internal/config"
	"github.com/ashureev/notifyhub/internal/feed"
	"github.com/ashureev/notifyhub/internal/gateway"
	"github.com/ashureev/notifyhub/internal/hub"
	"github.com/ashureev/notifyhub/internal/notify"
	"github.com/ashureev/notifyhub/internal/oauthlink"
	"github.com/ashureev/notifyhub/internal/session"
	"github.com/ashureev/notifyhub/internal/store"
)

const usage = `usage: hubctl <command> [flags]

commands:
  register -username <name> -email <email> -password <password>
  login    -email <email> -password <password>
  logout
  whoami
  feed
  connect
  open     <landing-url>
`

// dashboardURL stands in for the page a browser would load.
const dashboardURL = "hub://dashboard"

var errUsage = errors.New("invalid usage")

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Cannot read .env: %v\n", err)
	}

	cfg, err := config.LoadClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, os.Args[1:], os.Stdout, os.Stderr, logger); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
		}
		os.Exit(1)
	}
}

// app is the wired client stack.
type app struct {
	kv       *store.SQLiteKV
	sessions *session.Manager
	ctl      *hub.Controller
	view     *terminalView
}

func newApp(cfg *config.ClientConfig, out, status io.Writer, logger *slog.Logger) (*app, error) {
	kv, err := store.NewSQLiteKV(cfg.StatePath())
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}

	view := newTerminalView(out, status, cfg.NoColor)
	// The view prints each toast; the center records it in the log.
	center := notify.NewCenter(cfg.ToastTTL, logger)
	notifier := notify.Fanout{center, view}

	client := &http.Client{Timeout: 30 * time.Second}
	sessions := session.NewManager(cfg.BackendURL, client, session.NewPersistedStore(kv, logger), logger)
	gw := gateway.New(cfg.BackendURL, client, sessions, notifier, logger)
	feedSvc := feed.NewService(gw, notifier, feed.PassThrough{}, logger)
	link := oauthlink.NewController(gw, sessions, view, notifier, logger)

	return &app{
		kv:       kv,
		sessions: sessions,
		ctl:      hub.New(sessions, link, feedSvc, view, notifier, logger),
		view:     view,
	}, nil
}

func (a *app) Close() error {
	return a.kv.Close()
}

func run(ctx context.Context, cfg *config.ClientConfig, args []string, out, status io.Writer, logger *slog.Logger) error {
	if len(args) == 0 {
		return errUsage
	}

	a, err := newApp(cfg, out, status, logger)
	if err != nil {
		fmt.Fprintf(status, "Error: %v\n", err)
		return err
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Error("Failed to close session store", "error", closeErr)
		}
	}()

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "register":
		fs := flag.NewFlagSet("register", flag.ContinueOnError)
		fs.SetOutput(status)
		username := fs.String("username", "", "display name")
		email := fs.String("email", "", "account email")
		password := fs.String("password", "", "account password")
		if err := fs.Parse(rest); err != nil {
			return errUsage
		}
		return a.ctl.Register(ctx, *username, *email, *password)

	case "login":
		fs := flag.NewFlagSet("login", flag.ContinueOnError)
		fs.SetOutput(status)
		email := fs.String("email", "", "account email")
		password := fs.String("password", "", "account password")
		if err := fs.Parse(rest); err != nil {
			return errUsage
		}
		return a.ctl.Login(ctx, *email, *password)

	case "logout":
		a.sessions.Bootstrap(ctx)
		return a.ctl.Logout(ctx)

	case "whoami":
		s := a.sessions.Bootstrap(ctx)
		if s == nil {
			a.view.ShowLanding()
			return nil
		}
		a.view.ShowDashboard(s.User)
		return nil

	case "feed":
		return a.start(ctx, dashboardURL)

	case "connect":
		if s := a.sessions.Bootstrap(ctx); s != nil {
			a.view.ShowDashboard(s.User)
		}
		return a.ctl.ConnectMail(ctx)

	case "open":
		if len(rest) != 1 {
			return errUsage
		}
		return a.start(ctx, rest[0])

	default:
		return errUsage
	}
}

func (a *app) start(ctx context.Context, landing string) error {
	u, err := url.Parse(landing)
	if err != nil {
		return fmt.Errorf("parse landing url: %w", err)
	}
	return a.ctl.Start(ctx, u)
}
