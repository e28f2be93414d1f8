package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/user"
	"strings"
	"time"

	"github.com/confsync/confsync/internal/config"
	"github.com/confsync/confsync/pkg/catalog"
	"github.com/confsync/confsync/pkg/log"
	"github.com/confsync/confsync/pkg/notify"
	"github.com/confsync/confsync/pkg/store"
	"github.com/confsync/confsync/pkg/types"
	"github.com/confsync/confsync/pkg/version"
)

const displayTimeFormat = "2006/01/02 15:04:05"

// runWithManager loads the configuration, opens the local store, and
// hands a ready catalog manager to fn. The store is closed when fn
// returns.
func runWithManager(fn func(ctx context.Context, m *catalog.Manager, cfg *config.Config) error) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := newLogger(cfg)

	s := store.NewBadgerStore(logger)
	if err := s.Open(cfg.DataDir); err != nil {
		return err
	}
	defer s.Close()

	timeout := time.Duration(cfg.Client.TimeoutSeconds) * time.Second
	sink := notify.NewWebhookSink(cfg.WebHooks, logger,
		notify.WithTemplates(cfg.WebHookTextTemplates),
		notify.WithUserAgent("ConfSync "+version.Version),
		notify.WithHTTPClient(webhookClient(timeout)),
	)

	manager := catalog.NewManager(s, logger, catalog.WithSink(sink))
	return fn(context.Background(), manager, cfg)
}

func webhookClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = notify.DefaultWebhookTimeout
	}
	return &http.Client{Timeout: timeout}
}

func newLogger(cfg *config.Config) log.Logger {
	level := log.ParseLevel(cfg.Log.Level)
	if verbose {
		level = log.DebugLevel
	}
	var formatter log.Formatter = &log.TextFormatter{}
	if cfg.Log.Format == "json" {
		formatter = &log.JSONFormatter{}
	}
	return log.NewLogger(log.WithLevel(level), log.WithFormatter(formatter))
}

// currentUsername resolves the author for a mutation: the --username
// flag, then the config file, then the OS user.
func currentUsername(cfg *config.Config) string {
	if username != "" {
		return username
	}
	if cfg.Username != "" {
		return cfg.Username
	}
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return ""
}

// parseEnvCriteria converts repeated KEY=REGEX flags into an env
// criteria map.
func parseEnvCriteria(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	env := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid env criterion %q, expected KEY=REGEX", pair)
		}
		env[key] = value
	}
	return env, nil
}

// loadPayload reads revision content from a local file. JSON objects
// become structured payloads; anything else is treated as raw text.
func loadPayload(path string) (types.Payload, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return types.Payload{}, fmt.Errorf("failed to read local file %s: %w", path, err)
	}
	return parsePayload(raw), nil
}

func parsePayload(raw []byte) types.Payload {
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err == nil && data != nil {
		return types.DataPayload(data)
	}
	return types.RawPayload(string(raw))
}

// exitErr prints the error the way the CLI reports all failures and
// exits non-zero.
func exitErr(err error) {
	fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
	os.Exit(1)
}
