package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"newsrag/internal/api"
	"newsrag/internal/config"
	"newsrag/internal/logger"
	"newsrag/internal/tui"
)

const usage = `Usage: newsrag [--config=config.yaml] <command> [args]

Commands:
  serve              run the HTTP API
  scrape <url>       ingest one article and print the report
  cron               ingest every configured source and print the batch report
  ask [-q question]  open the ask console, or answer one question
`

func main() {
	_ = godotenv.Load()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ./config.yaml or ~/.config/newsrag/config.yaml if not provided)")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, cfgPath, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level)
	log.Debug("config loaded", "path", cfgPath, "config", cfg.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cfg, log)
	if err != nil {
		log.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer a.Close(log)

	if err := run(ctx, a, cfg, log, args[0], args[1:]); err != nil {
		log.Error("command failed", "command", args[0], "error", err)
		a.Close(log)
		os.Exit(1)
	}
}

func run(ctx context.Context, a *app, cfg *config.AppConfig, log *logger.Logger, cmd string, args []string) error {
	switch cmd {
	case "serve":
		return serve(ctx, a, cfg, log)
	case "scrape":
		if len(args) != 1 {
			return errors.New("scrape takes exactly one url")
		}
		rep, err := a.manager.IngestURL(ctx, args[0])
		printJSON(rep)
		return err
	case "cron":
		printJSON(a.manager.RunBatch(ctx))
		return nil
	case "ask":
		fs := flag.NewFlagSet("ask", flag.ContinueOnError)
		q := fs.String("q", "", "answer a single question and exit")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *q != "" {
			ans, err := a.answerer.Ask(ctx, *q)
			if err != nil {
				return err
			}
			printJSON(ans.View())
			return nil
		}
		n, err := a.store.Count(ctx)
		if err != nil {
			return err
		}
		header := fmt.Sprintf("%d article(s) in %s/%s", n, cfg.VectorStore.Type, cfg.VectorStore.Collection)
		_, err = tea.NewProgram(tui.New(a.answerer, header, secs(cfg.LLM.TimeoutSecs)+10*time.Second), tea.WithContext(ctx)).Run()
		return err
	default:
		return fmt.Errorf("unknown command %q\n\n%s", cmd, usage)
	}
}

func serve(ctx context.Context, a *app, cfg *config.AppConfig, log *logger.Logger) error {
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.NewRouter(a.manager, a.answerer, cfg.Server.CORSOrigins, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", cfg.Server.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
