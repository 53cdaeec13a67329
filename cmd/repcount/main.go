package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/ayusman/repcount/internal/app"
	"github.com/ayusman/repcount/internal/config"
	"github.com/ayusman/repcount/internal/logging"
	"github.com/ayusman/repcount/internal/tray"
)

func main() {
	fmt.Println("RepCount - exercise repetition tracker")

	env := flag.String("env", "development", "config section to use (development or production)")
	configPath := flag.String("config", "config.toml", "path to the TOML config file")
	port := flag.Int("port", 0, "listen port (overrides config)")
	logsPath := flag.String("logs-path", "", "server logs file path (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*env, *configPath)
	if errors.Is(err, fs.ErrNotExist) {
		log.Warnf("config file %s not found, using defaults", *configPath)
		cfg, err = config.Default(), nil
	}
	if err != nil {
		log.Fatal(err)
	}
	if *port > 0 {
		cfg.Port = *port
	}
	if *logsPath != "" {
		cfg.LogsPath = *logsPath
	}

	logCloser := logging.Setup(logging.LoggerSetupParams{
		LogFileName:   cfg.LogsPath,
		LogToStdout:   cfg.LogToStdout,
		LogLevel:      cfg.LogLevel,
		LogFormatJSON: cfg.LogFormatJSON,
	})
	if logCloser != nil {
		defer logCloser.Close()
	}

	a, err := app.New(cfg)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !cfg.TrayEnabled {
		if err := a.Run(ctx); err != nil {
			log.Fatal(err)
		}
		return
	}

	// The tray owns the main goroutine on desktop platforms.
	status := "Model loaded"
	if a.Fallback() {
		status = "No model: pose only"
	}
	t := tray.New(status)
	t.OnReset(func() {
		if err := a.ResetDefault(); err != nil {
			log.WithError(err).Error("reset counters")
		}
	})
	t.OnOpen(func() { openBrowser("http://" + cfg.Addr()) })
	t.OnQuit(stop)
	a.OnActivity(func(act app.Activity) { t.SetLastRep(act.Exercise, act.Reps) })

	done := make(chan error, 1)
	go func() {
		done <- a.Run(ctx)
		t.Quit()
	}()
	t.Run()

	stop()
	if err := <-done; err != nil {
		log.Fatal(err)
	}
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.WithError(err).Warn("open browser")
	}
}
