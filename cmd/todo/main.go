package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/ytakahashi/todo-web/internal/client"
	"github.com/ytakahashi/todo-web/internal/ui"
	"github.com/ytakahashi/todo-web/internal/viewmodel"
)

func main() {
	var (
		server  string
		logFile string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:          "todo",
		Short:        "Terminal client for the todo server",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logrus.New()
			log.SetOutput(io.Discard)
			if logFile != "" {
				f, err := os.OpenFile(logFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
				if err != nil {
					return fmt.Errorf("open log file: %w", err)
				}
				defer f.Close()
				log.SetOutput(f)
			}

			c, err := client.New(server, client.WithHTTPClient(&http.Client{Timeout: timeout}))
			if err != nil {
				return err
			}
			return ui.Run(viewmodel.NewController(c, log))
		},
	}

	defaultServer := os.Getenv("TODO_SERVER")
	if defaultServer == "" {
		defaultServer = "http://localhost:8080"
	}
	cmd.Flags().StringVarP(&server, "server", "s", defaultServer, "todo server base URL")
	cmd.Flags().StringVar(&logFile, "log-file", "", "append client logs to this file")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "per-request timeout, 0 for none")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
