package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sanctionco/thunder-contract-tests/fakeservice"

	"github.com/spf13/cobra"
)

var (
	fakePort      int
	fakeAdminPort int
)

// fakeServiceCmd serves the in-memory stand-in, which is useful for checking a test file
// before pointing it at a real deployment.
var fakeServiceCmd = &cobra.Command{
	Use:    "fake-service",
	Short:  "Serve an in-memory stand-in for the service",
	Hidden: true,
	Args:   cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		clientConfig, err := params.clientConfig()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		service := fakeservice.New(clientConfig.Application, clientConfig.Secret)
		servers := []*http.Server{
			{Addr: fmt.Sprintf(":%d", fakePort), Handler: service.Handler(), ReadHeaderTimeout: 5 * time.Second},
			{Addr: fmt.Sprintf(":%d", fakeAdminPort), Handler: service.AdminHandler(), ReadHeaderTimeout: 5 * time.Second},
		}
		errCh := make(chan error, len(servers))
		for _, s := range servers {
			s := s
			go func() {
				if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()
		}
		fmt.Printf("Fake service listening on %s (admin %s)\n",
			strings.TrimPrefix(servers[0].Addr, ":"), strings.TrimPrefix(servers[1].Addr, ":"))

		select {
		case <-ctx.Done():
		case err = <-errCh:
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for _, s := range servers {
			_ = s.Shutdown(shutdownCtx)
		}
		return err
	},
}

func init() {
	fakeServiceCmd.Flags().IntVar(&fakePort, "port", 8080, "application port")
	fakeServiceCmd.Flags().IntVar(&fakeAdminPort, "admin-port", 8081, "admin port")
}
