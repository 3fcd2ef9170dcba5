package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/bnema/chat-sessiond/internal/adapters/dispatch"
	"github.com/bnema/chat-sessiond/internal/application"
	"github.com/spf13/cobra"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the session supervisor on stdin/stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := wireApp(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runServe(ctx, app, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

// runServe returns once the supervisor has stopped: after a Shutdown
// command, host EOF, or ctx cancellation.
func runServe(ctx context.Context, app *app, in io.Reader, out io.Writer) error {
	channel := dispatch.NewChannel(in, out, dispatch.Options{
		Logger:       app.log,
		MaxLineBytes: app.settings.MaxLineBytes,
	})
	supervisor := application.NewSupervisor(app.engine, app.opener, channel, app.clock, application.SupervisorOptions{
		Logger:         app.log,
		ReconnectDelay: app.settings.ReconnectDelay,
		QueueSize:      app.settings.QueueSize,
	})

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	runErr := make(chan error, 1)
	go func() { runErr <- supervisor.Run(runCtx) }()

	// The host must see Ready before anything the channel reports.
	select {
	case <-supervisor.Ready():
	case err := <-runErr:
		return fmt.Errorf("run supervisor: %w", err)
	}

	serveErr := channel.Serve(runCtx, supervisor)
	if serveErr == nil {
		supervisor.Shutdown()
	} else {
		cancel()
	}
	<-supervisor.Done()

	if err := <-runErr; err != nil {
		return fmt.Errorf("run supervisor: %w", err)
	}
	for _, item := range channel.Pending() {
		app.log.Warn().
			Str("command_id", item.CommandID).
			Str("type", string(item.Kind)).
			Msg("command left unanswered")
	}

	if serveErr != nil && !errors.Is(serveErr, context.Canceled) {
		return fmt.Errorf("serve: %w", serveErr)
	}
	return nil
}
