package cli

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gosuri/uilive"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/webbmaffian/go-chan/channel"
)

func newInspectCommand(logger func() *zap.Logger) *cobra.Command {
	var (
		interval time.Duration
		once     bool
	)

	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Watch the header of a mapped channel file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := channel.OpenInspector(args[0])

			if err != nil {
				return err
			}

			defer func() { in.Close() }()

			if once {
				printInspection(cmd.OutOrStdout(), in)
				return nil
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			log := logger().With(zap.String("path", args[0]))
			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			writer := uilive.New()
			writer.Out = cmd.OutOrStdout()

			for {
				// The owner replaces the file whenever an unbounded channel grows.
				if in.Stale() {
					next, err := channel.OpenInspector(args[0])

					if err != nil {
						log.Debug("reopen failed", zap.Error(err))
					} else {
						in.Close()
						in = next
						log.Debug("reopened grown channel file")
					}
				}

				printInspection(writer, in)
				_ = writer.Flush()

				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
				}
			}
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", time.Second, "Refresh interval")
	cmd.Flags().BoolVar(&once, "once", false, "Print the header once and exit")
	return cmd
}

func printInspection(w io.Writer, in *channel.Inspector) {
	s := in.Stats()
	recv, send := in.Head()

	fmt.Fprintf(w, "Mode: %s\n", s.Mode)
	fmt.Fprintf(w, "State: %s\n", s.State)
	fmt.Fprintf(w, "Length: %d\n", s.Len)
	fmt.Fprintf(w, "Capacity: %d\n", s.Cap)
	fmt.Fprintf(w, "Item size: %d\n", s.ItemSize)
	fmt.Fprintf(w, "Receive index: %d\n", recv)
	fmt.Fprintf(w, "Send index: %d\n", send)
	fmt.Fprintf(w, "Sent: %d, received: %d, grows: %d, rejected: %d\n", s.ItemsSent, s.ItemsReceived, s.Grows, s.Rejected)
}
