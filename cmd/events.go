package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/curaious/dashboard/internal/config"
	"github.com/curaious/dashboard/internal/notify"
	"github.com/curaious/dashboard/internal/pubsub"
	"github.com/curaious/dashboard/internal/services"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect real-time notifications",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Print(cmd.Help())
	},
}

var eventsTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Print every notification as it is published",
	Run: func(cmd *cobra.Command, args []string) {
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)

		if err := tailEvents(config.ReadConfig(), os.Stdout, c); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

// tailEvents writes each envelope to out as a JSON line until stop fires.
// Every resource it opens is released before it returns.
func tailEvents(conf *config.Config, out io.Writer, stop <-chan os.Signal) error {
	var ps *pubsub.PubSub
	switch conf.NOTIFIER {
	case "redis":
		client := services.NewRedisClient(conf)
		defer client.Close()
		ps = pubsub.NewRedisPubSub(client)
	case "postgres":
		ps = pubsub.NewPostgresPubSub(conf)
	default:
		return fmt.Errorf("NOTIFIER=%q publishes nothing to tail", conf.NOTIFIER)
	}

	ps.Subscribe(func(env notify.Envelope) {
		line, err := sonic.MarshalString(env)
		if err != nil {
			fmt.Fprintln(os.Stderr, "unable to encode notification:", err)
			return
		}
		fmt.Fprintln(out, line)
	})

	if err := ps.Start(); err != nil {
		return fmt.Errorf("unable to start listener: %w", err)
	}

	<-stop
	ps.Stop()
	return nil
}

func init() {
	eventsCmd.AddCommand(eventsTailCmd)
	rootCmd.AddCommand(eventsCmd)
}
