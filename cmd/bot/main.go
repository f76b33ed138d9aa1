package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
	"github.com/veloras/starboard/internal/bot"
	"github.com/veloras/starboard/internal/setup"
)

// BotLogDir specifies where bot log files are stored.
const BotLogDir = "logs/bot_logs"

func main() {
	if err := run(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	app := &cli.Command{
		Name:  "starboard",
		Usage: "Start the starboard bot",
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Connect to the gateway and serve events",
				Action: func(ctx context.Context, _ *cli.Command) error {
					return serve(ctx)
				},
			},
		},
		DefaultCommand: "serve",
	}

	return app.Run(context.Background(), os.Args)
}

func serve(ctx context.Context) error {
	app, err := setup.InitializeApp(ctx, BotLogDir)
	if err != nil {
		return err
	}
	defer app.Cleanup()

	discordBot, err := bot.New(app)
	if err != nil {
		return err
	}

	if err := discordBot.Start(ctx); err != nil {
		return err
	}

	log.Println("Bot has been started. Waiting for interrupt signal to gracefully shutdown...")

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	discordBot.Close(context.Background())

	return nil
}
