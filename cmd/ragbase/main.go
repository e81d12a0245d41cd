// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/poiesic/ragbase"
	"github.com/poiesic/ragbase/chain"
	"github.com/poiesic/ragbase/config"
	"github.com/poiesic/ragbase/ingestion"
	"github.com/urfave/cli/v2"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "ragbase",
		Usage: "Answer questions about a collection of documents",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML configuration file",
				EnvVars: []string{"RAGBASE_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Path to a dotenv file; ignored if missing",
				Value: ".env",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Index documents; defaults to the documents directory",
				ArgsUsage: "[path...]",
				Action:    ingestCommand,
			},
			{
				Name:   "watch",
				Usage:  "Keep the documents directory indexed until interrupted",
				Action: watchCommand,
			},
			{
				Name:      "ask",
				Usage:     "Answer a single question",
				ArgsUsage: "<question>",
				Action:    askCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "session",
						Aliases: []string{"s"},
						Usage:   "Conversation session id; a new one is generated if empty",
					},
					&cli.BoolFlag{
						Name:  "no-stream",
						Usage: "Print the answer once it is complete",
					},
					&cli.BoolFlag{
						Name:  "sources",
						Usage: "List the source documents after the answer",
					},
				},
			},
			{
				Name:   "chat",
				Usage:  "Start an interactive conversation",
				Action: chatCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "session",
						Aliases: []string{"s"},
						Usage:   "Resume a conversation session",
					},
				},
			},
			{
				Name:   "reindex",
				Usage:  "Re-embed every indexed chunk with the configured embedding model",
				Action: reindexCommand,
			},
		},
	}
}

// openEngine loads the configuration and opens the engine. Replaced in tests.
var openEngine = func(c *cli.Context) (*ragbase.Engine, error) {
	cfg, err := config.Load(c.String("config"), c.String("env-file"))
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.Debug && !c.IsSet("log-level") {
		setLogLevel(slog.LevelDebug)
	}
	return ragbase.Open(c.Context, cfg, ragbase.WithLogger(slog.Default()))
}

// withEngine opens the engine, runs fn and closes the engine.
func withEngine(c *cli.Context, fn func(e *ragbase.Engine) error) (err error) {
	e, err := openEngine(c)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := e.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}()
	return fn(e)
}

func ingestCommand(c *cli.Context) error {
	return withEngine(c, func(e *ragbase.Engine) error {
		var (
			outcome *ingestion.Outcome
			err     error
		)
		if c.Args().Present() {
			outcome, err = e.Ingest(c.Context, c.Args().Slice())
		} else {
			fmt.Fprintf(c.App.ErrWriter, "Ingesting %s\n", e.Config().DocumentsDir)
			outcome, err = e.IngestDocuments(c.Context)
		}
		if outcome != nil {
			fmt.Fprintln(c.App.Writer, outcome.Summary())
		}
		return err
	})
}

func watchCommand(c *cli.Context) error {
	return withEngine(c, func(e *ragbase.Engine) error {
		w, err := e.NewWatcher(ingestion.WithBatchHandler(func(outcome *ingestion.Outcome, err error) {
			if outcome != nil {
				fmt.Fprintln(c.App.Writer, outcome.Summary())
			}
			if err != nil {
				fmt.Fprintf(c.App.ErrWriter, "ingest failed: %v\n", err)
			}
		}))
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.ErrWriter, "Watching %s (Ctrl-C to stop)\n", e.Config().DocumentsDir)
		err = w.Run(c.Context)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
}

func askCommand(c *cli.Context) error {
	question := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if question == "" {
		return errors.New("a question is required")
	}
	session := c.String("session")
	if session == "" {
		session = uuid.NewString()
	}

	return withEngine(c, func(e *ragbase.Engine) error {
		events := e.Ask(c.Context, question, session)
		out := c.App.Writer

		var sources []string
		if c.Bool("no-stream") {
			answer, err := chain.Collect(events)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, answer.Text)
			sources = sourcePaths(answer.Sources)
		} else {
			var err error
			if sources, err = stream(events, out); err != nil {
				return err
			}
		}

		if c.Bool("sources") {
			for _, source := range sources {
				fmt.Fprintf(out, "  - %s\n", source)
			}
		}
		return nil
	})
}

func chatCommand(c *cli.Context) error {
	session := c.String("session")
	if session == "" {
		session = uuid.NewString()
	}
	return withEngine(c, func(e *ragbase.Engine) error {
		return chat(c.Context, e, session, c.App.Reader, c.App.Writer)
	})
}

// chat reads questions line by line until EOF, "exit" or "quit".
// A failed answer is reported and the conversation continues.
func chat(ctx context.Context, e *ragbase.Engine, session string, in io.Reader, out io.Writer) error {
	fmt.Fprintf(out, "Session %s. Type \"exit\" to quit.\n", session)
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		question := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(question) {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		if _, err := stream(e.Ask(ctx, question, session), out); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintf(out, "error: %v\n", err)
		}
	}
}

// stream prints answer tokens as they arrive and returns the source paths
// of the retrieved context.
func stream(events iter.Seq2[chain.Event, error], out io.Writer) ([]string, error) {
	var sources []string
	for event, err := range events {
		if err != nil {
			fmt.Fprintln(out)
			return sources, err
		}
		switch event.Kind {
		case chain.EventRetrievedContext:
			sources = sourcePaths(event.Chunks)
		case chain.EventAnswerToken:
			fmt.Fprint(out, event.Token)
		}
	}
	fmt.Fprintln(out)
	return sources, nil
}

func reindexCommand(c *cli.Context) error {
	return withEngine(c, func(e *ragbase.Engine) error {
		_, err := e.Reindex(c.Context, c.App.ErrWriter)
		return err
	})
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	setLogLevel(level)
	return nil
}

var logLevel = new(slog.LevelVar)

func setLogLevel(level slog.Level) {
	logLevel.Set(level)
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})))
}
