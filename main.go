package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"sync"
	"syscall"
)

type command struct {
	usage string
	run   func(a *app, ctx context.Context, args []string) error
}

var commands = map[string]command{
	"send":        {"send a message to a queue", (*app).runSend},
	"receive":     {"receive one batch of messages without deleting them", (*app).runReceive},
	"delete":      {"delete one message by receipt handle", (*app).runDelete},
	"drain":       {"receive and delete messages until the queue is empty", (*app).runDrain},
	"put-item":    {"store an item in a DynamoDB table", (*app).runPutItem},
	"get-item":    {"print an item from a DynamoDB table", (*app).runGetItem},
	"delete-item": {"delete an item from a DynamoDB table", (*app).runDeleteItem},
	"fetch":       {"download a web page, optionally as plain text", (*app).runFetch},
	"strip":       {"convert markup read from stdin to plain text", (*app).runStrip},
}

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(slog.LevelInfo),
	})))

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}
	cmd, ok := commands[os.Args[1]]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		printUsage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{lock: &sync.Mutex{}}
	if err := cmd.run(a, ctx, os.Args[2:]); err != nil {
		slog.Error("Command failed", "command", os.Args[1], "error", err)
		stop()
		os.Exit(1)
	}
}

func printUsage() {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString("usage: awsutils <command> [flags]\n\ncommands:\n")
	for _, name := range names {
		fmt.Fprintf(&sb, "  %-12s %s\n", name, commands[name].usage)
	}
	fmt.Fprint(os.Stderr, sb.String())
}
