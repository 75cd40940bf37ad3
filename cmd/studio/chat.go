package main

import (
	"context"
	"flag"
	"fmt"
	"strings"
)

// studio chat
func cmdChat(args []string) error {
	var cf commonFlags
	var message string
	fs := flag.NewFlagSet("chat", flag.ContinueOnError)
	addCommonFlags(fs, &cf)
	fs.StringVar(&message, "message", "", "Message to send (defaults to remaining args)")
	ok, err := parseFlags(fs, args)
	if !ok {
		return err
	}
	if message == "" {
		message = strings.Join(fs.Args(), " ")
	}

	ctx := context.Background()
	a, err := setup(ctx, &cf, needs{generation: true, store: true})
	if err != nil {
		return err
	}
	defer a.close()

	reply, err := a.wb.Chat(ctx, message)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, reply)
	return nil
}

// studio agent
func cmdAgent(args []string) error {
	var cf commonFlags
	var message string
	fs := flag.NewFlagSet("agent", flag.ContinueOnError)
	addCommonFlags(fs, &cf)
	fs.StringVar(&message, "message", "", "Message to send (defaults to remaining args)")
	ok, err := parseFlags(fs, args)
	if !ok {
		return err
	}
	if message == "" {
		message = strings.Join(fs.Args(), " ")
	}

	ctx := context.Background()
	a, err := setup(ctx, &cf, needs{generation: true, store: true})
	if err != nil {
		return err
	}
	defer a.close()

	res, err := a.wb.Agent(ctx, message)
	if err != nil {
		return err
	}
	for _, m := range res.Messages {
		fmt.Fprintln(stdout, m.Content)
	}
	if res.Skipped > 0 {
		a.logger.Warn("some tool calls were skipped", "skipped", res.Skipped)
	}
	return nil
}
