package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"studio/internal/ai"
)

// studio nearby
func cmdNearby(args []string) error {
	var cf commonFlags
	var message string
	var lat, lng stringFlag
	fs := flag.NewFlagSet("nearby", flag.ContinueOnError)
	addCommonFlags(fs, &cf)
	fs.StringVar(&message, "message", "", "Question to ask (defaults to remaining args)")
	fs.Var(&lat, "lat", "Latitude to bias results towards")
	fs.Var(&lng, "lng", "Longitude to bias results towards")
	ok, err := parseFlags(fs, args)
	if !ok {
		return err
	}
	if message == "" {
		message = strings.Join(fs.Args(), " ")
	}
	location, err := parseLocation(lat, lng)
	if err != nil {
		return err
	}

	ctx := context.Background()
	a, err := setup(ctx, &cf, needs{generation: true, store: true})
	if err != nil {
		return err
	}
	defer a.close()

	reply, err := a.wb.Nearby(ctx, message, location)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, reply.Text)
	if len(reply.Citations) > 0 {
		fmt.Fprintln(stdout, "\nSources:")
		for _, c := range reply.Citations {
			title := c.Title
			if title == "" {
				title = c.URI
			}
			fmt.Fprintf(stdout, "- %s %s\n", title, c.URI)
		}
	}
	return nil
}

func parseLocation(lat, lng stringFlag) (*ai.Location, error) {
	if !lat.set && !lng.set {
		return nil, nil
	}
	if !lat.set || !lng.set {
		return nil, errors.New("--lat and --lng must be given together")
	}
	la, err := strconv.ParseFloat(lat.v, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid --lat: %w", err)
	}
	lo, err := strconv.ParseFloat(lng.v, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid --lng: %w", err)
	}
	return &ai.Location{Latitude: la, Longitude: lo}, nil
}
