// contest-cli is the terminal companion for AlgoBucks contests: join a
// contest, work the problems with the countdown in view, and follow
// the standings without leaving the shell.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/algobucks/platform/internal/apiclient"
	"github.com/algobucks/platform/internal/logger"
	"github.com/algobucks/platform/internal/session"
	"github.com/algobucks/platform/internal/session/anchorstore"
)

func main() {
	_ = godotenv.Load()

	apiURL := flag.String("api", envOr("ALGOBUCKS_API_URL", "http://localhost:8080"), "platform API base URL")
	token := flag.String("token", os.Getenv("ALGOBUCKS_TOKEN"), "contestant bearer token")
	language := flag.String("language", envOr("ALGOBUCKS_LANGUAGE", "javascript"), "editor language")
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) != 2 {
		usage()
		os.Exit(1)
	}
	command, contest := args[0], args[1]

	// Evaluation calls wait on the judge, so the client deadline sits
	// well above the server's judge timeout.
	client := apiclient.New(apiclient.Config{
		BaseURL: *apiURL,
		Token:   *token,
		Timeout: 90 * time.Second,
	})

	switch command {
	case "join", "resume":
		if *token == "" {
			fmt.Fprintln(os.Stderr, "A token is required: set ALGOBUCKS_TOKEN or pass -token.")
			os.Exit(1)
		}
		if err := runContest(client, contest, *language); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "standings":
		if err := printStandings(client, contest); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	default:
		usage()
		os.Exit(1)
	}
}

// runContest drives the full-screen session UI. join and resume share
// this path: the server makes joining idempotent, so resuming is just
// joining again and landing on the saved phase and cursor.
func runContest(client *apiclient.Client, contest, language string) error {
	anchors, err := anchorstore.Default()
	if err != nil {
		return err
	}

	ctrl, err := session.New(session.Config{
		API:      client,
		Anchors:  anchors,
		Log:      logger.File(os.Getenv("ALGOBUCKS_CLI_LOG")),
		Language: language,
	})
	if err != nil {
		return err
	}

	startCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	err = ctrl.Start(startCtx, contest)
	cancel()
	if err != nil {
		return err
	}
	defer ctrl.Shutdown()

	p := tea.NewProgram(initialModel(ctrl), tea.WithAltScreen())

	go func() {
		for ev := range ctrl.Events() {
			p.Send(controllerEventMsg{event: ev})
		}
	}()

	_, err = p.Run()
	return err
}

// printStandings prints the live leaderboard once and exits. Works
// without a token since standings are public.
func printStandings(client *apiclient.Client, contest string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	detail, err := client.Contests.Get(ctx, contest)
	if err != nil {
		return err
	}
	lb, err := client.Contests.Leaderboard(ctx, detail.Contest.ID)
	if err != nil {
		return err
	}

	fmt.Println(renderStandings(detail.Contest.Title, lb))
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: contest-cli [flags] <command> <contest>

contest is a contest ID or slug.

Commands:
  join       enter a contest (you must be registered)
  resume     pick a session back up after a disconnect
  standings  print the current leaderboard and exit

Flags:
  -api       platform API base URL (env ALGOBUCKS_API_URL)
  -token     contestant bearer token (env ALGOBUCKS_TOKEN)
  -language  editor language (env ALGOBUCKS_LANGUAGE, default javascript)`)
}
