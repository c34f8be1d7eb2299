//go:build !js && !wasm
// +build !js,!wasm

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/himanishpuri/songtag/pkg/logger"
	"github.com/himanishpuri/songtag/pkg/songtag"
)

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Tag songs from the microphone",
	Long: `Waits at a prompt: press ENTER to listen and tag, or type q to quit.
Each match is printed and opened in the browser.`,
	Args: cobra.NoArgs,
	RunE: runListen,
}

func init() {
	listenCmd.Flags().Bool("once", false, "tag a single song without prompting")
	listenCmd.Flags().Bool("no-browser", false, "do not open matches in the browser")
	rootCmd.AddCommand(listenCmd)
}

func runListen(cmd *cobra.Command, args []string) error {
	svc, err := createService()
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	defer svc.Close()

	once, _ := cmd.Flags().GetBool("once")
	noBrowser, _ := cmd.Flags().GetBool("no-browser")
	out := cmd.OutOrStdout()

	if once {
		return listenOnce(cmd.Context(), out, svc, noBrowser)
	}

	fmt.Fprintln(out, "ENTER - tag, q - quit")
	in := bufio.NewScanner(cmd.InOrStdin())
	for in.Scan() {
		if strings.EqualFold(strings.TrimSpace(in.Text()), "q") {
			return nil
		}
		if err := listenOnce(cmd.Context(), out, svc, noBrowser); err != nil {
			return err
		}
	}
	return in.Err()
}

// listenOnce runs one session. Ctrl-C cancels the session, not the program.
func listenOnce(parent context.Context, out io.Writer, svc songtag.Service, noBrowser bool) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, sessionTimeout())
	defer cancel()

	fmt.Fprint(stderr, "Listening... ")
	res, err := svc.Listen(ctx)
	fmt.Fprint(stderr, "\r")
	if err != nil {
		return err
	}

	if err := printResult(out, res); err != nil {
		return err
	}
	if res.Matched() && !noBrowser {
		if err := openBrowser(res.Match.URL); err != nil {
			logger.Warnf("Failed to open browser: %v", err)
		}
	}
	return nil
}
