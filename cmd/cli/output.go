//go:build !js && !wasm
// +build !js,!wasm

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/himanishpuri/songtag/pkg/models"
	"github.com/himanishpuri/songtag/pkg/songtag"
)

var (
	green  = color.New(color.FgGreen, color.Bold).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	faint  = color.New(color.Faint).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
	accent = color.New(color.FgCyan).SprintFunc()
)

// render writes v as JSON or YAML, or calls table for the default format.
func render(w io.Writer, v any, table func(io.Writer) error) error {
	switch format := strings.ToLower(viper.GetString("output")); format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(v)
	case "table", "":
		return table(w)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func printResult(w io.Writer, res *songtag.TagResult) error {
	return render(w, res, func(w io.Writer) error {
		if !res.Matched() {
			fmt.Fprintf(w, "%s %s after %s\n", red(":("), res.Outcome, seconds(res.ProcessedMs))
			if res.Err != nil {
				fmt.Fprintf(w, "   %s\n", faint(res.Err))
			}
			return nil
		}

		m := res.Match
		fmt.Fprintf(w, "%s %s by %s\n", green("Found:"), bold(m.Title), m.Artist)
		fmt.Fprintf(w, "   %s\n", accent(m.URL))
		fmt.Fprintf(w, "   %s\n", faint(fmt.Sprintf("%s of audio, %s, %d landmarks",
			seconds(res.ProcessedMs), humanize.Plural(res.Submissions, "request", "requests"), res.Landmarks)))
		return nil
	})
}

func printTags(w io.Writer, tags []models.Tag) error {
	return render(w, tags, func(w io.Writer) error {
		if len(tags) == 0 {
			fmt.Fprintln(w, "No songs tagged yet")
			return nil
		}

		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tTITLE\tARTIST\tSOURCE\tTAGGED")
		for _, t := range tags {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", t.ID[:min(8, len(t.ID))], t.Title, t.Artist, t.Source, humanize.Time(t.TaggedAt))
		}
		return tw.Flush()
	})
}

func seconds(ms int64) string {
	return fmt.Sprintf("%.1fs", float64(ms)/1000)
}

// openBrowser hands url to the desktop's default handler.
func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}
