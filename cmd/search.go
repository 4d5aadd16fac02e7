package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"tmrelay/internal/models"
	"tmrelay/internal/services"
)

const maxRecordWidth = 120

var searchJSON bool

var searchCmd = &cobra.Command{
	Use:   "search [keyword...]",
	Short: "Run a single relay from the command line",
	Long: `Queries the trademark search API for the keyword, summarizes the top
results and prints them. Use --json to print the same payload the HTTP API returns.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		keyword := strings.Join(args, " ")

		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to get app from context: %w", err)
		}

		resp, err := appInstance.RelayService.Relay(cmd.Context(), keyword)
		out := cmd.OutOrStdout()
		if err != nil {
			printRelayError(out, err)
			return fmt.Errorf("search failed: %w", err)
		}

		if searchJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		}
		printRelayResponse(out, resp)
		return nil
	},
}

func printRelayResponse(out io.Writer, resp *models.RelayResponse) {
	if len(resp.Results) == 0 {
		fmt.Fprintln(out, "No results found.")
	} else {
		table := tablewriter.NewWriter(out)
		table.SetHeader([]string{"#", "Record"})
		table.SetBorder(false)
		table.SetAutoWrapText(false)
		table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
		table.SetAlignment(tablewriter.ALIGN_LEFT)

		for i, r := range resp.Results {
			table.Append([]string{strconv.Itoa(i + 1), truncate(string(r), maxRecordWidth)})
		}
		table.Render()
	}

	fmt.Fprintf(out, "\n%s %s\n", color.CyanString("Suggestion:"), resp.Suggestion)
}

func printRelayError(out io.Writer, err error) {
	var relayErr *services.RelayError
	if errors.As(err, &relayErr) {
		fmt.Fprintf(out, "%s status=%d %s\n", color.RedString("ERROR"), relayErr.Status, relayErr.Error())
		if relayErr.Suggestion != "" {
			fmt.Fprintf(out, "%s %s\n", color.YellowString("Suggestion:"), relayErr.Suggestion)
		}
		return
	}
	fmt.Fprintf(out, "%s %v\n", color.RedString("ERROR"), err)
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit-3] + "..."
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "Print the raw JSON payload instead of a table")
}
