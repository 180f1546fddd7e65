package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/five82/logmon/internal/app"
	"github.com/five82/logmon/internal/discovery"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7aa2f7")).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	tagStyle     = cellStyle.Foreground(lipgloss.Color("#bb9af7"))
	mutedStyle   = cellStyle.Foreground(lipgloss.Color("#71839b"))
	warningStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#dbc074"))
)

type scanOutput struct {
	Logs        []discovery.Entry      `json:"logs"`
	Count       int                    `json:"count"`
	Diagnostics []discovery.Diagnostic `json:"diagnostics"`
}

func newScanCmd(flags *globalFlags) *cobra.Command {
	var (
		opts   app.ConfigOptions
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run one discovery pass and print the classified files",
		Example: `  logmon scan
  logmon scan --config config.yaml --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := flags.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			res, err := app.Scan(cmd.Context(), opts, logger)
			if err != nil {
				return err
			}
			printDiagnostics(cmd.ErrOrStderr(), res.Diagnostics)
			if asJSON {
				return writeScanJSON(cmd.OutOrStdout(), res)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), renderScanTable(res.Entries))
			return err
		},
	}
	addConfigFlags(cmd, &opts.ConfigPath, &opts.BaseDir)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON in the /api/logs layout")
	return cmd
}

func printDiagnostics(w io.Writer, diags []discovery.Diagnostic) {
	for _, d := range diags {
		line := warningStyle.Render("warning:") + " " + d.Code + ": " + d.Message
		if d.Path != "" {
			line += " (" + d.Path + ")"
		}
		_, _ = fmt.Fprintln(w, line)
	}
}

func writeScanJSON(w io.Writer, res discovery.Result) error {
	out := scanOutput{
		Logs:        res.Entries,
		Count:       len(res.Entries),
		Diagnostics: res.Diagnostics,
	}
	if out.Logs == nil {
		out.Logs = []discovery.Entry{}
	}
	if out.Diagnostics == nil {
		out.Diagnostics = []discovery.Diagnostic{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func renderScanTable(entries []discovery.Entry) string {
	if len(entries) == 0 {
		return mutedStyle.Render("no log files found")
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.Tag,
			e.Name,
			e.Path,
			strconv.FormatInt(e.Size, 10),
			e.Modified.Format(time.DateTime),
		})
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(mutedStyle).
		Headers("TAG", "NAME", "PATH", "SIZE", "MODIFIED").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 0:
				return tagStyle
			case col >= 3:
				return mutedStyle
			default:
				return cellStyle
			}
		}).
		String()
}
