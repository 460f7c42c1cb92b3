package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/daryltucker/anneal-runner/internal/framing"
	"github.com/daryltucker/anneal-runner/internal/model"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <results-file>",
	Short: "Summarise the records in a results file",
	Long: `Reads result records one at a time until the end of the file and prints a
row per record: problem id, solver, distinct rows, total reads, lowest
energy and mean chain break fraction. A file that ends inside a record is
reported after the complete records are printed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		return inspect(cmd.OutOrStdout(), f)
	},
}

var headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#42E7FF")).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func inspect(w io.Writer, r io.Reader) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "PROBLEM", "SOLVER", "ROWS", "READS", "LOWEST ENERGY", "CHAIN BREAK").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	fr := framing.NewReader(r)
	var readErr error
	for {
		var rec model.ResultRecord
		err := fr.Next(&rec)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			readErr = fmt.Errorf("record %d (offset %d): %w", fr.Records()+1, fr.Offset(), err)
			break
		}
		ss := rec.SampleSet
		if ss == nil {
			t.Row(strconv.Itoa(fr.Records()), "-", "-", "0", "0", "-", "-")
			continue
		}
		lowest := "-"
		if len(ss.Records) > 0 {
			lowest = strconv.FormatFloat(ss.LowestEnergy(), 'g', 6, 64)
		}
		t.Row(
			strconv.Itoa(fr.Records()),
			ss.Info.ProblemID,
			ss.Info.Solver,
			strconv.Itoa(len(ss.Records)),
			strconv.Itoa(ss.NumReads()),
			lowest,
			strconv.FormatFloat(ss.MeanChainBreak(), 'f', 3, 64),
		)
	}

	fmt.Fprintln(w, t.Render())
	fmt.Fprintf(w, "%d record(s)\n", fr.Records())
	return readErr
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
