package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/noah-isme/gema-study-api/internal/fieldparse"
	"github.com/noah-isme/gema-study-api/internal/questionbank"
)

var errNoQuestions = errors.New("question bank contains no usable questions")

var bankCmd = &cobra.Command{
	Use:   "bank",
	Short: "Inspect question banks",
}

var bankCheckCmd = &cobra.Command{
	Use:   "check <csv>",
	Short: "Parse a question bank and report loaded questions and skipped rows",
	Args:  cobra.ExactArgs(1),
	RunE:  runBankCheck,
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

func init() {
	bankCmd.AddCommand(bankCheckCmd)
}

func runBankCheck(cmd *cobra.Command, args []string) error {
	bank := questionbank.NewFileBank(args[0], zerolog.Nop())
	result, err := bank.LoadDetailed(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("%s: %d questions, %d skipped rows", bank.Path(), len(result.Questions), len(result.Skipped))))

	if len(result.Questions) > 0 {
		fmt.Fprintln(out, questionTable(result.Questions))
	}

	for _, skipped := range result.Skipped {
		fmt.Fprintln(out, warningStyle.Render(fmt.Sprintf("line %d skipped: %s", skipped.Line, skipped.Reason)))
	}

	if len(result.Questions) == 0 {
		return errNoQuestions
	}
	return nil
}

func questionTable(questions []questionbank.Question) *table.Table {
	rows := make([][]string, 0, len(questions))
	for i, q := range questions {
		rows = append(rows, []string{
			strconv.Itoa(i),
			q.Category,
			fieldparse.FormatNumbers(q.Numbers),
			fieldparse.FormatOperators(q.Ops),
			fieldparse.FormatNumber(q.Target),
			q.Answer,
		})
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "CATEGORY", "NUMBERS", "OPS", "TARGET", "ANSWER").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}
