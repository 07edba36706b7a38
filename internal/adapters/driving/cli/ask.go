package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/pranavagrawaI/ShakespeareBot/internal/core/domain"
	"github.com/pranavagrawaI/ShakespeareBot/internal/core/ports/driving"
	"github.com/pranavagrawaI/ShakespeareBot/internal/core/services"
)

var (
	askK           int
	askPlay        string
	askShowContext bool
	askJSON        bool
)

var (
	answerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	refusalStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	sourceStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about the plays",
	Long: `Answers a natural-language question using hybrid retrieval over the
indexed corpus. Each answer carries inline [S#] citations resolved
against the passages shown in the Sources footer.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVarP(&askK, "top-k", "k", 0, "number of evidence passages (0 uses the configured default)")
	askCmd.Flags().StringVar(&askPlay, "play", "", "restrict retrieval to a single play")
	askCmd.Flags().BoolVar(&askShowContext, "show-context", false, "print the full text of each evidence passage")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()
	svc, cleanup, err := buildAskService(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	answer, err := svc.Ask(ctx, question, driving.AskOptions{
		K:               askK,
		PlayFilter:      askPlay,
		IncludeEvidence: true,
	})
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		return outputAnswerJSON(cmd, answer)
	}
	return outputAnswerText(cmd, answer)
}

func outputAnswerJSON(cmd *cobra.Command, answer *domain.Answer) error {
	data, err := json.MarshalIndent(answer, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal answer: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputAnswerText(cmd *cobra.Command, answer *domain.Answer) error {
	if answer.State == domain.StateRefused {
		cmd.Println(refusalStyle.Render(answer.Text))
		if answer.RefusalReason != "" {
			cmd.Println(sourceStyle.Render("Reason: " + answer.RefusalReason))
		}
		return nil
	}

	cmd.Println(answerStyle.Render(answer.Text))
	cmd.Println()
	cmd.Println(headerStyle.Render("Sources:"))
	cmd.Println(sourceStyle.Render(services.FormatSources(answer.Evidence)))

	if askShowContext {
		for _, ev := range answer.Evidence {
			cmd.Println()
			cmd.Println(headerStyle.Render(fmt.Sprintf("[%s] %s", ev.SID, ev.Chunk.Locator())))
			cmd.Println(answerStyle.Render(ev.Chunk.Text))
		}
	}
	return nil
}
