package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/EunoiaC/Verify/internal/model"
)

var (
	checkTimeout time.Duration
	checkID      string
	checkBody    string
	checkIndent  bool
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check <text>",
	Short: "Check the claims in a piece of text",
	Long: `Check extracts claims from the given text, gathers web evidence for each
claim and prints the supporting and contradicting passages as JSON.

Use "-" to read the text from stdin.

Example:
  verify check "The Eiffel Tower is 330 meters tall."
  verify check --body "It opened in 1889." "Eiffel Tower facts"
  echo "Water boils at 90 C at sea level." | verify check -`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().DurationVar(&checkTimeout, "timeout", 2*time.Minute, "overall check timeout")
	checkCmd.Flags().StringVar(&checkID, "id", "", "post id echoed in the output (default: random uuid)")
	checkCmd.Flags().StringVar(&checkBody, "body", "", "post body appended to the text on a new line")
	checkCmd.Flags().BoolVar(&checkIndent, "pretty", true, "indent JSON output")
}

func runCheck(cmd *cobra.Command, args []string) error {
	title := args[0]
	if title == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		title = strings.TrimSpace(string(data))
	}

	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	p, err := buildPipeline(ctx, appConfig)
	if err != nil {
		return err
	}

	post := model.Post{ID: checkID, Title: title, Body: checkBody}
	if post.ID == "" {
		post.ID = uuid.NewString()
	}

	fmt.Fprintf(os.Stderr, "⚙️  Checking claims...\n")
	analysis, err := p.Analyze(ctx, post)
	if err != nil {
		return fmt.Errorf("check failed: %w", err)
	}
	fmt.Fprintf(os.Stderr, "✓ %d verdicts\n", len(analysis.Analysis))

	enc := json.NewEncoder(cmd.OutOrStdout())
	if checkIndent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(analysis)
}
