package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/concierge/internal/core/domain"
	"github.com/custodia-labs/concierge/internal/core/ports/driving"
)

// emptyQuestionMessage is shown for a blank one-shot question.
const emptyQuestionMessage = "질문을 입력해주세요."

var askJSON bool

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question",
	Long: `Answer a question from the documents file.

With a question argument, prints one answer and exits. Without one, reads
questions from standard input: interactively on a terminal (type 'exit' to
quit), or one question per line when input is piped.

The index is built first when it is empty.`,
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output answers as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	app, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := cmd.Context()
	if err := app.Index.Initialize(ctx); err != nil {
		return fmt.Errorf("initialize index: %w", err)
	}

	if len(args) > 0 {
		answer, err := app.Answers.Answer(ctx, strings.Join(args, " "))
		if errors.Is(err, domain.ErrEmptyQuestion) {
			return errors.New(emptyQuestionMessage)
		}
		if err != nil {
			return err
		}
		return printAnswer(cmd, answer)
	}

	return askLoop(cmd, app.Answers, cmd.InOrStdin())
}

// askLoop answers one question per input line until EOF or "exit".
func askLoop(cmd *cobra.Command, answers driving.AnswerService, in io.Reader) error {
	out := cmd.OutOrStdout()
	interactive := isTerminal(in)
	if interactive {
		fmt.Fprintln(out, "마이워크스페이스 AI 상담원입니다. 종료하려면 'exit'를 입력하세요.")
	}

	scanner := bufio.NewScanner(in)
	for {
		if interactive {
			fmt.Fprint(out, "> ")
		}
		if !scanner.Scan() {
			break
		}

		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if question == "exit" || question == "quit" {
			break
		}

		answer, err := answers.Answer(cmd.Context(), question)
		if err != nil {
			return err
		}
		if err := printAnswer(cmd, answer); err != nil {
			return err
		}
		if interactive {
			fmt.Fprintln(out)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading questions: %w", err)
	}
	return nil
}

func printAnswer(cmd *cobra.Command, answer *domain.Answer) error {
	out := cmd.OutOrStdout()
	if askJSON {
		data, err := json.Marshal(answer)
		if err != nil {
			return fmt.Errorf("failed to marshal answer: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	fmt.Fprintln(out, answer.Text)
	if len(answer.Sources) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "출처:")
		for _, src := range answer.Sources {
			fmt.Fprintf(out, "  - [%s] %s (%s)\n", src.Category, src.Title, src.Source)
		}
	}
	return nil
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
