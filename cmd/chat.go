package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"faqbot/internal/domain"
	"faqbot/internal/session"
)

var flagChatK int

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Ask follow-up questions in a plain terminal session",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx, stderrProgress())
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return err
		}
		defer a.Close()

		sess := session.New()
		scanner := bufio.NewScanner(os.Stdin)

		fmt.Println("faqbot chat (type /help for commands, /exit to quit)")
		fmt.Println()
		fmt.Println("Suggested questions (by topic):")
		fmt.Println(session.SuggestionList())
		fmt.Println()

		for {
			fmt.Print("> ")
			if !scanner.Scan() {
				break
			}
			question := strings.TrimSpace(scanner.Text())
			if question == "" {
				continue
			}

			switch question {
			case "/exit", "/quit":
				fmt.Println("Goodbye.")
				return nil
			case "/clear":
				sess.Reset()
				fmt.Println("Conversation cleared.")
				continue
			case "/sources":
				printSources(sess.LastSources())
				continue
			case "/rebuild":
				stats, err := a.Rebuild(ctx, stderrProgress())
				fmt.Fprintln(os.Stderr)
				if err != nil {
					fmt.Fprintf(os.Stderr, "rebuild failed, keeping the current index: %v\n", err)
					continue
				}
				fmt.Printf("Index rebuilt: %d chunks from %d documents.\n", stats.Chunks, stats.Documents)
				continue
			case "/help":
				fmt.Println("Commands:")
				fmt.Println("  /1../5   - ask a suggested question")
				fmt.Println("  /sources - show sources of the last answer")
				fmt.Println("  /rebuild - re-index the documents")
				fmt.Println("  /clear   - clear conversation history")
				fmt.Println("  /exit    - quit chat")
				fmt.Println("  /help    - show this help")
				continue
			}

			if suggested, ok := session.PickSuggestion(question); ok {
				question = suggested
				fmt.Println(question)
			}
			ans, err := a.Answerer(flagChatK).AnswerFollowUp(ctx, question, sess.LastQuestion())
			if err != nil {
				if domain.IsDisabled(err) {
					fmt.Fprintf(os.Stderr, "disabled: %v\n", err)
				} else {
					fmt.Fprintf(os.Stderr, "error: %v\n", err)
				}
				continue
			}
			sess.AddUser(question)
			sess.AddAssistant(ans.Text, ans.Sources)

			fmt.Println()
			fmt.Println(ans.Text)
			printSourceIDs(ans.Sources)
			fmt.Println()
		}

		return scanner.Err()
	},
}

func printSources(sources []domain.SourceRef) {
	if len(sources) == 0 {
		fmt.Println("No sources for the last answer.")
		return
	}
	for i, s := range sources {
		fmt.Printf("%d. [doc: %s] %s\n   %s\n", i+1, s.ID, s.Source, strings.Join(strings.Fields(s.Text), " "))
	}
}

func init() {
	chatCmd.Flags().IntVar(&flagChatK, "k", 0, "number of chunks to retrieve per question (default from config)")
	rootCmd.AddCommand(chatCmd)
}
