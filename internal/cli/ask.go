package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tribe-fitness/internal/chat"
	"tribe-fitness/internal/config"
	"tribe-fitness/internal/llm"
	"tribe-fitness/internal/locale"
)

// newCompleter is replaced in tests.
var newCompleter = llm.New

func newAskCmd() *cobra.Command {
	var (
		bot     string
		lang    string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "ask <prompt>",
		Short: "Ask one of the assistants a single question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, ok := chat.ProfileByName(bot)
			if !ok {
				return fmt.Errorf("unknown assistant %q (use %s or %s)", bot, chat.FitnessBot, chat.SupportBot)
			}
			initial, err := locale.Parse(lang)
			if err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			completer, err := newCompleter(providerFor(cfg, profile.Name), zap.NewNop())
			if err != nil {
				return err
			}

			session := chat.NewSession(profile, completer, chat.WithLocale(locale.NewRegistry(initial)))
			defer session.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			select {
			case reply, ok := <-session.Send(strings.Join(args, " ")):
				if !ok {
					return errors.New("no reply")
				}
				fmt.Fprintln(cmd.OutOrStdout(), reply.Text)
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	}

	cmd.Flags().StringVarP(&bot, "bot", "b", chat.FitnessBot, "Assistant: fitness or support")
	cmd.Flags().StringVarP(&lang, "lang", "l", string(locale.English), "Reply language code")
	cmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "Give up after this long")
	return cmd
}

func providerFor(cfg *config.Config, bot string) config.LLMConfig {
	if bot == chat.SupportBot {
		return cfg.LLM.Support
	}
	return cfg.LLM.Fitness
}
