package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"github.com/zen-systems/mailgate/pkg/calendar"
	"github.com/zen-systems/mailgate/pkg/classifier"
	"github.com/zen-systems/mailgate/pkg/config"
	"github.com/zen-systems/mailgate/pkg/dispatch"
	"github.com/zen-systems/mailgate/pkg/intent"
	"github.com/zen-systems/mailgate/pkg/mail"
	"github.com/zen-systems/mailgate/pkg/timewindow"
	"github.com/zen-systems/mailgate/pkg/tokens"
)

var verboseFlag bool

func main() {
	rootCmd := &cobra.Command{
		Use:   "mailgate",
		Short: "Natural-language assistant for multi-account Gmail and Calendly",
		Long: `Mailgate turns natural-language requests into mail and calendar actions:
	sending and summarizing email, looking up hosted Calendly events, and
	creating scheduling links. Requests are classified by an LLM and executed
	against the named account.`,
	}

	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(routeCmd())
	rootCmd.AddCommand(mailCmd())
	rootCmd.AddCommand(calendarCmd())
	rootCmd.AddCommand(authCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func routeCmd() *cobra.Command {
	var accountFlag string
	var calendlyKeyFlag string
	var jsonFlag bool

	cmd := &cobra.Command{
		Use:   "route [request]",
		Short: "Classify a natural-language request and execute it",
		Long: `Classifies the request into an intent (send email, summarize emails,
	Calendly lookup, scheduling link) and executes it against the account.

	Use --json to print the full reply envelope instead of just the text.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if accountFlag == "" {
				accountFlag = cfg.DefaultAccount
			}

			d, err := buildDispatcher(cfg, newLogger())
			if err != nil {
				return err
			}

			env, err := d.Handle(context.Background(), args[0], accountFlag, calendlyKeyFlag)
			if err != nil {
				return err
			}
			if jsonFlag {
				data, err := json.MarshalIndent(env, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(data))
				return nil
			}
			fmt.Println(env.Text)
			return nil
		},
	}

	cmd.Flags().StringVar(&accountFlag, "account", "", "Gmail account to act as (defaults to configured account)")
	cmd.Flags().StringVar(&calendlyKeyFlag, "calendly-key", "", "Calendly account key")
	cmd.Flags().BoolVar(&jsonFlag, "json", false, "print the full reply envelope as JSON")

	return cmd
}

func mailCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mail",
		Short: "Direct mail operations without intent classification",
	}
	cmd.AddCommand(mailListCmd())
	cmd.AddCommand(mailSearchCmd())
	cmd.AddCommand(mailSendCmd())
	return cmd
}

func mailListCmd() *cobra.Command {
	var accountFlag string
	var limitFlag int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the newest inbox messages",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			svc, err := buildMailService(cfg)
			if err != nil {
				return err
			}
			msgs, err := svc.ListRecent(context.Background(), limitFlag, accountFlag)
			if err != nil {
				return err
			}
			return printMessages(msgs)
		},
	}

	cmd.Flags().StringVar(&accountFlag, "account", "", "Gmail account (defaults to configured account)")
	cmd.Flags().IntVar(&limitFlag, "limit", 20, "maximum messages to list")

	return cmd
}

func mailSearchCmd() *cobra.Command {
	var accountFlag string
	var limitFlag int

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search mail with a provider query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			svc, err := buildMailService(cfg)
			if err != nil {
				return err
			}
			msgs, err := svc.Search(context.Background(), args[0], limitFlag, accountFlag)
			if err != nil {
				return err
			}
			return printMessages(msgs)
		},
	}

	cmd.Flags().StringVar(&accountFlag, "account", "", "Gmail account (defaults to configured account)")
	cmd.Flags().IntVar(&limitFlag, "limit", 20, "maximum messages to return")

	return cmd
}

func mailSendCmd() *cobra.Command {
	var accountFlag string
	var toFlag, ccFlag, bccFlag []string
	var subjectFlag, bodyFlag, replyToFlag string

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send an email verbatim (no drafting)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(toFlag) == 0 {
				return fmt.Errorf("--to is required")
			}
			if bodyFlag == "" {
				return fmt.Errorf("--body is required")
			}
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			svc, err := buildMailService(cfg)
			if err != nil {
				return err
			}
			res, err := svc.Send(context.Background(), mail.Outgoing{
				To:        toFlag,
				Cc:        ccFlag,
				Bcc:       bccFlag,
				Subject:   subjectFlag,
				Body:      bodyFlag,
				Account:   accountFlag,
				InReplyTo: replyToFlag,
			})
			if err != nil {
				return err
			}
			fmt.Printf("Sent! id=%s thread=%s\n", res.ID, res.ThreadID)
			return nil
		},
	}

	cmd.Flags().StringVar(&accountFlag, "account", "", "Gmail account (defaults to configured account)")
	cmd.Flags().StringSliceVar(&toFlag, "to", nil, "recipient addresses (required)")
	cmd.Flags().StringSliceVar(&ccFlag, "cc", nil, "cc addresses")
	cmd.Flags().StringSliceVar(&bccFlag, "bcc", nil, "bcc addresses")
	cmd.Flags().StringVar(&subjectFlag, "subject", "", "message subject")
	cmd.Flags().StringVar(&bodyFlag, "body", "", "message body (required)")
	cmd.Flags().StringVar(&replyToFlag, "reply-to", "", "message ID to thread the send onto")

	return cmd
}

func calendarCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Direct Calendly operations without intent classification",
	}
	cmd.AddCommand(calendarEventsCmd())
	cmd.AddCommand(calendarLinkCmd())
	return cmd
}

func calendarEventsCmd() *cobra.Command {
	var keyFlag string
	var windowFlag string

	cmd := &cobra.Command{
		Use:   "events [date]",
		Short: "List hosted events on a date",
		Long: `Lists hosted Calendly events on the given date reference ("monday",
	"yesterday", an ISO date). With no argument, lists today's events.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			svc, err := buildCalendarService(cfg)
			if err != nil {
				return err
			}

			ref := ""
			if len(args) == 1 {
				ref = args[0]
			}
			date := timewindow.ResolveSingleDate(ref, timewindow.DateOf(time.Now()))
			events, err := svc.ListEventsOn(context.Background(), date, calendar.Window(windowFlag), cfg.Location(), keyFlag)
			if err != nil {
				return err
			}
			if len(events) == 0 {
				fmt.Printf("No hosted Calendly events found on %s (%s).\n", date.Format("2006-01-02"), windowFlag)
				return nil
			}
			return printEvents(events)
		},
	}

	cmd.Flags().StringVar(&keyFlag, "key", "", "Calendly account key")
	cmd.Flags().StringVar(&windowFlag, "window", "day", "daypart: morning, afternoon, evening, day")

	return cmd
}

func calendarLinkCmd() *cobra.Command {
	var keyFlag string

	cmd := &cobra.Command{
		Use:   "link",
		Short: "Create a one-time scheduling link",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			svc, err := buildCalendarService(cfg)
			if err != nil {
				return err
			}
			link, err := svc.CreateSchedulingLink(context.Background(), keyFlag)
			if err != nil {
				return err
			}
			if link == nil || link.URL == "" {
				return fmt.Errorf("calendly did not return a link")
			}
			fmt.Println(link.URL)
			return nil
		},
	}

	cmd.Flags().StringVar(&keyFlag, "key", "", "Calendly account key")

	return cmd
}

func authCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Store account credentials",
	}
	cmd.AddCommand(authGmailCmd())
	cmd.AddCommand(authCalendlyCmd())
	return cmd
}

func authGmailCmd() *cobra.Command {
	var accountFlag string
	var tokenFileFlag string

	cmd := &cobra.Command{
		Use:   "gmail",
		Short: "Import an OAuth token for a Gmail account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if accountFlag == "" || tokenFileFlag == "" {
				return fmt.Errorf("--account and --token-file are required")
			}
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			store, err := tokens.NewStore(cfg.TokensDir)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(tokenFileFlag)
			if err != nil {
				return err
			}
			var tok oauth2.Token
			if err := json.Unmarshal(data, &tok); err != nil {
				return fmt.Errorf("token file is not a valid OAuth token: %w", err)
			}
			if err := store.SaveMailToken(accountFlag, &tok); err != nil {
				return err
			}
			fmt.Printf("Stored Gmail token for %s\n", accountFlag)
			return nil
		},
	}

	cmd.Flags().StringVar(&accountFlag, "account", "", "Gmail account the token belongs to")
	cmd.Flags().StringVar(&tokenFileFlag, "token-file", "", "path to an OAuth token JSON file")

	return cmd
}

func authCalendlyCmd() *cobra.Command {
	var keyFlag string
	var tokenFlag string

	cmd := &cobra.Command{
		Use:   "calendly",
		Short: "Store a Calendly personal access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if keyFlag == "" || tokenFlag == "" {
				return fmt.Errorf("--key and --token are required")
			}
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			store, err := tokens.NewStore(cfg.TokensDir)
			if err != nil {
				return err
			}
			if err := store.SaveCalendarToken(keyFlag, tokenFlag); err != nil {
				return err
			}
			fmt.Printf("Stored Calendly token for %s\n", keyFlag)
			return nil
		},
	}

	cmd.Flags().StringVar(&keyFlag, "key", "", "Calendly account key")
	cmd.Flags().StringVar(&tokenFlag, "token", "", "personal access token")

	return cmd
}

func newLogger() zerolog.Logger {
	level := zerolog.WarnLevel
	if verboseFlag {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}

// newClassifier selects the LLM backend by provider name. The configured
// model only applies to the backend it belongs to; other backends use their
// own default.
func newClassifier(cfg *config.Config) (classifier.Classifier, error) {
	model := cfg.ClassifierModel
	if cfg.ClassifierProvider != config.DefaultProvider && model == config.DefaultModel {
		model = ""
	}
	switch cfg.ClassifierProvider {
	case "openai":
		return classifier.NewOpenAI(cfg.OpenAIAPIKey, model)
	case "anthropic":
		return classifier.NewAnthropic(cfg.AnthropicAPIKey, model)
	case "google":
		return classifier.NewGoogle(cfg.GoogleAPIKey, model)
	case "mock":
		return classifier.NewMock(), nil
	default:
		return nil, fmt.Errorf("unknown classifier provider %q", cfg.ClassifierProvider)
	}
}

func buildMailService(cfg *config.Config) (mail.Service, error) {
	store, err := tokens.NewStore(cfg.TokensDir)
	if err != nil {
		return nil, err
	}
	return mail.NewGmail(store,
		mail.WithDefaultAccount(cfg.DefaultAccount),
		mail.WithDryRun(cfg.DryRun),
	), nil
}

func buildCalendarService(cfg *config.Config) (calendar.Service, error) {
	store, err := tokens.NewStore(cfg.TokensDir)
	if err != nil {
		return nil, err
	}
	return calendar.NewCalendly(store,
		calendar.WithFallbackPAT(cfg.CalendlyToken),
	), nil
}

func buildDispatcher(cfg *config.Config, log zerolog.Logger) (*dispatch.Dispatcher, error) {
	llm, err := newClassifier(cfg)
	if err != nil {
		return nil, err
	}
	mailSvc, err := buildMailService(cfg)
	if err != nil {
		return nil, err
	}
	calSvc, err := buildCalendarService(cfg)
	if err != nil {
		return nil, err
	}
	extractor := intent.NewExtractor(llm, log)
	return dispatch.New(extractor, llm, mailSvc, calSvc,
		dispatch.WithHorizonDays(cfg.HorizonDays),
		dispatch.WithTimezone(cfg.Timezone, cfg.Location()),
		dispatch.WithSignature(cfg.Signature),
		dispatch.WithLogger(log),
	), nil
}

func printMessages(msgs []mail.Message) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tFROM\tSUBJECT")
	for _, m := range msgs {
		fmt.Fprintf(w, "%s\t%s\t%s\n", m.Date, m.From, m.Subject)
	}
	return w.Flush()
}

func printEvents(events []calendar.Event) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "START\tNAME\tSTATUS\tINVITEES")
	for _, ev := range events {
		invitees := ""
		for i, inv := range ev.Invitees {
			if i > 0 {
				invitees += ", "
			}
			invitees += inv.Email
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", ev.StartTime, ev.Name, ev.Status, invitees)
	}
	return w.Flush()
}
