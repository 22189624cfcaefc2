package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/teemow/gmcli/internal/gmail"
)

// composeFlags are shared by send and reply.
type composeFlags struct {
	body        string
	html        string
	cc          []string
	bcc         []string
	attachments []string
	draft       bool
}

func (f *composeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.body, "body", "b", "", "Plain text body ('-' reads it from stdin)")
	cmd.Flags().StringVar(&f.html, "html", "", "HTML body ('-' reads it from stdin)")
	cmd.Flags().StringSliceVar(&f.cc, "cc", nil, "CC recipients (repeatable or comma-separated)")
	cmd.Flags().StringSliceVar(&f.bcc, "bcc", nil, "BCC recipients (repeatable or comma-separated)")
	cmd.Flags().StringSliceVarP(&f.attachments, "attach", "a", nil, "Files to attach (repeatable or comma-separated)")
	cmd.Flags().BoolVar(&f.draft, "draft", false, "Save as a draft instead of sending")
}

// bodies resolves '-' to stdin and requires at least one body.
func (f *composeFlags) bodies(cmd *cobra.Command) (text, html string, err error) {
	if f.body == "-" && f.html == "-" {
		return "", "", fmt.Errorf("only one of --body and --html can read from stdin")
	}
	text, html = f.body, f.html
	if text == "-" {
		if text, err = readStdin(cmd); err != nil {
			return "", "", err
		}
	}
	if html == "-" {
		if html, err = readStdin(cmd); err != nil {
			return "", "", err
		}
	}
	if text == "" && html == "" {
		return "", "", fmt.Errorf("a message body is required (--body or --html)")
	}
	return text, html, nil
}

func readStdin(cmd *cobra.Command) (string, error) {
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("failed to read body from stdin: %w", err)
	}
	return string(data), nil
}

func newSendCmd(a *app) *cobra.Command {
	var (
		to      []string
		subject string
		flags   composeFlags
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send a new message",
		Example: `  gmcli send --to bob@example.com --subject "Lunch?" --body "Noon at the usual place"
  echo "See attached" | gmcli send --to bob@example.com --subject Report --body - --attach report.pdf
  gmcli send --to bob@example.com --subject Draft --html "<p>Hi</p>" --draft`,
		Args: cobra.NoArgs,
		RunE: a.run("send", func(ctx context.Context, cmd *cobra.Command, args []string) error {
			text, html, err := flags.bodies(cmd)
			if err != nil {
				return err
			}
			// Fail on missing attachments before touching the network.
			if _, err := gmail.CheckAttachments(flags.attachments); err != nil {
				return err
			}

			client, err := a.gmailClient(ctx)
			if err != nil {
				return err
			}
			res, err := client.SendEmail(ctx, &gmail.OutgoingMessage{
				To:          to,
				Cc:          flags.cc,
				Bcc:         flags.bcc,
				Subject:     subject,
				Text:        text,
				HTML:        html,
				Attachments: flags.attachments,
			}, flags.draft)
			if err != nil {
				return err
			}
			return a.printSendResult(cmd, res, flags.draft)
		}),
	}

	cmd.Flags().StringSliceVarP(&to, "to", "t", nil, "Recipients (repeatable or comma-separated)")
	cmd.Flags().StringVarP(&subject, "subject", "s", "", "Subject")
	flags.register(cmd)
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}

func newReplyCmd(a *app) *cobra.Command {
	var (
		quote bool
		flags composeFlags
	)

	cmd := &cobra.Command{
		Use:   "reply <message-id>",
		Short: "Reply to a message within its thread",
		Long: `Reply to the sender of a message. The reply keeps the thread: its subject
gets a "Re: " prefix and In-Reply-To and References point at the original.
With --quote the original body is quoted below the reply.`,
		Args: cobra.ExactArgs(1),
		RunE: a.run("reply", func(ctx context.Context, cmd *cobra.Command, args []string) error {
			text, html, err := flags.bodies(cmd)
			if err != nil {
				return err
			}
			if _, err := gmail.CheckAttachments(flags.attachments); err != nil {
				return err
			}

			client, err := a.gmailClient(ctx)
			if err != nil {
				return err
			}
			res, err := client.ReplyToEmail(ctx, &gmail.ReplyRequest{
				MessageID:   args[0],
				Text:        text,
				HTML:        html,
				Cc:          flags.cc,
				Bcc:         flags.bcc,
				Attachments: flags.attachments,
				Quote:       quote,
				Draft:       flags.draft,
			})
			if err != nil {
				return err
			}
			return a.printSendResult(cmd, res, flags.draft)
		}),
	}

	cmd.Flags().BoolVarP(&quote, "quote", "q", false, "Quote the original message")
	flags.register(cmd)
	return cmd
}

func (a *app) printSendResult(cmd *cobra.Command, res *gmail.SendResult, draft bool) error {
	w := out(cmd)
	if a.jsonOutput {
		return printJSON(w, res)
	}
	if draft {
		fmt.Fprintf(w, "Draft saved: %s\n", res.URL)
		return nil
	}
	fmt.Fprintf(w, "Message sent: %s (thread %s)\n", res.ID, res.ThreadID)
	return nil
}
