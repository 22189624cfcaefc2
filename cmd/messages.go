package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teemow/gmcli/internal/gmail"
)

func newSearchCmd(a *app) *cobra.Command {
	var limit int64

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search messages using Gmail query syntax",
		Example: `  gmcli search "in:inbox is:unread"
  gmcli search "from:alice@example.com has:attachment" --max 5`,
		Args: cobra.MinimumNArgs(1),
		RunE: a.run("search", func(ctx context.Context, cmd *cobra.Command, args []string) error {
			client, err := a.gmailClient(ctx)
			if err != nil {
				return err
			}
			messages, err := client.Search(ctx, strings.Join(args, " "), limit)
			if err != nil {
				return err
			}

			w := out(cmd)
			if a.jsonOutput {
				return printJSON(w, messages)
			}
			if len(messages) == 0 {
				fmt.Fprintln(w, "No messages found")
				return nil
			}
			tw := newTable(w)
			fmt.Fprintln(tw, "ID\tDATE\tFROM\tSUBJECT")
			for _, m := range messages {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", m.ID, m.Date, m.From, m.Subject)
			}
			return tw.Flush()
		}),
	}

	cmd.Flags().Int64VarP(&limit, "max", "n", gmail.DefaultSearchLimit, "Maximum number of messages to return")
	return cmd
}

func newReadCmd(a *app) *cobra.Command {
	var preferHTML bool

	cmd := &cobra.Command{
		Use:   "read <message-id>...",
		Short: "Print one or more messages",
		Args:  cobra.MinimumNArgs(1),
		RunE: a.run("read", func(ctx context.Context, cmd *cobra.Command, args []string) error {
			client, err := a.gmailClient(ctx)
			if err != nil {
				return err
			}

			details := make([]*gmail.MessageDetail, 0, len(args))
			for _, id := range args {
				detail, err := client.ReadMessage(ctx, id)
				if err != nil {
					return err
				}
				details = append(details, detail)
			}

			w := out(cmd)
			if a.jsonOutput {
				if len(details) == 1 {
					return printJSON(w, details[0])
				}
				return printJSON(w, details)
			}
			for i, d := range details {
				if i > 0 {
					fmt.Fprintln(w, strings.Repeat("-", 72))
				}
				printMessage(w, d, preferHTML)
			}
			return nil
		}),
	}

	cmd.Flags().BoolVar(&preferHTML, "html", false, "Print the HTML body instead of the plain text body")
	return cmd
}

func printMessage(w io.Writer, d *gmail.MessageDetail, preferHTML bool) {
	fmt.Fprintf(w, "ID:      %s\n", d.ID)
	fmt.Fprintf(w, "Thread:  %s\n", d.ThreadID)
	fmt.Fprintf(w, "From:    %s\n", d.From)
	fmt.Fprintf(w, "To:      %s\n", d.To)
	if d.Cc != "" {
		fmt.Fprintf(w, "Cc:      %s\n", d.Cc)
	}
	fmt.Fprintf(w, "Date:    %s\n", d.Date)
	fmt.Fprintf(w, "Subject: %s\n", d.Subject)
	if len(d.LabelIDs) > 0 {
		fmt.Fprintf(w, "Labels:  %s\n", strings.Join(d.LabelIDs, ", "))
	}
	for _, att := range d.Attachments {
		fmt.Fprintf(w, "Attachment: %s (%s, %s)\n", att.Filename, att.MimeType, att.HumanSize())
	}

	body := d.Text
	if (preferHTML && d.HTML != "") || body == "" {
		body = d.HTML
	}
	fmt.Fprintf(w, "\n%s\n", body)
}
