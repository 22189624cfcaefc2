package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newAttachmentsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "attachments",
		Short: "List and download message attachments",
	}
	cmd.AddCommand(newAttachmentsListCmd(a), newAttachmentsDownloadCmd(a))
	return cmd
}

func newAttachmentsListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list <message-id>",
		Short: "List the attachments of a message",
		Args:  cobra.ExactArgs(1),
		RunE: a.run("attachments.list", func(ctx context.Context, cmd *cobra.Command, args []string) error {
			client, err := a.gmailClient(ctx)
			if err != nil {
				return err
			}
			attachments, err := client.ListAttachments(ctx, args[0])
			if err != nil {
				return err
			}

			w := out(cmd)
			if a.jsonOutput {
				return printJSON(w, attachments)
			}
			if len(attachments) == 0 {
				fmt.Fprintln(w, "No attachments")
				return nil
			}
			tw := newTable(w)
			fmt.Fprintln(tw, "FILENAME\tTYPE\tSIZE\tATTACHMENT ID")
			for _, att := range attachments {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", att.Filename, att.MimeType, att.HumanSize(), att.AttachmentID)
			}
			return tw.Flush()
		}),
	}
}

func newAttachmentsDownloadCmd(a *app) *cobra.Command {
	var (
		dir    string
		filter []string
	)

	cmd := &cobra.Command{
		Use:   "download <message-id>",
		Short: "Save the attachments of a message",
		Args:  cobra.ExactArgs(1),
		RunE: a.run("attachments.download", func(ctx context.Context, cmd *cobra.Command, args []string) error {
			client, err := a.gmailClient(ctx)
			if err != nil {
				return err
			}
			paths, err := client.DownloadAttachments(ctx, args[0], dir, filter)
			if err != nil {
				return err
			}

			w := out(cmd)
			if a.jsonOutput {
				return printJSON(w, paths)
			}
			if len(paths) == 0 {
				fmt.Fprintln(w, "No matching attachments")
				return nil
			}
			for _, p := range paths {
				fmt.Fprintln(w, p)
			}
			return nil
		}),
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "Directory to save the attachments in")
	cmd.Flags().StringSliceVar(&filter, "filter", nil, "Only save attachments with these file names or attachment IDs")
	return cmd
}
