package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newLabelsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "labels",
		Short: "List labels and change the labels of messages",
	}
	cmd.AddCommand(newLabelsListCmd(a), newLabelsModifyCmd(a))
	return cmd
}

func newLabelsListCmd(a *app) *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the mailbox labels",
		Args:  cobra.NoArgs,
		RunE: a.run("labels.list", func(ctx context.Context, cmd *cobra.Command, args []string) error {
			client, err := a.gmailClient(ctx)
			if err != nil {
				return err
			}
			labels, err := client.Labels().Labels(ctx, refresh)
			if err != nil {
				return err
			}

			w := out(cmd)
			if a.jsonOutput {
				return printJSON(w, labels)
			}
			tw := newTable(w)
			fmt.Fprintln(tw, "ID\tNAME\tTYPE")
			for _, l := range labels {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", l.Id, l.Name, l.Type)
			}
			return tw.Flush()
		}),
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "Bypass the label cache")
	return cmd
}

func newLabelsModifyCmd(a *app) *cobra.Command {
	var add, remove []string

	cmd := &cobra.Command{
		Use:   "modify <message-id>...",
		Short: "Add or remove labels on messages",
		Long: `Add or remove labels on one or more messages. Labels are given by name or
ID; the superstar names (yellow-star, red-bang, ...) are accepted too and
also star the message.`,
		Example: `  gmcli labels modify 18c2a1 --add Work --remove INBOX
  gmcli labels modify 18c2a1 18c2a2 --add red-star`,
		Args: cobra.MinimumNArgs(1),
		RunE: a.run("labels.modify", func(ctx context.Context, cmd *cobra.Command, args []string) error {
			if len(add) == 0 && len(remove) == 0 {
				return fmt.Errorf("nothing to do: pass --add and/or --remove")
			}
			client, err := a.gmailClient(ctx)
			if err != nil {
				return err
			}
			if err := client.ModifyLabels(ctx, args, add, remove); err != nil {
				return err
			}
			fmt.Fprintf(out(cmd), "Updated labels on %d message(s)\n", len(args))
			return nil
		}),
	}

	cmd.Flags().StringSliceVar(&add, "add", nil, "Labels to add (repeatable or comma-separated)")
	cmd.Flags().StringSliceVar(&remove, "remove", nil, "Labels to remove (repeatable or comma-separated)")
	return cmd
}
