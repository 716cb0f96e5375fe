package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var conversationsCmd = &cobra.Command{
	Use:     "conversations",
	Aliases: []string{"conv"},
	Short:   "Manage stored conversations",
}

var conversationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List conversations, most recently updated first",
	RunE:  runConversationsList,
}

var conversationsShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Print a conversation with its messages",
	Args:  cobra.ExactArgs(1),
	RunE:  runConversationsShow,
}

var conversationsDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a conversation and its messages",
	Args:  cobra.ExactArgs(1),
	RunE:  runConversationsDelete,
}

func init() {
	conversationsCmd.AddCommand(conversationsListCmd)
	conversationsCmd.AddCommand(conversationsShowCmd)
	conversationsCmd.AddCommand(conversationsDeleteCmd)
}

func runConversationsList(cmd *cobra.Command, _ []string) error {
	conversations, err := newClient().ListConversations(cmd.Context())
	if err != nil {
		return err
	}
	if len(conversations) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No conversations yet.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tUPDATED")
	for _, conv := range conversations {
		fmt.Fprintf(w, "%s\t%s\t%s\n", conv.ID, conv.Title, conv.UpdatedAt.Local().Format(time.DateTime))
	}
	return w.Flush()
}

func runConversationsShow(cmd *cobra.Command, args []string) error {
	detail, err := newClient().GetConversation(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%s)\n\n", detail.Conversation.Title, detail.Conversation.ID)
	for _, msg := range detail.Messages {
		fmt.Fprintf(out, "[%s] %s\n", msg.Role, msg.Content)
	}
	return nil
}

func runConversationsDelete(cmd *cobra.Command, args []string) error {
	if err := newClient().DeleteConversation(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
	return nil
}
