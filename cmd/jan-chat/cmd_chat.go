package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"jan-chat/internal/domain/conversation"
	"jan-chat/internal/domain/session"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	Long: `Start an interactive chat session. Every message and reply is stored in
a conversation; a new "New Chat" conversation is created on the first message
unless --conversation is given.

Commands inside the session:
  /new            start a new conversation
  /open <id>      switch to a stored conversation
  /history        print the current transcript
  /quit           leave the session`,
	RunE: runChat,
}

var (
	chatConversationID string
	chatStream         bool
)

func init() {
	chatCmd.Flags().StringVarP(&chatConversationID, "conversation", "c", "", "Resume a stored conversation")
	chatCmd.Flags().BoolVarP(&chatStream, "stream", "s", true, "Stream replies as they are generated")
}

func runChat(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	client := newClient()
	controller := session.NewController(client, client, newLogger())
	out := cmd.OutOrStdout()

	if chatConversationID != "" {
		if err := controller.SwitchConversation(ctx, chatConversationID); err != nil {
			return fmt.Errorf("open conversation: %w", err)
		}
		printTranscript(out, controller.Messages())
	}

	fmt.Fprintln(out, "Type a message, /help for commands.")
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if done := runChatCommand(ctx, out, controller, line); done {
				return nil
			}
			continue
		}
		sendLine(ctx, out, controller, line)
		if ctx.Err() != nil {
			return nil
		}
	}
}

func runChatCommand(ctx context.Context, out io.Writer, controller *session.Controller, line string) bool {
	name, arg, _ := strings.Cut(line, " ")
	switch name {
	case "/quit", "/exit":
		return true
	case "/new":
		controller.NewConversation()
		fmt.Fprintln(out, "Started a new conversation.")
	case "/open":
		if err := controller.SwitchConversation(ctx, strings.TrimSpace(arg)); err != nil {
			fmt.Fprintf(out, "Could not open conversation: %v\n", err)
			return false
		}
		printTranscript(out, controller.Messages())
	case "/history":
		printTranscript(out, controller.Messages())
	default:
		fmt.Fprintln(out, "Commands: /new, /open <id>, /history, /quit")
	}
	return false
}

func sendLine(ctx context.Context, out io.Writer, controller *session.Controller, line string) {
	if !chatStream {
		msg, err := controller.Send(ctx, line)
		if err != nil {
			fmt.Fprintln(out, session.ErrorBubble)
			return
		}
		fmt.Fprintln(out, msg.Content)
		return
	}

	_, err := controller.SendStream(ctx, line, func(fragment string) {
		fmt.Fprint(out, fragment)
	})
	if err != nil {
		fmt.Fprintln(out)
		fmt.Fprintln(out, session.ErrorBubble)
		return
	}
	fmt.Fprintln(out)
}

func printTranscript(out io.Writer, messages []session.Message) {
	for _, msg := range messages {
		prefix := "you"
		switch msg.Role {
		case conversation.RoleAssistant:
			prefix = "assistant"
		case conversation.RoleSystem:
			prefix = "system"
		}
		fmt.Fprintf(out, "[%s] %s\n", prefix, msg.Content)
	}
}
