package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

// chatCmd starts the interactive loop
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	Long: `Starts a line-based chat loop. Each message is routed through the
conversation graph and the reply is streamed as it is generated.

Type "exit" or press Ctrl-D to leave.`,
	RunE: runChat,
}

// askCmd handles a single message
var askCmd = &cobra.Command{
	Use:   "ask [message]",
	Short: "Ask a single question and print the reply",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func runChat(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Println("talentscout ready. Ask me to find candidates, pull up a profile,")
	fmt.Println("or check an SFC license. Type \"exit\" to quit.")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("you> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		message := strings.TrimSpace(scanner.Text())
		if message == "" {
			continue
		}
		if message == "exit" || message == "quit" {
			return nil
		}

		fmt.Print("scout> ")
		for chunk := range a.router.ChatStream(ctx, message) {
			fmt.Print(chunk)
		}
		fmt.Println()
		fmt.Println()

		if ctx.Err() != nil {
			return nil
		}
	}
}

func runAsk(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reply := a.router.Chat(ctx, strings.Join(args, " "))
	fmt.Println(reply)
	return nil
}
