// Jules CLI - command line client for the Jules chat server.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/Daniels4624P/Jules/clients/go/jules"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	baseURL := os.Getenv("JULES_URL")
	client := jules.NewClient(baseURL)
	client.AccessToken = os.Getenv("JULES_TOKEN")
	cmd := os.Args[1]

	switch cmd {
	case "register":
		requireArgs(3, "register <username> <password>")
		resp, err := client.Register(os.Args[2], os.Args[3])
		exitOnError(err)
		fmt.Printf("Registered user %d. Export to use other commands:\n", resp.User.ID)
		fmt.Printf("  export JULES_TOKEN=%s\n", resp.AccessToken)

	case "login":
		requireArgs(3, "login <username> <password>")
		resp, err := client.Login(os.Args[2], os.Args[3])
		exitOnError(err)
		fmt.Printf("  export JULES_TOKEN=%s\n", resp.AccessToken)

	case "chats":
		chats, err := client.ListChats()
		exitOnError(err)
		for _, c := range chats {
			kind := "direct"
			if c.IsGroup {
				kind = "group"
			}
			fmt.Printf("  %d  %-20s (%s, %d members)\n", c.ID, c.DisplayName(), kind, len(c.Participants))
		}

	case "create":
		requireArgs(2, "create <userId>[,<userId>...] [name]")
		var ids []int64
		for _, raw := range strings.Split(os.Args[2], ",") {
			id, err := strconv.ParseInt(raw, 10, 64)
			exitOnError(err)
			ids = append(ids, id)
		}
		name := ""
		if len(os.Args) > 3 {
			name = os.Args[3]
		}
		chat, err := client.CreateChat(name, ids)
		exitOnError(err)
		fmt.Printf("Created chat %d\n", chat.ID)

	case "read":
		requireArgs(2, "read <chatId>")
		chatID, err := strconv.ParseInt(os.Args[2], 10, 64)
		exitOnError(err)
		messages, err := client.GetMessages(chatID, 50, 0)
		exitOnError(err)
		for _, msg := range messages {
			ts := msg.CreatedAt.Format("2006-01-02 15:04:05")
			fmt.Printf("[%s] %s: %s\n", ts, msg.Sender.Username, msg.Content)
		}

	case "send":
		requireArgs(3, "send <chatId> <content>")
		chatID, err := strconv.ParseInt(os.Args[2], 10, 64)
		exitOnError(err)
		msg, err := client.PostMessage(chatID, strings.Join(os.Args[3:], " "))
		exitOnError(err)
		fmt.Printf("Sent message %d\n", msg.ID)

	case "listen":
		requireArgs(2, "listen <chatId>")
		chatID, err := strconv.ParseInt(os.Args[2], 10, 64)
		exitOnError(err)
		session, err := client.Connect()
		exitOnError(err)
		defer session.Close()
		exitOnError(session.JoinChat(chatID))
		fmt.Printf("Listening on chat %d...\n", chatID)
		for {
			evt, err := session.Next()
			exitOnError(err)
			printEvent(evt)
		}

	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: jules <command> [options]

Commands:
  register <username> <password>
  login <username> <password>
  chats
  create <userId>[,<userId>...] [name]
  read <chatId>
  send <chatId> <content>
  listen <chatId>

Environment:
  JULES_URL     Server URL
  JULES_TOKEN   Access token`)
}

func printEvent(evt *jules.Event) {
	switch evt.Event {
	case "newMessage":
		var msg jules.Message
		if json.Unmarshal(evt.Data, &msg) == nil {
			fmt.Printf("%s: %s\n", msg.Sender.Username, msg.Content)
			return
		}
	case "userTyping":
		var typing struct {
			Username string `json:"username"`
			IsTyping bool   `json:"isTyping"`
		}
		if json.Unmarshal(evt.Data, &typing) == nil && typing.IsTyping {
			fmt.Printf("%s is typing...\n", typing.Username)
			return
		}
	}
	fmt.Printf("[%s] %s\n", evt.Event, string(evt.Data))
}

func requireArgs(n int, usageLine string) {
	if len(os.Args) < n+1 {
		fmt.Fprintf(os.Stderr, "Usage: jules %s\n", usageLine)
		os.Exit(1)
	}
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
