package main

import "chatbot/cmd/chatctl/cmd"

func main() {
	cmd.Execute()
}
