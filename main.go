package main

import "faqbot/cmd"

func main() {
	cmd.Execute()
}
