package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"pptgate/cmd/cli/command"
)

// 打印欢迎信息和启动logo
func printWelcomeMessage() {
	fmt.Println("Welcome to the pptgate CLI REPL! Type 'exit' to quit.")
	fmt.Println("Type 'help' to see the list of available commands.")
}

// 打印帮助信息
func printHelp() {
	fmt.Println("Available commands:")
	fmt.Println("  decode <hexframe>  Decode a hex encoded telemetry frame.")
	fmt.Println("  profiles           List registered decoding profiles.")
	fmt.Println("  help               Show this help message.")
	fmt.Println("  exit               Exit the REPL.")
}

func main() {
	rootCmd := command.NewRootCommand()

	// 直接带参数调用时按普通 CLI 执行，不进 REPL
	if len(os.Args) > 1 {
		if err := rootCmd.Execute(); err != nil {
			os.Exit(1)
		}
		return
	}

	scanner := bufio.NewScanner(os.Stdin)
	printWelcomeMessage()

	// REPL 循环
	for {
		fmt.Print("> ")

		if !scanner.Scan() {
			break
		}
		input := scanner.Text()

		if strings.ToLower(input) == "exit" {
			fmt.Println("Exiting pptgate-cli...")
			break
		}
		if strings.ToLower(input) == "help" {
			printHelp()
			continue
		}

		args := strings.Fields(input)
		if len(args) == 0 {
			continue
		}

		switch args[0] {
		case "decode", "profiles":
			rootCmd.SetArgs(args)
			if err := rootCmd.Execute(); err != nil {
				fmt.Printf("Error: %v\n", err)
			}
		default:
			fmt.Printf("Unknown command: %s\n", args[0])
			fmt.Println("Type 'help' to see the list of available commands.")
		}
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
	}
}
