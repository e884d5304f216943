// Copyright 2026 fanjia1024
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// policypulse 命令行客户端：对 API 的交互式聊天前端
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(0)
	}
	switch os.Args[1] {
	case "version":
		fmt.Println("policypulse cli 0.1.0")
	case "health":
		if err := checkHealth(); err != nil {
			fmt.Fprintf(os.Stderr, "health check failed: %v\n", err)
			os.Exit(1)
		}
	case "chat":
		runChat()
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`policypulse - insurance policy assistant

Usage:
  policypulse chat       start an interactive chat session
  policypulse health     check API availability
  policypulse version    print version

In chat, besides plain questions you can use:
  /upload <file.pdf>     upload a policy document
  /cleardoc              remove the active document
  /memory                show stored memory summaries
  /clearmem              clear memory
  /stream on|off         toggle streaming mode
  /quit                  exit`)
}

func runChat() {
	sessionID, err := createSession()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot start a session: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("session %s ready. Ask about your policy (/quit to exit).\n", sessionID)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if quit := runCommand(sessionID, line); quit {
				return
			}
			continue
		}

		result, err := sendChat(sessionID, line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		fmt.Println(result.Reply)
		if result.Rationale != "" {
			fmt.Printf("  rationale: %s\n", result.Rationale)
		}
		if len(result.Suggestions) > 0 {
			fmt.Println("  you might also ask:")
			for _, s := range result.Suggestions {
				fmt.Printf("   - %s\n", s)
			}
		}
	}
}

// runCommand 处理斜杠命令，返回是否退出
func runCommand(sessionID, line string) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit", "/exit":
		return true
	case "/upload":
		if len(fields) < 2 {
			fmt.Println("usage: /upload <file.pdf>")
			return false
		}
		if err := uploadDocument(sessionID, fields[1]); err != nil {
			fmt.Fprintf(os.Stderr, "upload failed: %v\n", err)
		}
	case "/cleardoc":
		if err := clearDocument(sessionID); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
	case "/memory":
		count, summaries, err := getMemory(sessionID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return false
		}
		fmt.Printf("%d summaries stored\n", count)
		for i, s := range summaries {
			fmt.Printf("%d. %s\n", i+1, s)
		}
	case "/clearmem":
		if err := clearMemory(sessionID); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
	case "/stream":
		if len(fields) < 2 || (fields[1] != "on" && fields[1] != "off") {
			fmt.Println("usage: /stream on|off")
			return false
		}
		if err := setStreaming(sessionID, fields[1] == "on"); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
	default:
		fmt.Printf("unknown command %s\n", fields[0])
	}
	return false
}
