package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/jglee22/OpenHorizons-sub001/test"
)

func main() {
	serverAddr := flag.String("addr", "localhost:4000", "questd telnet address")
	key := flag.String("key", "", "Gateway key, when the server requires one")
	verbose := flag.Bool("v", false, "Verbose output - show each command and expected reply")
	flag.Parse()

	test.Verbose = *verbose

	fmt.Printf("Running integration tests against %s\n", *serverAddr)
	fmt.Println("The server must be running with the shipped data/quests content.")
	fmt.Println()

	results := test.RunAllTests(test.Target{Addr: *serverAddr, Key: *key})
	test.PrintResults(results)

	for _, result := range results {
		if !result.Passed {
			os.Exit(1)
		}
	}
}
