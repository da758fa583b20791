package test

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/jglee22/OpenHorizons-sub001/internal/testclient"
)

// runID keeps player ids from colliding with saves left by earlier runs
var runID = strings.ReplaceAll(uuid.NewString(), "-", "")[:8]

// uniqueCounter provides unique IDs for test players within a single run
var uniqueCounter uint64

// uniqueName generates a player id from base, the run id and a letter suffix
func uniqueName(base string) string {
	counter := atomic.AddUint64(&uniqueCounter, 1)
	return base + "-" + runID + counterToLetters(counter)
}

// counterToLetters converts a number to a letter sequence (1=a, 2=b, ..., 26=z, 27=aa, 28=ab, ...)
func counterToLetters(n uint64) string {
	if n == 0 {
		return "a"
	}
	result := ""
	for n > 0 {
		n--
		result = string(rune('a'+(n%26))) + result
		n /= 26
	}
	return result
}

// Verbose controls whether detailed logging is shown during tests
var Verbose = false

// Target is the questd a run talks to
type Target struct {
	Addr string
	Key  string // Gateway key, empty when the server has none
}

// TestResult represents the result of a test
type TestResult struct {
	Name    string
	Passed  bool
	Message string
}

func pass(name, msg string) TestResult {
	return TestResult{Name: name, Passed: true, Message: msg}
}

func fail(name string, client *testclient.TestClient, format string, args ...any) TestResult {
	msg := fmt.Sprintf(format, args...)
	if client != nil {
		msg += fmt.Sprintf(". Got: %v", client.GetMessages())
	}
	return TestResult{Name: name, Passed: false, Message: msg}
}

// logAction logs a test action when verbose mode is enabled
func logAction(testName, action string) {
	if Verbose {
		fmt.Printf("  [%s] %s\n", testName, action)
	}
}

// logResult logs an expected vs actual result when verbose mode is enabled
func logResult(testName string, success bool, detail string) {
	if Verbose {
		status := "OK"
		if !success {
			status = "FAIL"
		}
		fmt.Printf("  [%s] %s: %s\n", testName, status, detail)
	}
}

// connect opens a session for a fresh player
func (t Target) connect(testName, base string) (*testclient.TestClient, TestResult, bool) {
	player := uniqueName(base)
	logAction(testName, "Connecting as "+player)
	client, err := testclient.NewTestClient(player, t.Key, t.Addr)
	if err != nil {
		return nil, fail(testName, nil, "Connection failed: %v", err), false
	}
	return client, TestResult{}, true
}

// step sends cmd and reports whether want came back
func step(testName string, client *testclient.TestClient, cmd, want string) bool {
	logAction(testName, "> "+cmd)
	ok := client.Run(cmd, want)
	logResult(testName, ok, fmt.Sprintf("expected %q", want))
	return ok
}

// RunAllTests runs every scenario against a live questd loaded with the
// shipped starter content
func RunAllTests(target Target) []TestResult {
	scenarios := []func(Target) TestResult{
		TestHandshake,
		TestAcceptAndTurnIn,
		TestPrerequisites,
		TestStagedQuest,
		TestAutoComplete,
		TestSharedProgress,
		TestCancel,
		TestSaveAndReconnect,
	}

	results := make([]TestResult, 0, len(scenarios))
	for _, scenario := range scenarios {
		results = append(results, scenario(target))
	}
	return results
}

// PrintResults prints a summary of test results
func PrintResults(results []TestResult) {
	passed := 0
	failed := 0

	fmt.Println("============================================================")
	fmt.Println("Integration Test Results")
	fmt.Println("============================================================")
	fmt.Println()

	for _, r := range results {
		status := "PASS"
		if !r.Passed {
			status = "FAIL"
			failed++
		} else {
			passed++
		}
		fmt.Printf("[%s] %s: %s\n", status, r.Name, r.Message)
	}

	fmt.Println()
	fmt.Println("------------------------------------------------------------")
	fmt.Printf("Total: %d | Passed: %d | Failed: %d\n", len(results), passed, failed)
	fmt.Println("------------------------------------------------------------")
}
