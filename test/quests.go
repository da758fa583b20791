package test

import (
	"time"

	"github.com/jglee22/OpenHorizons-sub001/internal/testclient"
)

// TestHandshake checks the hello gate before any quest command runs
func TestHandshake(t Target) TestResult {
	const testName = "Handshake"

	client, err := testclient.NewTestClientRaw(t.Addr)
	if err != nil {
		return fail(testName, nil, "Connection failed: %v", err)
	}
	defer client.Close()

	if !step(testName, client, "quests", "Say 'hello <player> [key]' first.") {
		return fail(testName, client, "Command before hello was not refused")
	}
	if !step(testName, client, "hello bad/name", "Invalid player name") {
		return fail(testName, client, "Invalid player id was accepted")
	}
	if !step(testName, client, "hello admin", "That player name is reserved.") {
		return fail(testName, client, "Reserved player id was accepted")
	}

	hello := "hello " + uniqueName("hs")
	if t.Key != "" {
		hello += " " + t.Key
	}
	if !step(testName, client, hello, "Welcome,") {
		return fail(testName, client, "Valid hello was refused")
	}

	return pass(testName, "hello gate works correctly")
}

// TestAcceptAndTurnIn runs a single-stage quest from accept to turn-in
func TestAcceptAndTurnIn(t Target) TestResult {
	const testName = "Accept And Turn In"

	client, res, ok := t.connect(testName, "grunt")
	if !ok {
		return res
	}
	defer client.Close()

	if !step(testName, client, "accept kill_3_grunts", "Quest accepted: Grunt Trouble") {
		return fail(testName, client, "Accept failed")
	}
	if !step(testName, client, "complete kill_3_grunts", "'kill_3_grunts' is not finished yet.") {
		return fail(testName, client, "Unfinished quest was turned in")
	}
	if !step(testName, client, "kill Grunt 3", "You defeated Grunt x3.") {
		return fail(testName, client, "Kill report failed")
	}
	if !step(testName, client, "complete kill_3_grunts", "Quest complete: Grunt Trouble") {
		return fail(testName, client, "Turn-in failed")
	}
	if !client.HasMessage("event quest_completed kill_3_grunts") {
		return fail(testName, client, "No completion event was pushed")
	}

	return pass(testName, "kill_3_grunts completed")
}

// TestPrerequisites checks a quest stays locked until its prerequisite is done
func TestPrerequisites(t Target) TestResult {
	const testName = "Prerequisites"

	client, res, ok := t.connect(testName, "prereq")
	if !ok {
		return res
	}
	defer client.Close()

	if !step(testName, client, "accept elder_errand", "You cannot accept 'elder_errand' right now.") {
		return fail(testName, client, "Locked quest was accepted")
	}
	if !completeGrunts(testName, client) {
		return fail(testName, client, "Could not finish kill_3_grunts")
	}
	if !step(testName, client, "accept elder_errand", "Quest accepted: The Elder's Errand") {
		return fail(testName, client, "Unlocked quest was refused")
	}

	return pass(testName, "elder_errand unlocks after kill_3_grunts")
}

// TestStagedQuest walks both stages of elder_errand
func TestStagedQuest(t Target) TestResult {
	const testName = "Staged Quest"

	client, res, ok := t.connect(testName, "staged")
	if !ok {
		return res
	}
	defer client.Close()

	if !completeGrunts(testName, client) {
		return fail(testName, client, "Could not finish kill_3_grunts")
	}
	if !step(testName, client, "accept elder_errand", "Quest accepted") {
		return fail(testName, client, "Accept failed")
	}

	// Second-stage reports before the first stage is done are ignored
	step(testName, client, "collect herb 5", "You collected herb x5.")
	if !step(testName, client, "talk elder", "You talk to elder.") {
		return fail(testName, client, "Talk report failed")
	}
	if !step(testName, client, "show elder_errand", "Collect herb/moonleaf: 0/5") {
		return fail(testName, client, "Second stage did not start from zero")
	}

	step(testName, client, "collect herb 3", "You collected herb x3.")
	step(testName, client, "collect moonleaf 2", "You collected moonleaf x2.")
	step(testName, client, "collect spring_water", "You collected spring_water x1.")
	if !step(testName, client, "complete elder_errand", "Quest complete: The Elder's Errand") {
		return fail(testName, client, "Turn-in failed")
	}

	return pass(testName, "both stages completed")
}

// TestAutoComplete checks an auto_complete quest finishes on its last report
func TestAutoComplete(t Target) TestResult {
	const testName = "Auto Complete"

	client, res, ok := t.connect(testName, "scout")
	if !ok {
		return res
	}
	defer client.Close()

	if !step(testName, client, "accept scout_the_mine", "Quest accepted: Scout the Mine") {
		return fail(testName, client, "Accept failed")
	}
	if !step(testName, client, "reach old_mine 125 0 -40", "event quest_completed scout_the_mine") {
		return fail(testName, client, "Reaching the mine did not complete the quest")
	}

	return pass(testName, "scout_the_mine auto-completed")
}

// TestSharedProgress checks two connections for one player see the same quests
func TestSharedProgress(t Target) TestResult {
	const testName = "Shared Progress"

	player := uniqueName("shared")
	first, err := testclient.NewTestClient(player, t.Key, t.Addr)
	if err != nil {
		return fail(testName, nil, "First connection failed: %v", err)
	}
	defer first.Close()
	second, err := testclient.NewTestClient(player, t.Key, t.Addr)
	if err != nil {
		return fail(testName, nil, "Second connection failed: %v", err)
	}
	defer second.Close()

	second.ClearMessages()
	if !step(testName, first, "accept kill_3_grunts", "Quest accepted") {
		return fail(testName, first, "Accept failed")
	}
	if !second.WaitForMessage("event quest_registered kill_3_grunts", 2*time.Second) {
		return fail(testName, second, "Second connection missed the event")
	}
	step(testName, first, "kill Grunt 2", "You defeated Grunt x2.")
	if !step(testName, second, "show kill_3_grunts", "2/3") {
		return fail(testName, second, "Progress was not shared")
	}

	return pass(testName, "progress shared across connections")
}

// TestCancel checks abandoning a cancelable and a non-cancelable quest
func TestCancel(t Target) TestResult {
	const testName = "Cancel"

	client, res, ok := t.connect(testName, "cancel")
	if !ok {
		return res
	}
	defer client.Close()

	step(testName, client, "accept kill_3_grunts", "Quest accepted")
	if !step(testName, client, "cancel kill_3_grunts", "Quest abandoned: kill_3_grunts") {
		return fail(testName, client, "Cancel failed")
	}
	step(testName, client, "accept forge_blade", "Quest accepted")
	if !step(testName, client, "cancel forge_blade", "'forge_blade' cannot be abandoned.") {
		return fail(testName, client, "Non-cancelable quest was abandoned")
	}

	return pass(testName, "cancel rules enforced")
}

// TestSaveAndReconnect checks progress survives a disconnect
func TestSaveAndReconnect(t Target) TestResult {
	const testName = "Save And Reconnect"

	player := uniqueName("saver")
	client, err := testclient.NewTestClient(player, t.Key, t.Addr)
	if err != nil {
		return fail(testName, nil, "Connection failed: %v", err)
	}
	step(testName, client, "accept kill_3_grunts", "Quest accepted")
	step(testName, client, "kill Grunt 1", "You defeated Grunt x1.")
	if !step(testName, client, "save", "Quest progress saved.") {
		client.Close()
		return fail(testName, client, "Save failed")
	}
	step(testName, client, "quit", "Goodbye!")
	client.Close()

	// The last session saves again on detach
	time.Sleep(200 * time.Millisecond)

	again, err := testclient.NewTestClient(player, t.Key, t.Addr)
	if err != nil {
		return fail(testName, nil, "Reconnect failed: %v", err)
	}
	defer again.Close()
	if !step(testName, again, "show kill_3_grunts", "1/3") {
		return fail(testName, again, "Progress was lost")
	}

	return pass(testName, "progress restored after reconnect")
}

func completeGrunts(testName string, client *testclient.TestClient) bool {
	return step(testName, client, "accept kill_3_grunts", "Quest accepted") &&
		step(testName, client, "kill Grunt 3", "You defeated Grunt x3.") &&
		step(testName, client, "complete kill_3_grunts", "Quest complete")
}
