package command

import (
	"fmt"
	"strings"

	"github.com/jglee22/OpenHorizons-sub001/internal/quest"
)

func (c *Command) executeAccept(sys *quest.System) string {
	if err := c.RequireArgs(1, "Usage: accept <quest>"); err != nil {
		return err.Error()
	}
	codeName := c.Args[0]
	q, err := sys.Accept(codeName)
	if err != nil {
		return describeError(codeName, err)
	}
	return fmt.Sprintf("Quest accepted: %s", q.DisplayName())
}

func (c *Command) executeRegister(sys *quest.System) string {
	if err := c.RequireArgs(1, "Usage: register <quest>"); err != nil {
		return err.Error()
	}
	codeName := c.Args[0]
	q, err := sys.RegisterByCode(codeName)
	if err != nil {
		return describeError(codeName, err)
	}
	return fmt.Sprintf("Quest registered: %s [%s]", q.DisplayName(), questState(sys, q))
}

func (c *Command) executeComplete(sys *quest.System) string {
	if err := c.RequireArgs(1, "Usage: complete <quest>"); err != nil {
		return err.Error()
	}
	codeName := c.Args[0]
	q, err := sys.TurnIn(codeName)
	if err != nil {
		return describeError(codeName, err)
	}
	return fmt.Sprintf("Quest complete: %s", q.DisplayName())
}

func (c *Command) executeCompleteWaiting(sys *quest.System) string {
	completed := sys.CompleteWaitingQuests()
	if len(completed) == 0 {
		return "No quests are waiting to be turned in."
	}
	names := make([]string, 0, len(completed))
	for _, q := range completed {
		names = append(names, q.CodeName())
	}
	return fmt.Sprintf("Completed %d quest(s): %s", len(completed), strings.Join(names, ", "))
}

func (c *Command) executeCancel(sys *quest.System) string {
	if err := c.RequireArgs(1, "Usage: cancel <quest>"); err != nil {
		return err.Error()
	}
	codeName := c.Args[0]
	if err := sys.CancelByCode(codeName); err != nil {
		return describeError(codeName, err)
	}
	return fmt.Sprintf("Quest abandoned: %s", codeName)
}

func (c *Command) executeShow(sys *quest.System) string {
	if err := c.RequireArgs(1, "Usage: show <quest>"); err != nil {
		return err.Error()
	}
	codeName := c.Args[0]
	q, ok := sys.Find(codeName)
	if !ok {
		def, found := sys.Database().FindQuestBy(codeName)
		if !found {
			return describeError(codeName, quest.ErrQuestNotFound)
		}
		return formatDefinition(def)
	}

	var out string
	sys.Do(func() {
		out = formatQuestDetails(q)
	})
	return out
}

func (c *Command) executeAvailable(sys *quest.System) string {
	if err := c.RequireArgs(1, "Usage: available <npc>"); err != nil {
		return err.Error()
	}
	npcID := c.GetTargetName()
	available := sys.AvailableQuests(npcID)
	if len(available) == 0 {
		return fmt.Sprintf("%s has no quests for you.", npcID)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("=== Quests from %s ===\n", npcID))
	for _, def := range available {
		sb.WriteString(fmt.Sprintf("  %s - %s\n", def.CodeName, definitionTitle(def)))
	}
	sb.WriteString("\nUse 'accept <quest>' to take one.")
	return sb.String()
}

// showQuestList shows active quests with progress and a count of completed ones
func showQuestList(sys *quest.System) string {
	active := sys.ActiveQuests()
	completed := sys.CompletedQuests()
	if len(active) == 0 && len(completed) == 0 {
		return "Your quest journal is empty. Use 'available <npc>' to find quests!"
	}

	var sb strings.Builder
	sb.WriteString("=== Quest Journal ===\n")
	sys.Do(func() {
		for _, q := range active {
			writeQuestProgress(&sb, q)
		}
	})
	sb.WriteString(fmt.Sprintf("Completed Quests: %d", len(completed)))
	for _, q := range completed {
		sb.WriteString("\n  " + q.CodeName())
	}
	return sb.String()
}

func showAchievementList(sys *quest.System) string {
	active := sys.ActiveAchievements()
	completed := sys.CompletedAchievements()
	if len(active) == 0 && len(completed) == 0 {
		return "You have no achievements."
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("=== Achievements (%d/%d) ===\n", len(completed), len(active)+len(completed)))
	for _, q := range completed {
		sb.WriteString(fmt.Sprintf("[DONE] %s\n", q.DisplayName()))
	}
	sys.Do(func() {
		for _, q := range active {
			writeQuestProgress(&sb, q)
		}
	})
	return strings.TrimSuffix(sb.String(), "\n")
}

// writeQuestProgress writes a status line and the current group's tasks.
// Callers hold the system via Do.
func writeQuestProgress(sb *strings.Builder, q *quest.Quest) {
	sb.WriteString(fmt.Sprintf("%s %s\n", statusTag(q), q.DisplayName()))
	group := q.CurrentTaskGroup()
	if group == nil {
		return
	}
	for _, task := range group.Tasks() {
		sb.WriteString(fmt.Sprintf("  - %s: %d/%d\n",
			taskLabel(task), task.CurrentSuccess(), task.NeedSuccessToComplete()))
	}
}

// formatQuestDetails renders a held quest. Callers hold the system via Do.
func formatQuestDetails(q *quest.Quest) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("=== %s %s ===\n", statusTag(q), q.DisplayName()))
	if q.Description() != "" {
		sb.WriteString(q.Description() + "\n")
	}

	groups := q.TaskGroups()
	for i, group := range groups {
		sb.WriteString(fmt.Sprintf("\nStage %d/%d", i+1, len(groups)))
		if i == q.CurrentTaskGroupIndex() && !q.IsComplete() {
			sb.WriteString(" (current)")
		}
		sb.WriteString(":\n")
		for _, task := range group.Tasks() {
			checkmark := " "
			if task.IsComplete() {
				checkmark = "x"
			}
			sb.WriteString(fmt.Sprintf("  [%s] %s: %d/%d\n",
				checkmark, taskLabel(task), task.CurrentSuccess(), task.NeedSuccessToComplete()))
		}
	}

	def := q.Definition()
	if def.TurnInNPC != "" && !q.IsAutoComplete() {
		sb.WriteString(fmt.Sprintf("\nTurn in to: %s\n", def.TurnInNPC))
	}
	writeRewards(&sb, q.Rewards())

	return strings.TrimSuffix(sb.String(), "\n")
}

// formatDefinition renders a quest the player does not hold
func formatDefinition(def *quest.Definition) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("=== %s ===\n", definitionTitle(def)))
	if def.Description != "" {
		sb.WriteString(def.Description + "\n")
	}
	if def.GiverNPC != "" {
		sb.WriteString(fmt.Sprintf("Offered by: %s\n", def.GiverNPC))
	}
	if def.HasPrereqs() {
		sb.WriteString(fmt.Sprintf("Requires: %s\n", strings.Join(def.Prereqs, ", ")))
	}
	sb.WriteString(fmt.Sprintf("Stages: %d, tasks: %d\n", len(def.TaskGroups), def.TaskCount()))
	writeRewards(&sb, def.Rewards)
	return strings.TrimSuffix(sb.String(), "\n")
}

func writeRewards(sb *strings.Builder, rewards []quest.Reward) {
	if len(rewards) == 0 {
		return
	}
	sb.WriteString("\nRewards:\n")
	for _, r := range rewards {
		sb.WriteString(fmt.Sprintf("  - %s\n", r.Description()))
	}
}

func statusTag(q *quest.Quest) string {
	switch q.State() {
	case quest.QuestWaitingForCompletion:
		return "[READY]"
	case quest.QuestComplete:
		return "[COMPLETE]"
	case quest.QuestCanceled:
		return "[CANCELED]"
	default:
		return "[IN PROGRESS]"
	}
}

// taskLabel describes a task by its description, or by verb and targets
func taskLabel(task *quest.Task) string {
	if task.Description() != "" {
		return task.Description()
	}
	targets := make([]string, 0, len(task.Targets()))
	for _, t := range task.Targets() {
		targets = append(targets, t.String())
	}
	return fmt.Sprintf("%s %s", categoryVerb(task.Category().CodeName), strings.Join(targets, "/"))
}

func categoryVerb(category string) string {
	switch category {
	case quest.CategoryCombat:
		return "Defeat"
	case quest.CategoryCollection:
		return "Collect"
	case quest.CategoryExploration:
		return "Reach"
	case quest.CategorySocial:
		return "Talk to"
	case quest.CategorySurvival:
		return "Survive"
	default:
		return "Complete"
	}
}

func questState(sys *quest.System, q *quest.Quest) string {
	var state string
	sys.Do(func() {
		state = q.State().String()
	})
	return state
}

func definitionTitle(def *quest.Definition) string {
	if def.DisplayName != "" {
		return def.DisplayName
	}
	return def.CodeName
}
