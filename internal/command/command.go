// Package command parses and executes the quest service line protocol.
package command

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jglee22/OpenHorizons-sub001/internal/quest"
)

// SessionInterface is what commands need from a bound player session.
// It is satisfied by *server.Session.
type SessionInterface interface {
	PlayerID() string
	System() *quest.System
	// Save writes the player's quest system to storage.
	Save() error
	// Disconnect closes the connection after the current reply is sent.
	Disconnect()
}

type Command struct {
	Name string
	Args []string
}

// RequireArgs checks if the command has at least the minimum number of arguments
// Returns an error with the usage message if not enough arguments are provided
func (c *Command) RequireArgs(min int, usage string) error {
	if len(c.Args) < min {
		return errors.New(usage)
	}
	return nil
}

// GetTargetName joins all arguments into a single name (for multi-word NPCs and places)
func (c *Command) GetTargetName() string {
	return strings.Join(c.Args, " ")
}

func ParseCommand(input string) *Command {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return &Command{Name: "", Args: []string{}}
	}

	return &Command{
		Name: strings.ToLower(parts[0]),
		Args: parts[1:],
	}
}

// Execute runs the command for s and returns the reply.
func (c *Command) Execute(s SessionInterface) string {
	sys := s.System()
	if sys == nil {
		return "Internal error: no quest system bound"
	}

	switch c.Name {
	case "":
		return ""
	case "help", "?":
		return c.executeHelp()
	case "accept":
		return c.executeAccept(sys)
	case "register":
		return c.executeRegister(sys)
	case "report":
		return c.executeReport(sys)
	case "kill":
		return c.executeKill(sys)
	case "collect":
		return c.executeCollect(sys)
	case "reach":
		return c.executeReach(sys)
	case "talk":
		return c.executeTalk(sys)
	case "survive":
		return c.executeSurvive(sys)
	case "complete", "turnin":
		return c.executeComplete(sys)
	case "complete-waiting":
		return c.executeCompleteWaiting(sys)
	case "cancel", "abandon":
		return c.executeCancel(sys)
	case "quests", "journal":
		return showQuestList(sys)
	case "achievements":
		return showAchievementList(sys)
	case "show":
		return c.executeShow(sys)
	case "available":
		return c.executeAvailable(sys)
	case "save":
		if err := s.Save(); err != nil {
			return fmt.Sprintf("Save failed: %v", err)
		}
		return "Quest progress saved."
	case "quit", "exit":
		s.Disconnect()
		return "Goodbye!"
	default:
		return fmt.Sprintf("Unknown command: %s. Type 'help' for available commands.", c.Name)
	}
}

func (c *Command) executeHelp() string {
	return `Commands:
  accept <quest>                 Accept a quest if its prerequisites are met
  register <quest>               Start a quest without checking prerequisites
  report <category> <target> [n] Report progress directly
  kill <enemy> [n]               Report defeated enemies
  collect <item> [n]             Report collected items
  reach <name> [x y z]           Report reaching a location
  talk <npc>                     Report talking to an NPC
  survive <seconds>              Report time survived
  complete <quest>               Turn in a finished quest
  complete-waiting               Turn in every finished quest
  cancel <quest>                 Abandon a quest
  quests                         List active and completed quests
  achievements                   List achievements
  show <quest>                   Show quest details
  available <npc>                List quests an NPC offers you
  save                           Save quest progress
  quit                           Disconnect
Targets: plain names, id:<number>, any, or loc:<x>,<y>,<z>.`
}

// describeError turns quest errors into player-facing text
func describeError(codeName string, err error) string {
	switch {
	case errors.Is(err, quest.ErrQuestNotFound):
		return fmt.Sprintf("There is no quest called '%s'.", codeName)
	case errors.Is(err, quest.ErrNotAcceptable):
		return fmt.Sprintf("You cannot accept '%s' right now.", codeName)
	case errors.Is(err, quest.ErrNotActive):
		return fmt.Sprintf("'%s' is not one of your active quests.", codeName)
	case errors.Is(err, quest.ErrNotCompletable):
		return fmt.Sprintf("'%s' is not finished yet.", codeName)
	case errors.Is(err, quest.ErrNotCancelable):
		return fmt.Sprintf("'%s' cannot be abandoned.", codeName)
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}
