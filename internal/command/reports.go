package command

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jglee22/OpenHorizons-sub001/internal/quest"
)

// parseTarget reads a target argument: id:<n>, loc:<x>,<y>,<z>, any, or a plain name
func parseTarget(arg string) (quest.Target, error) {
	lower := strings.ToLower(arg)
	switch {
	case lower == "any":
		return quest.AnyTarget{}, nil
	case strings.HasPrefix(lower, "id:"):
		id, err := strconv.ParseInt(arg[3:], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id target %q", arg)
		}
		return quest.IDTarget(id), nil
	case strings.HasPrefix(lower, "loc:"):
		pos, err := parseVector(strings.Split(arg[4:], ","))
		if err != nil {
			return nil, err
		}
		return quest.LocationTarget{Position: pos}, nil
	default:
		return quest.StringTarget(arg), nil
	}
}

func parseVector(parts []string) (quest.Vector3, error) {
	if len(parts) != 3 {
		return quest.Vector3{}, fmt.Errorf("a position needs x, y and z")
	}
	var coords [3]float64
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return quest.Vector3{}, fmt.Errorf("invalid coordinate %q", part)
		}
		coords[i] = v
	}
	return quest.Vector3{X: coords[0], Y: coords[1], Z: coords[2]}, nil
}

// parseCount reads an optional count argument, defaulting to 1.
// Negative counts are allowed for raw reports that feed negative actions.
func parseCount(args []string, index int) (int, error) {
	if len(args) <= index {
		return 1, nil
	}
	n, err := strconv.Atoi(args[index])
	if err != nil {
		return 0, fmt.Errorf("invalid count %q", args[index])
	}
	return n, nil
}

// parseAmount reads an optional count that must be positive
func parseAmount(args []string, index int) (int, error) {
	n, err := parseCount(args, index)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, errors.New("Count must be a positive number.")
	}
	return n, nil
}

func (c *Command) executeReport(sys *quest.System) string {
	if err := c.RequireArgs(2, "Usage: report <category> <target> [count]"); err != nil {
		return err.Error()
	}
	target, err := parseTarget(c.Args[1])
	if err != nil {
		return err.Error()
	}
	count, err := parseCount(c.Args, 2)
	if err != nil {
		return err.Error()
	}
	sys.ReceiveReport(c.Args[0], target, count)
	return fmt.Sprintf("Reported %s %s x%d.", c.Args[0], target, count)
}

func (c *Command) executeKill(sys *quest.System) string {
	if err := c.RequireArgs(1, "Usage: kill <enemy> [count]"); err != nil {
		return err.Error()
	}
	count, err := parseAmount(c.Args, 1)
	if err != nil {
		return err.Error()
	}
	sys.ReportEnemyKilled(c.Args[0], count)
	return fmt.Sprintf("You defeated %s x%d.", c.Args[0], count)
}

func (c *Command) executeCollect(sys *quest.System) string {
	if err := c.RequireArgs(1, "Usage: collect <item> [count]"); err != nil {
		return err.Error()
	}
	count, err := parseAmount(c.Args, 1)
	if err != nil {
		return err.Error()
	}
	sys.ReportItemCollected(c.Args[0], count)
	return fmt.Sprintf("You collected %s x%d.", c.Args[0], count)
}

func (c *Command) executeReach(sys *quest.System) string {
	if err := c.RequireArgs(1, "Usage: reach <name> [x y z]"); err != nil {
		return err.Error()
	}
	if len(c.Args) == 1 {
		sys.ReportLocationNamed(c.Args[0])
		return fmt.Sprintf("You reached %s.", c.Args[0])
	}
	if len(c.Args) != 4 {
		return "Usage: reach <name> [x y z]"
	}
	pos, err := parseVector(c.Args[1:])
	if err != nil {
		return err.Error()
	}
	sys.ReportLocationReached(pos, c.Args[0])
	return fmt.Sprintf("You reached %s.", c.Args[0])
}

func (c *Command) executeTalk(sys *quest.System) string {
	if err := c.RequireArgs(1, "Usage: talk <npc>"); err != nil {
		return err.Error()
	}
	npc := c.GetTargetName()
	sys.ReportNPCTalked(npc, npc)
	return fmt.Sprintf("You talk to %s.", npc)
}

func (c *Command) executeSurvive(sys *quest.System) string {
	if err := c.RequireArgs(1, "Usage: survive <seconds>"); err != nil {
		return err.Error()
	}
	seconds, err := strconv.Atoi(c.Args[0])
	if err != nil || seconds <= 0 {
		return "Seconds must be a positive number."
	}
	sys.ReportTimeElapsed(seconds)
	return fmt.Sprintf("You survived %d seconds.", seconds)
}
