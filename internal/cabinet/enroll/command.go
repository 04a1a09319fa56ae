package enroll

import (
	"fmt"
	"strings"
)

// Command is one enrollment-session verb from the admin app.
type Command int

const (
	CommandAdmin Command = iota
	CommandStudent
	CommandShoebox
	CommandDone
)

func (c Command) String() string {
	switch c {
	case CommandAdmin:
		return "admin"
	case CommandStudent:
		return "student"
	case CommandShoebox:
		return "shoebox"
	case CommandDone:
		return "done"
	default:
		return fmt.Sprintf("Command(%d)", int(c))
	}
}

// ParseCommand maps a received token to a Command. Anything else is a
// protocol fault: the peer is confused and the session must be torn down.
func ParseCommand(token []byte) (Command, error) {
	switch strings.TrimSpace(string(token)) {
	case "admin":
		return CommandAdmin, nil
	case "student":
		return CommandStudent, nil
	case "shoebox":
		return CommandShoebox, nil
	case "done":
		return CommandDone, nil
	default:
		return 0, fmt.Errorf("unrecognized command %q", token)
	}
}
