package control

import (
	"errors"
	"fmt"
	"strings"
)

// Verb identifies a control-plane command.
type Verb string

const (
	VerbLogin    Verb = "LOGIN"
	VerbAuth     Verb = "AUTH"
	VerbRegister Verb = "REGISTER"
	VerbExit     Verb = "XIT"
	VerbCreate   Verb = "CRT"
	VerbList     Verb = "LST"
	VerbMessage  Verb = "MSG"
	VerbRead     Verb = "RDT"
	VerbEdit     Verb = "EDT"
	VerbDelete   Verb = "DLT"
	VerbRemove   Verb = "RMV"
	VerbUpload   Verb = "UPD"
	VerbDownload Verb = "DWN"
)

// arity maps each verb to its expected argument count. The last argument
// absorbs the rest of the line, so message bodies and passwords may
// contain spaces.
var arity = map[Verb]int{
	VerbLogin:    1,
	VerbAuth:     2,
	VerbRegister: 2,
	VerbExit:     1,
	VerbCreate:   2,
	VerbList:     0,
	VerbMessage:  3,
	VerbRead:     1,
	VerbEdit:     4,
	VerbDelete:   3,
	VerbRemove:   2,
	VerbUpload:   3,
	VerbDownload: 3,
}

// usage holds the expected shape reported on arity violations.
var usage = map[Verb]string{
	VerbLogin:    "LOGIN <username>",
	VerbAuth:     "AUTH <username> <password>",
	VerbRegister: "REGISTER <username> <password>",
	VerbExit:     "XIT <username>",
	VerbCreate:   "CRT <username> <threadtitle>",
	VerbList:     "LST",
	VerbMessage:  "MSG <username> <threadtitle> <message>",
	VerbRead:     "RDT <threadtitle>",
	VerbEdit:     "EDT <username> <threadtitle> <messagenumber> <newmessage>",
	VerbDelete:   "DLT <username> <threadtitle> <messagenumber>",
	VerbRemove:   "RMV <username> <threadtitle>",
	VerbUpload:   "UPD <username> <threadtitle> <filename>",
	VerbDownload: "DWN <username> <threadtitle> <filename>",
}

// identityVerbs must be attributed to a logged-in user before dispatch.
var identityVerbs = map[Verb]bool{
	VerbExit:    true,
	VerbCreate:  true,
	VerbMessage: true,
	VerbEdit:    true,
	VerbDelete:  true,
	VerbRemove:  true,
	VerbUpload:  true,
}

// ErrUnknownVerb reports an unrecognized command word.
var ErrUnknownVerb = errors.New("unknown command")

// InvalidInputError reports a request that failed its verb's arity contract.
type InvalidInputError struct {
	Verb Verb
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s input", e.Verb)
}

// Command is one parsed control-plane request.
type Command struct {
	Verb Verb
	Args []string
	// Rest is the raw remainder after the verb, kept for verbs that echo
	// their arguments back.
	Rest string
}

// Parse tokenizes one raw request line into a typed command. The verb is
// case-normalized; the remainder is split against the verb's fixed arity,
// with the last field absorbing any remaining spaces.
func Parse(raw string) (*Command, error) {
	line := strings.TrimSpace(raw)
	verbToken, rest, _ := strings.Cut(line, " ")
	verb := Verb(strings.ToUpper(verbToken))

	n, ok := arity[verb]
	if !ok {
		return nil, ErrUnknownVerb
	}

	if n == 0 {
		return &Command{Verb: verb, Rest: rest}, nil
	}

	args := strings.SplitN(rest, " ", n)
	if len(args) < n {
		return nil, &InvalidInputError{Verb: verb}
	}
	// The last field may be empty so the stores can report their own
	// "empty body" / "empty name" conditions; empty middle fields are
	// always a malformed request.
	for i, a := range args {
		if a == "" && i != len(args)-1 {
			return nil, &InvalidInputError{Verb: verb}
		}
	}
	return &Command{Verb: verb, Args: args, Rest: rest}, nil
}
