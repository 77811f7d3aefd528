package tracker

import (
	"regexp"
	"strconv"
	"strings"

	domain "github.com/example/slack-task-tracker/domain/task"
)

var mentionPattern = regexp.MustCompile(`<@([A-Z0-9]+)(?:\|[^>]*)?>`)

// TaskRequest is the result of parsing a creation mention.
type TaskRequest struct {
	DeveloperID      string
	ProjectManagerID string
	Title            string
	Description      string
}

// ParseTaskRequest extracts the assignees and text of a creation request.
// Mentions of botUserID are ignored. The first remaining mention is the
// developer, the next distinct one the project manager. The first non-empty
// line of the remaining text is the title, the rest the description.
func ParseTaskRequest(text, botUserID string) TaskRequest {
	var req TaskRequest
	for _, m := range mentionPattern.FindAllStringSubmatch(text, -1) {
		id := m[1]
		if id == botUserID {
			continue
		}
		switch {
		case req.DeveloperID == "":
			req.DeveloperID = id
		case req.ProjectManagerID == "" && id != req.DeveloperID:
			req.ProjectManagerID = id
		}
	}
	if req.ProjectManagerID == "" {
		req.ProjectManagerID = req.DeveloperID
	}

	stripped := mentionPattern.ReplaceAllString(text, "")
	var lines []string
	for _, line := range strings.Split(stripped, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" && len(lines) == 0 {
			continue
		}
		lines = append(lines, line)
	}
	if len(lines) > 0 {
		req.Title = lines[0]
		req.Description = strings.TrimSpace(strings.Join(lines[1:], "\n"))
	}
	if req.Title == "" {
		req.Title = domain.DefaultTitle
	}
	return req
}

// Command is a parsed /tasks invocation.
type Command struct {
	Verb   string
	TaskID int64
	Status domain.Status
}

// Command verbs.
const (
	VerbList   = "list"
	VerbShow   = "show"
	VerbDelete = "delete"
	VerbHelp   = "help"
)

// ParseCommand parses the text of a /tasks slash command. Unknown input
// yields a Command with VerbHelp and ok false.
func ParseCommand(text string) (cmd Command, ok bool) {
	fields := strings.Fields(strings.ToLower(text))
	if len(fields) == 0 {
		return Command{Verb: VerbList}, true
	}

	switch fields[0] {
	case VerbShow, VerbDelete:
		if len(fields) != 2 {
			return Command{Verb: VerbHelp}, false
		}
		id, err := strconv.ParseInt(strings.TrimPrefix(fields[1], "#"), 10, 64)
		if err != nil || id <= 0 {
			return Command{Verb: VerbHelp}, false
		}
		return Command{Verb: fields[0], TaskID: id}, true
	case VerbHelp:
		return Command{Verb: VerbHelp}, len(fields) == 1
	case VerbList:
		fields = fields[1:]
	}

	switch len(fields) {
	case 0:
		return Command{Verb: VerbList}, true
	case 1:
		status, known := domain.ParseStatus(fields[0])
		if !known {
			return Command{Verb: VerbHelp}, false
		}
		return Command{Verb: VerbList, Status: status}, true
	default:
		return Command{Verb: VerbHelp}, false
	}
}
