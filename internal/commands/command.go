package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sandeepkv93/checkoff/internal/model"
)

type Type string

const (
	TypeAdd    Type = "add"
	TypeDone   Type = "done"
	TypeClear  Type = "clear"
	TypeExport Type = "export"
	TypeImport Type = "import"
	TypeTheme  Type = "theme"
)

type ErrorCode string

const (
	ErrCodeEmptyInput      ErrorCode = "empty_input"
	ErrCodeUnknownCommand  ErrorCode = "unknown_command"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrCodeHandlerMissing  ErrorCode = "handler_missing"
)

const dueToken = "due:"

type CommandError struct {
	Code    ErrorCode
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

type AddArgs struct {
	Title   string
	DueDate string
}

type DoneArgs struct {
	ID int64
}

type ExportArgs struct {
	Format string
}

type ImportArgs struct {
	Path string
}

type Command struct {
	Type   Type
	Raw    string
	Add    *AddArgs
	Done   *DoneArgs
	Export *ExportArgs
	Import *ImportArgs
}

// Parse reads one palette line. A leading slash is optional.
//
//	add <title...> [due:YYYY-MM-DD]
//	done <id>
//	clear
//	export [json|toon]
//	import <path>
//	theme
func Parse(input string) (Command, error) {
	raw := strings.TrimSpace(input)
	raw = strings.TrimSpace(strings.TrimPrefix(raw, "/"))
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}

	parts := strings.Fields(raw)
	head := strings.ToLower(parts[0])
	args := parts[1:]

	switch Type(head) {
	case TypeAdd:
		return parseAdd(input, args)
	case TypeDone:
		return parseDone(input, args)
	case TypeClear:
		return Command{Type: TypeClear, Raw: input}, nil
	case TypeExport:
		return parseExport(input, args)
	case TypeImport:
		return parseImport(input, args)
	case TypeTheme:
		return Command{Type: TypeTheme, Raw: input}, nil
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

func parseAdd(raw string, args []string) (Command, error) {
	var titleParts []string
	due := ""
	for _, arg := range args {
		if strings.HasPrefix(strings.ToLower(arg), dueToken) {
			due = strings.TrimSpace(arg[len(dueToken):])
			continue
		}
		titleParts = append(titleParts, arg)
	}
	title := strings.TrimSpace(strings.Join(titleParts, " "))
	if title == "" {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "add requires a title"}
	}
	if due != "" {
		if _, err := model.ParseDueDate(due); err != nil {
			return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("due date must be YYYY-MM-DD, got %q", due)}
		}
	}
	return Command{Type: TypeAdd, Raw: raw, Add: &AddArgs{Title: title, DueDate: due}}, nil
}

func parseDone(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "done requires exactly one task id"}
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("invalid task id: %s", args[0])}
	}
	return Command{Type: TypeDone, Raw: raw, Done: &DoneArgs{ID: id}}, nil
}

func parseExport(raw string, args []string) (Command, error) {
	if len(args) > 1 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "export takes at most one format"}
	}
	format := "json"
	if len(args) == 1 {
		format = strings.ToLower(args[0])
	}
	if format != "json" && format != "toon" {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("unsupported export format: %s", format)}
	}
	return Command{Type: TypeExport, Raw: raw, Export: &ExportArgs{Format: format}}, nil
}

func parseImport(raw string, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "import requires a file path"}
	}
	return Command{Type: TypeImport, Raw: raw, Import: &ImportArgs{Path: strings.Join(args, " ")}}, nil
}
