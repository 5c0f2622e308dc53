package apps

import (
	"errors"
	"fmt"
	"strings"
)

var ErrNoExec = errors.New("no executable command")

// CommandLine turns a desktop Exec value into argv, expanding field codes.
// uris fill %f/%F/%u/%U; the launcher passes none.
func CommandLine(app *App, execLine string, uris []string) ([]string, error) {
	tokens, err := splitExec(execLine)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, ErrNoExec
	}

	argv := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if !tok.quoted {
			// Codes that expand to whole arguments only apply when they
			// stand alone.
			switch tok.text {
			case "%F", "%U":
				argv = append(argv, uris...)
				continue
			case "%f", "%u":
				if len(uris) > 0 {
					argv = append(argv, uris[0])
				}
				continue
			case "%i":
				if app != nil && app.Icon != "" {
					argv = append(argv, "--icon", app.Icon)
				}
				continue
			}
		}
		arg, keep := expandFieldCodes(app, tok.text, uris)
		if keep {
			argv = append(argv, arg)
		}
	}

	if len(argv) == 0 {
		return nil, ErrNoExec
	}
	return argv, nil
}

// expandFieldCodes replaces codes embedded inside an argument. keep is false
// when the argument was nothing but codes that expand to nothing.
func expandFieldCodes(app *App, arg string, uris []string) (string, bool) {
	if !strings.Contains(arg, "%") {
		return arg, true
	}
	var b strings.Builder
	expandedAny := false
	for i := 0; i < len(arg); i++ {
		c := arg[i]
		if c != '%' || i+1 == len(arg) {
			b.WriteByte(c)
			continue
		}
		i++
		switch arg[i] {
		case '%':
			b.WriteByte('%')
		case 'c':
			if app != nil {
				name, _ := app.DisplayName()
				b.WriteString(name)
			}
		case 'k':
			if app != nil {
				b.WriteString(app.File)
			}
		case 'f', 'u':
			if len(uris) > 0 {
				b.WriteString(uris[0])
			}
			expandedAny = true
		case 'F', 'U', 'i', 'd', 'D', 'n', 'N', 'v', 'm':
			expandedAny = true
		default:
			b.WriteByte('%')
			b.WriteByte(arg[i])
		}
	}
	out := b.String()
	if out == "" && expandedAny {
		return "", false
	}
	return out, true
}

type execToken struct {
	text   string
	quoted bool
}

// splitExec tokenizes an Exec value: whitespace separates arguments, double
// quotes group them and inside quotes \" \` \$ \\ are escapes.
func splitExec(line string) ([]execToken, error) {
	var tokens []execToken
	var b strings.Builder
	inToken, inQuotes, quoted := false, false, false

	flush := func() {
		if inToken {
			tokens = append(tokens, execToken{text: b.String(), quoted: quoted})
		}
		b.Reset()
		inToken, quoted = false, false
	}

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case inQuotes && c == '\\' && i+1 < len(line) && strings.IndexByte("\"`$\\", line[i+1]) >= 0:
			i++
			b.WriteByte(line[i])
		case c == '"':
			inQuotes = !inQuotes
			inToken, quoted = true, true
		case !inQuotes && (c == ' ' || c == '\t'):
			flush()
		default:
			inToken = true
			b.WriteByte(c)
		}
	}
	if inQuotes {
		return nil, fmt.Errorf("unterminated quote in Exec %q", line)
	}
	flush()

	return tokens, nil
}

// ShellQuote joins argv into a single POSIX shell command line.
func ShellQuote(argv []string) string {
	quoted := make([]string, len(argv))
	for i, arg := range argv {
		if arg != "" && strings.IndexFunc(arg, needsQuoting) < 0 {
			quoted[i] = arg
			continue
		}
		quoted[i] = "'" + strings.ReplaceAll(arg, "'", `'\''`) + "'"
	}
	return strings.Join(quoted, " ")
}

func needsQuoting(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return false
	case strings.ContainsRune("-_./=:,+@%", r):
		return false
	}
	return true
}
