package apps

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	mainGroup    = "Desktop Entry"
	actionPrefix = "Desktop Action "
)

// entryGroup holds the raw keys of one key-file group. Localized keys are
// stored under their full name, e.g. "Name[de]".
type entryGroup map[string]string

// localized picks the best localized variant of key for the given locale
// candidates, falling back to the plain key.
func (g entryGroup) localized(key string, locales []string) string {
	for _, locale := range locales {
		if v, ok := g[key+"["+locale+"]"]; ok {
			return v
		}
	}
	return g[key]
}

func (g entryGroup) bool(key string) bool {
	return strings.TrimSpace(g[key]) == "true"
}

// ParseDesktopEntry parses a freedesktop desktop entry. id is the desktop
// file ID the entry was found under.
func ParseDesktopEntry(r io.Reader, id string) (*App, error) {
	groups, order, err := parseKeyFile(r)
	if err != nil {
		return nil, err
	}

	main, ok := groups[mainGroup]
	if !ok {
		return nil, fmt.Errorf("invalid desktop file %s: missing [%s] group", id, mainGroup)
	}

	locales := localeCandidates(currentLocale())

	app := &App{
		ID:          id,
		Type:        main["Type"],
		Name:        unescapeValue(main.localized("Name", locales)),
		GenericName: unescapeValue(main.localized("GenericName", locales)),
		Comment:     unescapeValue(main.localized("Comment", locales)),
		Icon:        unescapeValue(main.localized("Icon", locales)),
		Exec:        unescapeValue(main["Exec"]),
		TryExec:     unescapeValue(main["TryExec"]),
		Path:        unescapeValue(main["Path"]),
		Terminal:    main.bool("Terminal"),
		Keywords:    splitList(main.localized("Keywords", locales)),
		Categories:  splitList(main["Categories"]),
		NoDisplay:   main.bool("NoDisplay"),
		Hidden:      main.bool("Hidden"),
		OnlyShowIn:  splitList(main["OnlyShowIn"]),
		NotShowIn:   splitList(main["NotShowIn"]),
	}

	if app.Type == "" {
		return nil, fmt.Errorf("invalid desktop file %s: missing Type", id)
	}

	// Actions are listed in the Actions key; groups without an entry there
	// are ignored, and listed ids without a group are skipped.
	declared := splitList(main["Actions"])
	if len(declared) == 0 {
		// Some entries only carry the groups.
		for _, name := range order {
			if strings.HasPrefix(name, actionPrefix) {
				declared = append(declared, strings.TrimPrefix(name, actionPrefix))
			}
		}
	}
	for _, actionID := range declared {
		group, ok := groups[actionPrefix+actionID]
		if !ok {
			continue
		}
		app.Actions = append(app.Actions, Action{
			ID:   actionID,
			Name: unescapeValue(group.localized("Name", locales)),
			Icon: unescapeValue(group.localized("Icon", locales)),
			Exec: unescapeValue(group["Exec"]),
		})
	}

	return app, nil
}

// parseKeyFile splits a key file into groups. Later duplicate keys win.
func parseKeyFile(r io.Reader) (map[string]entryGroup, []string, error) {
	groups := make(map[string]entryGroup)
	var order []string
	var current entryGroup

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		// Skip comments and empty lines
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.HasPrefix(line, "[") {
			if !strings.HasSuffix(line, "]") {
				return nil, nil, fmt.Errorf("line %d: malformed group header %q", lineNo, line)
			}
			name := line[1 : len(line)-1]
			if _, exists := groups[name]; exists {
				return nil, nil, fmt.Errorf("line %d: duplicate group %q", lineNo, name)
			}
			current = make(entryGroup)
			groups[name] = current
			order = append(order, name)
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		if current == nil {
			return nil, nil, fmt.Errorf("line %d: key outside of any group", lineNo)
		}
		current[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}

	return groups, order, nil
}

// unescapeValue handles the \s \n \t \r \\ escapes of string values.
func unescapeValue(value string) string {
	if !strings.Contains(value, `\`) {
		return value
	}
	var b strings.Builder
	b.Grow(len(value))
	for i := 0; i < len(value); i++ {
		c := value[i]
		if c != '\\' || i+1 == len(value) {
			b.WriteByte(c)
			continue
		}
		i++
		switch value[i] {
		case 's':
			b.WriteByte(' ')
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '\\':
			b.WriteByte('\\')
		default:
			b.WriteByte('\\')
			b.WriteByte(value[i])
		}
	}
	return b.String()
}

// splitList splits a ';' separated list value, honouring "\;".
func splitList(value string) []string {
	if value == "" {
		return nil
	}
	var items []string
	var b strings.Builder
	for i := 0; i < len(value); i++ {
		c := value[i]
		switch {
		case c == '\\' && i+1 < len(value) && value[i+1] == ';':
			b.WriteByte(';')
			i++
		case c == ';':
			if s := strings.TrimSpace(b.String()); s != "" {
				items = append(items, unescapeValue(s))
			}
			b.Reset()
		default:
			b.WriteByte(c)
		}
	}
	if s := strings.TrimSpace(b.String()); s != "" {
		items = append(items, unescapeValue(s))
	}
	return items
}

func currentLocale() string {
	for _, name := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// localeCandidates returns the lookup order for a POSIX locale
// (lang_COUNTRY.ENCODING@MODIFIER): lang_COUNTRY@MODIFIER, lang_COUNTRY,
// lang@MODIFIER, lang.
func localeCandidates(locale string) []string {
	if locale == "" || locale == "C" || locale == "POSIX" {
		return nil
	}

	modifier := ""
	if at := strings.IndexByte(locale, '@'); at >= 0 {
		modifier = locale[at+1:]
		locale = locale[:at]
	}
	if dot := strings.IndexByte(locale, '.'); dot >= 0 {
		locale = locale[:dot]
	}
	lang, country, _ := strings.Cut(locale, "_")

	var candidates []string
	if country != "" && modifier != "" {
		candidates = append(candidates, lang+"_"+country+"@"+modifier)
	}
	if country != "" {
		candidates = append(candidates, lang+"_"+country)
	}
	if modifier != "" {
		candidates = append(candidates, lang+"@"+modifier)
	}
	return append(candidates, lang)
}
