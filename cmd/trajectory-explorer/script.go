package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jlaval-gh/Trajectory-Explorer/internal/dispatcher"
)

// scriptCommands maps script verbs to dispatcher commands and the number
// of arguments each takes.
var scriptCommands = map[string]struct {
	command string
	argc    int
}{
	"mode":   {":SET:MODE:", 1},
	"point":  {":ADD:POINT:", 2},
	"export": {":EXPORT:", 2},
}

// parseScript turns script lines into dispatcher events. Blank lines and
// lines starting with # are skipped.
func parseScript(lines []string) ([]dispatcher.Event, error) {
	var events []dispatcher.Event
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		spec, ok := scriptCommands[strings.ToLower(fields[0])]
		if !ok {
			return nil, fmt.Errorf("line %d: unknown command %q", i+1, fields[0])
		}
		if len(fields)-1 != spec.argc {
			return nil, fmt.Errorf("line %d: %s takes %d arguments, got %d",
				i+1, fields[0], spec.argc, len(fields)-1)
		}

		events = append(events, dispatcher.Event{
			Command:   spec.command,
			Args:      fields[1:],
			Timestamp: time.Now(),
		})
	}
	return events, nil
}

func readScript(path string) ([]dispatcher.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening script: %w", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading script: %w", err)
	}
	return parseScript(lines)
}
