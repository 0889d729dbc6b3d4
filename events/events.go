// Package events parses the board's event-injection file format: one
// timestamped device event per line, dispatched to a named hardware model
// during the board's step loop.
package events

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var lineRE = regexp.MustCompile(`@([0-9A-Fa-f]+)\s+(.+):\s+(.+)`)

// Event is one parsed line: at TimeNS, deliver Payload to the hardware model
// named Device.
type Event struct {
	TimeNS uint64
	Device string
	Payload string
}

// Load reads path and returns its events in ascending time order.
func Load(path string) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("events: %w", err)
	}
	defer f.Close()

	var out []Event
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		m := lineRE.FindStringSubmatch(line)
		if m == nil {
			return nil, fmt.Errorf("events: line %d: malformed event %q", lineNo, line)
		}
		t, err := strconv.ParseUint(m[1], 16, 64)
		if err != nil {
			return nil, fmt.Errorf("events: line %d: bad timestamp %q", lineNo, m[1])
		}
		out = append(out, Event{TimeNS: t, Device: strings.TrimSpace(m[2]), Payload: strings.TrimSpace(m[3])})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("events: %w", err)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].TimeNS < out[j].TimeNS })
	return out, nil
}
