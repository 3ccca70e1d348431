package wifi

import (
	"strconv"
	"strings"
	"unicode"
)

// hiddenSSID is what nmcli prints for networks that do not broadcast a name.
const hiddenSSID = "--"

// ParseNetworkLine parses one "<ssid> <signal>" line. The SSID may contain
// whitespace; the signal is always the last token.
func ParseNetworkLine(line string) (Candidate, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return Candidate{}, false
	}

	idx := strings.LastIndexFunc(trimmed, unicode.IsSpace)
	if idx < 0 {
		return Candidate{}, false
	}

	signal, err := strconv.Atoi(trimmed[idx+1:])
	if err != nil || signal < 0 || signal > 100 {
		return Candidate{}, false
	}

	ssid := strings.TrimSpace(trimmed[:idx])
	if ssid == "" || ssid == hiddenSSID {
		return Candidate{}, false
	}

	return Candidate{SSID: ssid, SignalPercent: signal}, true
}

// ParseNetworkList parses a full listing. The first line is a header and is
// always discarded. Unparseable lines are skipped; skipped reports how many.
func ParseNetworkList(output string) (candidates []Candidate, skipped int) {
	lines := strings.Split(strings.ReplaceAll(output, "\r\n", "\n"), "\n")
	if len(lines) <= 1 {
		return []Candidate{}, 0
	}

	candidates = make([]Candidate, 0, len(lines)-1)
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		candidate, ok := ParseNetworkLine(line)
		if !ok {
			skipped++
			continue
		}
		candidates = append(candidates, candidate)
	}

	return candidates, skipped
}
