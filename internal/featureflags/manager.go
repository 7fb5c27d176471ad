// Package featureflags evaluates the FEATURE_FLAGS setting, a comma-separated list of
// name=value pairs such as "watch_history=on,view_counting=25%".
package featureflags

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"
	"strings"
)

// WatchHistory controls whether watching a video is recorded in the viewer's history.
const WatchHistory = "watch_history"

// defaults apply to known flags the configuration does not mention.
var defaults = map[string]Rule{
	WatchHistory: {Name: WatchHistory, Percent: 100},
}

// Rule is one parsed flag. Percent is the share of users (0-100) the flag is enabled for.
type Rule struct {
	Name    string `json:"name"`
	Percent int    `json:"percent"`
}

func (r Rule) String() string {
	switch r.Percent {
	case 100:
		return "on"
	case 0:
		return "off"
	default:
		return strconv.Itoa(r.Percent) + "%"
	}
}

// Manager holds the parsed rules. A nil Manager treats every flag as disabled.
type Manager struct {
	rules map[string]Rule
}

// Parse reads raw and fails on the first entry it cannot understand.
func Parse(raw string) (*Manager, error) {
	return parse(raw, true)
}

// NewManager reads raw, skipping malformed entries.
func NewManager(raw string) *Manager {
	m, _ := parse(raw, false)
	return m
}

func parse(raw string, strict bool) (*Manager, error) {
	rules := make(map[string]Rule, len(defaults))
	for name, r := range defaults {
		rules[name] = r
	}

	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, value, ok := strings.Cut(pair, "=")
		name = normalize(name)
		var err error
		if !ok || name == "" {
			err = fmt.Errorf("feature flag %q: expected name=value", pair)
		}
		var pct int
		if err == nil {
			if pct, err = parsePercent(normalize(value)); err != nil {
				err = fmt.Errorf("feature flag %q: %w", name, err)
			}
		}
		if err != nil {
			if strict {
				return nil, err
			}
			continue
		}
		rules[name] = Rule{Name: name, Percent: pct}
	}
	return &Manager{rules: rules}, nil
}

func parsePercent(value string) (int, error) {
	switch value {
	case "on", "true", "1":
		return 100, nil
	case "off", "false", "0":
		return 0, nil
	}
	if !strings.HasSuffix(value, "%") {
		return 0, fmt.Errorf("unsupported value %q", value)
	}
	pct, err := strconv.Atoi(strings.TrimSuffix(value, "%"))
	if err != nil {
		return 0, fmt.Errorf("unsupported value %q", value)
	}
	return min(max(pct, 0), 100), nil
}

// Enabled evaluates name for userID. Partial rollouts bucket users deterministically and
// never include the anonymous user (ID 0).
func (m *Manager) Enabled(name string, userID uint) bool {
	if m == nil {
		return false
	}
	r, ok := m.rules[normalize(name)]
	if !ok {
		return false
	}
	switch {
	case r.Percent >= 100:
		return true
	case r.Percent <= 0 || userID == 0:
		return false
	default:
		return bucket(r.Name, userID) < r.Percent
	}
}

// Status is a rule together with its evaluation for one user.
type Status struct {
	Rule
	Value   string `json:"value"`
	Enabled bool   `json:"enabled"`
}

// Evaluate lists every rule, sorted by name, with its state for userID.
func (m *Manager) Evaluate(userID uint) []Status {
	if m == nil {
		return []Status{}
	}
	out := make([]Status, 0, len(m.rules))
	for _, r := range m.rules {
		out = append(out, Status{Rule: r, Value: r.String(), Enabled: m.Enabled(r.Name, userID)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func bucket(name string, userID uint) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name + ":" + strconv.FormatUint(uint64(userID), 10)))
	return int(h.Sum32() % 100)
}
