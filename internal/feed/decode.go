package feed

import (
	"fmt"
	"strings"
	"time"

	"github.com/idilsaglam/cards/internal/model"
)

// Row is one decoded data line keyed by header token. Unknown headers are kept
// under their literal name.
type Row map[string]string

// Decode splits a CSV payload into rows. The first line is the header.
// Fields are split on every comma; quoted values are not supported.
func Decode(payload string) []Row {
	lines := strings.Split(strings.TrimSpace(payload), "\n")
	if len(lines) < 2 {
		return []Row{}
	}

	headers := strings.Split(lines[0], ",")
	for i, h := range headers {
		headers[i] = clean(h)
	}

	rows := make([]Row, 0, len(lines)-1)
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		values := strings.Split(line, ",")
		row := make(Row, len(headers))
		for i, h := range headers {
			if h == "" {
				continue
			}
			v := ""
			if i < len(values) {
				v = clean(values[i])
			}
			row[h] = v
		}
		rows = append(rows, row)
	}
	return rows
}

func clean(s string) string {
	return strings.TrimSuffix(strings.TrimSpace(s), "\r")
}

// Normalize lays each row over the empty template and fills missing ids.
// A missing id becomes name-email-index when either is set, otherwise
// nanos-index with the clock read once per call. Ids taken by the sheet
// itself are kept; a repeated or clashing id gets a ~n suffix.
func Normalize(rows []Row, now func() time.Time) []model.Card {
	if now == nil {
		now = time.Now
	}
	stamp := now().UnixNano()

	cards := make([]model.Card, 0, len(rows))
	synthesized := make([]bool, 0, len(rows))
	reserved := make(map[string]bool, len(rows))
	for i, row := range rows {
		c := model.Template()
		for k, v := range row {
			c.Set(k, v)
		}
		synth := c.ID == ""
		switch {
		case !synth:
			reserved[c.ID] = true
		case c.Name != "" || c.Email != "":
			c.ID = fmt.Sprintf("%s-%s-%d", c.Name, c.Email, i)
		default:
			c.ID = fmt.Sprintf("%d-%d", stamp, i)
		}
		cards = append(cards, c)
		synthesized = append(synthesized, synth)
	}

	seen := make(map[string]bool, len(cards))
	for i := range cards {
		id := cards[i].ID
		if seen[id] || (synthesized[i] && reserved[id]) {
			for n := 1; ; n++ {
				next := fmt.Sprintf("%s~%d", id, n)
				if !seen[next] && !reserved[next] {
					id = next
					break
				}
			}
		}
		cards[i].ID = id
		seen[id] = true
	}
	return cards
}
