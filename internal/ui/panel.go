package ui

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/idilsaglam/cards/internal/model"
)

var ansiRegexp = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func stripANSI(s string) string { return ansiRegexp.ReplaceAllString(s, "") }

// width counts runes, not bytes, so symbols line up.
func width(s string) int { return len([]rune(stripANSI(s))) }

// Panel draws a framed box using the current theme.
func Panel(lines []string) {
	t := Current()
	// compute visible width
	maxw := 0
	for _, ln := range lines {
		if w := width(ln); w > maxw {
			maxw = w
		}
	}
	pad := func(s string) string {
		if vis := width(s); vis < maxw {
			s = s + strings.Repeat(" ", maxw-vis)
		}
		return s
	}
	leftPad := " "
	fmt.Fprintln(Stdout, t.CornerTL+strings.Repeat(t.H, maxw+2)+t.CornerTR)
	for _, ln := range lines {
		fmt.Fprintln(Stdout, t.V+leftPad+pad(ln)+" "+t.V)
	}
	fmt.Fprintln(Stdout, t.CornerBL+strings.Repeat(t.H, maxw+2)+t.CornerBR)
}

// ModeBadge labels the active data source.
func ModeBadge(remote bool) string {
	t := Current()
	if remote {
		return C(t.Pending, t.SymRemote+" Live (Google Sheet)")
	}
	return C(t.Success, t.SymLocal+" Manual (local storage)")
}

// RosterLines renders one line per card: index, name, title @ company, id.
func RosterLines(cards []model.Card) []string {
	t := Current()
	if len(cards) == 0 {
		return []string{C(t.Muted, "no cards")}
	}
	out := make([]string, 0, len(cards))
	for i, c := range cards {
		idx := fmt.Sprintf("%2d.", i+1)
		name := c.Name
		if name == "" {
			name = "(unnamed)"
		}
		role := strings.TrimSpace(strings.Join(nonEmpty(c.Title, c.CompanyName), " @ "))
		line := fmt.Sprintf("%s %s", C(dim, idx), C(t.Title, truncate(name, 40)))
		if role != "" {
			line += "  " + truncate(role, 60)
		}
		line += "  " + C(t.Muted, c.ID)
		out = append(out, line)
	}
	return out
}

// CardLines renders a single business card.
func CardLines(c model.Card) []string {
	t := Current()
	lines := []string{C(t.Title, c.Name)}
	if c.Title != "" {
		lines = append(lines, c.Title)
	}
	if c.CompanyName != "" {
		lines = append(lines, C(t.Accent, c.CompanyName))
	}
	lines = append(lines, "")
	if c.Phone != "" {
		lines = append(lines, t.SymPhone+" "+c.Phone)
	}
	if c.Email != "" {
		lines = append(lines, t.SymMail+" "+c.Email)
	}
	if c.Website != "" {
		lines = append(lines, t.SymWeb+" "+c.Website)
	}
	return lines
}

// ShareURL is the public single-card link: <base>/#/view/<id>.
func ShareURL(base, id string) string {
	return strings.TrimRight(base, "/") + "/#/view/" + url.PathEscape(id)
}

func nonEmpty(vals ...string) []string {
	var out []string
	for _, v := range vals {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		return string(r[:n-3]) + "..."
	}
	return s
}
