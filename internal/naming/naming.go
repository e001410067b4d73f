// package naming renders playlist names and descriptions from user templates.
//
// Templates are plain strings with literal placeholder tokens:
// {owner} {prefix} {mon} {year} {genre} {type} {period}. Month
// abbreviations and two-digit years are fixed conventions. An unresolved
// placeholder is a configuration error surfaced before any remote
// mutation, never per track.
package naming

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"curator/internal/shared"
)

var monthAbbrs = [...]string{
	"Jan", "Feb", "Mar", "Apr", "May", "Jun",
	"Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
}

var placeholderPattern = regexp.MustCompile(`\{[^{}]*\}`)

// Context supplies values for template placeholders. Empty fields render
// as empty strings; only tokens with no matching field are errors.
type Context struct {
	Owner  string
	Prefix string
	Mon    string
	Year   string
	Genre  string
	Type   string
	Period string
}

// MonthAbbr returns the fixed three-letter abbreviation for a month.
func MonthAbbr(m time.Month) string {
	return monthAbbrs[m-1]
}

// ShortYear formats a year using the fixed two-digit convention (2024 -> "24").
func ShortYear(year int) string {
	return fmt.Sprintf("%02d", year%100)
}

// Render substitutes ctx into template and returns the result. Any
// placeholder left unresolved after substitution returns ErrInvalidTemplate.
func Render(template string, ctx Context) (string, error) {
	replacer := strings.NewReplacer(
		"{owner}", ctx.Owner,
		"{prefix}", ctx.Prefix,
		"{mon}", ctx.Mon,
		"{year}", ctx.Year,
		"{genre}", ctx.Genre,
		"{type}", ctx.Type,
		"{period}", ctx.Period,
	)
	rendered := replacer.Replace(template)

	if leftover := placeholderPattern.FindString(rendered); leftover != "" {
		return "", fmt.Errorf("%w: unresolved placeholder %q in template %q", shared.ErrInvalidTemplate, leftover, template)
	}
	return rendered, nil
}

// MonthContext builds a Context for a monthly playlist name.
func MonthContext(owner, prefix string, year int, month time.Month) Context {
	return Context{
		Owner:  owner,
		Prefix: prefix,
		Mon:    MonthAbbr(month),
		Year:   ShortYear(year),
		Period: fmt.Sprintf("%s %d", MonthAbbr(month), year),
	}
}

// YearContext builds a Context for a yearly playlist name.
func YearContext(owner, prefix string, year int) Context {
	return Context{
		Owner:  owner,
		Prefix: prefix,
		Year:   ShortYear(year),
		Period: fmt.Sprintf("%d", year),
	}
}

// ValidateTemplates renders every configured template against a fully
// populated probe context. Returns the first ErrInvalidTemplate found, so
// malformed configuration fails fast at plan time.
func ValidateTemplates(cfg *shared.Config) error {
	probe := Context{
		Owner:  cfg.Owner,
		Prefix: "probe",
		Mon:    MonthAbbr(time.January),
		Year:   ShortYear(2024),
		Genre:  "probe",
		Type:   "probe",
		Period: "probe",
	}

	templates := map[string]string{
		"finds.monthly_template":     cfg.Playlists.Finds.MonthlyTemplate,
		"finds.yearly_template":      cfg.Playlists.Finds.YearlyTemplate,
		"top.monthly_template":       cfg.Playlists.Top.MonthlyTemplate,
		"top.yearly_template":        cfg.Playlists.Top.YearlyTemplate,
		"discovery.monthly_template": cfg.Playlists.Discovery.MonthlyTemplate,
		"discovery.yearly_template":  cfg.Playlists.Discovery.YearlyTemplate,
		"split_template":             cfg.Playlists.SplitTemplate,
		"split_yearly_template":      cfg.Playlists.SplitYearlyTemplate,
		"genre_master.template":      cfg.Playlists.GenreMaster.Template,
		"description_template":       cfg.Playlists.DescriptionTemplate,
	}

	for key, tmpl := range templates {
		if tmpl == "" {
			return fmt.Errorf("%w: %s is empty", shared.ErrInvalidTemplate, key)
		}
		if _, err := Render(tmpl, probe); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	return nil
}

// Description renders the configured description template. Pure text
// formatting; carries no correctness invariants.
func Description(template, playlistType, period string) string {
	rendered, err := Render(template, Context{Type: playlistType, Period: period})
	if err != nil {
		// Validated at startup; fall back to something readable anyway.
		return fmt.Sprintf("%s from %s", playlistType, period)
	}
	return rendered
}
