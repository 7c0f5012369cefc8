// Package report renders a codemod run as TOON (Token-Oriented Object
// Notation) for tools, or as plain text for people.
package report

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/phobologic/codemods/internal/model"
)

var (
	needsQuoting = regexp.MustCompile(`[,:"\\{}\[\]]`)
	looksNumeric = regexp.MustCompile(`^-?(?:0|[1-9]\d*)(?:\.\d+)?$`)
	keywords     = map[string]struct{}{
		"true":  {},
		"false": {},
		"null":  {},
	}
)

// Encode converts a Report into TOON format.
func Encode(r *model.Report) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("roots: %s", encodeList(r.Roots)))
	parts = append(parts, fmt.Sprintf("recipes: %s", encodeList(r.Recipes)))
	parts = append(parts, fmt.Sprintf("dry_run: %s", strconv.FormatBool(r.DryRun)))

	var fileRows [][]string
	for i := range r.Files {
		f := &r.Files[i]
		fileRows = append(fileRows, []string{
			f.Path,
			f.Language,
			string(f.Status),
			strings.Join(f.Recipes, " "),
			f.Error,
		})
	}
	parts = append(parts, formatTabular("files", []string{"path", "language", "status", "recipes", "error"}, fileRows))

	parts = append(parts, formatTabular("summary", []string{"changed", "unchanged", "skipped", "error"}, [][]string{{
		strconv.Itoa(r.Count(model.Changed)),
		strconv.Itoa(r.Count(model.Unchanged)),
		strconv.Itoa(r.Count(model.Skipped)),
		strconv.Itoa(r.Count(model.Failed)),
	}}))

	return strings.Join(parts, "\n")
}

// WriteText prints one line per changed, skipped or failed file followed by
// a summary. Unchanged files are listed only when verbose is set.
func WriteText(w io.Writer, r *model.Report, verbose bool) {
	changed := color.New(color.FgGreen).SprintFunc()
	skipped := color.New(color.FgYellow).SprintFunc()
	failed := color.New(color.FgRed).SprintFunc()

	verb := "rewrote"
	if r.DryRun {
		verb = "would rewrite"
	}
	for i := range r.Files {
		f := &r.Files[i]
		switch f.Status {
		case model.Changed:
			fmt.Fprintf(w, "%s %s (%s)\n", changed(verb), f.Path, strings.Join(f.Recipes, ", "))
		case model.Skipped:
			fmt.Fprintf(w, "%s %s: %s\n", skipped("skipped"), f.Path, f.Error)
		case model.Failed:
			fmt.Fprintf(w, "%s %s: %s\n", failed("error"), f.Path, f.Error)
		case model.Unchanged:
			if verbose {
				fmt.Fprintf(w, "unchanged %s\n", f.Path)
			}
		}
	}
	fmt.Fprintf(w, "%d changed, %d unchanged, %d skipped, %d failed\n",
		r.Count(model.Changed), r.Count(model.Unchanged), r.Count(model.Skipped), r.Count(model.Failed))
}

func encodeList(values []string) string {
	encoded := make([]string, len(values))
	for i, v := range values {
		encoded[i] = encodeValue(v)
	}
	return fmt.Sprintf("[%d]: %s", len(values), strings.Join(encoded, ","))
}

func formatTabular(name string, columns []string, rows [][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d]{%s}:", name, len(rows), strings.Join(columns, ","))
	for _, row := range rows {
		encoded := make([]string, len(row))
		for i, cell := range row {
			encoded[i] = encodeValue(cell)
		}
		fmt.Fprintf(&b, "\n  %s", strings.Join(encoded, ","))
	}
	return b.String()
}

func encodeValue(value string) string {
	if value == "" {
		return `""`
	}

	if value != strings.TrimSpace(value) {
		return quote(value)
	}

	if strings.ContainsAny(value, "\n\r\t") {
		return quote(value)
	}

	if _, ok := keywords[strings.ToLower(value)]; ok {
		return quote(value)
	}

	if looksNumeric.MatchString(value) {
		return value
	}

	if needsQuoting.MatchString(value) {
		return quote(value)
	}

	if strings.HasPrefix(value, "-") {
		return quote(value)
	}

	return value
}

func quote(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	escaped = strings.ReplaceAll(escaped, "\n", `\n`)
	escaped = strings.ReplaceAll(escaped, "\r", `\r`)
	escaped = strings.ReplaceAll(escaped, "\t", `\t`)
	return `"` + escaped + `"`
}
