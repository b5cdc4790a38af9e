package client

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/mquery-dev/api/internal/api/common"
	"github.com/mquery-dev/api/pkg/archlist"
)

// Output formats
const (
	OutputText  = "text"
	OutputTable = "table"
	OutputJSON  = "json"
)

var (
	yesColor = color.New(color.FgGreen, color.Bold)
	noColor  = color.New(color.FgYellow)
	errColor = color.New(color.FgRed)
)

// ValidOutput reports whether format is a known output format
func ValidOutput(format string) bool {
	switch format {
	case OutputText, OutputTable, OutputJSON:
		return true
	}
	return false
}

// PrintEntry writes the platform summary of image in the given format
func PrintEntry(w io.Writer, format, image string, entry *archlist.CacheEntry) error {
	switch format {
	case OutputJSON:
		return printJSON(w, entry)
	case OutputTable:
		return printEntryTable(w, image, entry)
	default:
		return printEntryText(w, image, entry)
	}
}

// printEntryText prints the classic mquery report
func printEntryText(w io.Writer, image string, entry *archlist.CacheEntry) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Image: %s\n", image)
	fmt.Fprintf(&b, " * Manifest List: %s\n", entry.ManifestList)
	if entry.ManifestList {
		b.WriteString(" * Supported platforms:\n")
		for _, platform := range entry.ArchList {
			fmt.Fprintf(&b, "   - %s\n", platform)
		}
	} else {
		fmt.Fprintf(&b, " * Supports: %s\n", entry.Platform)
	}
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func printEntryTable(w io.Writer, image string, entry *archlist.CacheEntry) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Image", "Manifest List", "Platform"})

	list := noColor.Sprint(entry.ManifestList.String())
	if entry.ManifestList {
		list = yesColor.Sprint(entry.ManifestList.String())
	}

	var data [][]string
	for _, platform := range entry.Platforms() {
		data = append(data, []string{image, list, platform})
	}
	if len(data) == 0 {
		data = append(data, []string{image, list, "-"})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// PrintCompose writes the per-service results of a compose lookup
func PrintCompose(w io.Writer, format string, resp *common.ComposeLookupResponse) error {
	switch format {
	case OutputJSON:
		return printJSON(w, resp)
	case OutputTable:
		return printComposeTable(w, resp)
	}

	for _, result := range resp.Results {
		if msg := resultError(result); msg != "" {
			if _, err := fmt.Fprintf(w, "Service: %s\nImage: %s\n * ERROR: %s\n\n", result.Service, result.Image, msg); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintf(w, "Service: %s\n", result.Service); err != nil {
			return err
		}
		if err := printEntryText(w, result.Image, result.Payload); err != nil {
			return err
		}
	}
	return printSkipped(w, resp.Skipped)
}

func printComposeTable(w io.Writer, resp *common.ComposeLookupResponse) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Service", "Image", "Manifest List", "Platforms"})

	var data [][]string
	for _, result := range resp.Results {
		if msg := resultError(result); msg != "" {
			data = append(data, []string{result.Service, result.Image, "-", errColor.Sprint(msg)})
			continue
		}
		list := noColor.Sprint(result.Payload.ManifestList.String())
		if result.Payload.ManifestList {
			list = yesColor.Sprint(result.Payload.ManifestList.String())
		}
		data = append(data, []string{result.Service, result.Image, list, strings.Join(result.Payload.Platforms(), "\n")})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	return printSkipped(w, resp.Skipped)
}

// resultError returns the message to show in place of a result's payload,
// or "" when the payload is usable
func resultError(result common.ServiceLookupResult) string {
	if result.Error != "" {
		return result.Error
	}
	if result.Payload == nil {
		return emptyResponseMessage
	}
	return ""
}

func printSkipped(w io.Writer, skipped []string) error {
	if len(skipped) == 0 {
		return nil
	}
	_, err := fmt.Fprintf(w, "Skipped (no image): %s\n", strings.Join(skipped, ", "))
	return err
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
