package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/mbetschart/flatwatch/internal/scan"
	"github.com/mbetschart/flatwatch/internal/tracker"
)

// printJSON marshals v as indented JSON and writes it to stdout.
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// sortEntries orders entries pinned first, then best score, then id for
// a stable tie-break.
func sortEntries(entries []*tracker.Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Pinned != entries[j].Pinned {
			return entries[i].Pinned
		}
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].ID < entries[j].ID
	})
}

// printEntryTable prints listings as a formatted table.
func printEntryTable(entries []*tracker.Entry) error {
	if len(entries) == 0 {
		fmt.Println("No listings found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "ID\tPRI\tSCORE\tPRICE\tROOMS\tAREA\tSTATUS\tTITLE"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}

	for _, e := range entries {
		price := "-"
		if p := e.Total(); p != nil {
			price = fmt.Sprintf("%.0f", *p)
		}
		rooms := "-"
		if e.Rooms != nil {
			rooms = fmt.Sprintf("%.1f", *e.Rooms)
		}
		title := e.Title
		if len(title) > 40 {
			title = title[:37] + "..."
		}
		pin := ""
		if e.Pinned {
			pin = "*"
		}
		if _, err := fmt.Fprintf(w, "%s\t%s%s\t%d\t%s\t%s\t%s\t%s\t%s\n",
			e.ID, e.Priority, pin, e.Score, price, rooms, e.Area, e.Status, title); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}
	return w.Flush()
}

// printEntryDetail prints a single listing in full text form.
func printEntryDetail(e *tracker.Entry) {
	fmt.Printf("Listing %s [%s]\n", e.ID, e.Priority)
	fmt.Printf("  Title:    %s\n", e.Title)
	fmt.Printf("  Address:  %s, %s\n", e.Address, e.Area)
	if p := e.Total(); p != nil {
		fmt.Printf("  Price:    CHF %.0f (%s)\n", *p, e.PriceRaw)
	}
	if e.Rooms != nil {
		fmt.Printf("  Rooms:    %.1f\n", *e.Rooms)
	}
	if e.SurfaceM2 != nil {
		fmt.Printf("  Surface:  %.0f m2\n", *e.SurfaceM2)
	}
	if e.DistanceKm != nil {
		fmt.Printf("  Distance: %.1f km\n", *e.DistanceKm)
	}
	if e.DriveMinutes != nil {
		fmt.Printf("  Drive:    %d min\n", *e.DriveMinutes)
	}
	if e.TransitMinutes != nil {
		fmt.Printf("  Transit:  %d min\n", *e.TransitMinutes)
	}
	fmt.Printf("  Status:   %s\n", e.Status)
	if e.Pinned {
		fmt.Printf("  Pinned:   yes\n")
	}
	fmt.Printf("  Sources:  %v\n", e.DuplicateSources)
	if e.IsRemoved {
		fmt.Printf("  Removed:  %s\n", e.RemovedReason)
	} else if e.OutOfScope {
		fmt.Printf("  Out of scope\n")
	} else if !e.Display && e.FilterReason != "" {
		fmt.Printf("  Filtered: %s\n", e.FilterReason)
	}
	fmt.Printf("  Score:    %d\n", e.Score)
	for _, reason := range e.ScoreBreakdown {
		fmt.Printf("    %s\n", reason)
	}
	if e.Notes != "" {
		fmt.Printf("  Notes:\n")
		fmt.Printf("    %s\n", e.Notes)
	}
}

// printSummary prints a scan summary in text form.
func printSummary(s *scan.Summary) {
	fmt.Printf("Scan %s for profile %s\n", s.RunID, s.Profile)
	fmt.Printf("  Active: %d  Matching: %d  New: %d  Removed: %d\n",
		s.Active, s.Matching, s.New, s.Removed)
	for _, warn := range s.Warnings {
		fmt.Printf("  %s\n", warn)
	}
	if len(s.Digest) > 0 {
		fmt.Println("  Top listings:")
		for _, line := range s.Digest {
			fmt.Printf("    %s\n", line)
		}
	}
}
