package stats

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/verte-zerg/kubbtrack/internal/session"
)

// Report contains precomputed data for stats rendering.
type Report struct {
	Variant     session.Variant
	Overall     Overall
	Form        Form
	Zones       ZoneCounts
	Records     Records
	Series      []float64
	Consistency float64
	Buckets     map[Bucket]BucketStats // blast sessions only
	Handicap    float64                // game sessions only
	HandicapN   int
}

// BuildReport derives the full statistics view for a variant's completed
// sessions, expected in chronological order.
func BuildReport(variant session.Variant, sessions []*session.Session) Report {
	rep := Report{
		Variant:     variant,
		Overall:     Summarize(sessions),
		Form:        RecentForm(sessions),
		Zones:       Zones(sessions),
		Records:     PersonalRecords(sessions),
		Series:      AccuracySeries(sessions),
		Consistency: Consistency(sessions),
	}
	switch variant {
	case session.VariantBlast:
		rep.Buckets = SegmentRounds(sessions)
	case session.VariantGame:
		rep.Handicap, rep.HandicapN = CollectionHandicap(sessions)
	}
	return rep
}

// Render prints the report as plain text.
func Render(w io.Writer, rep Report, curveWindow int) error {
	if rep.Overall.Sessions == 0 {
		_, err := fmt.Fprintf(w, "No %s sessions found.\n", rep.Variant)
		return err
	}
	if err := renderSummary(w, rep); err != nil {
		return err
	}
	if err := renderZones(w, rep.Zones); err != nil {
		return err
	}
	if rep.Buckets != nil {
		if err := renderBuckets(w, rep.Buckets); err != nil {
			return err
		}
	}
	if rep.HandicapN > 0 {
		if _, err := fmt.Fprintf(w, "Handicap: %+.2f over %d rounds\n\n", rep.Handicap, rep.HandicapN); err != nil {
			return err
		}
	}
	return renderTrend(w, rep.Series, curveWindow)
}

func renderSummary(w io.Writer, rep Report) error {
	lines := []string{
		fmt.Sprintf("Sessions: %d", rep.Overall.Sessions),
		fmt.Sprintf("Throws: %d  Hits: %d", rep.Overall.Throws, rep.Overall.Hits),
		fmt.Sprintf("Accuracy: %.1f%%", rep.Overall.Accuracy*100),
		fmt.Sprintf("Best streak: %d", rep.Overall.BestStreak),
		fmt.Sprintf("Recent form: %.1f%% (last %d) vs %.1f%% overall", rep.Form.Recent*100, rep.Form.Window, rep.Form.Overall*100),
		fmt.Sprintf("Consistency: %.2f", rep.Consistency),
		fmt.Sprintf("Records: %.1f%% accuracy, %d hits, %d throws", rep.Records.BestAccuracy*100, rep.Records.MostHits, rep.Records.MostThrows),
	}
	if _, err := fmt.Fprintf(w, "Summary (%s)\n", rep.Variant); err != nil {
		return err
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

func renderZones(w io.Writer, z ZoneCounts) error {
	headers := []string{"Zone", "Sessions"}
	rows := [][]string{
		{string(ZoneExcellent), fmt.Sprintf("%d", z.Excellent)},
		{string(ZoneGood), fmt.Sprintf("%d", z.Good)},
		{string(ZoneAverage), fmt.Sprintf("%d", z.Average)},
		{string(ZoneNeedsWork), fmt.Sprintf("%d", z.NeedsWork)},
	}
	if _, err := fmt.Fprintln(w, "Performance Zones"); err != nil {
		return err
	}
	for _, line := range formatTable(headers, rows, map[int]bool{1: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

func renderBuckets(w io.Writer, buckets map[Bucket]BucketStats) error {
	headers := []string{"Phase", "Rounds", "Targets", "First-cast", "Handicap"}
	rows := make([][]string, 0, len(buckets))
	for _, b := range Buckets {
		st, ok := buckets[b]
		if !ok {
			continue
		}
		handicap := "-"
		if st.HandicapN > 0 {
			handicap = fmt.Sprintf("%+.2f", st.Handicap)
		}
		rows = append(rows, []string{
			string(b),
			fmt.Sprintf("%d", st.Rounds),
			fmt.Sprintf("%d", st.TargetsPlaced),
			fmt.Sprintf("%.1f%%", st.FirstCastRate*100),
			handicap,
		})
	}
	if len(rows) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, "Phase Breakdown"); err != nil {
		return err
	}
	rightAlign := map[int]bool{1: true, 2: true, 3: true, 4: true}
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

func renderTrend(w io.Writer, series []float64, window int) error {
	if len(series) < 2 {
		return nil
	}
	smoothed := MovingAverage(series, window)
	smoothed = TailValues(smoothed, TerminalWidth()-10)
	if _, err := fmt.Fprintln(w, "Accuracy Trend"); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%s\n", Sparkline(smoothed))
	return err
}

// TerminalWidth returns the stdout terminal width, or a default when stdout
// is not a terminal.
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}
