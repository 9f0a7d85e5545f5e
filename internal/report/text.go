package report

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"
)

// TextRenderer writes the averages table followed by each city's series.
type TextRenderer struct {
	// Series controls whether per-city samples are listed under the table.
	Series bool
}

func (t TextRenderer) Render(w io.Writer, r Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CITY\tAVG TEMP (°C)\tSAMPLES")
	for _, city := range r.Cities() {
		avg := "-"
		if v, ok := r.Averages[city]; ok {
			avg = fmt.Sprintf("%.2f", v)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\n", city, avg, len(r.Series[city]))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if !t.Series {
		return nil
	}
	for _, city := range r.Cities() {
		pts := r.Series[city]
		if len(pts) == 0 {
			continue
		}
		if _, err := fmt.Fprintf(w, "\n%s\n", city); err != nil {
			return err
		}
		for _, p := range pts {
			if _, err := fmt.Fprintf(w, "  %s  %6.2f\n", p.Timestamp.Format(time.DateTime), p.Temperature); err != nil {
				return err
			}
		}
	}
	return nil
}
