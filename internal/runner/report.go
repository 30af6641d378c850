package runner

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"

	"github.com/upcschool/mongolab/internal/generator"
)

// report renders the run summary: dataset shape, per-model load and latency
// tables, update statistics, a cross-model comparison, and any failures.
func (r *Runner) report(ds *generator.Dataset, genTime time.Duration, results []ModelResult) {
	fmt.Fprintf(r.out, "\n=== Dataset ===\n")
	fmt.Fprintf(r.out, "companies: %s  persons: %s  generated in %v\n",
		humanize.Comma(int64(len(ds.Companies))),
		humanize.Comma(int64(len(ds.Persons))),
		genTime.Round(time.Millisecond))
	if r.cfg.Lab.Seed != 0 {
		fmt.Fprintf(r.out, "seed: %d\n", r.cfg.Lab.Seed)
	}

	r.reportLoad(results)
	r.reportOperations(results)
	r.reportUpdates(results)
	r.reportComparison(results)

	completed := 0
	for _, res := range results {
		if res.Completed() {
			completed++
		} else {
			fmt.Fprintf(r.out, "\n%s failed: %v\n", res.Model, res.Err)
		}
	}
	fmt.Fprintf(r.out, "\nCompleted %d/%d models\n", completed, len(results))
}

func (r *Runner) reportLoad(results []ModelResult) {
	fmt.Fprintf(r.out, "\n=== Load ===\n")
	table := tablewriter.NewWriter(r.out)
	table.SetHeader([]string{"Model", "Companies", "Persons", "Batches", "Pre-Existing", "Time"})
	for _, res := range results {
		if res.LoadTime == 0 {
			continue
		}
		table.Append([]string{
			res.Model,
			humanize.Comma(int64(res.Load.Companies)),
			humanize.Comma(int64(res.Load.Persons)),
			fmt.Sprintf("%d", res.Load.Batches),
			humanize.Comma(res.Load.PreExisting),
			fmtDuration(res.LoadTime),
		})
	}
	table.Render()
}

func (r *Runner) reportOperations(results []ModelResult) {
	fmt.Fprintf(r.out, "\n=== Operations (repeat=%d) ===\n", r.cfg.Lab.Repeat)
	table := tablewriter.NewWriter(r.out)
	table.SetHeader([]string{"Model", "Operation", "Count", "Min", "Mean", "P50", "P95", "P99", "Max", "Total"})
	for _, res := range results {
		if res.Recorder == nil {
			continue
		}
		for _, s := range res.Recorder.Summaries() {
			table.Append([]string{
				res.Model,
				s.Op,
				fmt.Sprintf("%d", s.Count),
				fmtDuration(s.Min),
				fmtDuration(s.Mean),
				fmtDuration(s.P50),
				fmtDuration(s.P95),
				fmtDuration(s.P99),
				fmtDuration(s.Max),
				fmtDuration(s.Total),
			})
		}
	}
	table.Render()
}

func (r *Runner) reportUpdates(results []ModelResult) {
	fmt.Fprintf(r.out, "\n=== Updates (first repeat) ===\n")
	table := tablewriter.NewWriter(r.out)
	table.SetHeader([]string{"Model", "Ages Matched", "Ages Modified", "Renames Matched", "Renames Modified"})
	for _, res := range results {
		if !res.Completed() {
			continue
		}
		table.Append([]string{
			res.Model,
			humanize.Comma(res.AgeUpdate.Matched),
			humanize.Comma(res.AgeUpdate.Modified),
			humanize.Comma(res.Rename.Matched),
			humanize.Comma(res.Rename.Modified),
		})
	}
	table.Render()
}

// reportComparison puts the models side by side: one row per operation, one
// column per completed model, plus the fastest model by total time.
func (r *Runner) reportComparison(results []ModelResult) {
	var completed []ModelResult
	for _, res := range results {
		if res.Completed() {
			completed = append(completed, res)
		}
	}
	if len(completed) < 2 {
		return
	}

	header := []string{"Operation"}
	for _, res := range completed {
		header = append(header, res.Model)
	}
	header = append(header, "Fastest")

	fmt.Fprintf(r.out, "\n=== Comparison (total time) ===\n")
	table := tablewriter.NewWriter(r.out)
	table.SetHeader(header)

	for _, s := range completed[0].Recorder.Summaries() {
		row := []string{s.Op}
		fastest := ""
		best := time.Duration(0)
		for _, res := range completed {
			sum, ok := res.Recorder.Summary(s.Op)
			if !ok {
				row = append(row, "-")
				continue
			}
			row = append(row, fmtDuration(sum.Total))
			if fastest == "" || sum.Total < best {
				fastest = res.Model
				best = sum.Total
			}
		}
		row = append(row, fastest)
		table.Append(row)
	}
	table.Render()
}

func fmtDuration(d time.Duration) string {
	return d.Round(time.Microsecond).String()
}
