package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/me/schedview/pkg/model"
)

// statusView is what `status` and `watch` print.
type statusView struct {
	Time       int                       `json:"time"`
	Queue      model.Queue               `json:"queue"`
	Memory     model.Memory              `json:"memory"`
	Processors model.ProcessorAssignment `json:"processors"`
}

// render writes v in the configured output format. table is used for the
// default human format.
func (a *app) render(v any, table func(w io.Writer)) error {
	switch a.cfg.Output {
	case "json":
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		return writeYAML(a.out, v)
	default:
		tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
		table(tw)
		return tw.Flush()
	}
}

// writeYAML goes through JSON so the keys match the wire names.
func writeYAML(w io.Writer, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var generic any
	if err := json.Unmarshal(b, &generic); err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return err
	}
	return enc.Close()
}

func printStatus(w io.Writer, v statusView) {
	fmt.Fprintf(w, "Time:\t%d\n", v.Time)
	fmt.Fprintln(w)
	printProcessors(w, v.Processors)
	fmt.Fprintln(w)
	printQueue(w, &v.Queue)
	fmt.Fprintln(w)
	printMemory(w, &v.Memory)
}

func printQueue(w io.Writer, q *model.Queue) {
	if q.Len() == 0 {
		fmt.Fprintln(w, "No processes.")
		return
	}
	fmt.Fprintln(w, "PID\tNAME\tSTATE\tPRIORITY\tREMAINING\tPROGRESS\tMEMORY\tCPU\tAFTER")
	for _, bucket := range model.Buckets {
		for _, p := range q.Bucket(bucket) {
			fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d/%d\t%s%%\t%s@%d\t%s\t%s\n",
				p.PID, p.Name, bucket, p.Priority, p.RequiredTime, p.TotalTime,
				humanize.FtoaWithDigits(p.Progress()*100, 0),
				humanize.Comma(int64(p.MemorySize)), p.MemoryStart,
				cpu(&p), joinPIDs(p.Predecessors))
		}
	}
}

func printProcessors(w io.Writer, a model.ProcessorAssignment) {
	if len(a) == 0 {
		fmt.Fprintln(w, "Processors:\tunknown")
		return
	}
	fmt.Fprintf(w, "Processors:\t%d busy / %d\n", a.Busy(), len(a))
	for i, p := range a {
		if p == nil {
			fmt.Fprintf(w, "  CPU %d\tidle\n", i)
			continue
		}
		fmt.Fprintf(w, "  CPU %d\t%s (pid %d, %d left)\n", i, p.Name, p.PID, p.RequiredTime)
	}
}

func printMemory(w io.Writer, m *model.Memory) {
	if m.TotalSize == 0 {
		fmt.Fprintln(w, "Memory:\tunknown")
		return
	}
	pct := 0.0
	if usable := m.TotalSize - m.OSSize; usable > 0 {
		pct = float64(m.Used()) / float64(usable) * 100
	}
	fmt.Fprintf(w, "Memory:\t%s used / %s (%s%%), OS %s\n",
		humanize.Comma(int64(m.Used())), humanize.Comma(int64(m.TotalSize)),
		humanize.FtoaWithDigits(pct, 1), humanize.Comma(int64(m.OSSize)))
	fmt.Fprintln(w, "  START\tEND\tLENGTH\tSTATE")
	for _, b := range m.Blocks {
		state := "free"
		if b.IsUsed {
			state = "used"
		}
		fmt.Fprintf(w, "  %d\t%d\t%s\t%s\n", b.Start, b.End(), humanize.Comma(int64(b.Length)), state)
	}
}

func cpu(p *model.Process) string {
	if id, ok := p.Processor(); ok {
		return strconv.Itoa(id)
	}
	return "-"
}

func joinPIDs(pids []int) string {
	if len(pids) == 0 {
		return "-"
	}
	parts := make([]string, len(pids))
	for i, pid := range pids {
		parts[i] = strconv.Itoa(pid)
	}
	return strings.Join(parts, ",")
}
