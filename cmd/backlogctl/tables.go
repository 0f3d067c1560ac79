package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/chtzvt/backlogtrace/internal/cluster"
	"github.com/olekukonko/tablewriter"
)

func printClusterStatusTable(data any) {
	status, ok := data.(*cluster.ClusterStatus)
	if !ok || status == nil || len(status.Contexts) == 0 {
		fmt.Println("No contexts found")
		return
	}
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Context", "Host", "Last Seen", "Tracer", "Pattern", "Traced", "Queued", "Updated"})
	for _, cs := range status.Contexts {
		row := []string{cs.Context.Name, cs.Context.Host, valOrDash(cs.Context.LastSeen)}
		if st := cs.Tracer; st != nil {
			state := "disabled"
			if st.Enabled {
				state = "enabled"
			}
			pattern := st.TracePattern
			if pattern == "" {
				pattern = "-"
			}
			row = append(row,
				state,
				pattern,
				strconv.FormatInt(st.TraceCounter, 10),
				fmt.Sprintf("%d/%d", st.QueueSize, st.BacklogSize),
				valOrDash(st.LastUpdated),
			)
		} else {
			row = append(row, "unavailable", "-", "-", "-", "-")
		}
		table.Append(row)
	}
	table.Render()
}
