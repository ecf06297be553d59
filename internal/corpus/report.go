// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package corpus

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/pdiddy/tex-corpus/pkg/types"
)

// maxListedIDs caps how many ids are printed per reason.
const maxListedIDs = 50

// WriteReport writes rejection counts by reason followed by the rejected
// ids for each reason that occurred.
func WriteReport(w io.Writer, r *Result) error {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Reason", "Papers"})

	counts := r.Counts()
	for _, reason := range types.RejectReasons {
		tw.AppendRow(table.Row{string(reason), counts[reason]})
	}
	tw.AppendSeparator()
	tw.AppendRow(table.Row{"Rejected", len(r.Rejections)})
	tw.AppendRow(table.Row{"Accepted", r.Accepted()})
	tw.AppendFooter(table.Row{"Total", r.Total()})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight, AlignFooter: text.AlignRight},
	})

	if _, err := fmt.Fprintln(w, tw.Render()); err != nil {
		return err
	}

	for _, reason := range types.RejectReasons {
		ids := r.RejectedIDs(reason)
		if len(ids) == 0 {
			continue
		}
		line := strings.Join(ids, ", ")
		if len(ids) > maxListedIDs {
			line = strings.Join(ids[:maxListedIDs], ", ") + fmt.Sprintf(", ... (%d more)", len(ids)-maxListedIDs)
		}
		if _, err := fmt.Fprintf(w, "%s: %s\n", reason, line); err != nil {
			return err
		}
	}
	return nil
}
