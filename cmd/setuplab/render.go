package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"golang.org/x/term"

	"github.com/sawpanic/setuplab/internal/domain/grouping"
	httpContracts "github.com/sawpanic/setuplab/internal/http"
)

const (
	formatAuto  = "auto"
	formatTable = "table"
	formatJSON  = "json"
)

// resolveFormat turns auto into table on a terminal and JSON elsewhere
func resolveFormat(format string, out io.Writer) (string, error) {
	switch format {
	case formatTable, formatJSON:
		return format, nil
	case formatAuto, "":
		if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			return formatTable, nil
		}
		return formatJSON, nil
	default:
		return "", fmt.Errorf("unknown format %q (want auto, table or json)", format)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderLabels(w io.Writer, format string, defs []grouping.Definition) error {
	if format == formatJSON {
		resp := httpContracts.LabelsResponse{Version: grouping.RegistryVersion}
		for _, d := range defs {
			resp.Labels = append(resp.Labels, httpContracts.LabelInfo{
				Label:       d.Label,
				Name:        d.Name,
				Description: d.Description,
				Parent:      d.Parent,
			})
		}
		return writeJSON(w, resp)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LABEL\tNAME\tPARENT")
	for _, d := range defs {
		parent := "-"
		if d.HasParent() {
			parent = d.Parent.String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", d.Label, d.Name, parent)
	}
	return tw.Flush()
}

func renderScenarios(w io.Writer, format string, names []string) error {
	if names == nil {
		names = []string{}
	}
	if format == formatJSON {
		return writeJSON(w, httpContracts.ScenariosResponse{Timestamp: time.Now().UTC(), Scenarios: names})
	}
	if len(names) == 0 {
		_, err := fmt.Fprintln(w, "No scenarios found")
		return err
	}
	for _, n := range names {
		if _, err := fmt.Fprintln(w, n); err != nil {
			return err
		}
	}
	return nil
}

func renderGroups(w io.Writer, format, scenario string, result grouping.Result) error {
	resp := httpContracts.NewGroupsResponse(scenario, result, time.Now())
	if format == formatJSON {
		return writeJSON(w, resp)
	}

	fmt.Fprintf(w, "Scenario %s: %d setups, %d groups\n\n", scenario, resp.Total, len(resp.Counts))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LABEL\tNAME\tSETUPS")
	for _, c := range resp.Counts {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", c.Label, c.Name, c.Count)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	th := resp.Thresholds
	for _, axis := range []struct {
		name string
		t    *grouping.Thresholds
	}{
		{"stop", th.Stop},
		{"limit", th.Limit},
		{"buy stop offset", th.BuyStopOffset},
		{"buy limit offset", th.BuyLimitOffset},
	} {
		if axis.t == nil {
			continue
		}
		fmt.Fprintf(w, "%-17s p25=%g p75=%g\n", axis.name, axis.t.Low, axis.t.High)
	}
	return nil
}

func renderTree(w io.Writer, format, scenario string, result grouping.Result) error {
	if format == formatJSON {
		return writeJSON(w, httpContracts.NewTreeResponse(scenario, result, time.Now()))
	}

	fmt.Fprintf(w, "Scenario %s: %d setups\n", scenario, result.Total)
	var err error
	for _, root := range result.Tree {
		root.Walk(func(node *grouping.Node, depth int) {
			if err != nil {
				return
			}
			_, err = fmt.Fprintf(w, "%s%s [%s] (%d)\n",
				strings.Repeat("  ", depth), node.Name, node.Label, len(node.Setups))
		})
	}
	return err
}
