package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
	"github.com/vburojevic/dwell/internal/domain"
	"github.com/vburojevic/dwell/internal/output"
)

// LadderCmd prints the watch list and escalation ladder
type LadderCmd struct {
	App []string `short:"a" help:"App identifier to show (repeatable, replaces the configured watch list)"`
}

// AppInfo is one watch list entry.
type AppInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// LadderOutput is the NDJSON form of the ladder command.
type LadderOutput struct {
	Type          string            `json:"type"` // "ladder"
	SchemaVersion int               `json:"schemaVersion"`
	Apps          []AppInfo         `json:"apps"`
	Ladder        []output.RungInfo `json:"ladder"`
}

// Run executes the ladder command
func (c *LadderCmd) Run(globals *Globals) error {
	cfg := (&RunCmd{App: c.App}).apply(globals.Config)
	ladder, err := cfg.BuildLadder()
	if err != nil {
		return planError(globals, err)
	}
	watch := buildWatchList(cfg, newLogger(globals, ""))
	apps := lo.Map(watch.Apps(), func(id domain.AppID, _ int) AppInfo {
		return AppInfo{ID: string(id), Name: watch.Name(id)}
	})

	if globals.Format == "ndjson" {
		return json.NewEncoder(globals.Stdout).Encode(&LadderOutput{
			Type:          "ladder",
			SchemaVersion: output.SchemaVersion,
			Apps:          apps,
			Ladder:        rungInfo(ladder),
		})
	}

	fmt.Fprintln(globals.Stdout, "Watch list:")
	table := tablewriter.NewWriter(globals.Stdout)
	table.Header("App", "Name")
	for _, a := range apps {
		if err := table.Append([]string{a.ID, a.Name}); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}

	fmt.Fprintln(globals.Stdout)
	fmt.Fprintln(globals.Stdout, "Escalation ladder:")
	table = tablewriter.NewWriter(globals.Stdout)
	table.Header("Level", "After", "Kind", "Title")
	for _, r := range ladder.WithDefaultKinds() {
		// preview with a placeholder app
		iv := domain.NewIntervention("", 0, r, "", "<app>", r.After, time.Time{})
		row := []string{strconv.Itoa(r.Level), domain.FormatDwell(r.After), string(r.Kind), iv.Title}
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}
