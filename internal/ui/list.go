package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/qsync/internal/models"
	"github.com/desertthunder/qsync/internal/tasks"
)

var (
	_ list.Item = categoryItem{}
	_ list.Item = entryItem{}
)

// categoryItem wraps [tasks.CategoryReport] to implement [list.Item].
type categoryItem struct {
	report *tasks.CategoryReport
}

func (i categoryItem) FilterValue() string { return string(i.report.Category) }
func (i categoryItem) Title() string {
	s := string(i.report.Category)
	return strings.ToUpper(s[:1]) + s[1:]
}
func (i categoryItem) Description() string {
	switch {
	case i.report.Err != nil:
		return fmt.Sprintf("failed: %v", i.report.Err)
	case i.report.InSync():
		return "in sync"
	}
	desc := fmt.Sprintf("%d only on PC • %d only on Quest", len(i.report.OnlyLocal), len(i.report.OnlyRemote))
	if n := len(i.report.Skipped); n > 0 {
		desc = fmt.Sprintf("%s • %d skipped", desc, n)
	}
	return desc
}

// entryItem is one divergent key.
type entryItem struct {
	key    string
	holder models.Side
}

func (i entryItem) FilterValue() string { return i.key }
func (i entryItem) Title() string       { return i.key }
func (i entryItem) Description() string {
	return fmt.Sprintf("only on %s", i.holder.Label())
}

func categoryItems(result *tasks.SessionResult) []list.Item {
	reports := result.Reports()
	items := make([]list.Item, len(reports))
	for i, rep := range reports {
		items[i] = categoryItem{report: rep}
	}
	return items
}

func entryItems(rep *tasks.CategoryReport) []list.Item {
	items := []list.Item{}
	for _, side := range models.Sides {
		for _, key := range rep.Only(side) {
			items = append(items, entryItem{key: key, holder: side})
		}
	}
	return items
}
