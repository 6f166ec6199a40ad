package reconciler

import (
	"fmt"
	"strings"

	"github.com/eventlens/warehouse/internal/schema"
)

// ActionKind identifies a single reconciliation step.
type ActionKind string

const (
	ActionCreateDataset ActionKind = "create-dataset"
	ActionCreateTable   ActionKind = "create-table"
	ActionAddColumns    ActionKind = "add-columns"
	ActionDeleteTable   ActionKind = "delete-table"
)

// Action is one step of a plan. Actions are ordered: the dataset is created
// before any table, and deletions come last.
type Action struct {
	Kind   ActionKind
	Table  string
	Fields []schema.Field
}

// String renders the action the way the provisioner logs it.
func (a Action) String() string {
	switch a.Kind {
	case ActionCreateDataset:
		return "create dataset"
	case ActionAddColumns:
		names := make([]string, 0, len(a.Fields))
		for _, f := range a.Fields {
			names = append(names, f.Name)
		}
		return fmt.Sprintf("alter table %s: add columns %s", a.Table, strings.Join(names, ", "))
	default:
		return fmt.Sprintf("%s %s", strings.ReplaceAll(string(a.Kind), "-", " "), a.Table)
	}
}

// Plan is the ordered set of changes that would bring the remote warehouse to
// the declared state. An empty plan means the declaration is already applied.
type Plan struct {
	DatasetID string
	Actions   []Action
	// Skipped lists destructive changes the plan refused to take because the
	// dataset or table is protected.
	Skipped []string
}

// Empty reports whether applying the plan would change nothing.
func (p *Plan) Empty() bool {
	return len(p.Actions) == 0
}
