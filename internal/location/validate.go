package location

import (
	"fmt"
	"strings"
)

type ValidationError struct {
	Path    string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Validate reports structural problems in a flat location list. Build
// tolerates every problem reported here; Validate exists so catalog authors
// can find and fix them.
func Validate(records []*Location) []ValidationError {
	var errs []ValidationError

	firstIndex := map[string]int{}
	parents := map[string]string{}
	for i, rec := range records {
		path := fmt.Sprintf("$.locations[%d]", i)
		if rec == nil {
			errs = append(errs, ValidationError{Path: path, Message: "null entry"})
			continue
		}
		id := strings.TrimSpace(rec.ID)
		if id == "" {
			errs = append(errs, ValidationError{Path: path + ".id", Message: "required"})
			continue
		}
		if id == RootID {
			errs = append(errs, ValidationError{Path: path + ".id", Message: fmt.Sprintf("%q is reserved for the synthetic root", RootID)})
			continue
		}
		if prev, ok := firstIndex[id]; ok {
			errs = append(errs, ValidationError{
				Path:    path + ".id",
				Message: fmt.Sprintf("duplicate id %q (first declared at $.locations[%d])", id, prev),
			})
			continue
		}
		firstIndex[id] = i
		if strings.TrimSpace(rec.Name) == "" {
			errs = append(errs, ValidationError{Path: path + ".name", Message: "required"})
		}
		if rec.ParentID != nil {
			parents[id] = parentOf(*rec)
		}
	}

	for i, rec := range records {
		if rec == nil {
			continue
		}
		id := strings.TrimSpace(rec.ID)
		if first, ok := firstIndex[id]; !ok || first != i || rec.ParentID == nil {
			continue
		}
		path := fmt.Sprintf("$.locations[%d].parentId", i)
		parentID := parents[id]
		switch {
		case parentID == "":
			errs = append(errs, ValidationError{Path: path, Message: "must be null or a non-empty id"})
		case parentID == id:
			errs = append(errs, ValidationError{Path: path, Message: "location cannot be its own parent"})
		case parentID == RootID:
		default:
			if _, ok := firstIndex[parentID]; !ok {
				errs = append(errs, ValidationError{Path: path, Message: fmt.Sprintf("unknown parent id %q", parentID)})
			}
		}
	}

	state := map[string]visitState{}
	for i, rec := range records {
		if rec == nil {
			continue
		}
		id := strings.TrimSpace(rec.ID)
		if first, ok := firstIndex[id]; !ok || first != i || state[id] == visitDone {
			continue
		}
		if cycle := findParentCycle(id, parents, state); len(cycle) > 0 {
			errs = append(errs, ValidationError{
				Path:    "$.locations",
				Message: fmt.Sprintf("hierarchy cycle detected: %s", joinCycle(cycle)),
			})
		}
	}

	return errs
}

type visitState uint8

const (
	visitNew visitState = iota
	visitVisiting
	visitDone
)

func findParentCycle(start string, parents map[string]string, state map[string]visitState) []string {
	var stack []string
	onStack := map[string]int{}

	finish := func() {
		for _, n := range stack {
			state[n] = visitDone
		}
	}

	cur := start
	for {
		if state[cur] == visitDone {
			finish()
			return nil
		}
		if idx, ok := onStack[cur]; ok {
			cycle := append([]string{}, stack[idx:]...)
			cycle = append(cycle, cur)
			finish()
			return cycle
		}

		state[cur] = visitVisiting
		onStack[cur] = len(stack)
		stack = append(stack, cur)

		parentID, ok := parents[cur]
		if !ok || parentID == "" || parentID == RootID {
			finish()
			return nil
		}
		cur = parentID
	}
}

func joinCycle(ids []string) string {
	return strings.Join(ids, " -> ")
}
