// Package viewmodel holds the client-side mirror of the todo list.
//
// State only changes through Reduce. Mutating events carry the record the
// server returned, so local state is never updated from a predicted value.
package viewmodel

import (
	"github.com/ytakahashi/todo-web/internal/models"
)

// State is the client view of the list.
type State struct {
	Items        []models.Todo
	NewItemDraft string
	// EditingID is empty when no item is being edited.
	EditingID string
	EditDraft string
	// Err is the last failed operation, cleared by the next success.
	Err *Failed
}

// Event is anything Reduce understands.
type Event interface {
	isEvent()
}

type (
	// Loaded replaces the list with a fresh server listing.
	Loaded struct{ Items []models.Todo }
	// DraftChanged updates the new item input.
	DraftChanged struct{ Text string }
	// EditDraftChanged updates the edit input.
	EditDraftChanged struct{ Text string }
	// EditStarted enters edit mode for ID.
	EditStarted struct{ ID string }
	// EditCanceled leaves edit mode without saving.
	EditCanceled struct{}
	// Added carries the record created by the server.
	Added struct{ Todo models.Todo }
	// Saved carries the record returned by a text edit.
	Saved struct{ Todo models.Todo }
	// Toggled carries the record returned by a completion change.
	Toggled struct{ Todo models.Todo }
	// Deleted confirms the server removed ID.
	Deleted struct{ ID string }
	// Failed reports an API call that did not succeed.
	Failed struct {
		Op  string
		Err error
	}
)

func (Loaded) isEvent()           {}
func (DraftChanged) isEvent()     {}
func (EditDraftChanged) isEvent() {}
func (EditStarted) isEvent()      {}
func (EditCanceled) isEvent()     {}
func (Added) isEvent()            {}
func (Saved) isEvent()            {}
func (Toggled) isEvent()          {}
func (Deleted) isEvent()          {}
func (Failed) isEvent()           {}

func (f Failed) Error() string {
	return f.Op + ": " + f.Err.Error()
}

// Reduce returns the state that follows ev. s is not modified.
func Reduce(s State, ev Event) State {
	switch e := ev.(type) {
	case Loaded:
		s.Items = append([]models.Todo(nil), e.Items...)
		if _, ok := s.Find(s.EditingID); !ok {
			s.EditingID = ""
			s.EditDraft = ""
		}
		s.Err = nil
	case DraftChanged:
		s.NewItemDraft = e.Text
	case EditDraftChanged:
		s.EditDraft = e.Text
	case EditStarted:
		if todo, ok := s.Find(e.ID); ok {
			s.EditingID = todo.ID
			s.EditDraft = todo.Text
		}
	case EditCanceled:
		s.EditingID = ""
		s.EditDraft = ""
	case Added:
		items := make([]models.Todo, 0, len(s.Items)+1)
		s.Items = append(append(items, s.Items...), e.Todo)
		s.NewItemDraft = ""
		s.Err = nil
	case Saved:
		s.Items = replace(s.Items, e.Todo)
		if s.EditingID == e.Todo.ID {
			s.EditingID = ""
			s.EditDraft = ""
		}
		s.Err = nil
	case Toggled:
		s.Items = replace(s.Items, e.Todo)
		s.Err = nil
	case Deleted:
		items := make([]models.Todo, 0, len(s.Items))
		for _, todo := range s.Items {
			if todo.ID != e.ID {
				items = append(items, todo)
			}
		}
		s.Items = items
		if s.EditingID == e.ID {
			s.EditingID = ""
			s.EditDraft = ""
		}
		s.Err = nil
	case Failed:
		f := e
		s.Err = &f
	}
	return s
}

// Find returns the local copy of the item with id.
func (s State) Find(id string) (models.Todo, bool) {
	for _, todo := range s.Items {
		if todo.ID == id {
			return todo, true
		}
	}
	return models.Todo{}, false
}

// Editing reports whether an item is in edit mode.
func (s State) Editing() bool {
	return s.EditingID != ""
}

// replace swaps the entry matching todo.ID. Unknown ids leave items as is.
func replace(items []models.Todo, todo models.Todo) []models.Todo {
	out := make([]models.Todo, len(items))
	copy(out, items)
	for i := range out {
		if out[i].ID == todo.ID {
			out[i] = todo
		}
	}
	return out
}
