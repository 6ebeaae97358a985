package models

import (
	"time"
)

// Todo represents a todo item
type Todo struct {
	ID        string    `firestore:"id" json:"id" yaml:"id"`
	Text      string    `firestore:"text" json:"text" yaml:"text"`
	Completed bool      `firestore:"completed" json:"completed" yaml:"completed"`
	CreatedAt time.Time `firestore:"createdAt" json:"createdAt" yaml:"createdAt"`
}

// TodoPatch is a partial update. Nil fields are left untouched.
type TodoPatch struct {
	Text      *string `json:"text,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}

// WithText sets the text field of the patch.
func (p TodoPatch) WithText(text string) TodoPatch {
	p.Text = &text
	return p
}

// WithCompleted sets the completed field of the patch.
func (p TodoPatch) WithCompleted(completed bool) TodoPatch {
	p.Completed = &completed
	return p
}

// IsEmpty reports whether the patch changes nothing.
func (p TodoPatch) IsEmpty() bool {
	return p.Text == nil && p.Completed == nil
}

// Apply copies the present fields onto todo. ID and CreatedAt are never touched.
func (p TodoPatch) Apply(todo *Todo) {
	if p.Text != nil {
		todo.Text = *p.Text
	}
	if p.Completed != nil {
		todo.Completed = *p.Completed
	}
}
