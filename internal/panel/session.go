// Package panel drives one resource page of the admin panel: the paginated
// list view plus its editor, delete-confirmation, and preview dialogs.
package panel

import (
	"context"
	"errors"
	"fmt"

	"utsavya/internal/draft"
	"utsavya/internal/item"
	"utsavya/internal/resource"
	"utsavya/internal/store"
)

// Mode is the page's dialog state.
type Mode string

const (
	Closed           Mode = "closed"
	Creating         Mode = "creating"
	Editing          Mode = "editing"
	ConfirmingDelete Mode = "confirming_delete"
	Previewing       Mode = "previewing"
)

// ErrDialogOpen rejects opening a dialog while another one is open. Exactly
// one dialog is open at a time per page; this is an enforced invariant, not
// a rendering convention.
var ErrDialogOpen = errors.New("another dialog is open")

// ErrNotFound reports a row action on an id the store does not hold.
var ErrNotFound = errors.New("item not found")

// Session is the dialog state machine for one resource page.
type Session struct {
	Schema resource.Schema
	Store  *store.Store
	Pager  Pager

	mode          Mode
	draft         *draft.Draft
	pendingDelete string
	preview       *Preview
}

// NewSession returns a closed session over a store.
func NewSession(schema resource.Schema, st *store.Store) *Session {
	return &Session{Schema: schema, Store: st, Pager: NewPager(), mode: Closed}
}

// Mode returns the current dialog state.
func (s *Session) Mode() Mode { return s.mode }

// Draft returns the open editor draft, nil when no editor is open.
func (s *Session) Draft() *draft.Draft { return s.draft }

// PendingDelete returns the id captured by the delete row action.
func (s *Session) PendingDelete() string { return s.pendingDelete }

// Page returns the current page slice of the store's items.
func (s *Session) Page() []item.Item {
	return s.Pager.Slice(s.Store.Items())
}

// OpenCreate opens the editor with empty defaults.
func (s *Session) OpenCreate() error {
	if s.mode != Closed {
		return ErrDialogOpen
	}
	s.draft = draft.New(s.Schema)
	s.mode = Creating
	return nil
}

// OpenEdit opens the editor seeded from the selected row.
func (s *Session) OpenEdit(id string) error {
	if s.mode != Closed {
		return ErrDialogOpen
	}
	it, ok := s.find(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	d, err := draft.FromItem(s.Schema, it)
	if err != nil {
		return err
	}
	s.draft = d
	s.mode = Editing
	return nil
}

// OpenDelete captures the id pending deletion and opens the confirm gate.
// The id is fixed at row-action time, not at dialog open.
func (s *Session) OpenDelete(id string) error {
	if s.mode != Closed {
		return ErrDialogOpen
	}
	if _, ok := s.find(id); !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.pendingDelete = id
	s.mode = ConfirmingDelete
	return nil
}

// OpenPreview opens the read-only view of the selected row.
func (s *Session) OpenPreview(id string) (*Preview, error) {
	if s.mode != Closed {
		return nil, ErrDialogOpen
	}
	it, ok := s.find(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.preview = &Preview{Schema: s.Schema, Item: it}
	s.mode = Previewing
	return s.preview, nil
}

// Cancel closes whatever dialog is open, discarding draft and pending id.
func (s *Session) Cancel() {
	s.draft = nil
	s.pendingDelete = ""
	s.preview = nil
	s.mode = Closed
}

// SubmitDraft submits the open editor. A validation or mutation failure
// keeps the dialog open with the draft intact and returns the error for
// display next to it. Once the mutation has committed the dialog closes
// even when the reconciling list fetch fails; that error comes back as a
// RefetchError so the caller surfaces it against the list, not the editor.
func (s *Session) SubmitDraft(ctx context.Context) (item.Item, error) {
	if s.mode != Creating && s.mode != Editing {
		return item.Item{}, fmt.Errorf("no editor open")
	}
	it, err := s.draft.Submit(ctx, s.Store)
	var re *draft.RefetchError
	if err != nil && !errors.As(err, &re) {
		return item.Item{}, err
	}
	s.Cancel()
	return it, err
}

// ConfirmDelete runs the confirmed deletion, reconciles with an awaited list
// fetch, and closes. A failed delete keeps the dialog open and the row in
// place; once the delete is confirmed the dialog closes even when the
// refetch fails, since retrying the deletion would just 404.
func (s *Session) ConfirmDelete(ctx context.Context) error {
	if s.mode != ConfirmingDelete {
		return fmt.Errorf("no delete pending")
	}
	if err := s.Store.RequestDelete(ctx, s.pendingDelete); err != nil {
		return err
	}
	if _, err := s.Store.RequestList(ctx); err != nil {
		s.Cancel()
		return &draft.RefetchError{Err: err}
	}
	s.Cancel()
	return nil
}

func (s *Session) find(id string) (item.Item, bool) {
	for _, it := range s.Store.Items() {
		if it.ID == id {
			return it, true
		}
	}
	return item.Item{}, false
}
