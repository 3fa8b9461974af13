package repo

import (
	"context"

	"blaze/internal/blazeerr"
	"blaze/internal/hasher"
)

// ErrBranchExists is returned by BranchCreate when name is already a ref.
var ErrBranchExists = blazeerr.New(blazeerr.Repository, "branch already exists")

// ErrBranchNotFound is returned by BranchDelete when name is not a ref.
var ErrBranchNotFound = blazeerr.New(blazeerr.Repository, "branch not found")

// BranchCreate points a new ref named name at HEAD's current commit, per
// spec §4.5.
func (r *Repository) BranchCreate(ctx context.Context, name string) error {
	return r.withLock("branch-create", func() error {
		if _, ok, err := r.meta.GetRef(ctx, name); err != nil {
			return err
		} else if ok {
			return ErrBranchExists
		}
		head, _, err := r.meta.GetRef(ctx, headRef)
		if err != nil {
			return err
		}
		return r.meta.PutRef(ctx, name, head)
	})
}

// BranchDelete removes a ref. HEAD cannot be deleted (enforced by the
// metadata store).
func (r *Repository) BranchDelete(ctx context.Context, name string) error {
	return r.withLock("branch-delete", func() error {
		if _, ok, err := r.meta.GetRef(ctx, name); err != nil {
			return err
		} else if !ok {
			return ErrBranchNotFound
		}
		return r.meta.DeleteRef(ctx, name)
	})
}

// BranchList returns every ref (including HEAD) by name.
func (r *Repository) BranchList(ctx context.Context) (map[string]hasher.Digest, error) {
	return r.meta.ListRefs(ctx)
}
