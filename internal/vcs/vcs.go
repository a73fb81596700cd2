// SPDX-License-Identifier: MPL-2.0

// Package vcs reads the git commit a build is produced from.
package vcs

import (
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/andonyns/Data-Management-Service/pkg/types"
)

// shortHashLen matches git's default abbreviation.
const shortHashLen = 7

var (
	// ErrNotRepository is returned when no repository encloses the directory.
	ErrNotRepository = errors.New("not a git repository")
	// ErrNoCommits is returned for a repository whose HEAD is unborn.
	ErrNoCommits = errors.New("repository has no commits")
)

// Commit identifies the HEAD commit of a working copy.
type Commit struct {
	// Hash is the full hex object id.
	Hash string
	// Branch is the checked-out branch, empty on a detached HEAD.
	Branch string
}

// Short returns the abbreviated hash.
func (c Commit) Short() string {
	if len(c.Hash) <= shortHashLen {
		return c.Hash
	}
	return c.Hash[:shortHashLen]
}

// HeadCommit returns the HEAD commit of the repository containing dir,
// searching parent directories for the .git entry.
func HeadCommit(dir types.FilesystemPath) (Commit, error) {
	repo, err := git.PlainOpenWithOptions(string(dir), &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return Commit{}, fmt.Errorf("%s: %w", dir, ErrNotRepository)
		}
		return Commit{}, fmt.Errorf("open repository at %s: %w", dir, err)
	}

	head, err := repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return Commit{}, ErrNoCommits
		}
		return Commit{}, fmt.Errorf("resolve HEAD: %w", err)
	}

	c := Commit{Hash: head.Hash().String()}
	if head.Name().IsBranch() {
		c.Branch = head.Name().Short()
	}
	return c, nil
}
