// Package gitinfo resolves the content identifier of the scanned tree.
package gitinfo

import (
	"github.com/go-git/go-git/v5"
)

// UnknownRevision is recorded when the project is not a git repository or
// HEAD cannot be resolved. The pipeline does not treat that as an error.
const UnknownRevision = "unknown"

// Revision returns the HEAD commit hash of the repository containing
// projectDir, or UnknownRevision.
func Revision(projectDir string) string {
	repo, err := git.PlainOpenWithOptions(projectDir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return UnknownRevision
	}
	head, err := repo.Head()
	if err != nil {
		return UnknownRevision
	}
	return head.Hash().String()
}
