package gitinfo

import (
	"fmt"

	"github.com/go-git/go-git/v5"
)

// GitInfoAdapter implements domain.GitInfo using go-git. Paths inside a
// work tree resolve to the enclosing repository.
type GitInfoAdapter struct{}

func New() *GitInfoAdapter {
	return &GitInfoAdapter{}
}

func open(projectPath string) (*git.Repository, error) {
	return git.PlainOpenWithOptions(projectPath, &git.PlainOpenOptions{DetectDotGit: true})
}

func (g *GitInfoAdapter) IsGitRepo(projectPath string) bool {
	_, err := open(projectPath)
	return err == nil
}

// CommitHash returns the full hash of HEAD.
func (g *GitInfoAdapter) CommitHash(projectPath string) (string, error) {
	repo, err := open(projectPath)
	if err != nil {
		return "", fmt.Errorf("opening git repo: %w", err)
	}

	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("getting HEAD: %w", err)
	}

	return head.Hash().String(), nil
}
