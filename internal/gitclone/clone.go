// Package gitclone clones a remote repository into a fresh temporary
// directory for scanning.
package gitclone

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path"
	"strings"
)

const defaultNote = "Cloned successfully"

const tokenNote = "Cloned with provided github_token (private repo). Make sure token has minimal scopes (repo:read)."

// Options describes one clone request.
type Options struct {
	RepoURL string
	Branch  string
	// Token is embedded into HTTPS URLs for private repositories.
	Token string
	// ParentDir holds the temporary clone directory; empty uses os.TempDir.
	ParentDir string
}

// Result is the checked-out location plus a human readable note.
type Result struct {
	Path string
	Note string
}

// runGitCommand is injectable in tests.
var runGitCommand = func(ctx context.Context, dir string, args ...string) error {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Clone clones opts.RepoURL into a new directory and checks out opts.Branch
// when given. The directory is removed again if any git step fails; on
// success its lifecycle belongs to the caller.
func Clone(ctx context.Context, opts Options) (Result, error) {
	repoURL := strings.TrimSpace(opts.RepoURL)
	if repoURL == "" {
		return Result{}, errors.New("gitclone: repo_url required")
	}
	dir, err := os.MkdirTemp(opts.ParentDir, "repo_")
	if err != nil {
		return Result{}, fmt.Errorf("gitclone: temp dir: %w", err)
	}

	cloneURL, note := authURL(repoURL, strings.TrimSpace(opts.Token))
	if err := checkout(ctx, dir, cloneURL, strings.TrimSpace(opts.Branch)); err != nil {
		_ = os.RemoveAll(dir)
		return Result{}, fmt.Errorf("git clone failed: %s", redact(err.Error(), opts.Token))
	}
	return Result{Path: dir, Note: note}, nil
}

func checkout(ctx context.Context, dir, cloneURL, branch string) error {
	if err := runGitCommand(ctx, "", "clone", "--no-single-branch", cloneURL, dir); err != nil {
		return err
	}
	if branch == "" {
		return nil
	}
	if err := runGitCommand(ctx, dir, "checkout", branch); err == nil {
		return nil
	}
	if err := runGitCommand(ctx, dir, "fetch", "origin", branch); err != nil {
		return err
	}
	return runGitCommand(ctx, dir, "checkout", branch)
}

// authURL embeds token as userinfo for https URLs. Other schemes are cloned
// as given.
func authURL(repoURL, token string) (string, string) {
	if token == "" || !strings.HasPrefix(repoURL, "https://") {
		return repoURL, defaultNote
	}
	return "https://" + token + "@" + strings.TrimPrefix(repoURL, "https://"), tokenNote
}

func redact(msg, token string) string {
	token = strings.TrimSpace(token)
	if token == "" {
		return msg
	}
	return strings.ReplaceAll(msg, token, "***")
}

// RepoName extracts "repo" from https://host/owner/repo(.git) and
// git@host:owner/repo(.git).
func RepoName(raw string) string {
	p := raw
	if u, err := url.Parse(raw); err == nil && u.Host != "" {
		p = u.Path
	} else if i := strings.LastIndex(raw, ":"); i >= 0 {
		p = raw[i+1:]
	}
	p = strings.TrimSuffix(strings.Trim(p, "/"), ".git")
	if p == "" {
		return ""
	}
	name := path.Base(p)
	if name == "." || name == "/" {
		return ""
	}
	return name
}
