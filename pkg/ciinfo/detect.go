// Package ciinfo detects the CI platform a submission runs on and derives the
// job metadata the uploader helper expects.
package ciinfo

import (
	"fmt"
	"os"
	"strings"
)

// Info contains information about the detected platform
type Info struct {
	Name     string
	IsCI     bool
	VarName  string // Name of the environment variable that was detected
	VarValue string // Value of the environment variable

	JobID       string
	Branch      string
	Commit      string
	PullRequest string
}

// Getenv looks up an environment variable.
type Getenv func(key string) string

type platform struct {
	name    string
	service string
	detect  func(env Getenv) (bool, string, string)
	fill    func(env Getenv, info *Info)
}

func flag(varName, want string) func(env Getenv) (bool, string, string) {
	return func(env Getenv) (bool, string, string) {
		val := env(varName)
		if want == "" {
			return val != "", varName, val
		}
		return strings.EqualFold(val, want), varName, val
	}
}

var platforms = []platform{
	{"github", "github", flag("GITHUB_ACTIONS", "true"), func(env Getenv, info *Info) {
		info.JobID = env("GITHUB_RUN_ID")
		info.Commit = env("GITHUB_SHA")
		info.Branch = firstNonEmpty(env("GITHUB_HEAD_REF"), env("GITHUB_REF_NAME"))
		info.PullRequest = pullFromRef(env("GITHUB_REF"))
	}},
	{"gitlab", "gitlab-ci", flag("GITLAB_CI", "true"), func(env Getenv, info *Info) {
		info.JobID = env("CI_JOB_ID")
		info.Commit = env("CI_COMMIT_SHA")
		info.Branch = env("CI_COMMIT_REF_NAME")
		info.PullRequest = env("CI_MERGE_REQUEST_IID")
	}},
	{"gitee", "gitee", func(env Getenv) (bool, string, string) {
		if val := env("GITEE_CI"); val == "true" {
			return true, "GITEE_CI", val
		}
		val := env("GITEE_SERVER_URL")
		return val != "", "GITEE_SERVER_URL", val
	}, func(env Getenv, info *Info) {
		info.JobID = env("GITEE_BUILD_ID")
		info.Commit = env("GITEE_COMMIT_SHA")
		info.Branch = env("GITEE_BRANCH")
	}},
	{"jenkins", "jenkins", func(env Getenv) (bool, string, string) {
		if val := env("JENKINS_HOME"); val != "" {
			return true, "JENKINS_HOME", val
		}
		val := env("JENKINS_URL")
		return val != "", "JENKINS_URL", val
	}, func(env Getenv, info *Info) {
		info.JobID = env("BUILD_NUMBER")
		info.Commit = env("GIT_COMMIT")
		info.Branch = firstNonEmpty(env("BRANCH_NAME"), strings.TrimPrefix(env("GIT_BRANCH"), "origin/"))
		info.PullRequest = env("CHANGE_ID")
	}},
	{"azure", "azure-pipelines", flag("TF_BUILD", "True"), func(env Getenv, info *Info) {
		info.JobID = env("BUILD_BUILDID")
		info.Commit = env("BUILD_SOURCEVERSION")
		info.Branch = env("BUILD_SOURCEBRANCHNAME")
		info.PullRequest = env("SYSTEM_PULLREQUEST_PULLREQUESTNUMBER")
	}},
	{"bitbucket", "bitbucket", flag("BITBUCKET_BUILD_NUMBER", ""), func(env Getenv, info *Info) {
		info.JobID = env("BITBUCKET_BUILD_NUMBER")
		info.Commit = env("BITBUCKET_COMMIT")
		info.Branch = env("BITBUCKET_BRANCH")
		info.PullRequest = env("BITBUCKET_PR_ID")
	}},
	{"circleci", "circleci", flag("CIRCLECI", "true"), func(env Getenv, info *Info) {
		info.JobID = env("CIRCLE_BUILD_NUM")
		info.Commit = env("CIRCLE_SHA1")
		info.Branch = env("CIRCLE_BRANCH")
		info.PullRequest = env("CIRCLE_PR_NUMBER")
	}},
	{"travis", "travis-ci", flag("TRAVIS", "true"), func(env Getenv, info *Info) {
		info.JobID = env("TRAVIS_JOB_ID")
		info.Commit = env("TRAVIS_COMMIT")
		info.Branch = env("TRAVIS_BRANCH")
		if pr := env("TRAVIS_PULL_REQUEST"); pr != "false" {
			info.PullRequest = pr
		}
	}},
	{"drone", "drone", flag("DRONE", "true"), func(env Getenv, info *Info) {
		info.JobID = env("DRONE_BUILD_NUMBER")
		info.Commit = env("DRONE_COMMIT")
		info.Branch = env("DRONE_BRANCH")
		info.PullRequest = env("DRONE_PULL_REQUEST")
	}},
}

// Detect returns detailed platform information from the process environment.
func Detect() *Info {
	return DetectWith(os.Getenv)
}

// DetectWith returns detailed platform information using env for lookups.
func DetectWith(env Getenv) *Info {
	for _, p := range platforms {
		if detected, varName, varValue := p.detect(env); detected {
			info := &Info{
				Name:     p.name,
				IsCI:     true,
				VarName:  varName,
				VarValue: varValue,
			}
			p.fill(env, info)
			return info
		}
	}

	// No CI detected
	return &Info{Name: "local"}
}

// ServiceName returns the uploader's name for the detected platform.
func (i *Info) ServiceName() string {
	for _, p := range platforms {
		if p.name == i.Name {
			return p.service
		}
	}
	return ""
}

// String renders the info for status output.
func (i *Info) String() string {
	if !i.IsCI {
		return "local (no CI detected)"
	}
	parts := []string{i.Name}
	if i.JobID != "" {
		parts = append(parts, "job "+i.JobID)
	}
	if i.Branch != "" {
		parts = append(parts, "branch "+i.Branch)
	}
	if i.PullRequest != "" {
		parts = append(parts, "PR #"+i.PullRequest)
	}
	return strings.Join(parts, ", ")
}

// SupportedPlatforms returns list of supported platform names
func SupportedPlatforms() []string {
	names := make([]string, 0, len(platforms)+1)
	for _, p := range platforms {
		names = append(names, p.name)
	}
	return append(names, "local")
}

// ValidatePlatform checks if a platform name is supported
func ValidatePlatform(name string) error {
	for _, supported := range SupportedPlatforms() {
		if name == supported {
			return nil
		}
	}
	return fmt.Errorf("unsupported platform: %s (supported: %v)", name, SupportedPlatforms())
}

// pullFromRef extracts the PR number from refs/pull/<n>/merge.
func pullFromRef(ref string) string {
	const prefix = "refs/pull/"
	if !strings.HasPrefix(ref, prefix) {
		return ""
	}
	rest := strings.TrimPrefix(ref, prefix)
	if idx := strings.Index(rest, "/"); idx > 0 {
		return rest[:idx]
	}
	return ""
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
