package ciinfo

import "strings"

// HelperOptions carries uploader settings that are not derived from CI.
type HelperOptions struct {
	RepoToken string
	Parallel  bool
	FlagName  string
}

// HelperEnv returns environ extended with the COVERALLS_* variables the
// uploader helper reads. Variables already present in environ win.
func HelperEnv(environ []string, info *Info, opts HelperOptions) []string {
	present := make(map[string]bool, len(environ))
	for _, kv := range environ {
		if k, _, ok := strings.Cut(kv, "="); ok {
			present[k] = true
		}
	}

	out := append([]string(nil), environ...)
	set := func(key, value string) {
		if value == "" || present[key] {
			return
		}
		out = append(out, key+"="+value)
		present[key] = true
	}

	if info != nil && info.IsCI {
		set("COVERALLS_SERVICE_NAME", info.ServiceName())
		set("COVERALLS_SERVICE_JOB_ID", info.JobID)
		set("COVERALLS_GIT_BRANCH", info.Branch)
		set("COVERALLS_GIT_COMMIT", info.Commit)
		set("COVERALLS_SERVICE_PULL_REQUEST", info.PullRequest)
	}
	set("COVERALLS_REPO_TOKEN", opts.RepoToken)
	if opts.Parallel {
		set("COVERALLS_PARALLEL", "true")
	}
	set("COVERALLS_FLAG_NAME", opts.FlagName)

	return out
}
