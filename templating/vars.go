package templating

import (
	"strconv"
	"time"

	"github.com/byte4ever/actionkit/action/refs"
	"github.com/byte4ever/actionkit/action/workflow"
)

// dateLayout formats the DATE variable.
const dateLayout = "20060102"

// ContextVars describes the workflow run: SHA, REF,
// OWNER, REPO, ACTOR, RUN_ID and DATE (now, as
// YYYYMMDD), plus PullRequestVars on pull request
// runs.
func ContextVars(wc workflow.Context, now time.Time) Vars {
	vars := Vars{
		"SHA":    wc.CommitSHA(),
		"REF":    wc.Ref,
		"OWNER":  wc.Owner,
		"REPO":   wc.Repo,
		"ACTOR":  wc.Actor,
		"RUN_ID": wc.RunID,
		"DATE":   now.Format(dateLayout),
	}

	if pr := wc.Payload.PullRequest; pr != nil {
		return Merge(vars, PullRequestVars(pr))
	}

	if n := wc.PRNumber(); n != 0 {
		return Merge(vars, Vars{
			"PR_NUMBER":    strconv.Itoa(n),
			"PR_MERGE_REF": refs.PrMergeRef(wc.Ref),
		})
	}

	return vars
}

// PullRequestVars describes a pull request.
func PullRequestVars(pr *workflow.PullRequest) Vars {
	if pr == nil {
		return Vars{}
	}

	number := strconv.Itoa(pr.Number)

	return Vars{
		"PR_NUMBER":    number,
		"PR_ID":        strconv.FormatInt(pr.ID, 10),
		"PR_HEAD_REF":  pr.Head.Ref,
		"PR_BASE_REF":  pr.Base.Ref,
		"PR_TITLE":     pr.Title,
		"PR_URL":       pr.HTMLURL,
		"PR_MERGE_REF": "refs/pull/" + number + "/merge",
	}
}
