package github

// EventPullRequest is the X-GitHub-Event value for pull request deliveries.
const EventPullRequest = "pull_request"

// triggerActions are the pull_request actions that warrant a review.
var triggerActions = map[string]bool{
	"opened":      true,
	"reopened":    true,
	"synchronize": true,
}

// WebhookEvent is the transient view of one webhook delivery.
type WebhookEvent struct {
	EventType          string
	Action             string
	RepositoryFullName string
	PRNumber           int
	RawPayload         map[string]interface{}
}

// ReviewTarget identifies the pull request a triggering event refers to.
type ReviewTarget struct {
	Repository string
	PRNumber   int
}

// pullRequestPayload is the subset of the pull_request payload we read.
// Pointer fields distinguish absent keys from zero values.
type pullRequestPayload struct {
	Action     *string `json:"action"`
	Repository *struct {
		FullName *string `json:"full_name"`
	} `json:"repository"`
	PullRequest *struct {
		Number *int `json:"number"`
	} `json:"pull_request"`
}
