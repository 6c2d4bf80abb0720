package github

import (
	"sync"

	gh "github.com/google/go-github/v68/github"
)

// prCache keeps pull requests fetched by number for the
// lifetime of a Helper.
type prCache struct {
	mu  sync.Mutex
	prs map[int]*gh.PullRequest
}

func newPRCache() *prCache {
	return &prCache{prs: make(map[int]*gh.PullRequest)}
}

func (c *prCache) get(number int) (*gh.PullRequest, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	pr, ok := c.prs[number]

	return pr, ok
}

func (c *prCache) put(number int, pr *gh.PullRequest) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.prs[number] = pr
}
