package tracker

import "sync"

// memberKey identifies a member within a guild
type memberKey struct {
	guildID string
	userID  string
}

// activityCounter tallies messages per channel for members with an open
// session. It is owned by the tracker service and only reachable through
// reset, increment and pop. Discord gateway handlers run on separate
// goroutines, so access is mutex-guarded.
type activityCounter struct {
	mu     sync.Mutex
	counts map[memberKey]map[string]int
}

func newActivityCounter() *activityCounter {
	return &activityCounter{
		counts: make(map[memberKey]map[string]int),
	}
}

// reset starts an empty tally for the member, discarding any existing one
func (c *activityCounter) reset(guildID, userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.counts[memberKey{guildID: guildID, userID: userID}] = make(map[string]int)
}

// increment adds one to the member's tally for a channel. It returns false
// if the member has no tally, in which case the message is not counted.
func (c *activityCounter) increment(guildID, userID, channelID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	tally, ok := c.counts[memberKey{guildID: guildID, userID: userID}]
	if !ok {
		return false
	}

	tally[channelID]++
	return true
}

// pop removes and returns the member's tally, an empty map if none exists
func (c *activityCounter) pop(guildID, userID string) map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := memberKey{guildID: guildID, userID: userID}
	tally, ok := c.counts[key]
	if !ok {
		return map[string]int{}
	}

	delete(c.counts, key)
	return tally
}
