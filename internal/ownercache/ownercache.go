// Package ownercache caches uid/gid-to-name lookups for one archiving or
// extraction run. Looking up user and group names can dominate the time
// spent walking a large tree, since each lookup may hit nsswitch/LDAP; the
// assumption here, as in any such cache, is that id/name mappings won't
// change during a single invocation.
package ownercache

import (
	"os/user"
	"strconv"
)

// Cache is a per-invocation cache of user and group lookups. The zero
// value is ready to use.
type Cache struct {
	usersByUID  map[string]*user.User
	groupsByGID map[string]*user.Group
}

// UserFromUID returns the username for uid, from cache or the system. Ok
// is false if the uid doesn't resolve (e.g. no matching /etc/passwd entry).
func (c *Cache) UserFromUID(uid uint32) (name string, ok bool) {
	key := strconv.FormatUint(uint64(uid), 10)
	if u, found := c.usersByUID[key]; found {
		return u.Username, true
	}

	u, err := user.LookupId(key)
	if err != nil {
		return "", false
	}
	if c.usersByUID == nil {
		c.usersByUID = make(map[string]*user.User)
	}
	c.usersByUID[key] = u
	return u.Username, true
}

// GroupFromGID returns the group name for gid, from cache or the system.
func (c *Cache) GroupFromGID(gid uint32) (name string, ok bool) {
	key := strconv.FormatUint(uint64(gid), 10)
	if g, found := c.groupsByGID[key]; found {
		return g.Name, true
	}

	g, err := user.LookupGroupId(key)
	if err != nil {
		return "", false
	}
	if c.groupsByGID == nil {
		c.groupsByGID = make(map[string]*user.Group)
	}
	c.groupsByGID[key] = g
	return g.Name, true
}
