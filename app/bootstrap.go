// app/bootstrap.go
package app

import (
	"sort"
	"strings"

	"Gin_postgres_redis_inventory_tool/logs"
)

// BootstrapAdmins is the set of directory usernames whose first login
// creates an activated admin. Later logins never change an existing role.
type BootstrapAdmins map[string]struct{}

func NewBootstrapAdmins(usernames []string) BootstrapAdmins {
	b := BootstrapAdmins{}
	for _, u := range usernames {
		if u = strings.ToLower(strings.TrimSpace(u)); u != "" {
			b[u] = struct{}{}
		}
	}
	return b
}

func (b BootstrapAdmins) Contains(username string) bool {
	_, ok := b[strings.ToLower(strings.TrimSpace(username))]
	return ok
}

func (b BootstrapAdmins) Log() {
	if len(b) == 0 {
		logs.Logger.Warn("[BOOTSTRAP] admin.usernames is empty; new accounts need an existing admin to activate them")
		return
	}
	names := make([]string, 0, len(b))
	for n := range b {
		names = append(names, n)
	}
	sort.Strings(names)
	logs.Logger.Infof("[BOOTSTRAP] first login of %s creates an activated admin", strings.Join(names, ", "))
}
