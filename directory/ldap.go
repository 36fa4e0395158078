package directory

import (
	"context"
	"net"
	"strings"
	"sync"
	"time"

	"Gin_postgres_redis_inventory_tool/apperr"
	"Gin_postgres_redis_inventory_tool/config"

	"github.com/go-ldap/ldap/v3"
)

var userAttributes = []string{"objectGUID", "sAMAccountName", "displayName", "userPrincipalName"}

type conn interface {
	Bind(username, password string) error
	Search(req *ldap.SearchRequest) (*ldap.SearchResult, error)
	SetTimeout(time.Duration)
}

type dialFunc func(url string, timeout time.Duration) (conn, func(), error)

const defaultTimeout = 10 * time.Second

// LDAP authenticates with a service bind, a user search and a bind as the
// user's DN. A fresh connection is used per login.
type LDAP struct {
	cfg  config.LDAP
	dial dialFunc
}

func NewLDAP(cfg config.LDAP) *LDAP {
	return &LDAP{cfg: cfg, dial: dialURL}
}

func dialURL(url string, timeout time.Duration) (conn, func(), error) {
	c, err := ldap.DialURL(url, ldap.DialWithDialer(&net.Dialer{Timeout: timeout}))
	if err != nil {
		return nil, nil, err
	}
	return c, func() { c.Close() }, nil
}

// timeout is what is left of the request deadline, or the configured
// default when there is none.
func (d *LDAP) timeout(ctx context.Context) time.Duration {
	if dl, ok := ctx.Deadline(); ok {
		return time.Until(dl)
	}
	if d.cfg.Timeout > 0 {
		return d.cfg.Timeout
	}
	return defaultTimeout
}

func (d *LDAP) Authenticate(ctx context.Context, username, password string) (*Identity, error) {
	username = strings.TrimSpace(username)
	// an empty password would turn the user bind into an anonymous bind
	if username == "" || password == "" {
		return nil, invalidCredentials()
	}
	if err := ctx.Err(); err != nil {
		return nil, apperr.Wrap(apperr.Upstream, err, "directory")
	}

	timeout := d.timeout(ctx)
	c, closeConn, err := d.dial(d.cfg.URL, timeout)
	if err != nil {
		return nil, apperr.Wrap(apperr.Upstream, err, "directory dial")
	}
	var once sync.Once
	release := func() { once.Do(closeConn) }
	defer release()
	c.SetTimeout(timeout)
	// cancelling the request closes the connection and fails the pending call
	stop := context.AfterFunc(ctx, release)
	defer stop()

	id, err := d.lookup(c, username, password)
	if err != nil && ctx.Err() != nil {
		return nil, apperr.Wrap(apperr.Upstream, ctx.Err(), "directory")
	}
	return id, err
}

func (d *LDAP) lookup(c conn, username, password string) (*Identity, error) {
	if err := c.Bind(d.cfg.BindDN, d.cfg.BindPassword); err != nil {
		return nil, apperr.Wrap(apperr.Upstream, err, "directory service bind")
	}

	filter := strings.ReplaceAll(d.cfg.UserFilter, "%s", ldap.EscapeFilter(username))
	req := ldap.NewSearchRequest(
		d.cfg.BaseDN,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		2, 10, false,
		filter,
		userAttributes,
		nil,
	)
	res, err := c.Search(req)
	if err != nil {
		if ldap.IsErrorWithCode(err, ldap.LDAPResultSizeLimitExceeded) {
			return nil, invalidCredentials()
		}
		return nil, apperr.Wrap(apperr.Upstream, err, "directory search")
	}
	if len(res.Entries) != 1 {
		return nil, invalidCredentials()
	}
	entry := res.Entries[0]

	if err := c.Bind(entry.DN, password); err != nil {
		if ldap.IsErrorWithCode(err, ldap.LDAPResultInvalidCredentials) {
			return nil, invalidCredentials()
		}
		return nil, apperr.Wrap(apperr.Upstream, err, "directory user bind")
	}

	guid, err := GUIDFromAD(entry.GetRawAttributeValue("objectGUID"))
	if err != nil {
		return nil, apperr.Wrap(apperr.Upstream, err, "directory entry "+entry.DN)
	}
	name := entry.GetAttributeValue("sAMAccountName")
	if name == "" {
		name = username
	}
	display := entry.GetAttributeValue("displayName")
	if display == "" {
		display = name
	}
	return &Identity{GUID: guid, Username: name, DisplayName: display}, nil
}
