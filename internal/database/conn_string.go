package database

import (
	"net"
	"net/url"
	"strconv"

	"github.com/rickgao/b3-data/internal/config"
)

// ApplicationName tags updater sessions in pg_stat_activity.
const ApplicationName = "b3-updater"

// BuildConnString builds a PostgreSQL URL from config. User and password
// are escaped as URL userinfo.
func BuildConnString(cfg config.DBConfig) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = config.DefaultDBSSLMode
	}

	q := url.Values{}
	q.Set("sslmode", sslMode)
	q.Set("application_name", ApplicationName)

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:     "/" + cfg.Name,
		RawQuery: q.Encode(),
	}
	return u.String()
}
