package adapters

import (
	"bufio"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
)

// DefaultODBCDriver is used when a login does not name an ODBC driver.
const DefaultODBCDriver = "ODBC Driver 17 for SQL Server"

// Login describes a SQL Server style login: server, database and
// either SQL credentials or integrated security. It renders into the
// connection-string flavors the mssql and odbc connectors expect, so
// credential sourcing stays outside the sync engine.
type Login struct {
	Server   string
	Port     int
	Database string
	Username string
	Password string

	// Driver names the ODBC driver for ODBCString. Empty picks
	// DefaultODBCDriver.
	Driver string

	// Trusted selects Windows integrated security. Username and
	// Password are ignored when set. Integrated logins must go through
	// the odbc connector; the native mssql driver takes credentials
	// only.
	Trusted bool
}

// Validate checks that the login can render a connection string.
func (l Login) Validate() error {
	if l.Server == "" {
		return fmt.Errorf("login: server is required")
	}
	if l.Database == "" {
		return fmt.Errorf("login: database is required")
	}
	if !l.Trusted && l.Username == "" {
		return fmt.Errorf("login: username is required unless trusted is set")
	}
	return nil
}

// ODBCString renders the login as an ODBC connection string.
func (l Login) ODBCString() string {
	driver := l.Driver
	if driver == "" {
		driver = DefaultODBCDriver
	}
	server := l.Server
	if l.Port != 0 {
		server = fmt.Sprintf("%s,%d", l.Server, l.Port)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Driver={%s};Server=%s;Database=%s;", driver, server, l.Database)
	if l.Trusted || l.Username == "" {
		b.WriteString("Trusted_Connection=yes;")
	} else {
		fmt.Fprintf(&b, "UID=%s;PWD=%s;", l.Username, l.Password)
	}
	return b.String()
}

// URL renders the login as a sqlserver:// URL for the native mssql
// connector.
func (l Login) URL() string {
	u := &url.URL{Scheme: "sqlserver", Host: l.Server}
	if l.Port != 0 {
		u.Host = fmt.Sprintf("%s:%d", l.Server, l.Port)
	}
	if l.Username != "" {
		u.User = url.UserPassword(l.Username, l.Password)
	}
	q := url.Values{}
	q.Set("database", l.Database)
	u.RawQuery = q.Encode()
	return u.String()
}

// LoadLogin reads a login descriptor from a key=value file.
//
// Recognized keys: server (or server_name), port, database (or
// db_name), username, password, driver, trusted. Blank lines and lines
// starting with # are skipped.
func LoadLogin(path string) (Login, error) {
	var l Login

	f, err := os.Open(path)
	if err != nil {
		return l, fmt.Errorf("failed to open login file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		key, value, found := strings.Cut(text, "=")
		if !found {
			return l, fmt.Errorf("login file %s: line %d is not key=value", path, line)
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch key {
		case "server", "server_name":
			l.Server = value
		case "port":
			p, err := strconv.Atoi(value)
			if err != nil {
				return l, fmt.Errorf("login file %s: invalid port %q", path, value)
			}
			l.Port = p
		case "database", "db_name":
			l.Database = value
		case "username", "user":
			l.Username = value
		case "password":
			l.Password = value
		case "driver":
			l.Driver = value
		case "trusted":
			t, err := strconv.ParseBool(value)
			if err != nil {
				return l, fmt.Errorf("login file %s: invalid trusted value %q", path, value)
			}
			l.Trusted = t
		default:
			return l, fmt.Errorf("login file %s: unknown key %q on line %d", path, key, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return l, fmt.Errorf("failed to read login file: %w", err)
	}
	if err := l.Validate(); err != nil {
		return l, err
	}
	return l, nil
}
