package storage

import (
	"xjsf/internal/models"
)

// clientRow is one client as stored in the SQL roster tables. The default
// client is stored under the empty name.
type clientRow struct {
	Name        string  `db:"name"`
	Password    *string `db:"password"`
	MinuteLimit *int    `db:"min_limit"`
	HourLimit   *int    `db:"hour_limit"`
	DayLimit    *int    `db:"day_limit"`
}

// authRow is the single row of the authentication table.
type authRow struct {
	NameCookie     string `db:"name_cookie"`
	PasswordCookie string `db:"password_cookie"`
}

// rowsToRoster assembles a roster from table rows. An empty result means
// nothing has been stored.
func rowsToRoster(auth *authRow, rows []clientRow) (*models.Roster, error) {
	if auth == nil && len(rows) == 0 {
		return nil, ErrRosterNotFound
	}
	roster := &models.Roster{}
	if auth != nil {
		roster.Authentication = models.Authentication{
			NameCookie:     auth.NameCookie,
			PasswordCookie: auth.PasswordCookie,
		}
	}
	for _, row := range rows {
		roster.Clients = append(roster.Clients, models.RosterEntry{
			Name:        row.Name,
			Password:    row.Password,
			MinuteLimit: row.MinuteLimit,
			HourLimit:   row.HourLimit,
			DayLimit:    row.DayLimit,
		})
	}
	return roster, roster.Validate()
}

// rosterToRows splits a roster into table rows. The authentication row is
// nil when cookie identification is off.
func rosterToRows(roster *models.Roster) (*authRow, []clientRow) {
	var auth *authRow
	if roster.Authentication.NameCookie != "" {
		auth = &authRow{
			NameCookie:     roster.Authentication.NameCookie,
			PasswordCookie: roster.Authentication.PasswordCookie,
		}
	}
	rows := make([]clientRow, 0, len(roster.Clients))
	for _, e := range roster.Clients {
		rows = append(rows, clientRow{
			Name:        e.Name,
			Password:    e.Password,
			MinuteLimit: e.MinuteLimit,
			HourLimit:   e.HourLimit,
			DayLimit:    e.DayLimit,
		})
	}
	return auth, rows
}
