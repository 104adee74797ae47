package storage

import (
	"bytes"
	"io"
	"log/slog"

	"xjsf/internal/models"
)

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// captureLogger returns a logger writing text records into buf.
func captureLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// sampleRoster exercises every field a source has to carry.
func sampleRoster() *models.Roster {
	return &models.Roster{
		Authentication: models.Authentication{NameCookie: "xjsf_user", PasswordCookie: "xjsf_pass"},
		Clients: []models.RosterEntry{
			{MinuteLimit: intPtr(10)},
			{Name: "alice", Password: strPtr("wonderland"), HourLimit: intPtr(100)},
			{Name: "bob", MinuteLimit: intPtr(5), HourLimit: intPtr(50), DayLimit: intPtr(500)},
		},
	}
}
