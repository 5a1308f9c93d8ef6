package models

import (
	"strconv"
	"strings"
	"time"
)

// Jenis is the platform a member list belongs to
type Jenis string

const (
	JenisStockity   Jenis = "stockity"
	JenisBinomo     Jenis = "binomo"
	JenisOlymptrade Jenis = "olymptrade"
)

// AllJenis lists every platform in menu order
var AllJenis = []Jenis{JenisStockity, JenisBinomo, JenisOlymptrade}

// ParseJenis reports whether s names a known platform
func ParseJenis(s string) (Jenis, bool) {
	for _, j := range AllJenis {
		if string(j) == s {
			return j, true
		}
	}
	return "", false
}

// Title is the display name of the platform
func (j Jenis) Title() string {
	switch j {
	case JenisStockity:
		return "Stockity"
	case JenisBinomo:
		return "Binomo"
	case JenisOlymptrade:
		return "Olymptrade"
	}
	return string(j)
}

// Member is a "master pengguna" record: a platform account allowed to use the bot
type Member struct {
	ID         int64      `json:"id"`
	UUID       string     `json:"uuid"`
	IDPengguna int64      `json:"id_pengguna"`
	Telegram   *string    `json:"telegram"`
	Jenis      Jenis      `json:"jenis"`
	Active     bool       `json:"active"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at"`
}

// Key returns the identifier used in member URLs
func (m Member) Key() string {
	return strconv.FormatInt(m.ID, 10)
}

// CreateMemberRequest is the body of POST master-pengguna
type CreateMemberRequest struct {
	IDPengguna int64   `json:"id_pengguna"`
	Telegram   *string `json:"telegram,omitempty"`
	Jenis      Jenis   `json:"jenis"`
	Active     bool    `json:"active"`
}

// MemberForm holds the values submitted from the add member dialog
type MemberForm struct {
	IDPengguna string
	Telegram   string
	Active     bool
}

// CreateRequest validates the form. The platform account id is required and must be non-zero.
func (f MemberForm) CreateRequest(jenis Jenis) (CreateMemberRequest, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(f.IDPengguna), 10, 64)
	if err != nil || id == 0 {
		return CreateMemberRequest{}, ErrInvalidForm
	}

	req := CreateMemberRequest{IDPengguna: id, Jenis: jenis, Active: f.Active}
	if tg := strings.TrimSpace(f.Telegram); tg != "" {
		req.Telegram = &tg
	}
	return req, nil
}
