package player

import (
	"regexp"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

var (
	ErrInvalidPhone = errors.New("invalid phone number")
	ErrNameRequired = errors.New("player name is required")
)

var e164Pattern = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)

// Player is a person who takes part in games. Identity is fixed once created;
// only the contact fields may change.
type Player struct {
	ID        string
	Name      string
	Nickname  *string
	Phone     string
	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Contact holds the mutable part of a Player.
type Contact struct {
	Name     string
	Nickname *string
	Phone    string
}

// DisplayName prefers the nickname.
func (p Player) DisplayName() string {
	if p.Nickname != nil && strings.TrimSpace(*p.Nickname) != "" {
		return *p.Nickname
	}
	return p.Name
}

func (p Player) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return errors.New("player id is required")
	}
	return Contact{Name: p.Name, Nickname: p.Nickname, Phone: p.Phone}.Validate()
}

func (c Contact) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrNameRequired
	}
	if !e164Pattern.MatchString(c.Phone) {
		return errors.Wrapf(ErrInvalidPhone, "%q is not E.164", c.Phone)
	}
	return nil
}

// NormalizePhone turns user input such as "+55 (11) 99999-0000" or
// "5511999990000" into E.164 form.
func NormalizePhone(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.Wrap(ErrInvalidPhone, "phone is required")
	}

	var b strings.Builder
	b.Grow(len(raw) + 1)
	b.WriteByte('+')
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	phone := b.String()
	if !e164Pattern.MatchString(phone) {
		return "", errors.Wrapf(ErrInvalidPhone, "%q is not a valid international number", raw)
	}
	return phone, nil
}

// Digits strips the leading '+', the form the messaging gateway expects.
func Digits(phone string) string {
	return strings.TrimPrefix(phone, "+")
}
