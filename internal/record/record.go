// Package record holds the normalized records fetched from the Zone01
// GraphQL backend. Values are built by the graphql client and treated as
// immutable by everything downstream.
package record

import (
	"strings"
	"time"
)

// Transaction types the backend emits. Skill transactions use the
// SkillPrefix followed by the skill name (e.g. "skill_go").
const (
	TypeXP    = "xp"
	TypeUp    = "up"
	TypeDown  = "down"
	TypeLevel = "level"

	SkillPrefix = "skill_"
)

// ObjectTypeProject marks a progress object that is a project (as opposed
// to an exercise, piscine or quest).
const ObjectTypeProject = "project"

// Transaction is a single backend transaction row.
type Transaction struct {
	ID        int       `json:"id"`
	Type      string    `json:"type"`
	Amount    int64     `json:"amount"`
	CreatedAt time.Time `json:"createdAt"`
	Path      string    `json:"path"`
	UserID    int       `json:"userId"`
}

// Name returns the last segment of the transaction path.
func (t Transaction) Name() string {
	return lastSegment(t.Path)
}

// Object is the curriculum object a progress record refers to.
type Object struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// Progress is one graded attempt at a project or exercise.
type Progress struct {
	Grade     *float64  `json:"grade,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	IsDone    bool      `json:"isDone"`
	Path      string    `json:"path"`
	Object    Object    `json:"object"`
}

// IsProject reports whether the record refers to a project object.
func (p Progress) IsProject() bool {
	return p.Object.Type == ObjectTypeProject
}

// Passed reports whether the attempt has a positive grade. A missing grade
// counts as not passed.
func (p Progress) Passed() bool {
	return p.Grade != nil && *p.Grade > 0
}

// Name returns the object name, falling back to the last path segment.
func (p Progress) Name() string {
	if p.Object.Name != "" {
		return p.Object.Name
	}
	if name := lastSegment(p.Path); name != "" {
		return name
	}
	return "Unknown Project"
}

// SkillAmount is one row of the skill transaction aggregate.
type SkillAmount struct {
	Type   string  `json:"type"`
	Amount float64 `json:"amount"`
}

// Profile is the signed-in user with the attributes decoded from the
// backend's attrs JSON.
type Profile struct {
	ID         int      `json:"id"`
	Login      string   `json:"login"`
	FirstName  string   `json:"firstName,omitempty"`
	MiddleName string   `json:"middleName,omitempty"`
	LastName   string   `json:"lastName,omitempty"`
	Email      string   `json:"email,omitempty"`
	Phone      string   `json:"phone,omitempty"`
	Country    string   `json:"country,omitempty"`
	Gender     string   `json:"gender,omitempty"`
	AuditRatio *float64 `json:"auditRatio,omitempty"`
}

// NotProvided is shown for profile attributes the backend did not send.
const NotProvided = "Not provided"

// FullName joins the first, middle and last names, falling back to the login.
func (p Profile) FullName() string {
	parts := make([]string, 0, 3)
	for _, s := range []string{p.FirstName, p.MiddleName, p.LastName} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		if p.Login == "" {
			return "User"
		}
		return p.Login
	}
	return strings.Join(parts, " ")
}

// Initial returns the avatar letter: first name, then login, then "U".
func (p Profile) Initial() string {
	for _, s := range []string{p.FirstName, p.Login} {
		if s = strings.TrimSpace(s); s != "" {
			return strings.ToUpper(string([]rune(s)[0]))
		}
	}
	return "U"
}

// Field returns v, or NotProvided when v is blank.
func Field(v string) string {
	if strings.TrimSpace(v) == "" {
		return NotProvided
	}
	return v
}

// Dataset is everything one dashboard load fetches.
type Dataset struct {
	Profile   Profile        `json:"profile"`
	Level     int            `json:"level"`
	XP        []Transaction  `json:"xp"`
	Up        []Transaction  `json:"up"`
	Down      []Transaction  `json:"down"`
	Progress  []Progress     `json:"progress"`
	Skills    []SkillAmount  `json:"skills"`
	FetchedAt time.Time      `json:"fetchedAt"`
	Dropped   map[string]int `json:"dropped,omitempty"`
}

// SumAmount totals the amounts of the given transactions.
func SumAmount(txs []Transaction) int64 {
	var total int64
	for _, t := range txs {
		total += t.Amount
	}
	return total
}

func lastSegment(path string) string {
	path = strings.TrimRight(path, "/")
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}
