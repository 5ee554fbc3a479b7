package graphql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/abhisek/zonedash/internal/record"
)

// timestamp layouts seen from the backend; Hasura usually sends RFC 3339
// with an offset but older rows omit it.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

type wireUser struct {
	ID         int             `json:"id"`
	Login      string          `json:"login"`
	Attrs      json.RawMessage `json:"attrs"`
	AuditRatio *float64        `json:"auditRatio"`
	Events     []struct {
		Level *int `json:"level"`
	} `json:"events"`
}

type wireTransaction struct {
	ID        int     `json:"id"`
	Type      string  `json:"type"`
	Amount    float64 `json:"amount"`
	CreatedAt string  `json:"createdAt"`
	Path      *string `json:"path"`
	UserID    *int    `json:"userId"`
}

type wireProgress struct {
	Grade     *float64 `json:"grade"`
	CreatedAt string   `json:"createdAt"`
	IsDone    *bool    `json:"isDone"`
	Path      *string  `json:"path"`
	Object    *struct {
		ID   int     `json:"id"`
		Name *string `json:"name"`
		Type *string `json:"type"`
	} `json:"object"`
}

type wireSkill struct {
	Type   string  `json:"type"`
	Amount float64 `json:"amount"`
}

type dashboardData struct {
	User     json.RawMessage   `json:"user"`
	XP       []json.RawMessage `json:"xp"`
	Up       []json.RawMessage `json:"up"`
	Down     []json.RawMessage `json:"down"`
	Progress []json.RawMessage `json:"progress"`
	Skills   []json.RawMessage `json:"skills"`
}

// FetchProfile fetches the signed-in user's profile.
func (c *Client) FetchProfile(ctx context.Context, token string) (record.Profile, error) {
	var data struct {
		User json.RawMessage `json:"user"`
	}
	if err := c.Query(ctx, token, profileQuery, nil, &data); err != nil {
		return record.Profile{}, err
	}
	u, err := c.decodeUser(data.User)
	if err != nil {
		return record.Profile{}, err
	}
	return profileFrom(u), nil
}

// FetchDashboard fetches every record the dashboard needs. Items that fail
// validation are dropped and counted in Dataset.Dropped; missing arrays
// come back empty.
func (c *Client) FetchDashboard(ctx context.Context, token string) (*record.Dataset, error) {
	var data dashboardData
	vars := map[string]any{"eventId": c.eventID}
	if err := c.Query(ctx, token, dashboardQuery, vars, &data); err != nil {
		return nil, err
	}

	u, err := c.decodeUser(data.User)
	if err != nil {
		return nil, err
	}

	ds := &record.Dataset{
		Profile:   profileFrom(u),
		Level:     levelFrom(u),
		FetchedAt: time.Now().UTC(),
		Dropped:   map[string]int{},
	}

	ds.XP = c.transactions("xp", data.XP, ds.Dropped)
	ds.Up = c.transactions("up", data.Up, ds.Dropped)
	ds.Down = c.transactions("down", data.Down, ds.Dropped)
	ds.Progress = c.progress(data.Progress, ds.Dropped)
	ds.Skills = c.skills(data.Skills, ds.Dropped)

	if len(ds.Dropped) == 0 {
		ds.Dropped = nil
	}
	return ds, nil
}

var errNoUser = errors.New("response has no user")

// decodeUser accepts the Hasura user list or a single object.
func (c *Client) decodeUser(raw json.RawMessage) (wireUser, error) {
	raw = json.RawMessage(strings.TrimSpace(string(raw)))
	if len(raw) == 0 || string(raw) == "null" {
		return wireUser{}, &ErrInvalidResponse{Content: raw, Err: errNoUser}
	}

	item := raw
	if raw[0] == '[' {
		var list []json.RawMessage
		if err := json.Unmarshal(raw, &list); err != nil {
			return wireUser{}, &ErrInvalidResponse{Content: raw, Err: err}
		}
		if len(list) == 0 {
			return wireUser{}, &ErrInvalidResponse{Content: raw, Err: errNoUser}
		}
		item = list[0]
	}

	if err := validate(userSchema, item); err != nil {
		return wireUser{}, &ErrInvalidResponse{Content: item, Err: err}
	}
	var u wireUser
	if err := json.Unmarshal(item, &u); err != nil {
		return wireUser{}, &ErrInvalidResponse{Content: item, Err: err}
	}
	return u, nil
}

func levelFrom(u wireUser) int {
	for _, e := range u.Events {
		if e.Level != nil {
			return *e.Level
		}
	}
	return 0
}

// profileFrom builds the profile, decoding attrs that may arrive either as
// an object or as a JSON-encoded string. Malformed attrs are ignored.
func profileFrom(u wireUser) record.Profile {
	p := record.Profile{
		ID:         u.ID,
		Login:      u.Login,
		AuditRatio: u.AuditRatio,
	}
	attrs := decodeAttrs(u.Attrs)
	p.FirstName = attrs["firstName"]
	p.MiddleName = attrs["middleName"]
	p.LastName = attrs["lastName"]
	p.Email = attrs["email"]
	p.Phone = attrs["phone"]
	if p.Phone == "" {
		p.Phone = attrs["tel"]
	}
	p.Country = attrs["country"]
	p.Gender = attrs["gender"]
	return p
}

func decodeAttrs(raw json.RawMessage) map[string]string {
	out := map[string]string{}
	raw = json.RawMessage(strings.TrimSpace(string(raw)))
	if len(raw) == 0 || string(raw) == "null" {
		return out
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return out
		}
		raw = json.RawMessage(s)
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return out
	}
	for k, v := range m {
		if s, ok := v.(string); ok {
			out[k] = strings.TrimSpace(s)
		}
	}
	return out
}

func (c *Client) transactions(kind string, items []json.RawMessage, dropped map[string]int) []record.Transaction {
	out := make([]record.Transaction, 0, len(items))
	for i, raw := range items {
		var w wireTransaction
		err := validate(transactionSchema, raw)
		if err == nil {
			err = json.Unmarshal(raw, &w)
		}
		var created time.Time
		if err == nil {
			created, err = parseTime(w.CreatedAt)
		}
		if err != nil {
			c.drop(kind, i, err, dropped)
			continue
		}

		tx := record.Transaction{
			ID:        w.ID,
			Type:      w.Type,
			Amount:    int64(math.Round(w.Amount)),
			CreatedAt: created,
		}
		if w.Path != nil {
			tx.Path = *w.Path
		}
		if w.UserID != nil {
			tx.UserID = *w.UserID
		}
		out = append(out, tx)
	}
	return out
}

func (c *Client) progress(items []json.RawMessage, dropped map[string]int) []record.Progress {
	out := make([]record.Progress, 0, len(items))
	for i, raw := range items {
		var w wireProgress
		err := validate(progressSchema, raw)
		if err == nil {
			err = json.Unmarshal(raw, &w)
		}
		var created time.Time
		if err == nil {
			created, err = parseTime(w.CreatedAt)
		}
		if err != nil {
			c.drop("progress", i, err, dropped)
			continue
		}

		p := record.Progress{
			Grade:     w.Grade,
			CreatedAt: created,
			IsDone:    w.IsDone != nil && *w.IsDone,
		}
		if w.Path != nil {
			p.Path = *w.Path
		}
		if w.Object != nil {
			p.Object.ID = w.Object.ID
			if w.Object.Name != nil {
				p.Object.Name = *w.Object.Name
			}
			if w.Object.Type != nil {
				p.Object.Type = *w.Object.Type
			}
		}
		out = append(out, p)
	}
	return out
}

func (c *Client) skills(items []json.RawMessage, dropped map[string]int) []record.SkillAmount {
	out := make([]record.SkillAmount, 0, len(items))
	for i, raw := range items {
		var w wireSkill
		err := validate(skillSchema, raw)
		if err == nil {
			err = json.Unmarshal(raw, &w)
		}
		if err != nil {
			c.drop("skills", i, err, dropped)
			continue
		}
		out = append(out, record.SkillAmount{Type: w.Type, Amount: w.Amount})
	}
	return out
}

func (c *Client) drop(kind string, index int, err error, dropped map[string]int) {
	dropped[kind]++
	c.logger.Warn("dropping malformed record", "kind", kind, "index", index, "error", err)
}
