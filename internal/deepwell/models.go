package deepwell

// Clearance is one clearance level row: display name plus the hex colour the
// terminal renders it with.
type Clearance struct {
	ID       int64
	Name     string
	ColorHex string
}

type User struct {
	ID           int64
	Name         string
	Title        string
	PasswordHash string
	Clearance    Clearance
	SiteID       int64
}

// Payload returns the wire shape of a user record. The password hash never
// leaves the store.
func (u User) Payload() map[string]any {
	return map[string]any{
		"id":            u.ID,
		"name":          u.Name,
		"title":         u.Title,
		"clearance":     u.Clearance.Name,
		"clearance_hex": u.Clearance.ColorHex,
		"site_id":       u.SiteID,
	}
}

type SCP struct {
	ID               int64
	Name             string
	Clearance        Clearance
	ContainmentClass string
	SiteID           int64
	TaskForceID      int64
}

func (s SCP) Payload() map[string]any {
	return map[string]any{
		"id":                s.ID,
		"name":              s.Name,
		"clearance":         s.Clearance.Name,
		"clearance_hex":     s.Clearance.ColorHex,
		"containment_class": s.ContainmentClass,
		"site_id":           s.SiteID,
		"task_force_id":     s.TaskForceID,
	}
}

type Site struct {
	ID   int64
	Name string
}

func (s Site) Payload() map[string]any {
	return map[string]any{
		"id":   s.ID,
		"name": s.Name,
	}
}

type TaskForce struct {
	ID       int64
	Name     string
	Nickname string
	SiteID   int64
}

func (t TaskForce) Payload() map[string]any {
	return map[string]any{
		"id":       t.ID,
		"name":     t.Name,
		"nickname": t.Nickname,
		"site_id":  t.SiteID,
	}
}
