package deepwell

import (
	"fmt"

	logs "github.com/danmuck/smplog"
	"golang.org/x/crypto/bcrypt"
)

// Clearance level names and render colours, level 1 through 6.
var clearanceLevels = []Clearance{
	{ID: 1, Name: "Level 1 - Unrestricted", ColorHex: "#009F6B"},
	{ID: 2, Name: "Level 2 - Restricted", ColorHex: "#0087BD"},
	{ID: 3, Name: "Level 3 - Confidential", ColorHex: "#FFD300"},
	{ID: 4, Name: "Level 4 - Secret", ColorHex: "#FF6D00"},
	{ID: 5, Name: "Level 5 - Top Secret", ColorHex: "#C40233"},
	{ID: 6, Name: "Level 6 - Cosmic Top Secret", ColorHex: "#850005"},
}

type demoUser struct {
	id        int64
	name      string
	title     string
	password  string
	clearance int64
	siteID    int64
}

// SeedDemo loads the quickstart records: a couple of sites, three users,
// three task forces, and two SCP files. Intended for development and tests.
func (s *Store) SeedDemo() error {
	for _, c := range clearanceLevels {
		if _, err := s.db.Exec(
			`INSERT OR IGNORE INTO clearance_lvls (id, name, color_hex) VALUES (?, ?, ?)`,
			c.ID, c.Name, c.ColorHex); err != nil {
			return fmt.Errorf("deepwell: seed clearance: %w", err)
		}
	}

	sites := []Site{
		{ID: 6, Name: "Site-6"},
		{ID: 1123, Name: "Site-1123"},
	}
	for _, site := range sites {
		if _, err := s.db.Exec(
			`INSERT OR IGNORE INTO sites (id, name) VALUES (?, ?)`,
			site.ID, site.Name); err != nil {
			return fmt.Errorf("deepwell: seed site: %w", err)
		}
	}

	users := []demoUser{
		{1, "Evren Packard", "Site Director", "InSAne", 6, 1123},
		{2, "Glorbo Florbo", "Mobile Task Force Operative", "1234", 5, 1123},
		{3, "James", "Mobile Task Force Operative", "password", 1, 6},
	}
	for _, u := range users {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("deepwell: hash password: %w", err)
		}
		if _, err := s.db.Exec(
			`INSERT OR IGNORE INTO users (id, name, title, password_hash, clearance_lvl_id, site_id)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			u.id, u.name, u.title, string(hash), u.clearance, u.siteID); err != nil {
			return fmt.Errorf("deepwell: seed user: %w", err)
		}
	}

	taskForces := []TaskForce{
		{ID: 1, Name: "Gamma-94", Nickname: "Gramma's little helpers", SiteID: 1123},
		{ID: 2, Name: "Epsilon-6", Nickname: "Village Idiots"},
		{ID: 3, Name: "Alpha-1", Nickname: "Red Right Hand"},
	}
	for _, tf := range taskForces {
		siteID := any(tf.SiteID)
		if tf.SiteID == 0 {
			siteID = nil
		}
		if _, err := s.db.Exec(
			`INSERT OR IGNORE INTO mtfs (id, name, nickname, site_id) VALUES (?, ?, ?, ?)`,
			tf.ID, tf.Name, tf.Nickname, siteID); err != nil {
			return fmt.Errorf("deepwell: seed task force: %w", err)
		}
	}

	scps := []struct {
		id          int64
		name        string
		clearance   int64
		class       string
		siteID      int64
		taskForceID int64
	}{
		{49, "Plague Doctor", 6, "Euclid", 1123, 1},
		{2, "The 'Living' Room", 2, "Euclid", 0, 0},
	}
	for _, scp := range scps {
		siteID := any(scp.siteID)
		if scp.siteID == 0 {
			siteID = nil
		}
		tfID := any(scp.taskForceID)
		if scp.taskForceID == 0 {
			tfID = nil
		}
		if _, err := s.db.Exec(
			`INSERT OR IGNORE INTO scps (id, name, clearance_lvl_id, containment_class, site_id, task_force_id)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			scp.id, scp.name, scp.clearance, scp.class, siteID, tfID); err != nil {
			return fmt.Errorf("deepwell: seed scp: %w", err)
		}
	}

	logs.Infof("deepwell.SeedDemo loaded demo records")
	return nil
}
