package server

import (
	"errors"
	"strings"

	"github.com/danmuck/scipnet/internal/deepwell"
	"github.com/danmuck/scipnet/internal/protocol"
	logs "github.com/danmuck/smplog"
)

// Verdict labels one access decision for logging and metrics.
type Verdict string

const (
	VerdictGranted  Verdict = "granted"
	VerdictRedacted Verdict = "redacted"
	VerdictExpunged Verdict = "expunged"
)

// Site records open up to staff posted at the site regardless of clearance.
// Everyone else needs at least this level.
const siteClearanceFloor = 3

// Deepwell is the record surface the session layer needs. *deepwell.Store
// satisfies it.
type Deepwell interface {
	UserByID(id int64) (deepwell.User, error)
	SCPByID(id int64) (deepwell.SCP, error)
	SiteByID(id int64) (deepwell.Site, error)
	TaskForceByID(id int64) (deepwell.TaskForce, error)
	ClearanceByID(id int64) (deepwell.Clearance, error)
	LogAccess(userID int64, ip string, granted bool, note string) error
}

// Decide resolves one access request against the deepwell and returns the
// response envelope to send. Unknown file types and missing records are
// indistinguishable on the wire: both come back expunged.
func Decide(db Deepwell, user deepwell.User, fType string, fID int64) (protocol.Envelope, Verdict, error) {
	switch strings.ToUpper(strings.TrimSpace(fType)) {
	case "SCP":
		rec, err := db.SCPByID(fID)
		if errors.Is(err, deepwell.ErrNotFound) {
			return expunged(fType, fID)
		}
		if err != nil {
			return protocol.Envelope{}, "", err
		}
		if user.Clearance.ID >= rec.Clearance.ID {
			return granted(rec.Payload())
		}
		return redacted(user.Clearance, rec.Clearance)

	case "USER":
		rec, err := db.UserByID(fID)
		if errors.Is(err, deepwell.ErrNotFound) {
			return expunged(fType, fID)
		}
		if err != nil {
			return protocol.Envelope{}, "", err
		}
		if user.Clearance.ID >= rec.Clearance.ID {
			return granted(rec.Payload())
		}
		return redacted(user.Clearance, rec.Clearance)

	case "SITE":
		rec, err := db.SiteByID(fID)
		if errors.Is(err, deepwell.ErrNotFound) {
			return expunged(fType, fID)
		}
		if err != nil {
			return protocol.Envelope{}, "", err
		}
		if user.Clearance.ID >= siteClearanceFloor || user.SiteID == rec.ID {
			return granted(rec.Payload())
		}
		floor, err := db.ClearanceByID(siteClearanceFloor)
		if err != nil {
			return protocol.Envelope{}, "", err
		}
		return redacted(user.Clearance, floor)

	case "MTF":
		rec, err := db.TaskForceByID(fID)
		if errors.Is(err, deepwell.ErrNotFound) {
			return expunged(fType, fID)
		}
		if err != nil {
			return protocol.Envelope{}, "", err
		}
		return granted(rec.Payload())

	default:
		logs.Warnf("server.Decide unknown f_type=%q user_id=%d", fType, user.ID)
		return expunged(fType, fID)
	}
}

func granted(file map[string]any) (protocol.Envelope, Verdict, error) {
	env, err := protocol.NewAccessGranted(file)
	return env, VerdictGranted, err
}

func redacted(have, need deepwell.Clearance) (protocol.Envelope, Verdict, error) {
	env, err := protocol.NewAccessRedacted(have.Name, have.ColorHex, need.Name, need.ColorHex)
	return env, VerdictRedacted, err
}

func expunged(fType string, fID int64) (protocol.Envelope, Verdict, error) {
	env, err := protocol.NewAccessExpunged(fType, fID)
	return env, VerdictExpunged, err
}
