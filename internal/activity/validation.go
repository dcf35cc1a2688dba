package activity

import (
	"fmt"

	"github.com/oklog/ulid/v2"

	"github.com/penshort/adminboard/internal/model"
)

const (
	maxBrowserIDLength = 64
	maxSubjectLength   = 200
	maxTags            = 16
	maxTagLength       = 64
)

var knownActions = map[model.ActivityAction]struct{}{
	model.ActionLogin:          {},
	model.ActionLogout:         {},
	model.ActionProductCreated: {},
	model.ActionProductDeleted: {},
}

// ValidatePayload checks a payload read back from the stream.
func ValidatePayload(p Payload) error {
	if _, err := ulid.ParseStrict(p.ID); err != nil {
		return fmt.Errorf("id must be a ULID")
	}
	if p.BrowserID == "" {
		return fmt.Errorf("browser id is required")
	}
	if len(p.BrowserID) > maxBrowserIDLength {
		return fmt.Errorf("browser id too long")
	}
	if _, ok := knownActions[model.ActivityAction(p.Action)]; !ok {
		return fmt.Errorf("unknown action %q", p.Action)
	}
	if len(p.SubjectID) > maxSubjectLength {
		return fmt.Errorf("subject id too long")
	}
	if len(p.Tags) > maxTags {
		return fmt.Errorf("too many tags")
	}
	for _, tag := range p.Tags {
		if tag == "" || len(tag) > maxTagLength {
			return fmt.Errorf("tag length out of bounds")
		}
	}
	if p.CreatedAt <= 0 {
		return fmt.Errorf("timestamp must be set")
	}
	return nil
}
