package dto

import (
	"github.com/unifyi-dev/admissions-crm-api/internal/models"
	appErrors "github.com/unifyi-dev/admissions-crm-api/pkg/errors"
)

// CreateWalkinRequest is the student submission payload. VisitDate uses the
// wire format YYYY-MM-DD; VisitTime is an opaque time-of-day label.
type CreateWalkinRequest struct {
	VisitDate       string `json:"visit_date" validate:"required"`
	VisitTime       string `json:"visit_time" validate:"required"`
	NumberOfPersons int    `json:"number_of_persons" validate:"required,min=1"`
	Reason          string `json:"reason" validate:"required"`
}

// DecideWalkinRequest captures the counsellor decision. VisitDate/VisitTime
// are required for the "modified" action and ignored otherwise.
type DecideWalkinRequest struct {
	Status         models.WalkinStatus `json:"status"`
	CounsellorNote string              `json:"counsellor_note"`
	VisitDate      string              `json:"visit_date,omitempty"`
	VisitTime      string              `json:"visit_time,omitempty"`
}

// WalkinQuery mirrors supported listing filters.
type WalkinQuery struct {
	Status []models.WalkinStatus
	Limit  int
	Offset int
}

// WalkinAvailability reports the submission gate for the student form.
// Assignment is external; absence of a counsellor suppresses the form but
// never blocks reading historical requests.
type WalkinAvailability struct {
	CanSubmit           bool `json:"can_submit"`
	AwaitingAssignment  bool `json:"awaiting_assignment"`
	OutstandingRequests int  `json:"outstanding_requests"`
}

// WalkinBadge is the visual class a surface must use for a status.
type WalkinBadge string

const (
	WalkinBadgePending  WalkinBadge = "pending"
	WalkinBadgeApproved WalkinBadge = "approved"
	WalkinBadgeModified WalkinBadge = "modified"
	WalkinBadgeRejected WalkinBadge = "rejected"
)

// BadgeForStatus maps the four status values onto their badge classes.
// A value outside the enum is a data-integrity fault and is surfaced as
// an error instead of defaulting to a fifth class.
func BadgeForStatus(status models.WalkinStatus) (WalkinBadge, error) {
	switch status {
	case models.WalkinStatusRequested:
		return WalkinBadgePending, nil
	case models.WalkinStatusApproved:
		return WalkinBadgeApproved, nil
	case models.WalkinStatusModified:
		return WalkinBadgeModified, nil
	case models.WalkinStatusRejected:
		return WalkinBadgeRejected, nil
	default:
		return "", appErrors.Clone(appErrors.ErrUnknownStatus, "unknown walk-in status: "+string(status))
	}
}

// WalkinItem decorates a request with its badge for rendering surfaces.
type WalkinItem struct {
	models.WalkinRequest
	Badge WalkinBadge `json:"badge"`
}
