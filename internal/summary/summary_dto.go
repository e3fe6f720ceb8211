package summary

import (
	"time"

	"go-presensi/internal/policy"
)

type SummaryResponse struct {
	ID              string     `json:"id"`
	BranchID        string     `json:"branch_id"`
	SubjectType     string     `json:"subject_type"`
	SubjectUserID   string     `json:"subject_user_id"`
	SubjectName     string     `json:"subject_name,omitempty"`
	SummaryDate     string     `json:"summary_date"`
	Status          string     `json:"status"`
	EarliestCheckIn *time.Time `json:"earliest_check_in,omitempty"`
	LatestCheckOut  *time.Time `json:"latest_check_out,omitempty"`
	LateMinutes     int        `json:"late_minutes"`
	Flags           []string   `json:"flags"`
	PrimaryFlag     string     `json:"primary_flag,omitempty"`
	Overridden      bool       `json:"overridden"`
	OverrideReason  *string    `json:"override_reason,omitempty"`
}

type ResolveRequest struct {
	Reason    string `json:"reason" binding:"required"`
	NewStatus string `json:"new_status" binding:"required"`
}

func mapToResponse(s AttendanceSummary) SummaryResponse {
	return SummaryResponse{
		ID:              s.ID.String(),
		BranchID:        s.BranchID.String(),
		SubjectType:     s.SubjectType,
		SubjectUserID:   s.SubjectUserID.String(),
		SummaryDate:     s.SummaryDate.Format("2006-01-02"),
		Status:          s.Status,
		EarliestCheckIn: s.EarliestCheckIn,
		LatestCheckOut:  s.LatestCheckOut,
		LateMinutes:     s.LateMinutes,
		Flags:           s.Flags.Names(),
		PrimaryFlag:     s.Flags.Primary(),
		Overridden:      s.Flags.Has(policy.FlagOverridden),
		OverrideReason:  s.OverrideReason,
	}
}
