package policy

type PolicyResponse struct {
	ID                           string `json:"id"`
	BranchID                     string `json:"branch_id"`
	SubjectType                  string `json:"subject_type"`
	WorkingDays                  string `json:"working_days"`
	StartTime                    string `json:"start_time"`
	EndTime                      string `json:"end_time"`
	GraceMinutes                 int    `json:"grace_minutes"`
	OvertimeGraceMinutes         int    `json:"overtime_grace_minutes"`
	LateThresholdMinutes         int    `json:"late_threshold_minutes"`
	MissingCheckoutCutoffMinutes int    `json:"missing_checkout_cutoff_minutes"`
	AntiPassbackMinutes          int    `json:"anti_passback_minutes"`
}

func MapToResponse(p AttendancePolicy) PolicyResponse {
	return PolicyResponse{
		ID:                           p.ID.String(),
		BranchID:                     p.BranchID.String(),
		SubjectType:                  p.SubjectType,
		WorkingDays:                  p.WorkingDays,
		StartTime:                    p.StartTime,
		EndTime:                      p.EndTime,
		GraceMinutes:                 p.GraceMinutes,
		OvertimeGraceMinutes:         p.OvertimeGraceMinutes,
		LateThresholdMinutes:         p.LateThresholdMinutes,
		MissingCheckoutCutoffMinutes: p.MissingCheckoutCutoffMinutes,
		AntiPassbackMinutes:          p.AntiPassbackMinutes,
	}
}
