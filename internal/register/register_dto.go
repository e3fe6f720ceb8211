package register

const (
	ClaimPresent = "PRESENT"
	ClaimAbsent  = "ABSENT"
)

// CreateRegisterEntryRequest adalah entri absen manual dari wali kelas.
type CreateRegisterEntryRequest struct {
	BranchID      string `json:"branch_id" binding:"required"`
	SubjectType   string `json:"subject_type" binding:"required"`
	SubjectUserID string `json:"subject_user_id" binding:"required"`
	Date          string `json:"date" binding:"required"` // YYYY-MM-DD
	Claim         string `json:"claim" binding:"required"`
}

type RegisterEntryResponse struct {
	IdempotencyKey string `json:"idempotency_key"`
	SubjectUserID  string `json:"subject_user_id"`
	Date           string `json:"date"`
	Claim          string `json:"claim"`
	Duplicate      bool   `json:"duplicate"`
}
