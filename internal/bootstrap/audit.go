package bootstrap

import "context"

type AuditLog struct {
	Action  string
	Message string
	Meta    map[string]any
}

// AuditLogger mencatat kejadian operasional level aplikasi (startup,
// shutdown, registrasi device) terpisah dari log request biasa.
type AuditLogger interface {
	Log(ctx context.Context, entry AuditLog)
}
