package config

// StorageConfig selects where schedules and fleet commitments live.
type StorageConfig struct {
	// DatabasePath is the SQLite file. Empty selects the in-memory store.
	DatabasePath string `json:"database_path"`
	// AuditLogPath is the JSONL transition history file.
	AuditLogPath string `json:"audit_log_path"`
}

// SetDefaults applies sane defaults.
func (c *StorageConfig) SetDefaults() {
	if c.AuditLogPath == "" {
		c.AuditLogPath = "schedule_audit.log"
	}
}
