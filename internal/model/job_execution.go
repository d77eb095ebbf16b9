package model

// JobStatus 任务执行状态
type JobStatus string

const (
	JobStatusRunning JobStatus = "running"
	JobStatusSuccess JobStatus = "success"
	JobStatusFailed  JobStatus = "failed"
	JobStatusSkipped JobStatus = "skipped"
)

// JobExecution 定时任务执行记录
type JobExecution struct {
	ID           int64     `gorm:"column:id;primaryKey;autoIncrement"`
	JobName      string    `gorm:"column:job_name;type:varchar(100);not null"`
	Status       JobStatus `gorm:"column:status;type:varchar(20);not null"`
	StartedAt    int64     `gorm:"column:started_at;not null"`
	FinishedAt   *int64    `gorm:"column:finished_at"`
	DurationMs   *int      `gorm:"column:duration_ms"`
	ErrorMessage *string   `gorm:"column:error_message;type:text"`
	Result       JSONMap   `gorm:"column:result;type:jsonb"`
	CreatedAt    int64     `gorm:"column:created_at;not null"`
}

// TableName 表名
func (JobExecution) TableName() string {
	return "governance_job_executions"
}
