package model

import "github.com/shopspring/decimal"

// PerformanceMetric 绩效指标定义
// weight 为相对权重，不要求总和为 1
type PerformanceMetric struct {
	ID        int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Code      string          `gorm:"column:code;type:varchar(50);uniqueIndex;not null" json:"code"`
	Name      string          `gorm:"column:name;type:varchar(100);not null" json:"name"`
	Weight    decimal.Decimal `gorm:"column:weight;type:decimal(10,4);not null" json:"weight"`
	MaxScore  decimal.Decimal `gorm:"column:max_score;type:decimal(10,4);not null" json:"max_score"`
	IsActive  bool            `gorm:"column:is_active;not null;default:true" json:"is_active"`
	CreatedAt int64           `gorm:"column:created_at;not null" json:"created_at"`
	UpdatedAt int64           `gorm:"column:updated_at;not null" json:"updated_at"`
}

// TableName 返回表名
func (PerformanceMetric) TableName() string {
	return "performance_metrics"
}

// PerformanceScore 绩效评分记录
// 创建后不可变更，更正必须以更晚 period_end 追加新记录
type PerformanceScore struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	VendorID    int64           `gorm:"column:vendor_id;index:idx_vendor_metric;not null" json:"vendor_id"`
	MetricID    int64           `gorm:"column:metric_id;index:idx_vendor_metric;not null" json:"metric_id"`
	Score       decimal.Decimal `gorm:"column:score;type:decimal(10,4);not null" json:"score"` // 0..metric.max_score
	PeriodStart int64           `gorm:"column:period_start;not null" json:"period_start"`
	PeriodEnd   int64           `gorm:"column:period_end;not null" json:"period_end"`
	ScoredBy    string          `gorm:"column:scored_by;type:varchar(64)" json:"scored_by"`
	Notes       string          `gorm:"column:notes;type:varchar(500)" json:"notes"`
	CreatedAt   int64           `gorm:"column:created_at;not null" json:"created_at"`
}

// TableName 返回表名
func (PerformanceScore) TableName() string {
	return "performance_scores"
}

// ScoreSource 综合绩效分的触发来源
type ScoreSource string

const (
	ScoreSourceManualRating ScoreSource = "manual_rating" // 人工评分后重算
	ScoreSourceScheduled    ScoreSource = "scheduled"     // 定时任务重算
)

// ScoreHistory 综合绩效分历史
// 只追加，不更新不删除
type ScoreHistory struct {
	ID        int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	VendorID  int64       `gorm:"column:vendor_id;index;not null" json:"vendor_id"`
	Score     int         `gorm:"column:score;type:int;not null" json:"score"` // 0-100
	Source    ScoreSource `gorm:"column:source;type:varchar(30);not null" json:"source"`
	Metadata  JSONMap     `gorm:"column:metadata;type:jsonb" json:"metadata"`
	CreatedAt int64       `gorm:"column:created_at;not null" json:"created_at"`
}

// TableName 返回表名
func (ScoreHistory) TableName() string {
	return "vendor_score_history"
}
