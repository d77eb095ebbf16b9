// Package cache 提供供应商治理服务的缓存层
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/procurelink/vendor-core/internal/model"
)

const (
	complianceKeyPrefix = "vendor:compliance:"
	complianceTTL       = time.Hour
)

// ComplianceEntry 合规状态缓存条目
// 只读快照，权威数据始终以 vendors 表为准
type ComplianceEntry struct {
	VendorID    int64                  `json:"vendor_id"`
	Status      model.ComplianceStatus `json:"status"`
	Score       int                    `json:"score"`
	EvaluatedAt int64                  `json:"evaluated_at"`
}

// ComplianceCache 供应商合规状态缓存
type ComplianceCache struct {
	client redis.UniversalClient
}

// NewComplianceCache 创建合规状态缓存
func NewComplianceCache(client redis.UniversalClient) *ComplianceCache {
	return &ComplianceCache{client: client}
}

func complianceKey(vendorID int64) string {
	return fmt.Sprintf("%s%d", complianceKeyPrefix, vendorID)
}

// Set 写入合规状态快照
func (c *ComplianceCache) Set(ctx context.Context, entry *ComplianceEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, complianceKey(entry.VendorID), data, complianceTTL).Err()
}

// Get 读取合规状态快照，未命中返回 nil
func (c *ComplianceCache) Get(ctx context.Context, vendorID int64) (*ComplianceEntry, error) {
	data, err := c.client.Get(ctx, complianceKey(vendorID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var entry ComplianceEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// Invalidate 失效合规状态快照
func (c *ComplianceCache) Invalidate(ctx context.Context, vendorID int64) error {
	return c.client.Del(ctx, complianceKey(vendorID)).Err()
}
