package repository

import (
	"context"
	"time"

	"github.com/procurelink/vendor-core/internal/model"
)

// DocumentRepository 文档仓储
type DocumentRepository struct {
	*Repository
}

// NewDocumentRepository 创建文档仓储
func NewDocumentRepository(base *Repository) *DocumentRepository {
	return &DocumentRepository{Repository: base}
}

// CreateType 创建文档类型
func (r *DocumentRepository) CreateType(ctx context.Context, docType *model.DocumentType) error {
	docType.CreatedAt = time.Now().UnixMilli()
	return r.DB(ctx).Create(docType).Error
}

// ListMandatoryTypes 查询全局必备文档类型
func (r *DocumentRepository) ListMandatoryTypes(ctx context.Context) ([]*model.DocumentType, error) {
	var types []*model.DocumentType
	err := r.DB(ctx).
		Where("is_mandatory = ? AND is_active = ?", true, true).
		Order("code ASC").
		Find(&types).Error
	if err != nil {
		return nil, err
	}
	return types, nil
}

// CreateDocument 创建供应商文档
// 同类型的旧文档标记为非当前
func (r *DocumentRepository) CreateDocument(ctx context.Context, doc *model.VendorDocument) error {
	now := time.Now().UnixMilli()
	doc.CreatedAt = now
	doc.UpdatedAt = now
	doc.IsCurrent = true

	return r.Transaction(ctx, func(ctx context.Context) error {
		err := r.DB(ctx).
			Model(&model.VendorDocument{}).
			Where("vendor_id = ? AND type_code = ? AND is_current = ?", doc.VendorID, doc.TypeCode, true).
			Updates(map[string]interface{}{
				"is_current": false,
				"updated_at": now,
			}).Error
		if err != nil {
			return err
		}
		return r.DB(ctx).Create(doc).Error
	})
}

// ListCurrent 查询供应商的全部当前文档
func (r *DocumentRepository) ListCurrent(ctx context.Context, vendorID int64) ([]*model.VendorDocument, error) {
	var docs []*model.VendorDocument
	err := r.DB(ctx).
		Where("vendor_id = ? AND is_current = ?", vendorID, true).
		Order("type_code ASC").
		Find(&docs).Error
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// UpdateStatus 更新文档验证状态
func (r *DocumentRepository) UpdateStatus(ctx context.Context, docID int64, status model.DocumentStatus) error {
	return r.DB(ctx).
		Model(&model.VendorDocument{}).
		Where("id = ?", docID).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now().UnixMilli(),
		}).Error
}
