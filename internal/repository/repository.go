package repository

import (
	"context"

	"gorm.io/gorm"

	"salon-staff/internal/model"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	StaffMember    StaffMemberRepository
	StaffLocation  StaffLocationRepository
	StaffService   StaffServiceRepository
	Invitation     StaffInvitationRepository
	Role           RoleRepository
	Shift          ShiftRepository
	ShiftChangeLog ShiftChangeLogRepository
	Pattern        RecurringPatternRepository
	TimeOff        TimeOffRequestRepository
	Tx             Transactor
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		StaffMember:    NewStaffMemberRepo(db),
		StaffLocation:  NewStaffLocationRepo(db),
		StaffService:   NewStaffServiceRepo(db),
		Invitation:     NewStaffInvitationRepo(db),
		Role:           NewRoleRepo(db),
		Shift:          NewShiftRepo(db),
		ShiftChangeLog: NewShiftChangeLogRepo(db),
		Pattern:        NewRecurringPatternRepo(db),
		TimeOff:        NewTimeOffRequestRepo(db),
		Tx:             &transactor{db: db},
	}
}

// Transactor 事务入口
// fn 收到绑定到同一事务的 Repository，返回错误时整体回滚
type Transactor interface {
	InTx(ctx context.Context, fn func(tx *Repository) error) error
	// WithStaffLock 在事务内持有员工级 advisory lock，
	// 同一员工的“冲突检测 + 写入”串行执行
	WithStaffLock(ctx context.Context, staffMemberID string, fn func(tx *Repository) error) error
}

type transactor struct {
	db *gorm.DB
}

func (t *transactor) InTx(ctx context.Context, fn func(tx *Repository) error) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}

func (t *transactor) WithStaffLock(ctx context.Context, staffMemberID string, fn func(tx *Repository) error) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 事务级锁，提交或回滚时自动释放
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", "staff:"+staffMemberID).Error; err != nil {
			return err
		}
		return fn(NewRepository(tx))
	})
}

// ── 通用作用域 ──

// tenantScope 按商户过滤，并隐式排除已软删除员工名下的数据
func tenantScope(businessID string) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		activeStaff := tx.Session(&gorm.Session{NewDB: true}).
			Model(&model.StaffMember{}).
			Select("staff_member_id").
			Where("business_id = ? AND deleted_at IS NULL", businessID)
		return tx.Where("business_id = ? AND staff_member_id IN (?)", businessID, activeStaff)
	}
}

// softDelete 软删除更新字段
func softDelete(deletedBy string) map[string]interface{} {
	return map[string]interface{}{
		"deleted_by": deletedBy,
		"deleted_at": gorm.Expr("NOW()"),
	}
}
