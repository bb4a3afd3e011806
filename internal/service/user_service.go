package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"campus-attendance/internal/dto"
	"campus-attendance/internal/model"
	"campus-attendance/internal/repository"
	pkgerrors "campus-attendance/pkg/errors"
)

// ── 用户模块业务错误 ──

var (
	ErrUserSelfRoleChange = errors.New("不能修改自己的角色")
	ErrUserSelfDelete     = errors.New("不能删除自己")
	ErrUserSelfDisable    = errors.New("不能停用自己")
	ErrInvalidRole        = errors.New("无效的角色")
	ErrRoleNeedsDept      = errors.New("该角色必须指定院系")
)

// UserService 用户业务接口
type UserService interface {
	GetByID(ctx context.Context, id string) (*dto.UserResponse, error)
	List(ctx context.Context, req *dto.UserListRequest, actor Actor) ([]dto.UserResponse, int64, error)
	Update(ctx context.Context, id string, req *dto.UpdateUserRequest, callerID string) (*dto.UserResponse, error)
	AssignRole(ctx context.Context, id string, req *dto.AssignRoleRequest, callerID string) (*dto.UserResponse, error)
	UpdateStatus(ctx context.Context, id string, req *dto.UpdateUserStatusRequest, callerID string) error
	Delete(ctx context.Context, id string, callerID string) error
	ResetPassword(ctx context.Context, id string, callerID string) (*dto.ResetPasswordResponse, error)
	ParseImportFile(reader io.Reader) ([]ImportUserRow, error)
	ImportUsers(ctx context.Context, rows []ImportUserRow, callerID string) (*dto.ImportUserResponse, error)
}

// ImportUserRow Excel 导入解析后的单行数据
type ImportUserRow struct {
	Row            int
	Name           string
	Email          string
	Phone          string
	DepartmentCode string
	Role           string
}

type userService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewUserService 创建 UserService 实例
func NewUserService(repo *repository.Repository, logger *zap.Logger) UserService {
	return &userService{repo: repo, logger: logger}
}

// ────────────────────── GetByID ──────────────────────

func (s *userService) GetByID(ctx context.Context, id string) (*dto.UserResponse, error) {
	user, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toUserResponse(user)
	return &resp, nil
}

func (s *userService) getUser(ctx context.Context, id string) (*model.User, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return user, nil
}

// ────────────────────── List ──────────────────────

func (s *userService) List(ctx context.Context, req *dto.UserListRequest, actor Actor) ([]dto.UserResponse, int64, error) {
	filter := repository.UserFilter{
		DepartmentID: req.DepartmentID,
		Role:         req.Role,
		Status:       req.Status,
		Keyword:      strings.TrimSpace(req.Keyword),
	}
	// 系主任只能查看本院系
	if actor.Role == model.RoleHOD {
		filter.DepartmentID = actor.DepartmentID
	}

	users, total, err := s.repo.User.List(ctx, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询用户列表失败", zap.Error(err))
		return nil, 0, err
	}

	list := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		list = append(list, toUserResponse(&users[i]))
	}
	return list, total, nil
}

// ────────────────────── Update ──────────────────────

func (s *userService) Update(ctx context.Context, id string, req *dto.UpdateUserRequest, callerID string) (*dto.UserResponse, error) {
	user, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if email != user.Email {
			if _, err := s.repo.User.GetByEmail(ctx, email); err == nil {
				return nil, ErrEmailExists
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, err
			}
			user.Email = email
		}
	}
	if req.DepartmentID != nil {
		if err := s.ensureDepartment(ctx, *req.DepartmentID); err != nil {
			return nil, err
		}
		user.DepartmentID = req.DepartmentID
		user.Department = nil
	}
	user.UpdatedBy = &callerID

	if err := s.repo.User.Update(ctx, user); err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, ErrEmailExists
		}
		s.logger.Error("更新用户失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	resp := toUserResponse(user)
	return &resp, nil
}

func (s *userService) ensureDepartment(ctx context.Context, id string) error {
	if _, err := s.repo.Department.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDepartmentNotFound
		}
		s.logger.Error("查询院系失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── AssignRole ──────────────────────

func (s *userService) AssignRole(ctx context.Context, id string, req *dto.AssignRoleRequest, callerID string) (*dto.UserResponse, error) {
	if id == callerID {
		return nil, ErrUserSelfRoleChange
	}
	role, ok := model.ParseRole(req.Role)
	if !ok {
		return nil, ErrInvalidRole
	}

	user, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}

	deptID := req.DepartmentID
	if deptID != nil {
		if err := s.ensureDepartment(ctx, *deptID); err != nil {
			return nil, err
		}
	}
	if (role == model.RoleHOD || role.IsTeaching()) && deptID == nil && user.DepartmentID == nil {
		return nil, ErrRoleNeedsDept
	}

	if err := s.repo.User.UpdateRole(ctx, id, role, deptID, callerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("分配角色失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	s.logger.Info("用户角色变更",
		zap.String("user_id", id),
		zap.String("from", string(user.Role)),
		zap.String("to", string(role)),
		zap.String("by", callerID),
	)

	user.Role = role
	if deptID != nil {
		user.DepartmentID = deptID
		user.Department = nil
	}
	resp := toUserResponse(user)
	return &resp, nil
}

// ────────────────────── UpdateStatus ──────────────────────

func (s *userService) UpdateStatus(ctx context.Context, id string, req *dto.UpdateUserStatusRequest, callerID string) error {
	if id == callerID && req.Status != model.UserStatusActive {
		return ErrUserSelfDisable
	}
	user, err := s.getUser(ctx, id)
	if err != nil {
		return err
	}
	user.Status = req.Status
	user.UpdatedBy = &callerID
	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("更新用户状态失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── Delete ──────────────────────

func (s *userService) Delete(ctx context.Context, id string, callerID string) error {
	if id == callerID {
		return ErrUserSelfDelete
	}
	if _, err := s.getUser(ctx, id); err != nil {
		return err
	}
	if err := s.repo.User.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("删除用户失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── ResetPassword ──────────────────────

func (s *userService) ResetPassword(ctx context.Context, id string, callerID string) (*dto.ResetPasswordResponse, error) {
	user, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}

	// 生成 10 位随机密码（保证包含字母和数字）
	tempPassword, err := generateTempPassword(10)
	if err != nil {
		s.logger.Error("生成临时密码失败", zap.Error(err))
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(tempPassword), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return nil, err
	}

	user.PasswordHash = string(hash)
	user.MustChangePassword = true
	user.UpdatedBy = &callerID

	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("重置密码失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return &dto.ResetPasswordResponse{TempPassword: tempPassword}, nil
}

const passwordLetters = "abcdefghjkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ"
const passwordDigits = "23456789"

func generateTempPassword(n int) (string, error) {
	if n < 2 {
		n = 2
	}
	all := passwordLetters + passwordDigits
	buf := make([]byte, n)
	for i := range buf {
		charset := all
		switch i {
		case 0:
			charset = passwordLetters
		case 1:
			charset = passwordDigits
		}
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		buf[i] = charset[idx.Int64()]
	}
	return string(buf), nil
}

// ────────────────────── ParseImportFile ──────────────────────

const maxImportRows = 1000

var (
	ErrImportNoData      = errors.New("Excel文件无数据行（第一行为表头）")
	ErrImportTooManyRows = fmt.Errorf("数据行数超过上限 %d 行", maxImportRows)
	ErrImportBadHeader   = errors.New("Excel表头缺少必要列（姓名/邮箱/院系）")
)

// ParseImportFile 解析导入 Excel 文件，返回解析后的行数据
func (s *userService) ParseImportFile(reader io.Reader) ([]ImportUserRow, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("无法解析Excel文件: %w", err)
	}
	defer f.Close()

	excelRows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("读取工作表失败: %w", err)
	}
	if len(excelRows) < 2 {
		return nil, ErrImportNoData
	}

	// 解析表头（支持灵活列序）
	colIndex := parseHeaderIndex(excelRows[0])
	if colIndex["name"] < 0 || colIndex["email"] < 0 || colIndex["department"] < 0 {
		return nil, ErrImportBadHeader
	}

	pick := func(row []string, key string) string {
		idx := colIndex[key]
		if idx < 0 || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var rows []ImportUserRow
	for i := 1; i < len(excelRows); i++ {
		row := excelRows[i]
		item := ImportUserRow{
			Row:            i + 1,
			Name:           pick(row, "name"),
			Email:          pick(row, "email"),
			Phone:          pick(row, "phone"),
			DepartmentCode: pick(row, "department"),
			Role:           pick(row, "role"),
		}
		// 跳过全空行
		if item.Name == "" && item.Email == "" && item.DepartmentCode == "" {
			continue
		}
		rows = append(rows, item)
	}

	if len(rows) == 0 {
		return nil, ErrImportNoData
	}
	if len(rows) > maxImportRows {
		return nil, ErrImportTooManyRows
	}
	return rows, nil
}

// parseHeaderIndex 解析 Excel 表头，返回列名 -> 列索引映射
func parseHeaderIndex(header []string) map[string]int {
	idx := map[string]int{"name": -1, "email": -1, "phone": -1, "department": -1, "role": -1}
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "姓名", "name":
			idx["name"] = i
		case "邮箱", "email":
			idx["email"] = i
		case "电话", "phone":
			idx["phone"] = i
		case "院系", "院系代码", "department", "department_code":
			idx["department"] = i
		case "角色", "role":
			idx["role"] = i
		}
	}
	return idx
}

// ────────────────────── ImportUsers ──────────────────────

func (s *userService) ImportUsers(ctx context.Context, rows []ImportUserRow, callerID string) (*dto.ImportUserResponse, error) {
	resp := &dto.ImportUserResponse{Total: len(rows)}

	depts, err := s.repo.Department.ListAll(ctx)
	if err != nil {
		s.logger.Error("加载院系列表失败", zap.Error(err))
		return nil, err
	}
	deptByCode := make(map[string]string, len(depts))
	for _, d := range depts {
		deptByCode[strings.ToUpper(d.Code)] = d.DepartmentID
	}

	fail := func(row int, reason string) {
		resp.Failed++
		resp.Errors = append(resp.Errors, dto.ImportUserError{Row: row, Reason: reason})
	}

	// 第一阶段：数据预校验（不接触数据库写操作）
	type validatedRow struct {
		user     *model.User
		row      int
		password string
	}
	var valid []validatedRow
	seen := make(map[string]bool)

	for _, row := range rows {
		if row.Name == "" || row.Email == "" || row.DepartmentCode == "" {
			fail(row.Row, "必填字段为空")
			continue
		}
		email := strings.ToLower(row.Email)
		if seen[email] {
			fail(row.Row, fmt.Sprintf("文件内邮箱重复: %s", email))
			continue
		}
		deptID, ok := deptByCode[strings.ToUpper(row.DepartmentCode)]
		if !ok {
			fail(row.Row, fmt.Sprintf("院系不存在: %s", row.DepartmentCode))
			continue
		}
		role := model.RolePending
		if row.Role != "" {
			r, ok := model.ParseRole(row.Role)
			if !ok || r == model.RoleAdmin {
				fail(row.Row, fmt.Sprintf("无效的角色: %s", row.Role))
				continue
			}
			role = r
		}
		if _, err := s.repo.User.GetByEmail(ctx, email); err == nil {
			fail(row.Row, fmt.Sprintf("邮箱已存在: %s", email))
			continue
		}

		pwd, err := generateTempPassword(10)
		if err != nil {
			fail(row.Row, "生成初始密码失败")
			continue
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
		if err != nil {
			fail(row.Row, "密码哈希失败")
			continue
		}

		seen[email] = true
		id := deptID
		user := &model.User{
			Name:               row.Name,
			Email:              email,
			Phone:              row.Phone,
			PasswordHash:       string(hash),
			Role:               role,
			DepartmentID:       &id,
			Status:             model.UserStatusActive,
			MustChangePassword: true,
		}
		user.CreatedBy = &callerID
		user.UpdatedBy = &callerID
		valid = append(valid, validatedRow{user: user, row: row.Row, password: pwd})
	}

	// 第二阶段：在事务中批量创建所有通过校验的用户
	if len(valid) > 0 {
		err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
			for _, v := range valid {
				if err := tx.User.Create(ctx, v.user); err != nil {
					return fmt.Errorf("第 %d 行: %w", v.row, err)
				}
			}
			return nil
		})
		if err != nil {
			s.logger.Error("批量导入用户失败", zap.Error(err))
			return nil, err
		}
		for _, v := range valid {
			resp.Created++
			resp.Accounts = append(resp.Accounts, dto.ImportedAccount{Row: v.row, Email: v.user.Email, TempPassword: v.password})
		}
	}

	s.logger.Info("批量导入用户完成",
		zap.Int("total", resp.Total),
		zap.Int("created", resp.Created),
		zap.Int("failed", resp.Failed),
	)
	return resp, nil
}

// ── 转换 ──

func toUserResponse(u *model.User) dto.UserResponse {
	resp := dto.UserResponse{
		ID:                 u.UserID,
		Name:               u.Name,
		Email:              u.Email,
		Phone:              u.Phone,
		Role:               string(u.Role),
		Status:             u.Status,
		MustChangePassword: u.MustChangePassword,
	}
	if u.Department != nil {
		resp.Department = &dto.DepartmentResponse{
			ID:   u.Department.DepartmentID,
			Code: u.Department.Code,
			Name: u.Department.Name,
		}
	}
	return resp
}
